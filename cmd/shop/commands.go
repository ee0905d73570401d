package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/domain"
)

// errIDTaken: the data directory holds one product file per id.
var errIDTaken = errors.New("product id already used by another product")

func commands(st *state) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list",
			Usage: "print products",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "sort", Value: "id", Usage: "id, rating or price"},
				&cli.StringFlag{Name: "max-price", Usage: "only products cheaper than this"},
			},
			Action: func(c *cli.Context) error { return st.shop.list(c) },
		},
		{
			Name:      "show",
			Usage:     "print one product with its reviews",
			ArgsUsage: "<id>",
			Action:    func(c *cli.Context) error { return st.shop.show(c) },
		},
		{
			Name:  "create",
			Usage: "add a product",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "id", Required: true},
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "price", Required: true},
				&cli.IntFlag{Name: "rating", Usage: "0-5"},
				&cli.StringFlag{Name: "best-before", Usage: "YYYY-MM-DD; makes the product perishable"},
			},
			Action: func(c *cli.Context) error { return st.shop.create(c) },
		},
		{
			Name:      "review",
			Usage:     "review a product",
			ArgsUsage: "<id> <rating 0-5> <comments...>",
			Action:    func(c *cli.Context) error { return st.shop.review(c) },
		},
		{
			Name:      "report",
			Usage:     "write a product report file",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "client", Usage: "client tag in the report file name (random if empty)"},
			},
			Action: func(c *cli.Context) error { return st.shop.report(c) },
		},
		{
			Name:   "discounts",
			Usage:  "print discount totals per rating",
			Action: func(c *cli.Context) error { return st.shop.discounts(c) },
		},
		{
			Name:   "dump",
			Usage:  "archive the catalog to a snapshot and clear it",
			Action: func(c *cli.Context) error { return st.shop.pm.Dump(c.Context) },
		},
		{
			Name:   "restore",
			Usage:  "load the latest snapshot and save it to the data directory",
			Action: func(c *cli.Context) error { return st.shop.restore(c) },
		},
		{
			Name:  "locales",
			Usage: "list supported locales",
			Action: func(c *cli.Context) error {
				_, err := fmt.Fprintln(c.App.Writer, strings.Join(st.shop.locales.SupportedLocales(), "\n"))
				return err
			},
		},
		{
			Name:   "stats",
			Usage:  "print operation counters",
			Action: func(c *cli.Context) error { return st.shop.stats(c) },
		},
		{
			Name:   "demo",
			Usage:  "run the sample tea scenario",
			Action: func(c *cli.Context) error { return st.shop.demo(c) },
		},
		{
			Name:   "shell",
			Usage:  "interactive prompt sharing one in-memory catalog",
			Action: func(c *cli.Context) error { return runShell(c, st) },
		},
	}
}

func (s *shop) locale(c *cli.Context) string {
	if c.IsSet("locale") {
		return c.String("locale")
	}
	return s.cfg.Locale
}

func (s *shop) list(c *cli.Context) error {
	var order catalog.Order
	switch c.String("sort") {
	case "id", "":
		order = catalog.ByID
	case "rating":
		order = catalog.ByRating
	case "price":
		order = catalog.ByPrice
	default:
		return fmt.Errorf("unknown sort %q", c.String("sort"))
	}

	var filter catalog.Filter
	if v := c.String("max-price"); v != "" {
		limit, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("max-price: %w", err)
		}
		filter = catalog.PriceBelow(limit)
	}

	_, err := fmt.Fprint(c.App.Writer, s.pm.PrintProducts(filter, order, s.locale(c)))
	return err
}

func (s *shop) show(c *cli.Context) error {
	id, err := intArg(c, 0, "id")
	if err != nil {
		return err
	}
	text, err := s.pm.RenderProductReport(id, s.locale(c))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.App.Writer, text)
	return err
}

func (s *shop) create(c *cli.Context) error {
	price, err := decimal.NewFromString(c.String("price"))
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	rating, err := domain.RatingFromOrdinal(c.Int("rating"))
	if err != nil {
		return err
	}

	if existing, err := s.pm.FindProduct(c.Int("id")); err == nil && existing.Name != c.String("name") {
		return fmt.Errorf("%w: %d is %q", errIDTaken, existing.ID, existing.Name)
	}

	var p domain.Product
	if bb := c.String("best-before"); bb != "" {
		date, perr := time.Parse(time.DateOnly, bb)
		if perr != nil {
			return fmt.Errorf("best-before: %w", perr)
		}
		p, err = s.pm.CreatePerishable(c.Int("id"), c.String("name"), price, rating, date)
	} else {
		p, err = s.pm.CreateProduct(c.Int("id"), c.String("name"), price, rating)
	}
	if err != nil {
		return err
	}
	if err := s.persist(c, p.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, s.locales.Formatter(s.locale(c)).FormatProduct(p))
	return err
}

func (s *shop) review(c *cli.Context) error {
	id, err := intArg(c, 0, "id")
	if err != nil {
		return err
	}
	ordinal, err := intArg(c, 1, "rating")
	if err != nil {
		return err
	}
	rating, err := domain.RatingFromOrdinal(ordinal)
	if err != nil {
		return err
	}
	comments := strings.Join(c.Args().Slice()[2:], " ")

	p, err := s.pm.ReviewProduct(id, rating, comments)
	if err != nil {
		return err
	}
	if err := s.persist(c, p.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, s.locales.Formatter(s.locale(c)).FormatProduct(p))
	return err
}

func (s *shop) report(c *cli.Context) error {
	id, err := intArg(c, 0, "id")
	if err != nil {
		return err
	}
	client := c.String("client")
	if client == "" {
		client = uuid.NewString()
	}
	if err := s.pm.PrintProductReport(c.Context, id, s.locale(c), client); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, s.files.ReportPath(id, client))
	return err
}

func (s *shop) discounts(c *cli.Context) error {
	totals := s.pm.Discounts(s.locale(c))
	labels := make([]string, 0, len(totals))
	for label := range totals {
		labels = append(labels, label)
	}
	// Fewer stars first; the empty label is "not rated".
	slices.SortFunc(labels, func(a, b string) int { return len(a) - len(b) })

	for _, label := range labels {
		if _, err := fmt.Fprintf(c.App.Writer, "%s\t%s\n", label, totals[label]); err != nil {
			return err
		}
	}
	return nil
}

func (s *shop) restore(c *cli.Context) error {
	if err := s.pm.Restore(c.Context); err != nil {
		return err
	}
	for _, e := range s.pm.Entries() {
		if err := s.files.Save(c.Context, e); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(c.App.Writer, "restored %d products\n", s.pm.Len())
	return err
}

// persist writes the current state of product id back to the data directory.
func (s *shop) persist(c *cli.Context, id int) error {
	p, err := s.pm.FindProduct(id)
	if err != nil {
		return err
	}
	reviews, err := s.pm.Reviews(id)
	if err != nil {
		return err
	}
	return s.files.Save(c.Context, domain.Entry{Product: p, Reviews: reviews})
}

func (s *shop) stats(c *cli.Context) error {
	families, err := s.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			if _, err := fmt.Fprintf(c.App.Writer, "%s{%s} %v\n",
				mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()); err != nil {
				return err
			}
		}
	}
	return nil
}

// demo replays the sample session: create Tea, report, review, report.
func (s *shop) demo(c *cli.Context) error {
	loc := s.locale(c)
	w := c.App.Writer

	tea, err := s.pm.CreateProduct(101, "Tea", decimal.RequireFromString("1.99"), domain.NotRated)
	if err != nil {
		return err
	}
	text, err := s.pm.RenderProductReport(tea.ID, loc)
	if err != nil {
		return err
	}
	fmt.Fprint(w, text)

	if _, err := s.pm.ReviewProduct(tea.ID, domain.FourStar, "Nice hot cup of tea"); err != nil {
		return err
	}
	text, err = s.pm.RenderProductReport(tea.ID, loc)
	if err != nil {
		return err
	}
	fmt.Fprint(w, text)

	for label, total := range s.pm.Discounts(loc) {
		fmt.Fprintf(w, "%s\t%s\n", label, total)
	}
	return nil
}

func intArg(c *cli.Context, i int, name string) (int, error) {
	if c.NArg() <= i {
		return 0, fmt.Errorf("missing <%s>", name)
	}
	n, err := strconv.Atoi(c.Args().Get(i))
	if err != nil {
		return 0, fmt.Errorf("<%s>: %w", name, err)
	}
	return n, nil
}
