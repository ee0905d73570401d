package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MiniCatalog/internal/domain"
	"MiniCatalog/pkg/kit"
)

type ReportWriter interface {
	WriteReport(ctx context.Context, id int, client, text string) error
}

// Filter selects products; a nil Filter selects everything.
type Filter func(domain.Product) bool

// Order compares two products the way slices.SortFunc expects.
type Order func(a, b domain.Product) int

func ByID(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) }

// ByRating orders highest rating first, then by id.
func ByRating(a, b domain.Product) int {
	if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
		return c
	}
	return ByID(a, b)
}

func ByPrice(a, b domain.Product) int {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c
	}
	return ByID(a, b)
}

func PriceBelow(limit decimal.Decimal) Filter {
	return func(p domain.Product) bool { return p.Price.LessThan(limit) }
}

// PrintProducts renders the filtered, sorted catalog, one product per line.
func (m *Manager) PrintProducts(filter Filter, order Order, languageTag string) string {
	start := time.Now()
	f := m.locales.Formatter(languageTag)

	products := m.products()
	if filter != nil {
		products = slices.DeleteFunc(products, func(p domain.Product) bool { return !filter(p) })
	}
	if order == nil {
		order = ByID
	}
	slices.SortStableFunc(products, order)

	var b strings.Builder
	for _, p := range products {
		b.WriteString(f.FormatProduct(p))
		b.WriteByte('\n')
	}
	m.metrics.Observe("print_products", kit.StatusOK, start)
	return b.String()
}

// Discounts sums product discounts per star label and formats each total
// as money in the given locale.
func (m *Manager) Discounts(languageTag string) map[string]string {
	start := time.Now()
	f := m.locales.Formatter(languageTag)

	totals := map[string]decimal.Decimal{}
	for _, p := range m.products() {
		label := p.Rating.Stars()
		totals[label] = totals[label].Add(p.Discount())
	}

	out := make(map[string]string, len(totals))
	for label, sum := range totals {
		out[label] = f.FormatMoney(sum)
	}
	m.metrics.Observe("discounts", kit.StatusOK, start)
	return out
}

// RenderProductReport formats one product and its reviews, best rated first.
func (m *Manager) RenderProductReport(id int, languageTag string) (string, error) {
	m.mu.RLock()
	rec, ok := m.lookup(id)
	var (
		p       domain.Product
		reviews []domain.Review
	)
	if ok {
		p = rec.product
		reviews = slices.Clone(rec.reviews)
	}
	m.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	f := m.locales.Formatter(languageTag)
	slices.SortStableFunc(reviews, domain.CompareReviews)

	var b strings.Builder
	b.WriteString(f.FormatProduct(p))
	b.WriteByte('\n')
	if len(reviews) == 0 {
		b.WriteString(f.NoReviews())
		b.WriteByte('\n')
	}
	for _, r := range reviews {
		b.WriteString(f.FormatReview(r))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// PrintProductReport renders the report for id and hands it to the report
// writer under the client tag. The catalog lock is released before writing.
func (m *Manager) PrintProductReport(ctx context.Context, id int, languageTag, client string) error {
	start := time.Now()

	text, err := m.RenderProductReport(id, languageTag)
	if err != nil {
		m.log.Info("error printing product report", zap.Error(err))
		m.metrics.Observe("report", kit.StatusNotFound, start)
		return err
	}
	if m.reports == nil {
		m.metrics.Observe("report", kit.StatusError, start)
		return fmt.Errorf("no report writer configured")
	}

	if err := m.reports.WriteReport(ctx, id, client, text); err != nil {
		m.log.Error("error printing product report",
			zap.Int("id", id), zap.String("client", client), zap.Error(err))
		m.metrics.Observe("report", kit.StatusError, start)
		return fmt.Errorf("write report for product %d: %w", id, err)
	}
	m.metrics.Observe("report", kit.StatusOK, start)
	return nil
}
