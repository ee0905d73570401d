// Package i18n renders catalog values as localized display text.
package i18n

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v3"

	"MiniCatalog/internal/domain"
)

//go:embed bundles.yaml
var bundlesYAML []byte

type bundle struct {
	Product    string `yaml:"product"`
	Review     string `yaml:"review"`
	NoReviews  string `yaml:"no_reviews"`
	Food       string `yaml:"food"`
	Drink      string `yaml:"drink"`
	Money      string `yaml:"money"`
	Currency   string `yaml:"currency"`
	DateLayout string `yaml:"date_layout"`
}

type bundleFile struct {
	Default string            `yaml:"default"`
	Locales map[string]bundle `yaml:"locales"`
}

// Formatter renders products, reviews and money for one locale.
// It holds no mutable state and is safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	res     bundle
	group   string
	point   string
}

func newFormatter(tag language.Tag, res bundle) *Formatter {
	f := &Formatter{tag: tag, printer: message.NewPrinter(tag), res: res}
	f.group, f.point = numberSymbols(f.printer)
	return f
}

// numberSymbols reads the locale's grouping and decimal separators off a
// rendered sample, 1234.5.
func numberSymbols(p *message.Printer) (group, point string) {
	sample := strings.TrimPrefix(p.Sprint(number.Decimal(1234.5, number.Scale(1))), "1")
	i := strings.Index(sample, "234")
	if i < 0 {
		return ",", "."
	}
	return sample[:i], strings.TrimSuffix(sample[i+len("234"):], "5")
}

func (f *Formatter) Tag() string { return f.tag.String() }

func (f *Formatter) FormatProduct(p domain.Product) string {
	return f.printer.Sprintf(f.res.Product,
		p.Name,
		f.FormatMoney(p.Price),
		p.Rating.Stars(),
		f.FormatDate(p.BestBefore()),
		f.typeLabel(p.Kind))
}

func (f *Formatter) FormatReview(r domain.Review) string {
	return f.printer.Sprintf(f.res.Review, r.Rating.Stars(), r.Comments)
}

func (f *Formatter) FormatMoney(d decimal.Decimal) string {
	return f.printer.Sprintf(f.res.Money, f.res.Currency, f.formatAmount(d))
}

// formatAmount renders d with two decimals, grouping thousands with the
// locale's separators. Digits come straight from the decimal, so large
// amounts stay exact.
func (f *Formatter) formatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(c)
	}
	b.WriteString(f.point)
	b.WriteString(frac)
	return b.String()
}

func (f *Formatter) FormatDate(t time.Time) string {
	return t.Format(f.res.DateLayout)
}

func (f *Formatter) NoReviews() string { return f.res.NoReviews }

func (f *Formatter) typeLabel(k domain.Kind) string {
	switch k {
	case domain.Perishable:
		return f.res.Food
	case domain.NonPerishable:
		return f.res.Drink
	default:
		return ""
	}
}

// Registry holds one Formatter per supported locale.
type Registry struct {
	byTag map[string]*Formatter
	def   *Formatter
}

func NewRegistry() (*Registry, error) {
	return parseRegistry(bundlesYAML)
}

func parseRegistry(data []byte) (*Registry, error) {
	var bf bundleFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse locale bundles: %w", err)
	}

	reg := &Registry{byTag: make(map[string]*Formatter, len(bf.Locales))}
	for name, res := range bf.Locales {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale bundle %q: %w", name, err)
		}
		if res.Product == "" || res.Review == "" || res.Money == "" || res.DateLayout == "" {
			return nil, fmt.Errorf("locale bundle %q is incomplete", name)
		}
		reg.byTag[tag.String()] = newFormatter(tag, res)
	}

	def, ok := reg.byTag[bf.Default]
	if !ok {
		return nil, fmt.Errorf("default locale %q has no bundle", bf.Default)
	}
	reg.def = def
	return reg, nil
}

// Formatter returns the formatter for languageTag, or the default locale's
// formatter when the tag is malformed or unsupported.
func (r *Registry) Formatter(languageTag string) *Formatter {
	tag, err := language.Parse(languageTag)
	if err != nil {
		return r.def
	}
	if f, ok := r.byTag[tag.String()]; ok {
		return f
	}
	return r.def
}

func (r *Registry) Default() *Formatter { return r.def }

func (r *Registry) SupportedLocales() []string {
	out := make([]string, 0, len(r.byTag))
	for tag := range r.byTag {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}
