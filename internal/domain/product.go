package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidProduct = errors.New("invalid product")

// DiscountRate is applied to the price to compute Product.Discount.
var DiscountRate = decimal.NewFromFloat(0.1)

// Kind tags the product variant.
type Kind int

const (
	// NonPerishable products have no stored best-before date.
	NonPerishable Kind = iota
	// Perishable products carry a best-before date.
	Perishable
)

func (k Kind) String() string {
	switch k {
	case NonPerishable:
		return "non-perishable"
	case Perishable:
		return "perishable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Identity is what makes two products the same catalog entry.
type Identity struct {
	ID   int
	Name string
}

// Product is a value; mutation produces a new Product via ApplyRating.
type Product struct {
	ID     int
	Name   string
	Price  decimal.Decimal
	Rating Rating
	Kind   Kind

	bestBefore time.Time
}

func NewNonPerishable(id int, name string, price decimal.Decimal, rating Rating) (Product, error) {
	p := Product{ID: id, Name: name, Price: price, Rating: rating, Kind: NonPerishable}
	if err := p.validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

func NewPerishable(id int, name string, price decimal.Decimal, rating Rating, bestBefore time.Time) (Product, error) {
	if bestBefore.IsZero() {
		return Product{}, fmt.Errorf("%w: perishable product %d needs a best-before date", ErrInvalidProduct, id)
	}
	p := Product{ID: id, Name: name, Price: price, Rating: rating, Kind: Perishable, bestBefore: civilDate(bestBefore)}
	if err := p.validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (p Product) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product %d has an empty name", ErrInvalidProduct, p.ID)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product %d has negative price %s", ErrInvalidProduct, p.ID, p.Price)
	}
	if !p.Rating.Valid() {
		return fmt.Errorf("%w: product %d: %w", ErrInvalidProduct, p.ID, ErrInvalidRating)
	}
	return nil
}

func (p Product) Identity() Identity {
	return Identity{ID: p.ID, Name: p.Name}
}

// Equal compares identities only; price, rating and dates are ignored.
func (p Product) Equal(o Product) bool {
	return p.Identity() == o.Identity()
}

// Discount is Price * DiscountRate rounded half-up to cents.
func (p Product) Discount() decimal.Decimal {
	return p.Price.Mul(DiscountRate).Round(2)
}

// BestBefore returns the stored date for perishable products and today's
// date for non-perishable ones.
func (p Product) BestBefore() time.Time {
	if p.Kind == Perishable {
		return p.bestBefore
	}
	return civilDate(time.Now())
}

// ApplyRating returns a copy of p with the rating replaced.
func (p Product) ApplyRating(r Rating) Product {
	p.Rating = r
	return p
}

func (p Product) String() string {
	return fmt.Sprintf("%d, %s, %s, %s, %s, %s",
		p.ID, p.Name, p.Price.StringFixed(2), p.Discount().StringFixed(2),
		p.Rating.Stars(), p.BestBefore().Format(time.DateOnly))
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Entry pairs a product with its review history.
type Entry struct {
	Product Product
	Reviews []Review
}
