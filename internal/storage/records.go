package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MiniCatalog/internal/domain"
)

var ErrParse = errors.New("parse error")

const (
	kindNonPerishable = "D"
	kindPerishable    = "F"
)

// Codec reads and writes the positional line records of the data directory.
//
// Product: type, id, name, price, rating ordinal[, best-before (F only)]
// Review:  rating ordinal, comments
//
// Review comments may contain the separator; product names may not.
type Codec struct {
	Sep string
}

func (c Codec) ParseProduct(line string) (domain.Product, error) {
	line = strings.TrimRight(line, "\r\n")
	f := strings.Split(line, c.Sep)
	if len(f) < 5 {
		return domain.Product{}, fmt.Errorf("%w: product %q: want at least 5 fields, got %d", ErrParse, line, len(f))
	}

	id, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %q: id: %w", ErrParse, line, err)
	}
	name := f[2]
	price, err := decimal.NewFromString(strings.TrimSpace(f[3]))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %q: price: %w", ErrParse, line, err)
	}
	rating, err := parseRating(f[4])
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %q: %w", ErrParse, line, err)
	}

	var p domain.Product
	switch strings.TrimSpace(f[0]) {
	case kindNonPerishable:
		p, err = domain.NewNonPerishable(id, name, price, rating)
	case kindPerishable:
		if len(f) < 6 {
			return domain.Product{}, fmt.Errorf("%w: product %q: missing best-before date", ErrParse, line)
		}
		bestBefore, perr := time.Parse(time.DateOnly, strings.TrimSpace(f[5]))
		if perr != nil {
			return domain.Product{}, fmt.Errorf("%w: product %q: best-before: %w", ErrParse, line, perr)
		}
		p, err = domain.NewPerishable(id, name, price, rating, bestBefore)
	default:
		return domain.Product{}, fmt.Errorf("%w: product %q: unknown type %q", ErrParse, line, f[0])
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %q: %w", ErrParse, line, err)
	}
	return p, nil
}

func (c Codec) ParseReview(line string) (domain.Review, error) {
	line = strings.TrimRight(line, "\r\n")
	f := strings.SplitN(line, c.Sep, 2)
	if len(f) != 2 {
		return domain.Review{}, fmt.Errorf("%w: review %q: want 2 fields", ErrParse, line)
	}
	rating, err := parseRating(f[0])
	if err != nil {
		return domain.Review{}, fmt.Errorf("%w: review %q: %w", ErrParse, line, err)
	}
	return domain.Review{Rating: rating, Comments: f[1]}, nil
}

func (c Codec) FormatProduct(p domain.Product) (string, error) {
	if strings.Contains(p.Name, c.Sep) || strings.ContainsAny(p.Name, "\r\n") {
		return "", fmt.Errorf("product %d: name %q cannot be stored with separator %q", p.ID, p.Name, c.Sep)
	}

	fields := []string{
		"",
		strconv.Itoa(p.ID),
		p.Name,
		p.Price.String(),
		strconv.Itoa(p.Rating.Ordinal()),
	}
	switch p.Kind {
	case domain.NonPerishable:
		fields[0] = kindNonPerishable
	case domain.Perishable:
		fields[0] = kindPerishable
		fields = append(fields, p.BestBefore().Format(time.DateOnly))
	default:
		return "", fmt.Errorf("product %d: unknown kind %v", p.ID, p.Kind)
	}
	return strings.Join(fields, c.Sep), nil
}

func (c Codec) FormatReview(r domain.Review) (string, error) {
	if strings.ContainsAny(r.Comments, "\r\n") {
		return "", fmt.Errorf("review comments must be a single line")
	}
	return strconv.Itoa(r.Rating.Ordinal()) + c.Sep + r.Comments, nil
}

func parseRating(s string) (domain.Rating, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return domain.NotRated, fmt.Errorf("rating: %w", err)
	}
	return domain.RatingFromOrdinal(n)
}
