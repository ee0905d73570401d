package domain

import (
	"errors"
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Rating -output=rating_string.go

var ErrInvalidRating = errors.New("invalid rating")

// Rating is the 0..5 star scale. The ordinal is the integer value.
type Rating int

const (
	NotRated Rating = iota
	OneStar
	TwoStar
	ThreeStar
	FourStar
	FiveStar
)

const starGlyph = "★"

func RatingFromOrdinal(n int) (Rating, error) {
	if n < int(NotRated) || n > int(FiveStar) {
		return NotRated, fmt.Errorf("%w: ordinal %d out of range [0,5]", ErrInvalidRating, n)
	}
	return Rating(n), nil
}

func (r Rating) Ordinal() int { return int(r) }

func (r Rating) Valid() bool { return r >= NotRated && r <= FiveStar }

// Stars renders the rating as filled star glyphs; NotRated renders empty.
func (r Rating) Stars() string {
	if !r.Valid() {
		return ""
	}
	return strings.Repeat(starGlyph, int(r))
}

// AverageRating rounds the mean of the review ordinals half-up.
// An empty slice yields NotRated.
func AverageRating(reviews []Review) Rating {
	if len(reviews) == 0 {
		return NotRated
	}
	sum := 0
	for _, rv := range reviews {
		sum += rv.Rating.Ordinal()
	}
	n := len(reviews)
	// floor(sum/n + 0.5) without floating point.
	return Rating((2*sum + n) / (2 * n))
}
