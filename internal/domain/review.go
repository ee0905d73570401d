package domain

import "cmp"

type Review struct {
	Rating   Rating
	Comments string
}

func NewReview(r Rating, comments string) (Review, error) {
	if !r.Valid() {
		return Review{}, ErrInvalidRating
	}
	return Review{Rating: r, Comments: comments}, nil
}

// CompareReviews orders reviews by rating, highest first.
func CompareReviews(a, b Review) int {
	return cmp.Compare(b.Rating, a.Rating)
}
