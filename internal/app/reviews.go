package app

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"wanparadise/internal/rating"
	"wanparadise/pkg/domain"
)

// ReviewPage is the view-model of a store's review listing.
type ReviewPage struct {
	StoreID       int             `json:"store_id"`
	StoreName     string          `json:"store_name"`
	Reviews       []domain.Review `json:"reviews"`
	ReviewCount   int             `json:"review_count"`
	AverageRating string          `json:"average_rating"`
	Stars         int             `json:"stars"`
}

// ReviewSubmission is the page state after a successful submission: the
// created review leads the list and the aggregate reflects it.
type ReviewSubmission struct {
	Created       domain.Review   `json:"created"`
	Reviews       []domain.Review `json:"reviews"`
	ReviewCount   int             `json:"review_count"`
	AverageRating string          `json:"average_rating"`
	Stars         int             `json:"stars"`
}

// StoreReviews builds the review listing for one store. The store name is
// fetched alongside the review collection.
func (a *App) StoreReviews(ctx context.Context, storeID int) (ReviewPage, error) {
	var (
		name    string
		reviews []domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		name, err = a.api.GetStoreName(gctx, storeID)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = a.api.ListStoreReviews(gctx, storeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ReviewPage{}, err
	}

	avg := rating.Average(reviews)
	return ReviewPage{
		StoreID:       storeID,
		StoreName:     name,
		Reviews:       reviews,
		ReviewCount:   len(reviews),
		AverageRating: rating.FormatAverage(avg),
		Stars:         rating.Stars(avg),
	}, nil
}

// SubmitReview validates and submits a review. Invalid input is rejected
// before any network call. On success the created review is placed at the
// head of the store's list and the aggregate is recomputed.
func (a *App) SubmitReview(ctx context.Context, storeID, ratingValue int, comment string) (ReviewSubmission, error) {
	if ratingValue < 1 || ratingValue > rating.Max {
		return ReviewSubmission{}, ErrRatingRequired
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ReviewSubmission{}, ErrCommentRequired
	}

	created, err := a.api.CreateReview(ctx, storeID, ratingValue, comment)
	if err != nil {
		return ReviewSubmission{}, err
	}

	all, err := a.api.ListReviews(ctx)
	if err != nil {
		return ReviewSubmission{}, err
	}
	reviews := placeAtHead(filterReviews(all, storeID), created)

	avg := rating.Average(reviews)
	return ReviewSubmission{
		Created:       created,
		Reviews:       reviews,
		ReviewCount:   len(reviews),
		AverageRating: rating.FormatAverage(avg),
		Stars:         rating.Stars(avg),
	}, nil
}

// placeAtHead puts the created review first, regardless of where the
// upstream listing ordered it.
func placeAtHead(reviews []domain.Review, created domain.Review) []domain.Review {
	out := make([]domain.Review, 0, len(reviews)+1)
	out = append(out, created)
	for _, r := range reviews {
		if created.ID != 0 && r.ID == created.ID {
			continue
		}
		out = append(out, r)
	}
	return out
}
