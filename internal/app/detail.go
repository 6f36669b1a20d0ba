package app

import (
	"context"

	"golang.org/x/sync/errgroup"
	"wanparadise/internal/rating"
	"wanparadise/pkg/domain"
)

// StoreDetailPage is the view-model of a store detail page.
type StoreDetailPage struct {
	Category      string          `json:"category"`
	CategoryLabel string          `json:"category_label"`
	Store         domain.Store    `json:"store"`
	Reviews       []domain.Review `json:"reviews"`
	ReviewCount   int             `json:"review_count"`
	AverageRating string          `json:"average_rating"`
	Stars         int             `json:"stars"`
	IsFavorite    bool            `json:"is_favorite"`
	MapEmbedURL   string          `json:"map_embed_url,omitempty"`
}

// StoreDetail builds a detail page. Store, reviews and the viewer's
// favorite state are fetched concurrently; only reviews belonging to the
// store feed its aggregate. userID 0 means an anonymous viewer.
func (a *App) StoreDetail(ctx context.Context, cat domain.CategoryInfo, storeID, userID int) (StoreDetailPage, error) {
	var (
		store      domain.Store
		reviews    []domain.Review
		isFavorite bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		store, err = a.api.GetStore(gctx, storeID)
		return err
	})
	g.Go(func() error {
		all, err := a.api.ListReviews(gctx)
		if err != nil {
			return err
		}
		reviews = filterReviews(all, storeID)
		return nil
	})
	if userID > 0 {
		g.Go(func() error {
			favorites, err := a.api.ListFavorites(gctx, userID)
			if err != nil {
				return err
			}
			isFavorite = containsStore(favorites, storeID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return StoreDetailPage{}, err
	}

	avg := rating.Average(reviews)
	return StoreDetailPage{
		Category:      cat.Slug,
		CategoryLabel: cat.Label,
		Store:         store,
		Reviews:       reviews,
		ReviewCount:   len(reviews),
		AverageRating: rating.FormatAverage(avg),
		Stars:         rating.Stars(avg),
		IsFavorite:    isFavorite,
		MapEmbedURL:   a.mapEmbedURL(store.Address),
	}, nil
}

// filterReviews keeps only reviews that belong to the given store.
func filterReviews(reviews []domain.Review, storeID int) []domain.Review {
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.StoreID == storeID {
			out = append(out, r)
		}
	}
	return out
}

func containsStore(favorites []domain.Favorite, storeID int) bool {
	for _, f := range favorites {
		if f.StoreID == storeID {
			return true
		}
	}
	return false
}
