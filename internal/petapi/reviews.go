package petapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"wanparadise/pkg/domain"
)

// ListReviews returns every review across all stores. Detail pages filter
// this collection by store id, matching the site's original data flow.
func (c *Client) ListReviews(ctx context.Context) ([]domain.Review, error) {
	var reviews []domain.Review
	if err := c.doJSON(ctx, http.MethodGet, "/reviews", requestOptions{}, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListStoreReviews returns the reviews of a single store.
func (c *Client) ListStoreReviews(ctx context.Context, storeID int) ([]domain.Review, error) {
	path := fmt.Sprintf("/reviews/%d", storeID)
	var reviews []domain.Review
	if err := c.doJSON(ctx, http.MethodGet, path, requestOptions{}, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// CreateReview submits a new review and returns the created record with
// its upstream-assigned id and timestamp. An idempotency key guards
// against a duplicated submit reaching the API twice.
func (c *Client) CreateReview(ctx context.Context, storeID, ratingValue int, comment string) (domain.Review, error) {
	payload := map[string]any{
		"store_id": storeID,
		"rating":   ratingValue,
		"comment":  comment,
	}
	ro := requestOptions{idempotencyKey: uuid.NewString()}
	var created domain.Review
	if err := c.doJSON(ctx, http.MethodPost, "/reviews", ro, payload, &created); err != nil {
		return domain.Review{}, err
	}
	return created, nil
}
