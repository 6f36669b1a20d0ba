package petapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"wanparadise/pkg/domain"
)

// ListFavorites returns the user's favorite set.
func (c *Client) ListFavorites(ctx context.Context, userID int) ([]domain.Favorite, error) {
	path := fmt.Sprintf("/favorites/%d", userID)
	var favorites []domain.Favorite
	if err := c.doJSON(ctx, http.MethodGet, path, requestOptions{userID: userID}, nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// AddFavorite registers (userID, storeID) in the favorite set.
func (c *Client) AddFavorite(ctx context.Context, userID, storeID int) error {
	payload := map[string]int{"user_id": userID, "store_id": storeID}
	ro := requestOptions{userID: userID, idempotencyKey: uuid.NewString()}
	return c.doJSON(ctx, http.MethodPost, "/favorites", ro, payload, nil)
}

// RemoveFavorite deletes (userID, storeID) from the favorite set.
func (c *Client) RemoveFavorite(ctx context.Context, userID, storeID int) error {
	payload := map[string]int{"user_id": userID, "store_id": storeID}
	ro := requestOptions{userID: userID, idempotencyKey: uuid.NewString()}
	return c.doJSON(ctx, http.MethodDelete, "/favorites", ro, payload, nil)
}
