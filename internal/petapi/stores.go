package petapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"wanparadise/pkg/domain"
)

// ListStores returns the stores of a category within a prefecture.
func (c *Client) ListStores(ctx context.Context, prefectureID int, category domain.Category) ([]domain.Store, error) {
	path := fmt.Sprintf("/stores/list/%d/%d", prefectureID, category)
	var stores []domain.Store
	if err := c.doJSON(ctx, http.MethodGet, path, requestOptions{}, nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// ListStoresByTags returns the stores of a category within a prefecture
// matching every selected tag.
func (c *Client) ListStoresByTags(ctx context.Context, prefectureID int, category domain.Category, tagIDs []int) ([]domain.Store, error) {
	if len(tagIDs) == 0 {
		return c.ListStores(ctx, prefectureID, category)
	}
	csv := make([]string, 0, len(tagIDs))
	for _, id := range tagIDs {
		csv = append(csv, strconv.Itoa(id))
	}
	path := fmt.Sprintf("/stores/list/tag/%d/%d?tagIds=%s", prefectureID, category, strings.Join(csv, ","))
	var stores []domain.Store
	if err := c.doJSON(ctx, http.MethodGet, path, requestOptions{}, nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// GetStore returns a single store by id.
func (c *Client) GetStore(ctx context.Context, storeID int) (domain.Store, error) {
	var store domain.Store
	path := fmt.Sprintf("/stores/detail/%d", storeID)
	if err := c.doJSON(ctx, http.MethodGet, path, requestOptions{}, nil, &store); err != nil {
		return domain.Store{}, err
	}
	return store, nil
}

// GetStoreName returns only the display name of a store.
func (c *Client) GetStoreName(ctx context.Context, storeID int) (string, error) {
	var resp struct {
		StoreName string `json:"store_name"`
	}
	path := fmt.Sprintf("/stores/store-name/%d", storeID)
	if err := c.doJSON(ctx, http.MethodGet, path, requestOptions{}, nil, &resp); err != nil {
		return "", err
	}
	return resp.StoreName, nil
}

// RandomStores returns a random selection of a category's stores for the
// homepage carousel.
func (c *Client) RandomStores(ctx context.Context, category domain.Category) ([]domain.Store, error) {
	path := fmt.Sprintf("/stores/type/random/%d", category)
	var stores []domain.Store
	if err := c.doJSON(ctx, http.MethodGet, path, requestOptions{}, nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}
