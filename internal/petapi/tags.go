package petapi

import (
	"context"
	"net/http"

	"wanparadise/pkg/domain"
)

// ListTags returns the full tag collection; callers filter by tag type.
func (c *Client) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var tags []domain.Tag
	if err := c.doJSON(ctx, http.MethodGet, "/tags", requestOptions{}, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ListPrefectures returns every prefecture with its region.
func (c *Client) ListPrefectures(ctx context.Context) ([]domain.Prefecture, error) {
	var prefectures []domain.Prefecture
	if err := c.doJSON(ctx, http.MethodGet, "/prefectures/", requestOptions{}, nil, &prefectures); err != nil {
		return nil, err
	}
	return prefectures, nil
}
