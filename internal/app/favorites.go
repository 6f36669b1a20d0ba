package app

import (
	"context"
	"fmt"
	"strconv"

	"wanparadise/pkg/domain"
)

// FavoriteGroup lists one category's favorites on the favorites page.
// All four groups are always present, empty or not.
type FavoriteGroup struct {
	Category string            `json:"category"`
	Label    string            `json:"label"`
	Items    []domain.Favorite `json:"items"`
}

// ToggleState is the outcome of a favorite toggle.
type ToggleState struct {
	StoreID    int  `json:"store_id"`
	IsFavorite bool `json:"is_favorite"`
}

// ToggleFavorite flips the viewer's favorite state for a store. The
// current membership is read first, then the matching mutation is sent;
// the reported state only flips once the remote API has acknowledged.
// A second toggle for the same pair while one is in flight is refused.
func (a *App) ToggleFavorite(ctx context.Context, userID, storeID int) (ToggleState, error) {
	if userID <= 0 {
		return ToggleState{}, ErrIdentityRequired
	}

	key := fmt.Sprintf("%d:%d", userID, storeID)
	if !a.beginToggle(key) {
		return ToggleState{}, ErrToggleInFlight
	}
	defer a.endToggle(key)

	favorites, err := a.api.ListFavorites(ctx, userID)
	if err != nil {
		return ToggleState{}, err
	}
	wasFavorite := containsStore(favorites, storeID)

	if wasFavorite {
		err = a.api.RemoveFavorite(ctx, userID, storeID)
	} else {
		err = a.api.AddFavorite(ctx, userID, storeID)
	}
	if err != nil {
		return ToggleState{}, err
	}
	return ToggleState{StoreID: storeID, IsFavorite: !wasFavorite}, nil
}

// FavoritesByCategory builds the favorites page: the user's favorites
// split into the four category groups in display order.
func (a *App) FavoritesByCategory(ctx context.Context, userID int) ([]FavoriteGroup, error) {
	if userID <= 0 {
		return nil, ErrIdentityRequired
	}
	favorites, err := a.api.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	groups := make([]FavoriteGroup, len(domain.Categories))
	byType := make(map[string]int, len(domain.Categories))
	for i, cat := range domain.Categories {
		groups[i] = FavoriteGroup{
			Category: cat.Slug,
			Label:    cat.Label,
			Items:    []domain.Favorite{},
		}
		byType[strconv.Itoa(int(cat.Code))] = i
	}
	for _, f := range favorites {
		if i, ok := byType[f.StoreType]; ok {
			groups[i].Items = append(groups[i].Items, f)
		}
	}
	return groups, nil
}
