// Package app holds the page view-models: it turns remote API data into
// the exact shapes the pages render, and owns the toggle/submit flows.
package app

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"
	"wanparadise/internal/petapi"
)

// Validation and concurrency sentinels surfaced to the HTTP layer.
var (
	// ErrRatingRequired rejects a submission whose rating is outside 1..5.
	ErrRatingRequired = errors.New("rating required")
	// ErrCommentRequired rejects a submission whose trimmed comment is empty.
	ErrCommentRequired = errors.New("comment required")
	// ErrToggleInFlight rejects a favorite toggle while another toggle for
	// the same (user, store) pair is still awaiting the upstream answer.
	ErrToggleInFlight = errors.New("favorite update already in progress")
	// ErrIdentityRequired guards operations that need a resolved user.
	ErrIdentityRequired = errors.New("user identity required")
)

// Config wires the application dependencies.
type Config struct {
	API       *petapi.Client
	MapAPIKey string
}

// App implements the page view-models on top of the remote API client.
type App struct {
	api       *petapi.Client
	mapAPIKey string

	mu       sync.Mutex
	inFlight map[string]struct{}

	listGroup singleflight.Group
}

// New constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.API == nil {
		return nil, errors.New("api client is required")
	}
	return &App{
		api:       cfg.API,
		mapAPIKey: cfg.MapAPIKey,
		inFlight:  make(map[string]struct{}),
	}, nil
}

// beginToggle claims the (user, store) toggle slot. At most one favorite
// mutation per pair may be in flight.
func (a *App) beginToggle(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inFlight[key]; busy {
		return false
	}
	a.inFlight[key] = struct{}{}
	return true
}

func (a *App) endToggle(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, key)
}

// mapEmbedURL builds the map iframe source for an address. Empty when no
// key is configured; the page simply omits the map.
func (a *App) mapEmbedURL(address string) string {
	if a.mapAPIKey == "" || address == "" {
		return ""
	}
	return fmt.Sprintf(
		"https://www.google.com/maps/embed/v1/place?key=%s&q=%s",
		a.mapAPIKey, url.QueryEscape(address),
	)
}
