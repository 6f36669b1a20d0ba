package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"wanparadise/internal/rating"
	"wanparadise/pkg/domain"
)

// RatedStore is a store with its aggregated review figures attached.
type RatedStore struct {
	domain.Store
	ReviewCount   int    `json:"review_count"`
	AverageRating string `json:"average_rating"`
	Stars         int    `json:"stars"`
}

// TagGroup is one filter column on a list page. Dogrun pages carry two
// groups (conditions and facilities), the other categories one.
type TagGroup struct {
	TagType int          `json:"tag_type"`
	Tags    []domain.Tag `json:"tags"`
}

// StoreListPage is the view-model of a category list page.
type StoreListPage struct {
	Category      string       `json:"category"`
	CategoryLabel string       `json:"category_label"`
	PrefectureID  int          `json:"prefecture_id"`
	SelectedTags  []int        `json:"selected_tags"`
	TagGroups     []TagGroup   `json:"tag_groups"`
	Stores        []RatedStore `json:"stores"`
}

// HomeSection is one category carousel on the top page.
type HomeSection struct {
	Category string       `json:"category"`
	Label    string       `json:"label"`
	Stores   []RatedStore `json:"stores"`
}

// HomePage is the top page view-model: one random carousel per category.
type HomePage struct {
	Sections []HomeSection `json:"sections"`
}

// RegionGroup lists the prefectures of one region for the area picker.
type RegionGroup struct {
	Region      string              `json:"region"`
	Prefectures []domain.Prefecture `json:"prefectures"`
}

// StoreList builds a category list page. Selected tags narrow the result;
// an empty selection yields the unfiltered prefecture list. Identical
// concurrent requests are collapsed into a single upstream fetch.
func (a *App) StoreList(ctx context.Context, cat domain.CategoryInfo, prefectureID int, tagIDs []int) (StoreListPage, error) {
	selected := normalizeTagIDs(tagIDs)

	key := listKey(cat.Slug, prefectureID, selected)
	v, err, _ := a.listGroup.Do(key, func() (any, error) {
		// The fetch is shared by every collapsed caller, so it must not
		// die with whichever request happened to start it.
		return a.fetchStoreList(context.WithoutCancel(ctx), cat, prefectureID, selected)
	})
	if err != nil {
		return StoreListPage{}, err
	}
	page := v.(StoreListPage)
	page.SelectedTags = selected
	return page, nil
}

func (a *App) fetchStoreList(ctx context.Context, cat domain.CategoryInfo, prefectureID int, selected []int) (StoreListPage, error) {
	var (
		stores []domain.Store
		tags   []domain.Tag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stores, err = a.api.ListStoresByTags(gctx, prefectureID, cat.Code, selected)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = a.api.ListTags(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return StoreListPage{}, err
	}

	return StoreListPage{
		Category:      cat.Slug,
		CategoryLabel: cat.Label,
		PrefectureID:  prefectureID,
		TagGroups:     groupTags(tags, cat.TagTypes),
		Stores:        rateStores(stores),
	}, nil
}

// Home builds the top page: the four category carousels are fetched
// concurrently and rendered in display order.
func (a *App) Home(ctx context.Context) (HomePage, error) {
	sections := make([]HomeSection, len(domain.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range domain.Categories {
		i, cat := i, cat
		g.Go(func() error {
			stores, err := a.api.RandomStores(gctx, cat.Code)
			if err != nil {
				return fmt.Errorf("%s carousel: %w", cat.Slug, err)
			}
			sections[i] = HomeSection{
				Category: cat.Slug,
				Label:    cat.Label,
				Stores:   rateStores(stores),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return HomePage{}, err
	}
	return HomePage{Sections: sections}, nil
}

// Prefectures groups the prefecture list by region, preserving the order
// regions first appear upstream.
func (a *App) Prefectures(ctx context.Context) ([]RegionGroup, error) {
	prefectures, err := a.api.ListPrefectures(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]RegionGroup, 0, 8)
	index := make(map[string]int)
	for _, p := range prefectures {
		i, ok := index[p.Region]
		if !ok {
			i = len(groups)
			index[p.Region] = i
			groups = append(groups, RegionGroup{Region: p.Region})
		}
		groups[i].Prefectures = append(groups[i].Prefectures, p)
	}
	return groups, nil
}

// rateStores attaches the aggregated rating figures to each store.
func rateStores(stores []domain.Store) []RatedStore {
	rated := make([]RatedStore, 0, len(stores))
	for _, s := range stores {
		avg := rating.Average(s.Reviews)
		rated = append(rated, RatedStore{
			Store:         s,
			ReviewCount:   len(s.Reviews),
			AverageRating: rating.FormatAverage(avg),
			Stars:         rating.Stars(avg),
		})
	}
	return rated
}

// groupTags selects the tags belonging to the category's tag types, one
// group per type in the category's declared order.
func groupTags(tags []domain.Tag, tagTypes []int) []TagGroup {
	groups := make([]TagGroup, 0, len(tagTypes))
	for _, tt := range tagTypes {
		group := TagGroup{TagType: tt}
		for _, tag := range tags {
			if tag.TagType == tt {
				group.Tags = append(group.Tags, tag)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// normalizeTagIDs sorts and deduplicates the selection so that equivalent
// filter states share one cache key and one upstream request shape.
func normalizeTagIDs(tagIDs []int) []int {
	if len(tagIDs) == 0 {
		return nil
	}
	out := make([]int, len(tagIDs))
	copy(out, tagIDs)
	sort.Ints(out)
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}

func listKey(slug string, prefectureID int, selected []int) string {
	parts := make([]string, 0, len(selected))
	for _, id := range selected {
		parts = append(parts, strconv.Itoa(id))
	}
	return fmt.Sprintf("%s|%d|%s", slug, prefectureID, strings.Join(parts, ","))
}
