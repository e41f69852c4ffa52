package service

import (
	"context"
	"errors"
	"testing"

	"github.com/user/dreadscale/internal/testsupport"
)

func TestValidateFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters []RatingFilter
		err     error
	}{
		{name: "none", filters: nil, err: ErrNoFilters},
		{name: "ok", filters: []RatingFilter{{Category: "violence", Subcategory: "goreBlood", MinScore: 0, MaxScore: 10}}},
		{name: "unknown", filters: []RatingFilter{{Category: "violence", Subcategory: "nope", MaxScore: 10}}, err: ErrInvalidFilter},
		{name: "inverted", filters: []RatingFilter{{Category: "violence", Subcategory: "goreBlood", MinScore: 8, MaxScore: 2}}, err: ErrInvalidFilter},
		{name: "above range", filters: []RatingFilter{{Category: "violence", Subcategory: "goreBlood", MinScore: 1, MaxScore: 11}}, err: ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilters(tt.filters)
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestAdvancedSearchAndSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "search@example.com", "Search")

	rate := func(movieID int, sub string, value int) {
		t.Helper()
		if _, err := env.ratings.SaveUserRating(ctx, user.ID, movieID, "violence", sub, value, nil); err != nil {
			t.Fatalf("rate %d %s: %v", movieID, sub, err)
		}
	}
	rate(694, "goreBlood", 8)
	rate(694, "torture", 6)
	rate(493922, "goreBlood", 9)
	rate(493922, "torture", 9)
	rate(348, "goreBlood", 3)

	gore := RatingFilter{Category: "violence", Subcategory: "goreBlood", MinScore: 5, MaxScore: 10}
	results, err := env.search.Search(ctx, AdvancedSearchRequest{Filters: []RatingFilter{gore}})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 || results[0].ID != 493922 || results[1].ID != 694 {
		t.Fatalf("expected [493922 694], got %+v", results)
	}
	if results[0].MatchScore != 9 || results[0].FilterAverages["violence_goreBlood"] != 9 {
		t.Fatalf("unexpected match data %+v", results[0])
	}

	asc, err := env.search.Search(ctx, AdvancedSearchRequest{Filters: []RatingFilter{gore}, Sort: "asc"})
	if err != nil || len(asc) != 2 || asc[0].ID != 694 {
		t.Fatalf("expected ascending order, got %+v (%v)", asc, err)
	}

	torture := RatingFilter{Category: "violence", Subcategory: "torture", MinScore: 7, MaxScore: 10}
	both, err := env.search.Search(ctx, AdvancedSearchRequest{Filters: []RatingFilter{gore, torture}})
	if err != nil || len(both) != 1 || both[0].ID != 493922 {
		t.Fatalf("expected only 493922 to match both filters, got %+v (%v)", both, err)
	}

	scoped, err := env.search.Search(ctx, AdvancedSearchRequest{Query: "the", Filters: []RatingFilter{gore}})
	if err != nil || len(scoped) != 1 || scoped[0].ID != 694 {
		t.Fatalf("expected query to scope candidates to The Shining, got %+v (%v)", scoped, err)
	}

	if _, err := env.search.Search(ctx, AdvancedSearchRequest{}); !errors.Is(err, ErrNoFilters) {
		t.Fatalf("expected ErrNoFilters, got %v", err)
	}
}

func TestAdvancedSearchCatalogDown(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.setDown(true)

	gore := RatingFilter{Category: "violence", Subcategory: "goreBlood", MinScore: 0, MaxScore: 10}
	if _, err := env.search.Search(context.Background(), AdvancedSearchRequest{Filters: []RatingFilter{gore}}); !errors.Is(err, errCatalogDown) {
		t.Fatalf("expected catalog error, got %v", err)
	}
}

func TestAdvancedSearchUsesFirstSearchPageOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "page@example.com", "Page")

	for _, id := range []int{155, 694} {
		if _, err := env.ratings.SaveUserRating(ctx, user.ID, id, "violence", "goreBlood", 7, nil); err != nil {
			t.Fatalf("rate %d: %v", id, err)
		}
	}

	// "the" 匹配 155、603、694，每页两条时 694 落在第二页
	env.catalog.mu.Lock()
	env.catalog.pageSize = 2
	env.catalog.calls = 0
	env.catalog.mu.Unlock()

	gore := RatingFilter{Category: "violence", Subcategory: "goreBlood", MinScore: 5, MaxScore: 10}
	results, err := env.search.Search(ctx, AdvancedSearchRequest{Query: "the", Filters: []RatingFilter{gore}})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != 155 {
		t.Fatalf("expected only page-one match 155, got %+v", results)
	}

	env.catalog.mu.Lock()
	calls := env.catalog.calls
	env.catalog.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single catalog request, got %d", calls)
	}
}
