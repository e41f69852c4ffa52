package service

import (
	"context"
	"testing"

	"github.com/user/dreadscale/internal/testsupport"
)

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func TestNavigationPopularFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	nav := env.nav.Resolve(ctx, 603, NavContext{})
	if nav.Kind != NavMovies || nav.ShowBack || nav.Position != 3 || nav.Total != 8 {
		t.Fatalf("unexpected navigation %+v", nav)
	}
	if intValue(nav.Previous) != 155 || intValue(nav.Next) != 694 {
		t.Fatalf("expected 155 <- 603 -> 694, got %v / %v", intValue(nav.Previous), intValue(nav.Next))
	}

	first := env.nav.Resolve(ctx, 27205, NavContext{})
	if first.Previous != nil || intValue(first.Next) != 155 {
		t.Fatalf("first movie should have no previous, got %+v", first)
	}
	last := env.nav.Resolve(ctx, 550, NavContext{})
	if last.Next != nil || intValue(last.Previous) != 862 {
		t.Fatalf("last movie should have no next, got %+v", last)
	}

	unknown := env.nav.Resolve(ctx, 424242, NavContext{})
	if !unknown.ShowBack || unknown.Previous != nil || unknown.Next != nil {
		t.Fatalf("expected back button only, got %+v", unknown)
	}
}

func TestNavigationSearchContext(t *testing.T) {
	env := newTestEnv(t)

	nav := env.nav.Resolve(context.Background(), 155, NavContext{Kind: NavSearch, IDs: []int{603, 155, 862}})
	if nav.Kind != NavSearch || nav.Label != "in Results" {
		t.Fatalf("expected search context, got %+v", nav)
	}
	if intValue(nav.Previous) != 603 || intValue(nav.Next) != 862 || nav.Position != 2 || nav.Total != 3 {
		t.Fatalf("unexpected navigation %+v", nav)
	}
}

func TestNavigationWatchlistPriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "nav@example.com", "Nav")

	for _, id := range []int{694, 348} {
		if _, err := env.watchlist.Add(ctx, user.ID, id, sampleMovie(t, id)); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}

	// 未指定来源时片单优先于调用方列表
	nav := env.nav.Resolve(ctx, 694, NavContext{UserID: user.ID, IDs: []int{603, 694, 155}})
	if nav.Kind != NavWatchlist || nav.Label != "in Watchlist" {
		t.Fatalf("expected watchlist context, got %+v", nav)
	}
	if intValue(nav.Previous) != 348 || nav.Next != nil || nav.Total != 2 {
		t.Fatalf("unexpected watchlist navigation %+v", nav)
	}

	if err := env.watchlist.Remove(ctx, user.ID, 694); err != nil {
		t.Fatalf("remove: %v", err)
	}
	env.nav.InvalidateUser(user.ID)

	nav = env.nav.Resolve(ctx, 694, NavContext{UserID: user.ID, IDs: []int{603, 694, 155}})
	if nav.Kind != NavMovies || intValue(nav.Previous) != 603 || intValue(nav.Next) != 155 {
		t.Fatalf("expected caller list after removal, got %+v", nav)
	}
}

func TestNavigationCatalogFailureNotCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.catalog.setDown(true)
	nav := env.nav.Resolve(ctx, 603, NavContext{})
	if !nav.ShowBack {
		t.Fatalf("expected back button while catalog is down, got %+v", nav)
	}

	env.catalog.setDown(false)
	nav = env.nav.Resolve(ctx, 603, NavContext{})
	if nav.ShowBack || nav.Position != 3 {
		t.Fatalf("expected recovered navigation, got %+v", nav)
	}
}

func TestParseNavKind(t *testing.T) {
	if ParseNavKind("watchlist") != NavWatchlist || ParseNavKind("bogus") != "" {
		t.Fatal("unexpected ParseNavKind result")
	}
	if NavKind("").Label() != "Movie" {
		t.Fatalf("unexpected default label %q", NavKind("").Label())
	}
}
