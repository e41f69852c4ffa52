package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/dreadscale/internal/config"
	"github.com/user/dreadscale/internal/testsupport"
	"github.com/user/dreadscale/internal/utils"
)

func newOMDbServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("t") != "The Matrix" {
			w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
			return
		}
		w.Write([]byte(`{"Response":"True","imdbRating":"8.7","Ratings":[{"Source":"Internet Movie Database","Value":"8.7/10"},{"Source":"Rotten Tomatoes","Value":"83%"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExternalRatingsLookup(t *testing.T) {
	repos := testsupport.MustOpenRepositories(t)
	var calls int32
	srv := newOMDbServer(t, &calls)
	cfg := &config.Config{OMDbAPIKey: "test", OMDbBaseURL: srv.URL}
	client := utils.NewHTTPClient(5 * time.Second)
	ctx := context.Background()

	svc := NewExternalRatingsService(cfg, client, repos.ExternalRating)
	got := svc.Lookup(ctx, "The Matrix", "1999")
	if got.IMDbRating != "8.7" || got.RottenTomatoesRating != "83%" {
		t.Fatalf("unexpected ratings %+v", got)
	}
	svc.Lookup(ctx, "The Matrix", "1999")
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected in-memory cache hit, got %d calls", calls)
	}
	if n := svc.ClearMemory(); n != 1 {
		t.Fatalf("expected one in-memory entry cleared, got %d", n)
	}
	if got := svc.Lookup(ctx, "The Matrix", "1999"); got.IMDbRating != "8.7" || atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected db cache hit after clearing memory, got %+v (%d calls)", got, calls)
	}

	// 新实例从数据库缓存读取
	fresh := NewExternalRatingsService(cfg, client, repos.ExternalRating)
	if got := fresh.Lookup(ctx, "the matrix", "1999"); got.IMDbRating != "8.7" {
		t.Fatalf("expected db cache hit, got %+v", got)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected no extra api call, got %d", calls)
	}

	// 找不到时使用标题相近的缓存
	if got := fresh.Lookup(ctx, "The Matrix Reloaded", "2003"); got.IMDbRating != "8.7" {
		t.Fatalf("expected similar-title fallback, got %+v", got)
	}
	if got := fresh.Lookup(ctx, "Zzyzx Road", "2006"); got.IMDbRating != "N/A" || got.RottenTomatoesRating != "N/A" {
		t.Fatalf("expected N/A, got %+v", got)
	}
}

func TestExternalRatingsPrune(t *testing.T) {
	repos := testsupport.MustOpenRepositories(t)
	var calls int32
	srv := newOMDbServer(t, &calls)
	cfg := &config.Config{OMDbAPIKey: "test", OMDbBaseURL: srv.URL}
	svc := NewExternalRatingsService(cfg, utils.NewHTTPClient(5*time.Second), repos.ExternalRating)

	svc.Lookup(context.Background(), "The Matrix", "1999")
	stats, err := svc.Stats()
	if err != nil || stats.TotalEntries != 1 {
		t.Fatalf("expected one cached entry, got %+v (%v)", stats, err)
	}

	svc.now = func() time.Time { return time.Now().Add(ExternalRatingExpiry + time.Hour) }
	removed := NewCleanupService(svc, time.Hour).RunOnce()
	if removed != 1 {
		t.Fatalf("expected 1 expired entry removed, got %d", removed)
	}
}

func TestMovieDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "detail@example.com", "Detail")
	external := NewExternalRatingsService(&config.Config{}, utils.NewHTTPClient(time.Second), env.repos.ExternalRating)
	movies := NewMovieService(env.catalog, external, env.ratings)

	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 603, "violence", "weaponViolence", 7, nil); err != nil {
		t.Fatalf("rate: %v", err)
	}

	detail, err := movies.Detail(ctx, 603)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if detail.Title != "The Matrix" || detail.Fallback {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if detail.Ratings.IMDbRating != "N/A" {
		t.Fatalf("expected N/A without OMDb key, got %+v", detail.Ratings)
	}
	if detail.DreadScore == nil || detail.DreadScore.Score != 7 {
		t.Fatalf("expected DreadScore 7, got %+v", detail.DreadScore)
	}

	if _, err := movies.Detail(ctx, 424242); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}

	env.catalog.setDown(true)
	fallback, err := movies.Detail(ctx, 603)
	if err != nil {
		t.Fatalf("expected fallback instead of error, got %v", err)
	}
	if !fallback.Fallback || fallback.Title != "Movie Details" || fallback.DreadScore == nil {
		t.Fatalf("unexpected fallback %+v", fallback)
	}
}

func TestMovieListAttachesScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "list@example.com", "List")
	external := NewExternalRatingsService(&config.Config{}, utils.NewHTTPClient(time.Second), env.repos.ExternalRating)
	movies := NewMovieService(env.catalog, external, env.ratings)

	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 348, "disturbingContent", "bodyHorror", 8, nil); err != nil {
		t.Fatalf("rate: %v", err)
	}
	page, err := movies.List(ctx, ListPopular, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Results) != 8 || page.DreadScores[348] == nil || page.DreadScores[603] != nil {
		t.Fatalf("unexpected list %+v", page.DreadScores)
	}

	found, err := movies.Search(ctx, "alien", "", 1)
	if err != nil || len(found.Results) != 1 || found.DreadScores[348].Score != 8 {
		t.Fatalf("unexpected search %+v (%v)", found, err)
	}
}
