package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/testsupport"
)

var errCatalogDown = errors.New("catalog unavailable")

// fakeCatalog 内存电影目录，按 pageSize 分页
type fakeCatalog struct {
	mu       sync.Mutex
	movies   []model.Movie
	pageSize int
	down     bool
	calls    int
}

func newFakeCatalog(movies ...model.Movie) *fakeCatalog {
	if len(movies) == 0 {
		movies = SampleMovies()
	}
	return &fakeCatalog{movies: movies, pageSize: 20}
}

func (f *fakeCatalog) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeCatalog) paginate(movies []model.Movie, page int) *model.MoviePage {
	if page < 1 {
		page = 1
	}
	total := (len(movies) + f.pageSize - 1) / f.pageSize
	if total == 0 {
		total = 1
	}
	start := (page - 1) * f.pageSize
	end := start + f.pageSize
	if start > len(movies) {
		start = len(movies)
	}
	if end > len(movies) {
		end = len(movies)
	}
	return &model.MoviePage{
		Page:         page,
		TotalPages:   total,
		TotalResults: len(movies),
		Results:      append([]model.Movie{}, movies[start:end]...),
	}
}

func (f *fakeCatalog) List(ctx context.Context, kind string, page int) (*model.MoviePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return nil, errCatalogDown
	}
	return f.paginate(f.movies, page), nil
}

func (f *fakeCatalog) Search(ctx context.Context, query, year string, page int) (*model.MoviePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return nil, errCatalogDown
	}
	q := strings.ToLower(query)
	var matched []model.Movie
	for _, m := range f.movies {
		if !strings.Contains(strings.ToLower(m.Title), q) {
			continue
		}
		if year != "" && m.Year() != year {
			continue
		}
		matched = append(matched, m)
	}
	return f.paginate(matched, page), nil
}

func (f *fakeCatalog) Movie(ctx context.Context, id int) (*model.MovieDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return nil, errCatalogDown
	}
	for _, m := range f.movies {
		if m.ID == id {
			return &model.MovieDetail{Movie: m, Cast: []model.CastMember{}, Videos: []model.Video{}, Similar: []model.Movie{}}, nil
		}
	}
	return nil, ErrMovieNotFound
}

type testEnv struct {
	repos     *repository.Repositories
	catalog   *fakeCatalog
	store     *MovieStore
	ratings   *RatingService
	watchlist *WatchlistService
	chat      *ChatService
	nav       *NavigationService
	search    *AdvancedSearchService
	auth      *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := testsupport.MustOpenRepositories(t)
	catalog := newFakeCatalog()
	store := NewMovieStore(repos.Movie, 10*time.Millisecond)
	t.Cleanup(store.Flush)

	ratings := NewRatingService(repos.Rating, store)
	watchlist := NewWatchlistService(repos.Watchlist, store, catalog, 0)
	return &testEnv{
		repos:     repos,
		catalog:   catalog,
		store:     store,
		ratings:   ratings,
		watchlist: watchlist,
		chat:      NewChatService(repos.Chat, store),
		nav:       NewNavigationService(catalog, watchlist),
		search:    NewAdvancedSearchService(catalog, ratings),
		auth:      NewAuthService(repos.User),
	}
}

func sampleMovie(t *testing.T, id int) *model.Movie {
	t.Helper()
	for _, m := range SampleMovies() {
		if m.ID == id {
			movie := m
			return &movie
		}
	}
	t.Fatalf("no sample movie %d", id)
	return nil
}
