package service

import (
	"log"
	"time"

	"github.com/user/dreadscale/internal/config"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/utils"
)

// Services 服务集合
type Services struct {
	Catalog   Catalog
	Store     *MovieStore
	External  *ExternalRatingsService
	Ratings   *RatingService
	Movies    *MovieService
	Watchlist *WatchlistService
	Chat      *ChatService
	Nav       *NavigationService
	Search    *AdvancedSearchService
	Auth      *AuthService
	Cleanup   *CleanupService
}

// CacheClearResult 各内存缓存清除的条数
type CacheClearResult struct {
	Ratings         int `json:"ratings"`
	Chat            int `json:"chat"`
	Watchlist       int `json:"watchlist"`
	Navigation      int `json:"navigation"`
	ExternalRatings int `json:"external_ratings"`
}

// ClearCaches 清空所有进程内缓存（持久化数据不受影响）
func (s *Services) ClearCaches() CacheClearResult {
	result := CacheClearResult{
		Ratings:         s.Ratings.ClearCaches(),
		Chat:            s.Chat.ClearCache(),
		Watchlist:       s.Watchlist.ClearCache(),
		Navigation:      s.Nav.ClearCache(),
		ExternalRatings: s.External.ClearMemory(),
	}
	log.Printf("[Services] 已清空内存缓存: %+v", result)
	return result
}

// NewServices 组装所有服务；catalog 为空时使用 TMDB（未配置 Key 时返回示例电影）
func NewServices(cfg *config.Config, repos *repository.Repositories, catalog Catalog) *Services {
	client := utils.NewHTTPClient(10 * time.Second)
	if catalog == nil {
		catalog = NewTMDBService(cfg, client)
	}

	store := NewMovieStore(repos.Movie, MovieUpsertDebounce)
	external := NewExternalRatingsService(cfg, client, repos.ExternalRating)
	ratings := NewRatingService(repos.Rating, store)
	watchlist := NewWatchlistService(repos.Watchlist, store, catalog, cfg.ImportDelay)

	return &Services{
		Catalog:   catalog,
		Store:     store,
		External:  external,
		Ratings:   ratings,
		Movies:    NewMovieService(catalog, external, ratings),
		Watchlist: watchlist,
		Chat:      NewChatService(repos.Chat, store),
		Nav:       NewNavigationService(catalog, watchlist),
		Search:    NewAdvancedSearchService(catalog, ratings),
		Auth:      NewAuthService(repos.User),
		Cleanup:   NewCleanupService(external, CleanupInterval),
	}
}
