package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/utils"
)

// WatchlistCacheTTL 片单缓存有效期
const WatchlistCacheTTL = 5 * time.Minute

// AddOutcome 加入片单的结果
type AddOutcome string

const (
	AddOutcomeAdded     AddOutcome = "added"
	AddOutcomeDuplicate AddOutcome = "duplicate"
)

// WatchlistService 片单服务
type WatchlistService struct {
	repo    *repository.WatchlistRepository
	movies  *MovieStore
	catalog Catalog
	cache   *utils.TTLCache[[]model.WatchlistItem]
	delay   time.Duration
}

func NewWatchlistService(repo *repository.WatchlistRepository, movies *MovieStore, catalog Catalog, importDelay time.Duration) *WatchlistService {
	return &WatchlistService{
		repo:    repo,
		movies:  movies,
		catalog: catalog,
		cache:   utils.NewTTLCache[[]model.WatchlistItem](WatchlistCacheTTL, time.Minute),
		delay:   importDelay,
	}
}

// ClearCache 清空片单缓存
func (s *WatchlistService) ClearCache() int {
	return s.cache.Clear()
}

func watchlistKey(userID string) string {
	return "watchlist:" + userID
}

// Add 加入片单，已存在返回 AddOutcomeDuplicate（不是错误）
func (s *WatchlistService) Add(ctx context.Context, userID string, movieID int, movieData *model.Movie) (AddOutcome, error) {
	if userID == "" {
		return "", ErrNotLoggedIn
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.movies.Ensure(movieID, movieData); err != nil {
		return "", err
	}

	added, err := s.repo.Add(userID, movieID)
	if err != nil {
		return "", fmt.Errorf("加入片单失败: %w", err)
	}
	s.cache.Delete(watchlistKey(userID))
	if !added {
		return AddOutcomeDuplicate, nil
	}
	return AddOutcomeAdded, nil
}

// Remove 移出片单
func (s *WatchlistService) Remove(ctx context.Context, userID string, movieID int) error {
	if userID == "" {
		return ErrNotLoggedIn
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.repo.Remove(userID, movieID); err != nil {
		return fmt.Errorf("移出片单失败: %w", err)
	}
	s.cache.Delete(watchlistKey(userID))
	return nil
}

// IsInWatchlist 是否在片单中
func (s *WatchlistService) IsInWatchlist(userID string, movieID int) bool {
	if userID == "" {
		return false
	}
	ok, err := s.repo.Exists(userID, movieID)
	if err != nil {
		log.Printf("[WatchlistService] 检查片单失败 (movie=%d): %v", movieID, err)
		return false
	}
	return ok
}

// List 用户片单（最新加入在前）
func (s *WatchlistService) List(userID string) []model.WatchlistItem {
	if userID == "" {
		return []model.WatchlistItem{}
	}
	items, err := s.cache.GetOrLoad(watchlistKey(userID), func() ([]model.WatchlistItem, error) {
		entries, err := s.repo.ListByUser(userID)
		if err != nil {
			return nil, err
		}
		items := make([]model.WatchlistItem, 0, len(entries))
		for _, e := range entries {
			item := model.WatchlistItem{ID: e.MovieID, AddedAt: e.AddedAt}
			if e.Movie != nil {
				item.Title = e.Movie.Title
				item.Overview = e.Movie.Overview
				item.PosterPath = e.Movie.PosterPath
				item.ReleaseDate = e.Movie.ReleaseDate
				item.VoteAverage = e.Movie.VoteAverage
			}
			items = append(items, item)
		}
		return items, nil
	})
	if err != nil {
		log.Printf("[WatchlistService] 读取片单失败: %v", err)
		return []model.WatchlistItem{}
	}
	return items
}

// Count 片单数量，读取失败时返回 0
func (s *WatchlistService) Count(userID string) int {
	if userID == "" {
		return 0
	}
	n, err := s.repo.CountByUser(userID)
	if err != nil {
		log.Printf("[WatchlistService] 统计片单数量失败: %v", err)
		return 0
	}
	return n
}

// IDs 片单中的电影 ID（与 List 顺序一致）
func (s *WatchlistService) IDs(userID string) []int {
	items := s.List(userID)
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

// Import 逐条通过标题搜索并加入片单，条目之间有短暂间隔；ctx 取消时停止并返回已处理结果
func (s *WatchlistService) Import(ctx context.Context, userID string, entries []model.ImportEntry, progress func(done, total int, title string)) (*model.ImportResult, error) {
	if userID == "" {
		return nil, ErrNotLoggedIn
	}

	result := &model.ImportResult{FailedMovies: []model.ImportEntry{}}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			log.Printf("[WatchlistService] 导入被取消，已处理 %d/%d", result.TotalProcessed, len(entries))
			return result, err
		}
		if progress != nil {
			progress(i+1, len(entries), entry.Title)
		}

		s.importOne(ctx, userID, entry, result)
		result.TotalProcessed++

		if s.delay > 0 && i < len(entries)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	log.Printf("[WatchlistService] 导入完成：成功 %d，重复 %d，失败 %d",
		result.SuccessCount, result.DuplicatesSkipped, len(result.FailedMovies))
	return result, nil
}

func (s *WatchlistService) importOne(ctx context.Context, userID string, entry model.ImportEntry, result *model.ImportResult) {
	page, err := s.catalog.Search(ctx, entry.Title, entry.Year, 1)
	if err != nil {
		log.Printf("[WatchlistService] 导入搜索失败 (%s): %v", entry.Title, err)
		result.FailedMovies = append(result.FailedMovies, entry)
		return
	}
	if page == nil || len(page.Results) == 0 {
		result.FailedMovies = append(result.FailedMovies, entry)
		return
	}

	found := page.Results[0]
	outcome, err := s.Add(ctx, userID, found.ID, &found)
	if err != nil {
		log.Printf("[WatchlistService] 导入加入片单失败 (%s): %v", entry.Title, err)
		result.FailedMovies = append(result.FailedMovies, entry)
		return
	}
	if outcome == AddOutcomeDuplicate {
		result.DuplicatesSkipped++
		return
	}
	result.SuccessCount++
}

// Export 以 CSV 导出片单：Title,Year,Rating,Added Date
func (s *WatchlistService) Export(userID string, w io.Writer) error {
	if userID == "" {
		return ErrNotLoggedIn
	}
	items := s.List(userID)

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Title", "Year", "Rating", "Added Date"}); err != nil {
		return err
	}
	for _, it := range items {
		year := ""
		if len(it.ReleaseDate) >= 4 {
			year = it.ReleaseDate[:4]
		}
		rating := "N/A"
		if it.VoteAverage > 0 {
			rating = strconv.FormatFloat(it.VoteAverage, 'f', -1, 64)
		}
		if err := writer.Write([]string{it.Title, year, rating, it.AddedAt.Format("2006-01-02")}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
