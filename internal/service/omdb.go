package service

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/user/dreadscale/internal/config"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/utils"
)

const (
	// ExternalRatingExpiry 外部评分缓存有效期
	ExternalRatingExpiry = 7 * 24 * time.Hour
	// ExternalRatingMaxEntries 外部评分缓存条数上限
	ExternalRatingMaxEntries = 1000
)

// ExternalRatingsService OMDb 评分查询（数据库持久化缓存 + 内存 LRU）
type ExternalRatingsService struct {
	http    *utils.HTTPClient
	baseURL string
	apiKey  string
	repo    *repository.ExternalRatingRepository
	front   *utils.LRUCache[*model.ExternalRatingCache]
	now     func() time.Time
}

func NewExternalRatingsService(cfg *config.Config, client *utils.HTTPClient, repo *repository.ExternalRatingRepository) *ExternalRatingsService {
	return &ExternalRatingsService{
		http:    client,
		baseURL: strings.TrimRight(cfg.OMDbBaseURL, "/"),
		apiKey:  cfg.OMDbAPIKey,
		repo:    repo,
		front:   utils.NewLRUCache[*model.ExternalRatingCache](ExternalRatingMaxEntries, ExternalRatingExpiry),
		now:     time.Now,
	}
}

type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	IMDbRating string `json:"imdbRating"`
	Ratings    []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
}

// Lookup 获取 IMDb / 烂番茄评分，任何失败都返回可展示的结果（最差为 "N/A"）
func (s *ExternalRatingsService) Lookup(ctx context.Context, title, year string) model.ExternalRatings {
	key := utils.OMDbCacheKey(title, year)

	if cached := s.cached(key); cached != nil {
		return cached.Ratings()
	}

	if s.apiKey == "" {
		return s.fallback(title)
	}

	var resp omdbResponse
	params := url.Values{"t": {title}, "apikey": {s.apiKey}}
	if year != "" {
		params.Set("y", year)
	}
	if err := s.http.GetJSON(ctx, s.baseURL+"/?"+params.Encode(), &resp); err != nil {
		log.Printf("[OMDb] 请求失败 (%s): %v", title, err)
		return s.fallback(title)
	}
	if resp.Response == "False" {
		log.Printf("[OMDb] 未找到电影 (%s): %s", title, resp.Error)
		return s.fallback(title)
	}

	entry := &model.ExternalRatingCache{
		CacheKey: key,
		Title:    title,
		Year:     year,
		CachedAt: s.now(),
	}
	if resp.IMDbRating != "" && resp.IMDbRating != "N/A" {
		v := resp.IMDbRating
		entry.IMDbRating = &v
	}
	for _, r := range resp.Ratings {
		if r.Source == "Rotten Tomatoes" {
			v := r.Value
			entry.RottenTomatoesRating = &v
			break
		}
	}
	s.store(entry)
	return entry.Ratings()
}

func (s *ExternalRatingsService) cached(key string) *model.ExternalRatingCache {
	if entry, ok := s.front.Get(key); ok && entry.HasRatings() {
		return entry
	}
	entry, err := s.repo.Find(key, s.now().Add(-ExternalRatingExpiry))
	if err != nil {
		log.Printf("[OMDb] 读取缓存失败 (%s): %v", key, err)
		return nil
	}
	if entry == nil || !entry.HasRatings() {
		return nil
	}
	s.front.SetAt(key, entry, entry.CachedAt)
	return entry
}

func (s *ExternalRatingsService) store(entry *model.ExternalRatingCache) {
	s.front.SetAt(entry.CacheKey, entry, entry.CachedAt)
	if err := s.repo.Upsert(entry); err != nil {
		log.Printf("[OMDb] 写入缓存失败 (%s): %v", entry.CacheKey, err)
		return
	}
	if _, err := s.repo.EnforceCap(ExternalRatingMaxEntries); err != nil {
		log.Printf("[OMDb] 清理超量缓存失败: %v", err)
	}
}

// fallback 使用标题相近的已缓存评分，没有则返回 N/A
func (s *ExternalRatingsService) fallback(title string) model.ExternalRatings {
	entries, err := s.repo.ListValid(s.now().Add(-ExternalRatingExpiry), ExternalRatingMaxEntries)
	if err != nil {
		log.Printf("[OMDb] 读取回退缓存失败: %v", err)
	}
	for _, entry := range entries {
		if utils.TitlesSimilar(title, entry.Title) {
			return entry.Ratings()
		}
	}
	return model.ExternalRatings{IMDbRating: "N/A", RottenTomatoesRating: "N/A"}
}

// Prune 清理过期和超量的缓存，返回删除条数
func (s *ExternalRatingsService) Prune() (int64, error) {
	expired, err := s.repo.CleanExpired(s.now().Add(-ExternalRatingExpiry))
	if err != nil {
		return 0, err
	}
	capped, err := s.repo.EnforceCap(ExternalRatingMaxEntries)
	if err != nil {
		return expired, err
	}
	return expired + capped, nil
}

// ClearMemory 清空内存 LRU，数据库缓存保留
func (s *ExternalRatingsService) ClearMemory() int {
	return s.front.Clear()
}

// Stats 缓存统计
func (s *ExternalRatingsService) Stats() (*repository.ExternalRatingStats, error) {
	return s.repo.Stats(s.now().Add(-ExternalRatingExpiry))
}
