package repository

import (
	"errors"
	"time"

	"github.com/user/dreadscale/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExternalRatingStats 外部评分缓存统计
type ExternalRatingStats struct {
	TotalEntries   int64      `json:"total_entries"`
	ValidEntries   int64      `json:"valid_entries"`
	ExpiredEntries int64      `json:"expired_entries"`
	OldestEntry    *time.Time `json:"oldest_entry"`
	NewestEntry    *time.Time `json:"newest_entry"`
}

type ExternalRatingRepository struct {
	db *gorm.DB
}

func NewExternalRatingRepository(db *gorm.DB) *ExternalRatingRepository {
	return &ExternalRatingRepository{db: db}
}

// Find 查找未过期的缓存（cached_at 晚于 since）
func (r *ExternalRatingRepository) Find(cacheKey string, since time.Time) (*model.ExternalRatingCache, error) {
	var entry model.ExternalRatingCache
	err := r.db.Where("cache_key = ? AND cached_at > ?", cacheKey, since).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert 创建或更新缓存（按 cache_key 唯一）
func (r *ExternalRatingRepository) Upsert(entry *model.ExternalRatingCache) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "year", "imdb_rating", "rotten_tomatoes_rating", "cached_at"}),
	}).Create(entry).Error
}

// ListValid 未过期且至少有一个评分的缓存（最新在前）
func (r *ExternalRatingRepository) ListValid(since time.Time, limit int) ([]*model.ExternalRatingCache, error) {
	var entries []*model.ExternalRatingCache
	err := r.db.
		Where("cached_at > ? AND (imdb_rating IS NOT NULL OR rotten_tomatoes_rating IS NOT NULL)", since).
		Order("cached_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// CleanExpired 清理过期缓存
func (r *ExternalRatingRepository) CleanExpired(before time.Time) (int64, error) {
	result := r.db.Where("cached_at <= ?", before).Delete(&model.ExternalRatingCache{})
	return result.RowsAffected, result.Error
}

// EnforceCap 超出上限时删除最旧的条目
func (r *ExternalRatingRepository) EnforceCap(max int) (int64, error) {
	var stale []string
	err := r.db.Model(&model.ExternalRatingCache{}).
		Order("cached_at DESC").
		Offset(max).
		Limit(100000).
		Pluck("cache_key", &stale).Error
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	result := r.db.Where("cache_key IN ?", stale).Delete(&model.ExternalRatingCache{})
	return result.RowsAffected, result.Error
}

// Stats 缓存统计
func (r *ExternalRatingRepository) Stats(since time.Time) (*ExternalRatingStats, error) {
	stats := &ExternalRatingStats{}
	if err := r.db.Model(&model.ExternalRatingCache{}).Count(&stats.TotalEntries).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.ExternalRatingCache{}).Where("cached_at > ?", since).Count(&stats.ValidEntries).Error; err != nil {
		return nil, err
	}
	stats.ExpiredEntries = stats.TotalEntries - stats.ValidEntries

	var oldest, newest model.ExternalRatingCache
	if stats.TotalEntries > 0 {
		if err := r.db.Order("cached_at ASC").First(&oldest).Error; err == nil {
			stats.OldestEntry = &oldest.CachedAt
		}
		if err := r.db.Order("cached_at DESC").First(&newest).Error; err == nil {
			stats.NewestEntry = &newest.CachedAt
		}
	}
	return stats, nil
}
