package repository

import (
	"time"

	"github.com/user/dreadscale/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Add 加入片单，已存在时返回 false
func (r *WatchlistRepository) Add(userID string, movieID int) (bool, error) {
	entry := &model.WatchlistEntry{
		UserID:  userID,
		MovieID: movieID,
		AddedAt: time.Now(),
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoNothing: true,
	}).Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Remove 移出片单
func (r *WatchlistRepository) Remove(userID string, movieID int) (int64, error) {
	result := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.WatchlistEntry{})
	return result.RowsAffected, result.Error
}

// Exists 检查是否已在片单中
func (r *WatchlistRepository) Exists(userID string, movieID int) (bool, error) {
	var count int64
	err := r.db.Model(&model.WatchlistEntry{}).Where("user_id = ? AND movie_id = ?", userID, movieID).Count(&count).Error
	return count > 0, err
}

// ListByUser 获取用户片单（最新加入在前）
func (r *WatchlistRepository) ListByUser(userID string) ([]*model.WatchlistEntry, error) {
	var entries []*model.WatchlistEntry
	err := r.db.Preload("Movie").
		Where("user_id = ?", userID).
		Order("added_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// MovieIDs 用户片单中的电影 ID（与 ListByUser 顺序一致）
func (r *WatchlistRepository) MovieIDs(userID string) ([]int, error) {
	var ids []int
	err := r.db.Model(&model.WatchlistEntry{}).
		Where("user_id = ?", userID).
		Order("added_at DESC, id DESC").
		Pluck("movie_id", &ids).Error
	return ids, err
}

// CountByUser 统计用户片单数量
func (r *WatchlistRepository) CountByUser(userID string) (int, error) {
	var count int64
	err := r.db.Model(&model.WatchlistEntry{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}
