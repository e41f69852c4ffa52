package repository

import (
	"errors"
	"time"

	"github.com/user/dreadscale/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert 按 (user, movie, category, subcategory) 插入或覆盖评分
func (r *RatingRepository) Upsert(rating *model.Rating) error {
	now := time.Now()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = now
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "movie_id"}, {Name: "category"}, {Name: "subcategory"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(rating).Error
}

// Find 查找用户的单项评分，不存在返回 nil
func (r *RatingRepository) Find(userID string, movieID int, category, subcategory string) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.
		Where("user_id = ? AND movie_id = ? AND category = ? AND subcategory = ?", userID, movieID, category, subcategory).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// ListByUserMovie 用户对某部电影的全部评分
func (r *RatingRepository) ListByUserMovie(userID string, movieID int) ([]*model.Rating, error) {
	var ratings []*model.Rating
	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).
		Order("category ASC, subcategory ASC").
		Find(&ratings).Error
	return ratings, err
}

// Delete 删除单项评分，返回删除条数
func (r *RatingRepository) Delete(userID string, movieID int, category, subcategory string) (int64, error) {
	result := r.db.
		Where("user_id = ? AND movie_id = ? AND category = ? AND subcategory = ?", userID, movieID, category, subcategory).
		Delete(&model.Rating{})
	return result.RowsAffected, result.Error
}

// DeleteAllForMovie 删除用户对某部电影的所有评分
func (r *RatingRepository) DeleteAllForMovie(userID string, movieID int) (int64, error) {
	result := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.Rating{})
	return result.RowsAffected, result.Error
}

// StatsForMovies 按电影和细分维度聚合社区评分（rating > 0）
func (r *RatingRepository) StatsForMovies(movieIDs []int) ([]model.SubcategoryStat, error) {
	var stats []model.SubcategoryStat
	if len(movieIDs) == 0 {
		return stats, nil
	}
	err := r.db.Model(&model.Rating{}).
		Select("movie_id, category, subcategory, AVG(rating) AS average_rating, COUNT(*) AS rating_count").
		Where("movie_id IN ? AND rating > 0", movieIDs).
		Group("movie_id, category, subcategory").
		Order("movie_id, category, subcategory").
		Scan(&stats).Error
	return stats, err
}

// DistinctRaters 为某部电影评过分的不同用户数
func (r *RatingRepository) DistinctRaters(movieID int) (int64, error) {
	var count int64
	err := r.db.Model(&model.Rating{}).
		Where("movie_id = ?", movieID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

// MoviesRatedByUser 用户评过分的不同电影数
func (r *RatingRepository) MoviesRatedByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Rating{}).
		Where("user_id = ?", userID).
		Distinct("movie_id").
		Count(&count).Error
	return count, err
}

// HasUserRatings 用户是否对某部电影有任何评分
func (r *RatingRepository) HasUserRatings(userID string, movieID int) (bool, error) {
	var ids []int
	err := r.db.Model(&model.Rating{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

// RatedMovieIDs 有有效评分的电影，按有效评分数量倒序
func (r *RatingRepository) RatedMovieIDs(limit int) ([]int, error) {
	var ids []int
	err := r.db.Model(&model.Rating{}).
		Select("movie_id").
		Where("rating > 0").
		Group("movie_id").
		Order("COUNT(*) DESC, movie_id ASC").
		Limit(limit).
		Pluck("movie_id", &ids).Error
	return ids, err
}
