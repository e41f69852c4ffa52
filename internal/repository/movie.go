package repository

import (
	"errors"
	"time"

	"github.com/user/dreadscale/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// EnsureExists 保证电影行存在（已存在则不做任何修改），评分/片单/讨论写入前调用
func (r *MovieRepository) EnsureExists(movie *model.Movie) error {
	row := *movie
	row.Normalize()
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// Upsert 创建或更新电影元数据
func (r *MovieRepository) Upsert(movie *model.Movie) error {
	movie.Normalize()
	movie.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "overview", "poster_path", "backdrop_path", "release_date",
			"vote_average", "vote_count", "popularity", "runtime",
			"genres", "production_companies", "updated_at",
		}),
	}).Create(movie).Error
}

// FindByID 根据 TMDB ID 查找电影
func (r *MovieRepository) FindByID(id int) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.Where("id = ?", id).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// FindByIDs 批量查找，返回 id -> 电影
func (r *MovieRepository) FindByIDs(ids []int) (map[int]*model.Movie, error) {
	result := make(map[int]*model.Movie, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var movies []*model.Movie
	if err := r.db.Where("id IN ?", ids).Find(&movies).Error; err != nil {
		return nil, err
	}
	for _, m := range movies {
		result[m.ID] = m
	}
	return result, nil
}
