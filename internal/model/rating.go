package model

import (
	"fmt"
	"time"
)

// Rating 用户对某部电影某个细分内容维度的评分（0 表示 N/A，不参与统计）
type Rating struct {
	ID          int       `json:"id" db:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" db:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_rating_unique"`
	MovieID     int       `json:"movie_id" db:"movie_id" gorm:"not null;uniqueIndex:idx_rating_unique;index"`
	Category    string    `json:"category" db:"category" gorm:"type:varchar(64);not null;uniqueIndex:idx_rating_unique"`
	Subcategory string    `json:"subcategory" db:"subcategory" gorm:"type:varchar(64);not null;uniqueIndex:idx_rating_unique"`
	Rating      int       `json:"rating" db:"rating" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	User  *User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Movie *Movie `json:"-" gorm:"foreignKey:MovieID"`
}

// RatingKey 评分查找键 "category_subcategory"
func RatingKey(category, subcategory string) string {
	return category + "_" + subcategory
}

// SubcategoryStat 某部电影某个细分维度的社区评分统计
type SubcategoryStat struct {
	MovieID       int     `json:"movie_id" db:"movie_id"`
	Category      string  `json:"category" db:"category"`
	Subcategory   string  `json:"subcategory" db:"subcategory"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	RatingCount   int     `json:"rating_count" db:"rating_count"`
}

// FormattedAverage 保留一位小数
func (s SubcategoryStat) FormattedAverage() string {
	return fmt.Sprintf("%.1f", s.AverageRating)
}

// DreadScore 电影加权内容评分（派生数据，只读）
type DreadScore struct {
	MovieID      int     `json:"movie_id"`
	Score        float64 `json:"dread_score"`
	TotalRatings int     `json:"total_ratings"`
}

// Label 展示文案，无评分时返回 "No content ratings"
func (d *DreadScore) Label() string {
	if d == nil || d.TotalRatings == 0 {
		return "No content ratings"
	}
	return fmt.Sprintf("%.1f", d.Score)
}
