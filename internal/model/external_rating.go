package model

import "time"

// ExternalRatingCache OMDb 评分持久化缓存
type ExternalRatingCache struct {
	CacheKey             string    `json:"cache_key" db:"cache_key" gorm:"primaryKey;type:varchar(255)"`
	Title                string    `json:"title" db:"title"`
	Year                 string    `json:"year" db:"year"`
	IMDbRating           *string   `json:"imdb_rating" db:"imdb_rating" gorm:"column:imdb_rating"`
	RottenTomatoesRating *string   `json:"rotten_tomatoes_rating" db:"rotten_tomatoes_rating"`
	CachedAt             time.Time `json:"cached_at" db:"cached_at" gorm:"index"`
}

// HasRatings 至少有一个评分非空才认为缓存有效
func (c *ExternalRatingCache) HasRatings() bool {
	return c.IMDbRating != nil || c.RottenTomatoesRating != nil
}

// Ratings 转换为展示结构，空值显示为 "N/A"
func (c *ExternalRatingCache) Ratings() ExternalRatings {
	r := ExternalRatings{IMDbRating: "N/A", RottenTomatoesRating: "N/A"}
	if c.IMDbRating != nil {
		r.IMDbRating = *c.IMDbRating
	}
	if c.RottenTomatoesRating != nil {
		r.RottenTomatoesRating = *c.RottenTomatoesRating
	}
	return r
}
