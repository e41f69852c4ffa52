package model

import (
	"time"

	"github.com/lib/pq"
)

// Movie 电影模型（TMDB 信息，评分/片单/讨论写入前懒加载入库）
type Movie struct {
	ID                  int            `json:"id" db:"id" gorm:"primaryKey;autoIncrement:false"`
	Title               string         `json:"title" db:"title"`
	Overview            string         `json:"overview" db:"overview"`
	PosterPath          string         `json:"poster_path" db:"poster_path"`
	BackdropPath        string         `json:"backdrop_path" db:"backdrop_path"`
	ReleaseDate         string         `json:"release_date" db:"release_date"`
	VoteAverage         float64        `json:"vote_average" db:"vote_average"`
	VoteCount           int            `json:"vote_count" db:"vote_count"`
	Popularity          float64        `json:"popularity" db:"popularity" gorm:"index"`
	Runtime             int            `json:"runtime" db:"runtime"`
	Genres              pq.StringArray `json:"genres" db:"genres" gorm:"type:text[]"`
	ProductionCompanies pq.StringArray `json:"production_companies" db:"production_companies" gorm:"type:text[]"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

// Year 上映年份（无日期时返回空字符串）
func (m *Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// Normalize 填充缺省字段
func (m *Movie) Normalize() {
	if m.Title == "" {
		m.Title = "Unknown Title"
	}
	if m.Genres == nil {
		m.Genres = pq.StringArray{}
	}
	if m.ProductionCompanies == nil {
		m.ProductionCompanies = pq.StringArray{}
	}
}

// CastMember 演员
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

// Video 预告片等视频
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// ExternalRatings 第三方评分（IMDb / 烂番茄），缺失时为 "N/A"
type ExternalRatings struct {
	IMDbRating           string `json:"imdb_rating"`
	RottenTomatoesRating string `json:"rotten_tomatoes_rating"`
}

// MovieDetail 电影详情页数据
type MovieDetail struct {
	Movie
	Cast       []CastMember    `json:"cast"`
	Videos     []Video         `json:"videos"`
	Similar    []Movie         `json:"similar"`
	Ratings    ExternalRatings `json:"external_ratings"`
	DreadScore *DreadScore     `json:"dread_score"`
	Fallback   bool            `json:"fallback"`
}

// MoviePage 分页电影列表
type MoviePage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// IDs 列表中的电影 ID
func (p *MoviePage) IDs() []int {
	ids := make([]int, 0, len(p.Results))
	for _, m := range p.Results {
		ids = append(ids, m.ID)
	}
	return ids
}
