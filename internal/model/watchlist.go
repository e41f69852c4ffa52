package model

import "time"

// WatchlistEntry 片单条目，(user, movie) 唯一
type WatchlistEntry struct {
	ID      int       `json:"id" db:"id" gorm:"primaryKey"`
	UserID  string    `json:"user_id" db:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_watchlist_user_movie"`
	MovieID int       `json:"movie_id" db:"movie_id" gorm:"not null;uniqueIndex:idx_watchlist_user_movie"`
	AddedAt time.Time `json:"added_at" db:"added_at" gorm:"index"`

	User  *User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Movie *Movie `json:"movie,omitempty" gorm:"foreignKey:MovieID"`
}

// WatchlistItem 片单展示结构
type WatchlistItem struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	PosterPath  string    `json:"poster_path"`
	ReleaseDate string    `json:"release_date"`
	VoteAverage float64   `json:"vote_average"`
	AddedAt     time.Time `json:"added_at"`
}

// ImportEntry 导入文件中解析出的一条电影
type ImportEntry struct {
	Title  string `json:"title"`
	Year   string `json:"year,omitempty"`
	IMDbID string `json:"imdb_id,omitempty"`
}

// ImportResult 片单导入结果
type ImportResult struct {
	SuccessCount      int           `json:"success_count"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	FailedMovies      []ImportEntry `json:"failed_movies"`
	TotalProcessed    int           `json:"total_processed"`
}
