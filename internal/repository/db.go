package repository

import (
	"fmt"

	"github.com/user/dreadscale/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// AutoMigrate 创建/更新表结构（唯一索引保证评分与片单不重复）
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Movie{},
		&model.Rating{},
		&model.WatchlistEntry{},
		&model.ChatMessage{},
		&model.ExternalRatingCache{},
	); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

// Repositories 仓库集合
type Repositories struct {
	DB             *gorm.DB
	User           *UserRepository
	Movie          *MovieRepository
	Rating         *RatingRepository
	Watchlist      *WatchlistRepository
	Chat           *ChatRepository
	ExternalRating *ExternalRatingRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:             db,
		User:           NewUserRepository(db),
		Movie:          NewMovieRepository(db),
		Rating:         NewRatingRepository(db),
		Watchlist:      NewWatchlistRepository(db),
		Chat:           NewChatRepository(db),
		ExternalRating: NewExternalRatingRepository(db),
	}
}
