package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/dreadscale/internal/model"
	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create 写入留言
func (r *ChatRepository) Create(msg *model.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return r.db.Create(msg).Error
}

// ListByMovie 某部电影的留言（按时间正序）
func (r *ChatRepository) ListByMovie(movieID int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("movie_id = ?", movieID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// FindByID 根据 ID 查找留言
func (r *ChatRepository) FindByID(id string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := r.db.Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteByAuthor 删除留言，仅当 user_id 匹配时生效
func (r *ChatRepository) DeleteByAuthor(id, userID string) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.ChatMessage{})
	return result.RowsAffected, result.Error
}

// CountByMovie 某部电影的留言数量
func (r *ChatRepository) CountByMovie(movieID int) (int, error) {
	var count int64
	err := r.db.Model(&model.ChatMessage{}).Where("movie_id = ?", movieID).Count(&count).Error
	return int(count), err
}
