package model

import "time"

// ChatMessage 电影讨论区留言（只追加，仅作者可删除）
type ChatMessage struct {
	ID          string    `json:"id" db:"id" gorm:"primaryKey;type:varchar(36)"`
	MovieID     int       `json:"movie_id" db:"movie_id" gorm:"not null;index:idx_chat_movie_created"`
	UserID      *string   `json:"user_id" db:"user_id" gorm:"type:varchar(36);index"`
	Username    string    `json:"username" db:"username"`
	Message     string    `json:"message" db:"message" gorm:"type:varchar(500);not null"`
	IsAnonymous bool      `json:"is_anonymous" db:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"index:idx_chat_movie_created"`

	Movie *Movie `json:"-" gorm:"foreignKey:MovieID"`
}

// ChatView 讨论区展示结构
type ChatView struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	Username     string    `json:"username"`
	Timestamp    time.Time `json:"timestamp"`
	IsRegistered bool      `json:"is_registered"`
	UserID       *string   `json:"user_id,omitempty"`
}

// View 转换为展示结构
func (m *ChatMessage) View() ChatView {
	return ChatView{
		ID:           m.ID,
		Message:      m.Message,
		Username:     m.Username,
		Timestamp:    m.CreatedAt,
		IsRegistered: !m.IsAnonymous,
		UserID:       m.UserID,
	}
}
