package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/utils"
)

const (
	// ChatCacheTTL 讨论区缓存有效期
	ChatCacheTTL = 2 * time.Minute
	// MaxChatMessageLength 留言最大字符数
	MaxChatMessageLength = 500
	// AnonymousUsername 匿名留言的展示名
	AnonymousUsername = "Anonymous"
)

// ChatService 电影讨论区
type ChatService struct {
	repo   *repository.ChatRepository
	movies *MovieStore
	cache  *utils.TTLCache[[]model.ChatView]
}

func NewChatService(repo *repository.ChatRepository, movies *MovieStore) *ChatService {
	return &ChatService{
		repo:   repo,
		movies: movies,
		cache:  utils.NewTTLCache[[]model.ChatView](ChatCacheTTL, time.Minute),
	}
}

// ClearCache 清空讨论区缓存
func (s *ChatService) ClearCache() int {
	return s.cache.Clear()
}

func chatKey(movieID int) string {
	return "chat:" + movieKey(movieID)
}

// ValidateMessage 去掉首尾空白后校验长度
func ValidateMessage(message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", ErrMessageEmpty
	}
	if utf8.RuneCountInString(trimmed) > MaxChatMessageLength {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

// Post 发表留言。userID 或 username 为空时按匿名处理
func (s *ChatService) Post(ctx context.Context, movieID int, userID, username, message string, movieData *model.Movie) (*model.ChatView, error) {
	text, err := ValidateMessage(message)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.movies.Ensure(movieID, movieData); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		MovieID: movieID,
		Message: text,
	}
	username = strings.TrimSpace(username)
	if userID == "" || username == "" {
		msg.Username = AnonymousUsername
		msg.IsAnonymous = true
	} else {
		uid := userID
		msg.UserID = &uid
		msg.Username = username
	}

	if err := s.repo.Create(msg); err != nil {
		return nil, fmt.Errorf("发表留言失败: %w", err)
	}
	s.cache.Delete(chatKey(movieID))

	view := msg.View()
	return &view, nil
}

// List 留言列表（按时间正序）
func (s *ChatService) List(movieID int) []model.ChatView {
	views, err := s.cache.GetOrLoad(chatKey(movieID), func() ([]model.ChatView, error) {
		messages, err := s.repo.ListByMovie(movieID)
		if err != nil {
			return nil, err
		}
		views := make([]model.ChatView, 0, len(messages))
		for _, m := range messages {
			views = append(views, m.View())
		}
		return views, nil
	})
	if err != nil {
		log.Printf("[ChatService] 读取留言失败 (movie=%d): %v", movieID, err)
		return []model.ChatView{}
	}
	return views
}

// Delete 删除留言，仅作者本人可删除
func (s *ChatService) Delete(ctx context.Context, messageID, userID string) error {
	if userID == "" {
		return ErrNotLoggedIn
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.repo.FindByID(messageID)
	if err != nil {
		return fmt.Errorf("读取留言失败: %w", err)
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.UserID == nil || *msg.UserID != userID {
		return ErrNotAuthor
	}

	n, err := s.repo.DeleteByAuthor(messageID, userID)
	if err != nil {
		return fmt.Errorf("删除留言失败: %w", err)
	}
	if n == 0 {
		return ErrMessageNotFound
	}
	s.cache.Delete(chatKey(msg.MovieID))
	return nil
}

// Count 留言数量
func (s *ChatService) Count(movieID int) int {
	n, err := s.repo.CountByMovie(movieID)
	if err != nil {
		log.Printf("[ChatService] 统计留言失败 (movie=%d): %v", movieID, err)
		return 0
	}
	return n
}
