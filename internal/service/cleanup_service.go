package service

import (
	"context"
	"log"
	"time"
)

// CleanupInterval 外部评分缓存清理周期
const CleanupInterval = 24 * time.Hour

// CleanupService 定时清理过期和超量的外部评分缓存
type CleanupService struct {
	external *ExternalRatingsService
	interval time.Duration
}

// NewCleanupService 创建清理服务
func NewCleanupService(external *ExternalRatingsService, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = CleanupInterval
	}
	return &CleanupService{external: external, interval: interval}
}

// Start 启动定时清理任务，ctx 取消后退出
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	// 启动时先运行一次
	go s.RunOnce()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce()
			}
		}
	}()
}

// RunOnce 执行一次清理，返回删除条数
func (s *CleanupService) RunOnce() int64 {
	log.Println("[CleanupService] 开始清理外部评分缓存...")

	removed, err := s.external.Prune()
	if err != nil {
		log.Printf("[CleanupService] 清理外部评分缓存失败: %v", err)
		return removed
	}
	if removed > 0 {
		log.Printf("[CleanupService] 已清理 %d 条外部评分缓存", removed)
	}
	return removed
}
