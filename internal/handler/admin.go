package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/dreadscale/internal/utils"
)

// ==================== 管理接口 ====================

// AdminCacheStats 外部评分缓存统计
func (h *Handler) AdminCacheStats(c *gin.Context) {
	stats, err := h.External.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, stats)
}

// AdminCachePrune 立即清理过期和超量的外部评分缓存
func (h *Handler) AdminCachePrune(c *gin.Context) {
	affected := h.Cleanup.RunOnce()

	utils.Success(c, gin.H{
		"affected": affected,
		"message":  "Cache cleaned",
	})
}

// AdminCacheClear 清空进程内缓存
func (h *Handler) AdminCacheClear(c *gin.Context) {
	cleared := h.Services.ClearCaches()

	utils.Success(c, gin.H{
		"cleared": cleared,
		"message": "In-memory caches cleared",
	})
}
