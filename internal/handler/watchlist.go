package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/dreadscale/internal/middleware"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/service"
	"github.com/user/dreadscale/internal/utils"
)

// maxImportSize 导入文件大小上限
const maxImportSize = 5 << 20

type watchlistRequest struct {
	MovieID int          `json:"movie_id" binding:"required,gt=0"`
	Movie   *model.Movie `json:"movie"`
}

type importRequest struct {
	Content string `json:"content"`
}

// GetWatchlist 当前用户的片单（最新加入在前）
func (h *Handler) GetWatchlist(c *gin.Context) {
	items := h.Watchlist.List(middleware.GetUserID(c))
	utils.Success(c, gin.H{
		"items": items,
		"count": len(items),
	})
}

// AddToWatchlist 加入片单，已存在时返回 duplicate（不是错误）
func (h *Handler) AddToWatchlist(c *gin.Context) {
	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindingMessage(err, "movie_id is required"))
		return
	}
	userID := middleware.GetUserID(c)

	outcome, err := h.Watchlist.Add(c.Request.Context(), userID, req.MovieID, req.Movie)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Nav.InvalidateUser(userID)

	message := "Added to watchlist"
	if outcome == service.AddOutcomeDuplicate {
		message = "Already in your watchlist"
	}
	utils.SuccessWithMessage(c, message, gin.H{
		"outcome":      outcome,
		"in_watchlist": true,
	})
}

// RemoveFromWatchlist 移出片单
func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.Watchlist.Remove(c.Request.Context(), userID, movieID); err != nil {
		respondError(c, err)
		return
	}
	h.Nav.InvalidateUser(userID)

	utils.SuccessWithMessage(c, "Removed from watchlist", gin.H{"in_watchlist": false})
}

// WatchlistStatus 电影是否在片单中（未登录返回 false）
func (h *Handler) WatchlistStatus(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	utils.Success(c, gin.H{
		"in_watchlist": h.Watchlist.IsInWatchlist(middleware.GetUserID(c), movieID),
	})
}

// ImportWatchlist 导入片单：multipart 文件字段 file，或 JSON {"content": "..."}
func (h *Handler) ImportWatchlist(c *gin.Context) {
	userID := middleware.GetUserID(c)

	content, err := readImportContent(c)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	entries, err := utils.ParseImport(content)
	if err != nil {
		utils.BadRequest(c, "Could not read the import file")
		return
	}
	if len(entries) == 0 {
		utils.BadRequest(c, "No movies found in the import file")
		return
	}

	result, err := h.Watchlist.Import(c.Request.Context(), userID, entries, func(done, total int, title string) {
		log.Printf("[Import] %d/%d %s", done, total, title)
	})
	h.Nav.InvalidateUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, result)
}

func readImportContent(c *gin.Context) (string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", errors.New("Could not open the uploaded file")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", errors.New("Could not read the uploaded file")
		}
		return string(data), nil
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		return "", errors.New("Please upload a watchlist file")
	}
	return req.Content, nil
}

// ExportWatchlist 导出片单为 CSV 下载
func (h *Handler) ExportWatchlist(c *gin.Context) {
	filename := "watchlist_" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := h.Watchlist.Export(middleware.GetUserID(c), c.Writer); err != nil {
		log.Printf("[Handler] 导出片单失败: %v", err)
	}
}
