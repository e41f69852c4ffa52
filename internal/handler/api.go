package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/dreadscale/internal/middleware"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/service"
	"github.com/user/dreadscale/internal/taxonomy"
	"github.com/user/dreadscale/internal/utils"
)

const (
	// maxScoreIDs 单次批量查询 DreadScore 的电影数上限
	maxScoreIDs = 100
	// defaultTopLimit / maxTopLimit 排行榜条数
	defaultTopLimit = 50
	maxTopLimit     = 100
)

type ratingRequest struct {
	Category    string       `json:"category" binding:"required"`
	Subcategory string       `json:"subcategory" binding:"required"`
	Rating      *int         `json:"rating" binding:"required"`
	Movie       *model.Movie `json:"movie"`
}

type chatRequest struct {
	Message string       `json:"message" form:"message"`
	Movie   *model.Movie `json:"movie"`
}

// Status 服务状态与配置告警
func (h *Handler) Status(c *gin.Context) {
	utils.Success(c, gin.H{
		"site_name":       h.Config.SiteName,
		"tmdb_configured": h.Config.TMDBAPIKey != "",
		"omdb_configured": h.Config.OMDbAPIKey != "",
		"warnings":        h.Config.Warnings(),
	})
}

// Taxonomy 评分体系
func (h *Handler) Taxonomy(c *gin.Context) {
	utils.Success(c, gin.H{
		"categories":        taxonomy.Categories(),
		"subcategory_count": taxonomy.Count(),
		"min_rating":        taxonomy.MinRating,
		"max_rating":        taxonomy.MaxRating,
	})
}

// ==================== 电影 ====================

// ListMovies TMDB 列表（popular / top_rated / upcoming / now_playing）
func (h *Handler) ListMovies(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	result, err := h.Movies.List(c.Request.Context(), c.DefaultQuery("list", service.ListPopular), page)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, result)
}

// SearchMovies 标题搜索
func (h *Handler) SearchMovies(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		utils.BadRequest(c, "Please enter a movie title")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	result, err := h.Movies.Search(c.Request.Context(), query, c.Query("year"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, result)
}

// MovieDetail 电影详情 + 导航上下文
func (h *Handler) MovieDetail(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	detail, err := h.Movies.Detail(ctx, movieID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, gin.H{
		"movie":        detail,
		"navigation":   h.Nav.Resolve(ctx, movieID, navContext(c, userID)),
		"in_watchlist": h.Watchlist.IsInWatchlist(userID, movieID),
		"chat_count":   h.Chat.Count(movieID),
	})
}

// DreadScores 批量获取 DreadScore：?ids=1,2,3
func (h *Handler) DreadScores(c *gin.Context) {
	ids := parseIDs(c.Query("ids"))
	if len(ids) == 0 {
		utils.BadRequest(c, "ids is required")
		return
	}
	if len(ids) > maxScoreIDs {
		utils.BadRequest(c, fmt.Sprintf("At most %d ids per request", maxScoreIDs))
		return
	}
	utils.Success(c, h.Ratings.BatchFetchDreadScores(ids))
}

// TopMovies 按 DreadScore 排序的已评分电影，limit 限制在 1..100
func (h *Handler) TopMovies(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	utils.Success(c, h.Ratings.TopByDreadScore(limit))
}

// ==================== 内容评分 ====================

// MovieRatings 某部电影的社区统计、当前用户评分和 DreadScore
func (h *Handler) MovieRatings(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	userID := middleware.GetUserID(c)

	utils.Success(c, gin.H{
		"stats":            h.Ratings.BatchFetchRatingStats(movieID),
		"user_ratings":     h.Ratings.BatchFetchUserRatings(userID, movieID),
		"has_user_ratings": h.Ratings.HasUserRatings(userID, movieID),
		"dread_score":      h.Ratings.GetDreadScore(movieID),
		"unique_raters":    h.Ratings.GetUniqueRaterCount(movieID),
	})
}

// SaveRating 保存单项评分（0 表示 N/A），返回保存后的权威值
func (h *Handler) SaveRating(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "category, subcategory and rating are required")
		return
	}
	userID := middleware.GetUserID(c)

	saved, err := h.Ratings.SaveUserRating(c.Request.Context(), userID, movieID, req.Category, req.Subcategory, *req.Rating, req.Movie)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, h.ratingSummary(movieID, req.Category, req.Subcategory, &saved.Rating))
}

// ClearRating 删除单项评分
func (h *Handler) ClearRating(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	category, subcategory := c.Param("category"), c.Param("subcategory")

	err := h.Ratings.ClearUserRating(c.Request.Context(), middleware.GetUserID(c), movieID, category, subcategory)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, h.ratingSummary(movieID, category, subcategory, nil))
}

// ClearAllRatings 删除当前用户对该电影的全部评分
func (h *Handler) ClearAllRatings(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}

	n, err := h.Ratings.ClearAllUserRatings(c.Request.Context(), middleware.GetUserID(c), movieID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"deleted":     n,
		"dread_score": h.Ratings.GetDreadScore(movieID),
	})
}

func (h *Handler) ratingSummary(movieID int, category, subcategory string, rating *int) gin.H {
	return gin.H{
		"category":      category,
		"subcategory":   subcategory,
		"rating":        rating,
		"average":       h.Ratings.GetAverageRating(movieID, category, subcategory),
		"count":         h.Ratings.GetRatingCount(movieID, category, subcategory),
		"dread_score":   h.Ratings.GetDreadScore(movieID),
		"unique_raters": h.Ratings.GetUniqueRaterCount(movieID),
	}
}

// ==================== 讨论区 ====================

// ChatMessages 留言列表
func (h *Handler) ChatMessages(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	utils.Success(c, h.Chat.List(movieID))
}

// PostChatMessage 发表留言，未登录时匿名
func (h *Handler) PostChatMessage(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "Invalid movie id")
		return
	}
	var req chatRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, "Invalid message")
		return
	}

	userID := middleware.GetUserID(c)
	username := ""
	if userID != "" {
		if user, err := h.Auth.Me(userID); err == nil {
			username = user.DisplayName()
		} else {
			userID = ""
		}
	}

	msg, err := h.Chat.Post(c.Request.Context(), movieID, userID, username, req.Message, req.Movie)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, msg)
}

// DeleteChatMessage 删除自己的留言
func (h *Handler) DeleteChatMessage(c *gin.Context) {
	if err := h.Chat.Delete(c.Request.Context(), c.Param("messageId"), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// ==================== 高级搜索 ====================

// AdvancedSearch 按内容评分过滤
func (h *Handler) AdvancedSearch(c *gin.Context) {
	var req service.AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid search filters")
		return
	}

	results, err := h.Search.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"results": results,
		"total":   len(results),
	})
}
