package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/dreadscale/internal/config"
	"github.com/user/dreadscale/internal/middleware"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/service"
	"github.com/user/dreadscale/internal/taxonomy"
)

// Session 中的键
const (
	sessionUserKey  = "userinfo"
	sessionThemeKey = "theme"
)

// Handler HTTP 处理器
type Handler struct {
	Config *config.Config
	*service.Services
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, services *service.Services) *Handler {
	return &Handler{
		Config:   cfg,
		Services: services,
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	// 基础数据
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
		"Theme":    h.theme(c),
		"Warnings": h.Config.Warnings(),
	}

	// 注入用户信息
	if su, ok := h.sessionUser(c); ok {
		res["UserInfo"] = su
	}

	res["ActiveMenu"] = h.getActiveMenu(c.Request.URL.Path)

	// 合并传入的数据
	for k, v := range data {
		res[k] = v
	}

	return res
}

// getActiveMenu 根据路径判断当前高亮菜单
func (h *Handler) getActiveMenu(path string) string {
	switch {
	case path == "/" || path == "/movies":
		return "movies"
	case path == "/search-plus" || path == "/advanced-search":
		return "search"
	case path == "/account":
		return "account"
	case path == "/about":
		return "about"
	default:
		return ""
	}
}

func (h *Handler) sessionUser(c *gin.Context) (model.SessionUser, bool) {
	session := sessions.Default(c)
	if userinfo := session.Get(sessionUserKey); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			return su, true
		}
	}
	return model.SessionUser{}, false
}

func (h *Handler) theme(c *gin.Context) string {
	session := sessions.Default(c)
	if theme, ok := session.Get(sessionThemeKey).(string); ok && theme != "" {
		return theme
	}
	return "dark"
}

// ==================== 页面 ====================

// ListPage 电影列表页（首页）
func (h *Handler) ListPage(c *gin.Context) {
	list := c.DefaultQuery("list", service.ListPopular)
	if !service.ValidList(list) {
		list = service.ListPopular
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	query := strings.TrimSpace(c.Query("q"))

	var (
		result *service.MoviesWithScores
		err    error
	)
	if query != "" {
		result, err = h.Movies.Search(c.Request.Context(), query, c.Query("year"), page)
	} else {
		result, err = h.Movies.List(c.Request.Context(), list, page)
	}

	data := gin.H{
		"Title": h.Config.SiteName + " - Content ratings for movies",
		"List":  list,
		"Query": query,
		"Lists": []string{service.ListPopular, service.ListTopRated, service.ListUpcoming, service.ListNowPlaying},
	}
	if err != nil {
		// 读操作失败时展示空列表
		data["Error"] = "Unable to load movies right now. Please try again later."
	} else {
		data["Movies"] = result
	}
	c.HTML(http.StatusOK, "list.html", h.RenderData(c, data))
}

// SearchPage 按内容评分的高级搜索页
func (h *Handler) SearchPage(c *gin.Context) {
	c.HTML(http.StatusOK, "search.html", h.RenderData(c, gin.H{
		"Title":      "Advanced Search - " + h.Config.SiteName,
		"Categories": taxonomy.Categories(),
	}))
}

// AccountPage 登录/注册/个人资料页
func (h *Handler) AccountPage(c *gin.Context) {
	data := gin.H{
		"Title":    "Account - " + h.Config.SiteName,
		"Redirect": c.Query("redirect"),
	}
	if userID := middleware.GetUserID(c); userID != "" {
		if user, err := h.Auth.Me(userID); err == nil {
			data["User"] = user
			data["Watchlist"] = h.Watchlist.List(userID)
			data["MoviesRated"] = h.Ratings.GetMoviesRatedCount(userID)
		}
	}
	c.HTML(http.StatusOK, "account.html", h.RenderData(c, data))
}

// AboutPage 关于页（评分体系说明）
func (h *Handler) AboutPage(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", h.RenderData(c, gin.H{
		"Title":      "About - " + h.Config.SiteName,
		"Categories": taxonomy.Categories(),
	}))
}

// MoviePage 电影详情页
func (h *Handler) MoviePage(c *gin.Context, movieID int) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	detail, err := h.Movies.Detail(ctx, movieID)
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
			"Title": "Movie not found - " + h.Config.SiteName,
		}))
		return
	}

	nav := h.Nav.Resolve(ctx, movieID, navContext(c, userID))

	c.HTML(http.StatusOK, "movie.html", h.RenderData(c, gin.H{
		"Title":        detail.Title + " - " + h.Config.SiteName,
		"Movie":        detail,
		"Navigation":   nav,
		"Categories":   taxonomy.Categories(),
		"Stats":        h.Ratings.BatchFetchRatingStats(movieID),
		"UserRatings":  h.Ratings.BatchFetchUserRatings(userID, movieID),
		"UniqueRaters": h.Ratings.GetUniqueRaterCount(movieID),
		"InWatchlist":  h.Watchlist.IsInWatchlist(userID, movieID),
		"Chat":         h.Chat.List(movieID),
	}))
}

// NotFoundPage 404 页面
func (h *Handler) NotFoundPage(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "Page not found - " + h.Config.SiteName,
	}))
}

// navContext 从查询参数构造导航上下文：?nav=watchlist|movies|search&ids=1,2,3
func navContext(c *gin.Context, userID string) service.NavContext {
	return service.NavContext{
		Kind:   service.ParseNavKind(c.Query("nav")),
		IDs:    parseIDs(c.Query("ids")),
		UserID: userID,
	}
}

// parseIDs 解析逗号分隔的电影 ID，忽略非法值
func parseIDs(raw string) []int {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// movieIDParam 解析路径中的电影 ID
func movieIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
