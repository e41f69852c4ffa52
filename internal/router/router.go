package router

import (
	"encoding/gob"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/user/dreadscale/internal/handler"
	"github.com/user/dreadscale/internal/middleware"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/taxonomy"
	"github.com/user/dreadscale/internal/utils"
)

// 前端视图
const (
	ListView        = "list"
	SearchView      = "search"
	AccountView     = "account"
	AboutView       = "about"
	MovieDetailView = "movie"
)

// View 路径对应的视图，MovieID 仅在详情页有值
type View struct {
	Name    string
	MovieID int
}

// ResolveView 把路径映射为视图，未知路径回到列表页
func ResolveView(path string) View {
	path = strings.TrimSuffix(path, "/")
	switch path {
	case "", "/movies":
		return View{Name: ListView}
	case "/search-plus", "/advanced-search":
		return View{Name: SearchView}
	case "/account":
		return View{Name: AccountView}
	case "/about":
		return View{Name: AboutView}
	}
	if rest, ok := strings.CutPrefix(path, "/movie/"); ok {
		if id, err := strconv.Atoi(rest); err == nil && id > 0 {
			return View{Name: MovieDetailView, MovieID: id}
		}
	}
	return View{Name: ListView}
}

// New 创建 Gin 引擎：中间件、Session、模板与路由。templatesDir 为空时不加载页面模板
func New(h *handler.Handler, templatesDir, staticDir string) *gin.Engine {
	// 注册 Session 模型
	gob.Register(model.SessionUser{})

	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 设置 Session 中间件
	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   h.Config.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("dreadscale", store))

	if templatesDir != "" {
		r.HTMLRender = LoadTemplates(templatesDir)
	}
	if staticDir != "" {
		r.Static("/static", staticDir)
	}

	r.Use(middleware.Logger())
	r.Use(middleware.CORS(h.Config.CORSOrigin))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	secret := h.Config.AppSecret

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 页面（前端视图外壳）====================
	pages := r.Group("")
	pages.Use(middleware.OptionalAuth(secret))
	{
		pages.GET("/", pageHandler(h))
		pages.GET("/movies", pageHandler(h))
		pages.GET("/search-plus", pageHandler(h))
		pages.GET("/advanced-search", pageHandler(h))
		pages.GET("/account", pageHandler(h))
		pages.GET("/about", pageHandler(h))
		pages.GET("/movie/:id", pageHandler(h))
		pages.POST("/logout", h.Logout)
	}

	// ==================== JSON API ====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(secret))
	{
		api.GET("/status", h.Status)
		api.GET("/taxonomy", h.Taxonomy)

		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.POST("/preferences/theme", h.SetTheme)

		api.GET("/movies", h.ListMovies)
		api.GET("/search", h.SearchMovies)
		api.POST("/search/advanced", h.AdvancedSearch)
		api.GET("/movies/:id", h.MovieDetail)
		api.GET("/movies/:id/ratings", h.MovieRatings)
		api.GET("/movies/:id/chat", h.ChatMessages)
		api.POST("/movies/:id/chat", h.PostChatMessage)
		api.GET("/dreadscores", h.DreadScores)
		api.GET("/top", h.TopMovies)
		api.GET("/watchlist/:id/status", h.WatchlistStatus)
	}

	// 需要登录
	authed := r.Group("/api")
	authed.Use(middleware.RequireAuth(secret))
	{
		authed.GET("/auth/me", h.Me)
		authed.PUT("/auth/profile", h.UpdateProfile)

		authed.PUT("/movies/:id/ratings", h.SaveRating)
		authed.DELETE("/movies/:id/ratings", h.ClearAllRatings)
		authed.DELETE("/movies/:id/ratings/:category/:subcategory", h.ClearRating)
		authed.DELETE("/chat/:messageId", h.DeleteChatMessage)

		authed.GET("/watchlist", h.GetWatchlist)
		authed.POST("/watchlist", h.AddToWatchlist)
		authed.DELETE("/watchlist/:id", h.RemoveFromWatchlist)
		authed.POST("/watchlist/import", h.ImportWatchlist)
		authed.GET("/watchlist/export", h.ExportWatchlist)
	}

	// ==================== 管理接口 ====================
	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAuth(secret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/cache/stats", h.AdminCacheStats)
		admin.POST("/cache/prune", h.AdminCachePrune)
		admin.POST("/cache/clear", h.AdminCacheClear)
	}

	// 未知 API 返回 404 JSON，其余路径交给前端列表页
	r.NoRoute(middleware.OptionalAuth(secret), func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			utils.NotFound(c, "")
			return
		}
		pageHandler(h)(c)
	})
}

// pageHandler 根据路径渲染对应视图
func pageHandler(h *handler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := ResolveView(c.Request.URL.Path)
		switch view.Name {
		case MovieDetailView:
			h.MoviePage(c, view.MovieID)
		case SearchView:
			h.SearchPage(c)
		case AccountView:
			h.AccountPage(c)
		case AboutView:
			h.AboutPage(c)
		default:
			h.ListPage(c)
		}
	}
}

// LoadTemplates 使用 multitemplate 加载模板，解决模板继承问题
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	// 获取布局和局部模板
	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	partials, err := filepath.Glob(templatesDir + "/partials/*.html")
	if err != nil {
		panic(err)
	}

	// 组装模板文件列表
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, view)
		return files
	}

	// 注册所有页面模板
	pages := []string{ListView, SearchView, AccountView, AboutView, MovieDetailView, "404"}

	for _, page := range pages {
		viewPath := templatesDir + "/pages/" + page + ".html"
		r.AddFromFilesFuncs(page+".html", FuncMap(), assemble(viewPath)...)
	}

	return r
}

// FuncMap 模板函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"default": func(defaultValue, value interface{}) interface{} {
			switch v := value.(type) {
			case string:
				if v == "" {
					return defaultValue
				}
			case int:
				if v == 0 {
					return defaultValue
				}
			case nil:
				return defaultValue
			}
			return value
		},
		"ratingKey":   model.RatingKey,
		"weightLabel": taxonomy.WeightLabel,
		"weightHint":  taxonomy.WeightHint,
		// userRating 用户评分展示：未评分为空，0 为 N/A
		"userRating": func(ratings map[string]int, key string) string {
			v, ok := ratings[key]
			switch {
			case !ok:
				return ""
			case v == 0:
				return "N/A"
			default:
				return strconv.Itoa(v)
			}
		},
		"ratingValues": func() []int {
			values := make([]int, 0, taxonomy.MaxRating-taxonomy.MinRating+1)
			for v := taxonomy.MinRating; v <= taxonomy.MaxRating; v++ {
				values = append(values, v)
			}
			return values
		},
		"joinIDs": func(movies []model.Movie) string {
			ids := make([]string, 0, len(movies))
			for _, m := range movies {
				ids = append(ids, strconv.Itoa(m.ID))
			}
			return strings.Join(ids, ",")
		},
	}
}
