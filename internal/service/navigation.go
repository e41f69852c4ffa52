package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"strconv"
	"time"

	"github.com/user/dreadscale/internal/utils"
)

// NavigationCacheTTL 导航上下文缓存有效期
const NavigationCacheTTL = 5 * time.Minute

// NavKind 详情页上下翻的来源列表
type NavKind string

const (
	NavMovies    NavKind = "movies"
	NavWatchlist NavKind = "watchlist"
	NavSearch    NavKind = "search"
)

// ParseNavKind 未知值返回空（自动判断）
func ParseNavKind(s string) NavKind {
	switch NavKind(s) {
	case NavMovies, NavWatchlist, NavSearch:
		return NavKind(s)
	}
	return ""
}

// Label 展示文案
func (k NavKind) Label() string {
	switch k {
	case NavWatchlist:
		return "in Watchlist"
	case NavSearch:
		return "in Results"
	default:
		return "Movie"
	}
}

// NavContext 调用方提供的浏览上下文
type NavContext struct {
	Kind   NavKind
	IDs    []int
	UserID string
}

// Navigation 详情页导航信息；Previous/Next 为空表示已到两端，ShowBack 表示没有可用上下文
type Navigation struct {
	Kind     NavKind `json:"kind"`
	Label    string  `json:"label"`
	Previous *int    `json:"previous"`
	Next     *int    `json:"next"`
	Position int     `json:"position"`
	Total    int     `json:"total"`
	ShowBack bool    `json:"show_back"`
}

type navList struct {
	kind NavKind
	ids  []int
}

// NavigationService 解析详情页的上一部/下一部
type NavigationService struct {
	catalog   Catalog
	watchlist *WatchlistService
	cache     *utils.TTLCache[navList]
}

func NewNavigationService(catalog Catalog, watchlist *WatchlistService) *NavigationService {
	return &NavigationService{
		catalog:   catalog,
		watchlist: watchlist,
		cache:     utils.NewTTLCache[navList](NavigationCacheTTL, time.Minute),
	}
}

// ClearCache 清空导航列表缓存
func (s *NavigationService) ClearCache() int {
	return s.cache.Clear()
}

func idsDigest(ids []int) string {
	h := fnv.New64a()
	for _, id := range ids {
		h.Write([]byte(strconv.Itoa(id)))
		h.Write([]byte{','})
	}
	return strconv.FormatUint(h.Sum64(), 36)
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Resolve 计算 movieID 在上下文列表中的位置。
// 优先级：片单（指定或未指定且包含该电影）> 调用方提供的列表 > 热门第一页。
func (s *NavigationService) Resolve(ctx context.Context, movieID int, nc NavContext) Navigation {
	user := nc.UserID
	if user == "" {
		user = "anon"
	}
	key := fmt.Sprintf("nav:%s:%s:%d:%s", nc.Kind, user, movieID, idsDigest(nc.IDs))

	list, err := s.cache.GetOrLoad(key, func() (navList, error) {
		return s.determine(ctx, movieID, nc)
	})
	if err != nil {
		log.Printf("[Navigation] 解析导航上下文失败 (movie=%d): %v", movieID, err)
	}
	return buildNavigation(list, movieID, nc.Kind)
}

// InvalidateUser 片单变化后清理该用户的导航缓存
func (s *NavigationService) InvalidateUser(userID string) {
	if userID == "" {
		return
	}
	s.cache.DeleteWhere(func(key string) bool { return utils.KeyHasSegment(key, userID) })
}

func (s *NavigationService) determine(ctx context.Context, movieID int, nc NavContext) (navList, error) {
	if nc.UserID != "" && (nc.Kind == NavWatchlist || nc.Kind == "") {
		ids := s.watchlist.IDs(nc.UserID)
		if indexOf(ids, movieID) >= 0 {
			return navList{kind: NavWatchlist, ids: ids}, nil
		}
	}

	if nc.Kind != NavWatchlist && indexOf(nc.IDs, movieID) >= 0 {
		kind := nc.Kind
		if kind == "" {
			kind = NavMovies
		}
		return navList{kind: kind, ids: append([]int(nil), nc.IDs...)}, nil
	}

	// 加载失败不缓存，下次重新判断
	page, err := s.catalog.List(ctx, ListPopular, 1)
	if err != nil {
		return navList{}, fmt.Errorf("加载热门列表失败: %w", err)
	}
	ids := page.IDs()
	if indexOf(ids, movieID) >= 0 {
		return navList{kind: NavMovies, ids: ids}, nil
	}
	return navList{}, nil
}

func buildNavigation(list navList, movieID int, requested NavKind) Navigation {
	idx := indexOf(list.ids, movieID)
	if idx < 0 {
		kind := requested
		if kind == "" {
			kind = NavMovies
		}
		return Navigation{Kind: kind, Label: kind.Label(), ShowBack: true}
	}

	nav := Navigation{
		Kind:     list.kind,
		Label:    list.kind.Label(),
		Position: idx + 1,
		Total:    len(list.ids),
	}
	if idx > 0 {
		prev := list.ids[idx-1]
		nav.Previous = &prev
	}
	if idx < len(list.ids)-1 {
		next := list.ids[idx+1]
		nav.Next = &next
	}
	return nav
}
