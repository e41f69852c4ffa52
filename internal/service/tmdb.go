package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/user/dreadscale/internal/config"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/utils"
	"golang.org/x/sync/singleflight"
)

// 支持的 TMDB 列表
const (
	ListPopular    = "popular"
	ListTopRated   = "top_rated"
	ListUpcoming   = "upcoming"
	ListNowPlaying = "now_playing"
)

// ValidList 是否为支持的列表类型
func ValidList(kind string) bool {
	switch kind {
	case ListPopular, ListTopRated, ListUpcoming, ListNowPlaying:
		return true
	}
	return false
}

// Catalog 电影元数据来源
type Catalog interface {
	List(ctx context.Context, kind string, page int) (*model.MoviePage, error)
	Search(ctx context.Context, query, year string, page int) (*model.MoviePage, error)
	Movie(ctx context.Context, id int) (*model.MovieDetail, error)
}

type TMDBService struct {
	http     *utils.HTTPClient
	baseURL  string
	apiKey   string
	group    singleflight.Group
	warnOnce sync.Once
}

func NewTMDBService(cfg *config.Config, client *utils.HTTPClient) *TMDBService {
	return &TMDBService{
		http:    client,
		baseURL: strings.TrimRight(cfg.TMDBBaseURL, "/"),
		apiKey:  cfg.TMDBAPIKey,
	}
}

// Configured 是否配置了 API Key（未配置时返回示例电影）
func (s *TMDBService) Configured() bool {
	return s.apiKey != ""
}

func (s *TMDBService) useSamples() bool {
	if s.apiKey != "" {
		return false
	}
	s.warnOnce.Do(func() {
		log.Println("[TMDB] 未配置 TMDB_API_KEY，使用内置示例电影")
	})
	return true
}

// List 获取 popular / top_rated / upcoming / now_playing 列表
func (s *TMDBService) List(ctx context.Context, kind string, page int) (*model.MoviePage, error) {
	if !ValidList(kind) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownList, kind)
	}
	if page < 1 {
		page = 1
	}
	if s.useSamples() {
		return samplePage(SampleMovies()), nil
	}

	var resp tmdbPageResponse
	params := url.Values{"page": {strconv.Itoa(page)}}
	if err := s.get(ctx, "/movie/"+kind, params, &resp); err != nil {
		return nil, fmt.Errorf("获取 TMDB 列表失败 (%s): %w", kind, err)
	}
	return resp.toPage(), nil
}

// Search 按标题（可选年份）搜索
func (s *TMDBService) Search(ctx context.Context, query, year string, page int) (*model.MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &model.MoviePage{Page: 1, Results: []model.Movie{}}, nil
	}
	if page < 1 {
		page = 1
	}
	if s.useSamples() {
		return samplePage(searchSamples(query, year)), nil
	}

	var resp tmdbPageResponse
	params := url.Values{"query": {query}, "page": {strconv.Itoa(page)}}
	if year != "" {
		params.Set("year", year)
	}
	if err := s.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("TMDB 搜索失败: %w", err)
	}
	return resp.toPage(), nil
}

// Movie 获取电影详情（含演员、视频、相似电影），并发相同请求合并
func (s *TMDBService) Movie(ctx context.Context, id int) (*model.MovieDetail, error) {
	if s.useSamples() {
		for _, m := range SampleMovies() {
			if m.ID == id {
				return &model.MovieDetail{Movie: m, Cast: []model.CastMember{}, Videos: []model.Video{}, Similar: []model.Movie{}}, nil
			}
		}
		return nil, fmt.Errorf("%w: %d", ErrMovieNotFound, id)
	}

	val, err, _ := s.group.Do(strconv.Itoa(id), func() (interface{}, error) {
		var resp tmdbMovie
		params := url.Values{"append_to_response": {"credits,videos,similar"}}
		if err := s.get(ctx, "/movie/"+strconv.Itoa(id), params, &resp); err != nil {
			var statusErr *utils.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %d", ErrMovieNotFound, id)
			}
			return nil, fmt.Errorf("获取 TMDB 详情失败 (%d): %w", id, err)
		}
		return resp.toDetail(), nil
	})
	if err != nil {
		return nil, err
	}
	// 返回副本，singleflight 的结果会被多个调用方共享
	detail := *val.(*model.MovieDetail)
	return &detail, nil
}

func (s *TMDBService) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	params.Set("api_key", s.apiKey)
	return s.http.GetJSON(ctx, s.baseURL+path+"?"+params.Encode(), target)
}

type tmdbNamed struct {
	Name string `json:"name"`
}

type tmdbMovie struct {
	ID                  int         `json:"id"`
	Title               string      `json:"title"`
	Overview            string      `json:"overview"`
	PosterPath          string      `json:"poster_path"`
	BackdropPath        string      `json:"backdrop_path"`
	ReleaseDate         string      `json:"release_date"`
	VoteAverage         float64     `json:"vote_average"`
	VoteCount           int         `json:"vote_count"`
	Popularity          float64     `json:"popularity"`
	Runtime             int         `json:"runtime"`
	Genres              []tmdbNamed `json:"genres"`
	ProductionCompanies []tmdbNamed `json:"production_companies"`
	Credits             *struct {
		Cast []model.CastMember `json:"cast"`
	} `json:"credits"`
	Videos *struct {
		Results []model.Video `json:"results"`
	} `json:"videos"`
	Similar *struct {
		Results []tmdbMovie `json:"results"`
	} `json:"similar"`
}

type tmdbPageResponse struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []tmdbMovie `json:"results"`
}

func names(items []tmdbNamed) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func (m tmdbMovie) toMovie() model.Movie {
	movie := model.Movie{
		ID:                  m.ID,
		Title:               m.Title,
		Overview:            m.Overview,
		PosterPath:          m.PosterPath,
		BackdropPath:        m.BackdropPath,
		ReleaseDate:         m.ReleaseDate,
		VoteAverage:         m.VoteAverage,
		VoteCount:           m.VoteCount,
		Popularity:          m.Popularity,
		Runtime:             m.Runtime,
		Genres:              names(m.Genres),
		ProductionCompanies: names(m.ProductionCompanies),
	}
	movie.Normalize()
	return movie
}

func (m tmdbMovie) toDetail() *model.MovieDetail {
	detail := &model.MovieDetail{
		Movie:   m.toMovie(),
		Cast:    []model.CastMember{},
		Videos:  []model.Video{},
		Similar: []model.Movie{},
	}
	if m.Credits != nil {
		cast := m.Credits.Cast
		if len(cast) > 10 {
			cast = cast[:10]
		}
		detail.Cast = append(detail.Cast, cast...)
	}
	if m.Videos != nil {
		for _, v := range m.Videos.Results {
			if v.Site == "YouTube" {
				detail.Videos = append(detail.Videos, v)
			}
		}
	}
	if m.Similar != nil {
		for i, sm := range m.Similar.Results {
			if i >= 12 {
				break
			}
			detail.Similar = append(detail.Similar, sm.toMovie())
		}
	}
	return detail
}

func (r tmdbPageResponse) toPage() *model.MoviePage {
	page := &model.MoviePage{
		Page:         r.Page,
		TotalPages:   r.TotalPages,
		TotalResults: r.TotalResults,
		Results:      make([]model.Movie, 0, len(r.Results)),
	}
	for _, m := range r.Results {
		page.Results = append(page.Results, m.toMovie())
	}
	return page
}
