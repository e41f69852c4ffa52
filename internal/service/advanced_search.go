package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/taxonomy"
)

const (
	// AdvancedSearchCandidates 最多检查的候选电影数
	AdvancedSearchCandidates = 50
	// AdvancedSearchMaxResults 结果上限，达到后停止检查
	AdvancedSearchMaxResults = 20
)

// RatingFilter 单个评分过滤条件，区间为闭区间
type RatingFilter struct {
	Category    string  `json:"category" binding:"required"`
	Subcategory string  `json:"subcategory" binding:"required"`
	MinScore    float64 `json:"min_score"`
	MaxScore    float64 `json:"max_score"`
}

// AdvancedSearchRequest 多条件搜索请求
type AdvancedSearchRequest struct {
	Query   string         `json:"query"`
	Filters []RatingFilter `json:"filters"`
	Sort    string         `json:"sort"`
}

// AdvancedSearchResult 搜索结果
type AdvancedSearchResult struct {
	model.Movie
	FilterAverages map[string]float64 `json:"filter_averages"`
	MatchScore     float64            `json:"match_score"`
}

// AdvancedSearchService 按社区内容评分过滤电影
type AdvancedSearchService struct {
	catalog Catalog
	ratings *RatingService
}

func NewAdvancedSearchService(catalog Catalog, ratings *RatingService) *AdvancedSearchService {
	return &AdvancedSearchService{catalog: catalog, ratings: ratings}
}

// ValidateFilters 校验过滤条件：维度存在且 0 <= min <= max <= 10
func ValidateFilters(filters []RatingFilter) error {
	if len(filters) == 0 {
		return ErrNoFilters
	}
	for _, f := range filters {
		if !taxonomy.Valid(f.Category, f.Subcategory) {
			return fmt.Errorf("%w: unknown subcategory %s.%s", ErrInvalidFilter, f.Category, f.Subcategory)
		}
		if f.MinScore < taxonomy.MinRating || f.MaxScore > taxonomy.MaxRating || f.MinScore > f.MaxScore {
			return fmt.Errorf("%w: range [%g, %g] for %s.%s", ErrInvalidFilter, f.MinScore, f.MaxScore, f.Category, f.Subcategory)
		}
	}
	return nil
}

// Search 所有条件都满足（AND）的电影才返回，缺少评分的维度视为不满足
func (s *AdvancedSearchService) Search(ctx context.Context, req AdvancedSearchRequest) ([]AdvancedSearchResult, error) {
	if err := ValidateFilters(req.Filters); err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx, strings.TrimSpace(req.Query))
	if err != nil {
		return nil, err
	}

	results := []AdvancedSearchResult{}
	for _, movie := range candidates {
		if len(results) >= AdvancedSearchMaxResults {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats := s.ratings.BatchFetchRatingStats(movie.ID)
		averages := make(map[string]float64, len(req.Filters))
		sum := 0.0
		matched := true
		for _, f := range req.Filters {
			key := model.RatingKey(f.Category, f.Subcategory)
			st, ok := stats[key]
			if !ok || st.RatingCount == 0 || st.AverageRating < f.MinScore || st.AverageRating > f.MaxScore {
				matched = false
				break
			}
			averages[key] = st.AverageRating
			sum += st.AverageRating
		}
		if !matched {
			continue
		}
		results = append(results, AdvancedSearchResult{
			Movie:          movie,
			FilterAverages: averages,
			MatchScore:     sum / float64(len(req.Filters)),
		})
	}

	ascending := strings.EqualFold(req.Sort, "asc")
	sort.SliceStable(results, func(i, j int) bool {
		if ascending {
			return results[i].MatchScore < results[j].MatchScore
		}
		return results[i].MatchScore > results[j].MatchScore
	})
	return results, nil
}

// candidates 有搜索词时取搜索结果第一页，否则取热门第一页
func (s *AdvancedSearchService) candidates(ctx context.Context, query string) ([]model.Movie, error) {
	var (
		page *model.MoviePage
		err  error
	)
	if query != "" {
		page, err = s.catalog.Search(ctx, query, "", 1)
	} else {
		page, err = s.catalog.List(ctx, ListPopular, 1)
	}
	if err != nil {
		return nil, fmt.Errorf("加载候选电影失败: %w", err)
	}

	out := make([]model.Movie, 0, len(page.Results))
	seen := make(map[int]bool, len(page.Results))
	for _, m := range page.Results {
		if seen[m.ID] || len(out) >= AdvancedSearchCandidates {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out, nil
}
