package service

import (
	"context"
	"errors"
	"log"

	"github.com/user/dreadscale/internal/model"
	"golang.org/x/sync/errgroup"
)

// MovieService 电影列表与详情（TMDB + OMDb + DreadScore）
type MovieService struct {
	catalog  Catalog
	external *ExternalRatingsService
	ratings  *RatingService
}

func NewMovieService(catalog Catalog, external *ExternalRatingsService, ratings *RatingService) *MovieService {
	return &MovieService{catalog: catalog, external: external, ratings: ratings}
}

// FallbackDetail TMDB 不可用时的占位详情
func FallbackDetail(id int) *model.MovieDetail {
	return &model.MovieDetail{
		Movie: model.Movie{
			ID:       id,
			Title:    "Movie Details",
			Overview: "Unable to load movie details at this time. Please try again later.",
			Genres:   []string{},
		},
		Cast:     []model.CastMember{},
		Videos:   []model.Video{},
		Similar:  []model.Movie{},
		Ratings:  model.ExternalRatings{IMDbRating: "N/A", RottenTomatoesRating: "N/A"},
		Fallback: true,
	}
}

// Detail 并发获取 TMDB 详情和 DreadScore，拿到标题后再查询 OMDb。
// TMDB 失败时返回占位详情而不是错误；电影不存在返回 ErrMovieNotFound。
func (s *MovieService) Detail(ctx context.Context, id int) (*model.MovieDetail, error) {
	var (
		detail *model.MovieDetail
		score  *model.DreadScore
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.catalog.Movie(gctx, id)
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		score = s.ratings.GetDreadScore(id)
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			return nil, err
		}
		log.Printf("[MovieService] 获取电影详情失败，使用占位数据 (id=%d): %v", id, err)
		fallback := FallbackDetail(id)
		fallback.DreadScore = s.ratings.GetDreadScore(id)
		return fallback, nil
	}

	detail.DreadScore = score
	detail.Ratings = s.external.Lookup(ctx, detail.Title, detail.Year())

	similarIDs := make([]int, 0, len(detail.Similar))
	for _, m := range detail.Similar {
		similarIDs = append(similarIDs, m.ID)
	}
	if len(similarIDs) > 0 {
		// 预热相似电影的 DreadScore 缓存
		s.ratings.BatchFetchDreadScores(similarIDs)
	}
	return detail, nil
}

// MoviesWithScores 列表附带 DreadScore
type MoviesWithScores struct {
	*model.MoviePage
	DreadScores map[int]*model.DreadScore `json:"dread_scores"`
}

// List 获取 TMDB 列表并批量附带 DreadScore
func (s *MovieService) List(ctx context.Context, kind string, page int) (*MoviesWithScores, error) {
	result, err := s.catalog.List(ctx, kind, page)
	if err != nil {
		return nil, err
	}
	return &MoviesWithScores{MoviePage: result, DreadScores: s.ratings.BatchFetchDreadScores(result.IDs())}, nil
}

// Search 标题搜索并批量附带 DreadScore
func (s *MovieService) Search(ctx context.Context, query, year string, page int) (*MoviesWithScores, error) {
	result, err := s.catalog.Search(ctx, query, year, page)
	if err != nil {
		return nil, err
	}
	return &MoviesWithScores{MoviePage: result, DreadScores: s.ratings.BatchFetchDreadScores(result.IDs())}, nil
}
