package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/taxonomy"
	"github.com/user/dreadscale/internal/utils"
)

// RatingCacheTTL 评分相关缓存有效期
const RatingCacheTTL = 5 * time.Minute

// ScoredMovie 带 DreadScore 的电影
type ScoredMovie struct {
	model.Movie
	DreadScore   float64 `json:"dread_score"`
	TotalRatings int     `json:"total_ratings"`
}

// RatingService 内容评分服务：写操作要求登录且失败即报错，读操作失败时记录日志并返回安全默认值
type RatingService struct {
	ratings *repository.RatingRepository
	movies  *MovieStore

	userRating  *utils.TTLCache[*int]
	userRatings *utils.TTLCache[map[string]int]
	stats       *utils.TTLCache[map[string]model.SubcategoryStat]
	scores      *utils.TTLCache[*model.DreadScore]
	raters      *utils.TTLCache[int64]
}

func NewRatingService(ratings *repository.RatingRepository, movies *MovieStore) *RatingService {
	sweep := time.Minute
	return &RatingService{
		ratings:     ratings,
		movies:      movies,
		userRating:  utils.NewTTLCache[*int](RatingCacheTTL, sweep),
		userRatings: utils.NewTTLCache[map[string]int](RatingCacheTTL, sweep),
		stats:       utils.NewTTLCache[map[string]model.SubcategoryStat](RatingCacheTTL, sweep),
		scores:      utils.NewTTLCache[*model.DreadScore](RatingCacheTTL, sweep),
		raters:      utils.NewTTLCache[int64](RatingCacheTTL, sweep),
	}
}

func movieKey(movieID int) string {
	return strconv.Itoa(movieID)
}

// ClearCaches 清空全部评分缓存，返回清除条数
func (s *RatingService) ClearCaches() int {
	return s.userRating.Clear() + s.userRatings.Clear() + s.stats.Clear() + s.scores.Clear() + s.raters.Clear()
}

// InvalidateMovie 删除某部电影的所有评分缓存
func (s *RatingService) InvalidateMovie(movieID int) {
	segment := movieKey(movieID)
	match := func(key string) bool { return utils.KeyHasSegment(key, segment) }
	s.userRating.DeleteWhere(match)
	s.userRatings.DeleteWhere(match)
	s.stats.DeleteWhere(match)
	s.scores.DeleteWhere(match)
	s.raters.DeleteWhere(match)
}

// SaveUserRating 保存评分（0 表示 N/A），movieData 不为空时用于补全电影元数据
func (s *RatingService) SaveUserRating(ctx context.Context, userID string, movieID int, category, subcategory string, rating int, movieData *model.Movie) (*model.Rating, error) {
	if userID == "" {
		return nil, ErrNotLoggedIn
	}
	if err := taxonomy.Validate(category, subcategory, rating); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.movies.Ensure(movieID, movieData); err != nil {
		return nil, err
	}

	record := &model.Rating{
		UserID:      userID,
		MovieID:     movieID,
		Category:    category,
		Subcategory: subcategory,
		Rating:      rating,
	}
	if err := s.ratings.Upsert(record); err != nil {
		return nil, fmt.Errorf("保存评分失败: %w", err)
	}
	s.InvalidateMovie(movieID)
	return record, nil
}

// GetUserRating 用户的单项评分：nil 表示未评分，0 表示 N/A
func (s *RatingService) GetUserRating(userID string, movieID int, category, subcategory string) *int {
	if userID == "" {
		return nil
	}
	key := fmt.Sprintf("user:%s:%d:%s:%s", userID, movieID, category, subcategory)
	value, err := s.userRating.GetOrLoad(key, func() (*int, error) {
		rec, err := s.ratings.Find(userID, movieID, category, subcategory)
		if err != nil || rec == nil {
			return nil, err
		}
		v := rec.Rating
		return &v, nil
	})
	if err != nil {
		log.Printf("[RatingService] 读取评分失败 (movie=%d): %v", movieID, err)
		return nil
	}
	return value
}

// BatchFetchUserRatings 用户对某部电影的全部评分，键为 "category_subcategory"
func (s *RatingService) BatchFetchUserRatings(userID string, movieID int) map[string]int {
	if userID == "" {
		return map[string]int{}
	}
	key := fmt.Sprintf("userall:%s:%d", userID, movieID)
	value, err := s.userRatings.GetOrLoad(key, func() (map[string]int, error) {
		records, err := s.ratings.ListByUserMovie(userID, movieID)
		if err != nil {
			return nil, err
		}
		out := make(map[string]int, len(records))
		for _, r := range records {
			out[model.RatingKey(r.Category, r.Subcategory)] = r.Rating
		}
		return out, nil
	})
	if err != nil {
		log.Printf("[RatingService] 批量读取用户评分失败 (movie=%d): %v", movieID, err)
		return map[string]int{}
	}
	return value
}

// BatchFetchRatingStats 某部电影各细分维度的社区统计
func (s *RatingService) BatchFetchRatingStats(movieID int) map[string]model.SubcategoryStat {
	value, err := s.stats.GetOrLoad("stats:"+movieKey(movieID), func() (map[string]model.SubcategoryStat, error) {
		rows, err := s.ratings.StatsForMovies([]int{movieID})
		if err != nil {
			return nil, err
		}
		out := make(map[string]model.SubcategoryStat, len(rows))
		for _, st := range rows {
			out[model.RatingKey(st.Category, st.Subcategory)] = st
		}
		return out, nil
	})
	if err != nil {
		log.Printf("[RatingService] 读取评分统计失败 (movie=%d): %v", movieID, err)
		return map[string]model.SubcategoryStat{}
	}
	return value
}

// GetAverageRating 社区平均分，没有有效评分时返回 nil
func (s *RatingService) GetAverageRating(movieID int, category, subcategory string) *float64 {
	st, ok := s.BatchFetchRatingStats(movieID)[model.RatingKey(category, subcategory)]
	if !ok || st.RatingCount == 0 {
		return nil
	}
	avg := st.AverageRating
	return &avg
}

// GetRatingCount 有效评分数量
func (s *RatingService) GetRatingCount(movieID int, category, subcategory string) int {
	return s.BatchFetchRatingStats(movieID)[model.RatingKey(category, subcategory)].RatingCount
}

// ClearUserRating 删除单项评分
func (s *RatingService) ClearUserRating(ctx context.Context, userID string, movieID int, category, subcategory string) error {
	if userID == "" {
		return ErrNotLoggedIn
	}
	if !taxonomy.Valid(category, subcategory) {
		return fmt.Errorf("%w: %s.%s", taxonomy.ErrUnknownCategory, category, subcategory)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.ratings.Delete(userID, movieID, category, subcategory); err != nil {
		return fmt.Errorf("删除评分失败: %w", err)
	}
	s.InvalidateMovie(movieID)
	return nil
}

// ClearAllUserRatings 删除用户对某部电影的全部评分，返回删除条数
func (s *RatingService) ClearAllUserRatings(ctx context.Context, userID string, movieID int) (int64, error) {
	if userID == "" {
		return 0, ErrNotLoggedIn
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.ratings.DeleteAllForMovie(userID, movieID)
	if err != nil {
		return 0, fmt.Errorf("清空评分失败: %w", err)
	}
	s.InvalidateMovie(movieID)
	return n, nil
}

// GetDreadScore 单部电影的 DreadScore，无评分返回 nil
func (s *RatingService) GetDreadScore(movieID int) *model.DreadScore {
	return s.BatchFetchDreadScores([]int{movieID})[movieID]
}

// BatchFetchDreadScores 批量获取 DreadScore（无评分的电影值为 nil）。
// 批量查询失败时逐个重试，仍失败则视为无评分且不缓存。
func (s *RatingService) BatchFetchDreadScores(movieIDs []int) map[int]*model.DreadScore {
	result := make(map[int]*model.DreadScore, len(movieIDs))
	var missing []int
	seen := make(map[int]bool, len(movieIDs))
	for _, id := range movieIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if score, ok := s.scores.Get("score:" + movieKey(id)); ok {
			result[id] = score
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result
	}

	gen := s.scores.Generation()
	rows, err := s.ratings.StatsForMovies(missing)
	if err == nil {
		grouped := make(map[int][]model.SubcategoryStat, len(missing))
		for _, st := range rows {
			grouped[st.MovieID] = append(grouped[st.MovieID], st)
		}
		for _, id := range missing {
			score := CombineDreadScore(id, grouped[id])
			s.scores.SetIfGeneration("score:"+movieKey(id), score, gen)
			result[id] = score
		}
		return result
	}

	log.Printf("[RatingService] 批量获取 DreadScore 失败，改为逐个获取: %v", err)
	for _, id := range missing {
		rows, err := s.ratings.StatsForMovies([]int{id})
		if err != nil {
			log.Printf("[RatingService] 获取 DreadScore 失败 (movie=%d): %v", id, err)
			result[id] = nil
			continue
		}
		score := CombineDreadScore(id, rows)
		s.scores.SetIfGeneration("score:"+movieKey(id), score, gen)
		result[id] = score
	}
	return result
}

// GetUniqueRaterCount 为某部电影评过分的不同用户数（精确值）
func (s *RatingService) GetUniqueRaterCount(movieID int) int64 {
	value, err := s.raters.GetOrLoad("raters:"+movieKey(movieID), func() (int64, error) {
		return s.ratings.DistinctRaters(movieID)
	})
	if err != nil {
		log.Printf("[RatingService] 获取评分人数失败 (movie=%d): %v", movieID, err)
		return 0
	}
	return value
}

// GetMoviesRatedCount 用户评过分的电影数
func (s *RatingService) GetMoviesRatedCount(userID string) int64 {
	if userID == "" {
		return 0
	}
	n, err := s.ratings.MoviesRatedByUser(userID)
	if err != nil {
		log.Printf("[RatingService] 获取已评分电影数失败: %v", err)
		return 0
	}
	return n
}

// HasUserRatings 用户是否对该电影有任何评分
func (s *RatingService) HasUserRatings(userID string, movieID int) bool {
	if userID == "" {
		return false
	}
	has, err := s.ratings.HasUserRatings(userID, movieID)
	if err != nil {
		log.Printf("[RatingService] 检查用户评分失败 (movie=%d): %v", movieID, err)
		return false
	}
	return has
}

// TopByDreadScore 有评分的电影按 DreadScore 倒序
func (s *RatingService) TopByDreadScore(limit int) []ScoredMovie {
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.ratings.RatedMovieIDs(limit)
	if err != nil {
		log.Printf("[RatingService] 获取已评分电影失败: %v", err)
		return []ScoredMovie{}
	}
	scores := s.BatchFetchDreadScores(ids)
	movies, err := s.movies.repo.FindByIDs(ids)
	if err != nil {
		log.Printf("[RatingService] 读取电影信息失败: %v", err)
		movies = map[int]*model.Movie{}
	}

	out := make([]ScoredMovie, 0, len(ids))
	for _, id := range ids {
		score := scores[id]
		if score == nil {
			continue
		}
		item := ScoredMovie{DreadScore: score.Score, TotalRatings: score.TotalRatings}
		if m := movies[id]; m != nil {
			item.Movie = *m
		} else {
			item.Movie = model.Movie{ID: id}
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DreadScore > out[j].DreadScore })
	return out
}
