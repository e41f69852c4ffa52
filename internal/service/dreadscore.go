package service

import (
	"math"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/taxonomy"
)

// CombineDreadScore 把各细分维度的社区平均分合成为 DreadScore。
// 加权平均：sum(weight * avg) / sum(|weight|)，负权重维度会拉低分数，结果限制在 [0, 10]。
// 没有任何有效评分时返回 nil。
func CombineDreadScore(movieID int, stats []model.SubcategoryStat) *model.DreadScore {
	var weighted, weightSum float64
	total := 0
	for _, st := range stats {
		if st.RatingCount <= 0 {
			continue
		}
		sub, ok := taxonomy.Lookup(st.Category, st.Subcategory)
		if !ok {
			continue
		}
		weighted += sub.Weight * st.AverageRating
		weightSum += math.Abs(sub.Weight)
		total += st.RatingCount
	}
	if total == 0 || weightSum == 0 {
		return nil
	}

	score := weighted / weightSum
	score = math.Max(taxonomy.MinRating, math.Min(taxonomy.MaxRating, score))
	return &model.DreadScore{
		MovieID:      movieID,
		Score:        math.Round(score*100) / 100,
		TotalRatings: total,
	}
}
