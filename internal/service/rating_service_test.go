package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/taxonomy"
	"github.com/user/dreadscale/internal/testsupport"
)

func TestSaveThenReadEveryValue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "rater@example.com", "Rater")

	for r := taxonomy.MinRating; r <= taxonomy.MaxRating; r++ {
		if _, err := env.ratings.SaveUserRating(ctx, user.ID, 27205, "violence", "goreBlood", int(r), nil); err != nil {
			t.Fatalf("SaveUserRating(%v) failed: %v", r, err)
		}
		got := env.ratings.GetUserRating(user.ID, 27205, "violence", "goreBlood")
		if got == nil || *got != int(r) {
			t.Fatalf("expected %v after save, got %v", r, got)
		}
	}

	if err := env.ratings.ClearUserRating(ctx, user.ID, 27205, "violence", "goreBlood"); err != nil {
		t.Fatalf("ClearUserRating failed: %v", err)
	}
	if got := env.ratings.GetUserRating(user.ID, 27205, "violence", "goreBlood"); got != nil {
		t.Fatalf("expected nil after clear, got %d", *got)
	}
}

func TestZeroIsDistinctFromUnrated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "na@example.com", "Na")

	if got := env.ratings.GetUserRating(user.ID, 155, "language", "profanity"); got != nil {
		t.Fatalf("expected nil before rating, got %d", *got)
	}
	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 155, "language", "profanity", 0, sampleMovie(t, 155)); err != nil {
		t.Fatalf("SaveUserRating failed: %v", err)
	}
	got := env.ratings.GetUserRating(user.ID, 155, "language", "profanity")
	if got == nil || *got != 0 {
		t.Fatalf("expected N/A (0), got %v", got)
	}
	if avg := env.ratings.GetAverageRating(155, "language", "profanity"); avg != nil {
		t.Fatalf("N/A should not produce an average, got %v", *avg)
	}
	if n := env.ratings.GetRatingCount(155, "language", "profanity"); n != 0 {
		t.Fatalf("N/A should not be counted, got %d", n)
	}
	if !env.ratings.HasUserRatings(user.ID, 155) {
		t.Fatal("expected HasUserRatings to see the N/A rating")
	}
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "bad@example.com", "Bad")

	if _, err := env.ratings.SaveUserRating(ctx, "", 1, "violence", "torture", 5, nil); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 1, "violence", "nope", 5, nil); !errors.Is(err, taxonomy.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 1, "violence", "torture", 11, nil); !errors.Is(err, taxonomy.ErrRatingRange) {
		t.Fatalf("expected ErrRatingRange, got %v", err)
	}
	// 校验失败不应写入电影行
	if m, err := env.store.Find(1); err != nil || m != nil {
		t.Fatalf("expected no movie row, got %+v (%v)", m, err)
	}
}

func TestCommunityAverageIsNeverStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testsupport.MustCreateUser(t, env.repos, "alice@example.com", "Alice")
	bob := testsupport.MustCreateUser(t, env.repos, "bob@example.com", "Bob")

	// 先读取一次，让"无评分"进入缓存
	if avg := env.ratings.GetAverageRating(27205, "violence", "physicalViolence"); avg != nil {
		t.Fatalf("expected no average yet, got %v", *avg)
	}
	if score := env.ratings.GetDreadScore(27205); score != nil {
		t.Fatalf("expected no DreadScore yet, got %+v", score)
	}

	inception := sampleMovie(t, 27205)
	if _, err := env.ratings.SaveUserRating(ctx, alice.ID, 27205, "violence", "physicalViolence", 7, inception); err != nil {
		t.Fatalf("save alice: %v", err)
	}
	if _, err := env.ratings.SaveUserRating(ctx, bob.ID, 27205, "violence", "physicalViolence", 3, inception); err != nil {
		t.Fatalf("save bob: %v", err)
	}

	avg := env.ratings.GetAverageRating(27205, "violence", "physicalViolence")
	if avg == nil || math.Abs(*avg-5.0) > 0.001 {
		t.Fatalf("expected average 5.0, got %v", avg)
	}
	if n := env.ratings.GetRatingCount(27205, "violence", "physicalViolence"); n != 2 {
		t.Fatalf("expected 2 ratings, got %d", n)
	}
	if n := env.ratings.GetUniqueRaterCount(27205); n != 2 {
		t.Fatalf("expected 2 raters, got %d", n)
	}

	score := env.ratings.GetDreadScore(27205)
	if score == nil || score.Score != 5.0 || score.TotalRatings != 2 {
		t.Fatalf("expected DreadScore 5.0 from 2 ratings, got %+v", score)
	}

	// 修改评分后立即可见
	if _, err := env.ratings.SaveUserRating(ctx, bob.ID, 27205, "violence", "physicalViolence", 9, nil); err != nil {
		t.Fatalf("update bob: %v", err)
	}
	avg = env.ratings.GetAverageRating(27205, "violence", "physicalViolence")
	if avg == nil || math.Abs(*avg-8.0) > 0.001 {
		t.Fatalf("expected average 8.0 after update, got %v", avg)
	}
	if score := env.ratings.GetDreadScore(27205); score == nil || score.Score != 8.0 {
		t.Fatalf("expected DreadScore 8.0 after update, got %+v", score)
	}

	env.store.Flush()
	stored, err := env.store.Find(27205)
	if err != nil || stored == nil || stored.Title != "Inception" {
		t.Fatalf("expected Inception metadata stored, got %+v (%v)", stored, err)
	}
}

func TestClearAllUserRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "clear@example.com", "Clear")

	for _, sub := range []string{"physicalViolence", "torture", "goreBlood"} {
		if _, err := env.ratings.SaveUserRating(ctx, user.ID, 694, "violence", sub, 6, nil); err != nil {
			t.Fatalf("save %s: %v", sub, err)
		}
	}
	if got := env.ratings.BatchFetchUserRatings(user.ID, 694); len(got) != 3 || got[model.RatingKey("violence", "torture")] != 6 {
		t.Fatalf("unexpected user ratings %v", got)
	}

	n, err := env.ratings.ClearAllUserRatings(ctx, user.ID, 694)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 deleted, got %d (%v)", n, err)
	}
	if got := env.ratings.BatchFetchUserRatings(user.ID, 694); len(got) != 0 {
		t.Fatalf("expected no ratings after clear, got %v", got)
	}
	if score := env.ratings.GetDreadScore(694); score != nil {
		t.Fatalf("expected no DreadScore after clear, got %+v", score)
	}
}

func TestTopByDreadScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "top@example.com", "Top")

	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 694, "violence", "goreBlood", 4, sampleMovie(t, 694)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 493922, "violence", "goreBlood", 9, sampleMovie(t, 493922)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.ratings.SaveUserRating(ctx, user.ID, 862, "language", "humor", 0, sampleMovie(t, 862)); err != nil {
		t.Fatal(err)
	}

	top := env.ratings.TopByDreadScore(10)
	if len(top) != 2 {
		t.Fatalf("expected 2 scored movies, got %d: %+v", len(top), top)
	}
	if top[0].ID != 493922 || top[1].ID != 694 {
		t.Fatalf("unexpected order %d, %d", top[0].ID, top[1].ID)
	}
	if scores := env.ratings.BatchFetchDreadScores([]int{694, 862, 694}); len(scores) != 2 || scores[862] != nil {
		t.Fatalf("unexpected batch scores %+v", scores)
	}
}

func TestDreadScoresFailOpenWithoutCaching(t *testing.T) {
	env := newTestEnv(t)
	user := testsupport.MustCreateUser(t, env.repos, "fail@example.com", "Fay")
	testsupport.MustEnsureMovie(t, env.repos, 155, "The Dark Knight")
	testsupport.MustEnsureMovie(t, env.repos, 603, "The Matrix")

	if err := env.repos.DB.Migrator().DropTable(&model.Rating{}); err != nil {
		t.Fatalf("drop ratings: %v", err)
	}
	scores := env.ratings.BatchFetchDreadScores([]int{155, 603})
	if len(scores) != 2 || scores[155] != nil || scores[603] != nil {
		t.Fatalf("expected neutral nil scores while storage is down, got %+v", scores)
	}

	if err := repository.AutoMigrate(env.repos.DB); err != nil {
		t.Fatalf("restore ratings: %v", err)
	}
	// 直接写库，不经过服务层的缓存失效
	r := &model.Rating{UserID: user.ID, MovieID: 155, Category: "violence", Subcategory: "goreBlood", Rating: 4}
	if err := env.repos.Rating.Upsert(r); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	scores = env.ratings.BatchFetchDreadScores([]int{155, 603})
	if scores[155] == nil || scores[155].Score != 4 {
		t.Fatalf("failed lookup must not be cached, got %+v", scores[155])
	}
	if scores[603] != nil {
		t.Fatalf("expected no score for unrated movie, got %+v", scores[603])
	}
}

func TestCombineDreadScore(t *testing.T) {
	tests := []struct {
		name  string
		stats []model.SubcategoryStat
		want  *float64
		total int
	}{
		{name: "no ratings", stats: nil},
		{
			name:  "single subcategory",
			stats: []model.SubcategoryStat{{Category: "violence", Subcategory: "goreBlood", AverageRating: 7.5, RatingCount: 2}},
			want:  floatPtr(7.5),
			total: 2,
		},
		{
			name: "negative weight lowers score",
			stats: []model.SubcategoryStat{
				{Category: "violence", Subcategory: "goreBlood", AverageRating: 8, RatingCount: 1},
				{Category: "language", Subcategory: "humor", AverageRating: 10, RatingCount: 1},
			},
			want:  floatPtr(3.85),
			total: 2,
		},
		{
			name: "clamped at zero",
			stats: []model.SubcategoryStat{
				{Category: "sexualContent", Subcategory: "romance", AverageRating: 9, RatingCount: 3},
			},
			want:  floatPtr(0),
			total: 3,
		},
		{
			name: "unknown subcategory ignored",
			stats: []model.SubcategoryStat{
				{Category: "violence", Subcategory: "retired", AverageRating: 9, RatingCount: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineDreadScore(1, tt.stats)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %v, got nil", *tt.want)
			}
			if math.Abs(got.Score-*tt.want) > 0.001 || got.TotalRatings != tt.total {
				t.Fatalf("expected %v (%d ratings), got %+v", *tt.want, tt.total, got)
			}
		})
	}
}

func floatPtr(v float64) *float64 { return &v }
