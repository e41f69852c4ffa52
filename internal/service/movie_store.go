package service

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/utils"
)

// MovieUpsertDebounce 同一部电影元数据刷新的防抖窗口
const MovieUpsertDebounce = time.Second

// MovieStore 保证电影行在评分/片单/讨论写入前存在，元数据刷新做防抖
type MovieStore struct {
	repo      *repository.MovieRepository
	debouncer *utils.Debouncer
}

func NewMovieStore(repo *repository.MovieRepository, window time.Duration) *MovieStore {
	return &MovieStore{
		repo:      repo,
		debouncer: utils.NewDebouncer(window),
	}
}

// Ensure 同步插入缺失的电影行；data 不为空时异步刷新元数据（窗口内重复刷新被丢弃）
func (s *MovieStore) Ensure(movieID int, data *model.Movie) error {
	row := &model.Movie{ID: movieID}
	if data != nil {
		row = data
		row.ID = movieID
	}
	if err := s.repo.EnsureExists(row); err != nil {
		return fmt.Errorf("保存电影失败 (%d): %w", movieID, err)
	}

	if data != nil && data.Title != "" {
		snapshot := *data
		s.debouncer.Do("movie:"+strconv.Itoa(movieID), func() {
			if err := s.repo.Upsert(&snapshot); err != nil {
				log.Printf("[MovieStore] 刷新电影元数据失败 (%d): %v", movieID, err)
			}
		})
	}
	return nil
}

// Find 读取已入库的电影
func (s *MovieStore) Find(movieID int) (*model.Movie, error) {
	return s.repo.FindByID(movieID)
}

// Flush 立即执行所有待刷新的元数据（关闭服务时调用）
func (s *MovieStore) Flush() {
	s.debouncer.Flush()
}
