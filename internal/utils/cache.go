package utils

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// TTLCache 通用过期缓存：key -> {data, 写入时间}，超过 ttl 视为未命中。
// 除 TTL 过期和显式失效外不做淘汰，janitor 按 sweep 间隔清理过期项。
type TTLCache[T any] struct {
	storage *cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	// generation 每次失效递增，防止失效前发起的加载把旧数据写回缓存
	generation atomic.Uint64
}

// NewTTLCache 创建过期缓存
func NewTTLCache[T any](ttl, sweep time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		storage: cache.New(ttl, sweep),
		ttl:     ttl,
	}
}

// Get 获取缓存（过期视为未命中）
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := v.(T)
	if !ok {
		return zero, false
	}
	return value, true
}

// Set 写入缓存，时间戳为当前时间
func (c *TTLCache[T]) Set(key string, value T) {
	c.storage.Set(key, value, c.ttl)
}

// Generation 当前失效代数，配合 SetIfGeneration 使用
func (c *TTLCache[T]) Generation() uint64 {
	return c.generation.Load()
}

// SetIfGeneration 仅当读取数据后没有发生过失效时才写入
func (c *TTLCache[T]) SetIfGeneration(key string, value T, gen uint64) bool {
	if c.generation.Load() != gen {
		return false
	}
	c.Set(key, value)
	return true
}

// Delete 删除缓存
func (c *TTLCache[T]) Delete(key string) {
	c.generation.Add(1)
	c.storage.Delete(key)
}

// DeleteWhere 删除所有满足条件的 key，返回删除数量
func (c *TTLCache[T]) DeleteWhere(match func(key string) bool) int {
	c.generation.Add(1)
	n := 0
	for key := range c.storage.Items() {
		if match(key) {
			c.storage.Delete(key)
			n++
		}
	}
	return n
}

// Clear 清空缓存，返回清除前的条数
func (c *TTLCache[T]) Clear() int {
	c.generation.Add(1)
	n := c.storage.ItemCount()
	c.storage.Flush()
	return n
}

// Len 当前缓存条数（可能包含尚未被清理的过期项）
func (c *TTLCache[T]) Len() int {
	return c.storage.ItemCount()
}

// GetOrLoad 读穿缓存：未命中时调用 load，同一 key 的并发加载合并为一次。
// load 出错时不写缓存。
func (c *TTLCache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	gen := c.generation.Load()
	flightKey := key + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		value, err := load()
		if err != nil {
			return value, err
		}
		c.SetIfGeneration(key, value, gen)
		return value, nil
	})
	value, _ := v.(T)
	return value, err
}

// KeyHasSegment 判断以 ":" 分隔的缓存 key 中是否包含指定片段
func KeyHasSegment(key, segment string) bool {
	for _, part := range strings.Split(key, ":") {
		if part == segment {
			return true
		}
	}
	return false
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// LRUCache 有容量上限的 LRU + TTL 缓存
type LRUCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewLRUCache 初始化，size 是最大缓存条数，ttl 是数据有效期
func NewLRUCache[T any](size int, ttl time.Duration) *LRUCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &LRUCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（LRU 中 Add 会自动处理更新）
func (c *LRUCache[T]) Set(key string, value T) {
	c.SetAt(key, value, time.Now())
}

// SetAt 以指定写入时间写入，用于从持久化缓存回填
func (c *LRUCache[T]) SetAt(key string, value T, storedAt time.Time) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: storedAt.Add(c.ttl),
	})
}

// Get 带过期检查的读取
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

// Delete 删除
func (c *LRUCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Clear 清空，返回清除前的条数
func (c *LRUCache[T]) Clear() int {
	n := c.storage.Len()
	c.storage.Purge()
	return n
}

// Len 当前长度
func (c *LRUCache[T]) Len() int {
	return c.storage.Len()
}
