package utils

import (
	"sync"
	"time"
)

type pendingCall struct {
	timer *time.Timer
	fn    func()
}

// Debouncer 按逻辑 key 合并短时间内的重复调用：
// 窗口内同一 key 只执行第一次调用，期间重复调用直接丢弃。调用方不能假设同步完成。
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]*pendingCall
	wg      sync.WaitGroup
}

// NewDebouncer 创建防抖器
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pendingCall),
	}
}

// Do 登记一次调用，返回 false 表示该 key 已在等待中、本次被丢弃
func (d *Debouncer) Do(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[key]; ok {
		return false
	}

	call := &pendingCall{fn: fn}
	d.wg.Add(1)
	call.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		current, ok := d.pending[key]
		if ok && current == call {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		if ok && current == call {
			defer d.wg.Done()
			fn()
		}
	})
	d.pending[key] = call
	return true
}

// Pending 当前是否有该 key 的待执行调用
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Flush 立即执行所有待执行调用并等待完成（用于关闭服务和测试）
func (d *Debouncer) Flush() {
	d.mu.Lock()
	var due []*pendingCall
	for key, call := range d.pending {
		// 已触发的计时器由其回调自行清理
		if call.timer.Stop() {
			due = append(due, call)
			delete(d.pending, key)
		}
	}
	d.mu.Unlock()

	for _, call := range due {
		call.fn()
		d.wg.Done()
	}
	d.wg.Wait()
}
