// Package query 提供按查询键缓存的数据获取层：
// 并发请求去重、过期后后台刷新（stale-while-revalidate），以及保留旧数据策略。
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Status 查询所处阶段
type Status int

const (
	// StatusPending 尚未获得任何数据
	StatusPending Status = iota
	// StatusResolved 至少成功获取过一次
	StatusResolved
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Query 一个可缓存的查询定义
type Query[T any] struct {
	Key   string
	Fetch func(ctx context.Context) (T, error)
	// KeepPreviousData 失效后继续展示旧数据，直到新数据到达
	KeepPreviousData bool
}

// State 查询的当前快照，Data 为共享值，调用方不得修改
type State[T any] struct {
	Status    Status
	Data      T
	Stale     bool
	Fetching  bool
	UpdatedAt time.Time
	Err       error
}

type entry[T any] struct {
	data         T
	hasData      bool
	invalidated  bool
	inflight     int
	keepPrevious bool
	updatedAt    time.Time
	err          error
	// gen 每次失效递增；applied 为已写入数据对应的 gen
	gen     uint64
	applied uint64
}

// Options 缓存配置
type Options struct {
	// StaleTime 数据被视为新鲜的时长，<= 0 表示总是过期
	StaleTime time.Duration
	// FetchTimeout 单次获取的超时时间，<= 0 表示不限制
	FetchTimeout time.Duration
}

// Cache 查询缓存
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	subs    map[string]map[int]chan T
	nextSub int

	group singleflight.Group
	opts  Options
	now   func() time.Time
}

// NewCache 创建查询缓存
func NewCache[T any](opts Options) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]*entry[T]),
		subs:    make(map[string]map[int]chan T),
		opts:    opts,
		now:     time.Now,
	}
}

// Peek 非阻塞地读取查询状态
func (c *Cache[T]) Peek(key string) State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return State[T]{Status: StatusPending}
	}
	st := State[T]{
		Fetching:  e.inflight > 0,
		UpdatedAt: e.updatedAt,
		Err:       e.err,
	}
	if e.hasData {
		st.Status = StatusResolved
		st.Data = e.data
		st.Stale = c.isStale(e)
	}
	return st
}

func (c *Cache[T]) isStale(e *entry[T]) bool {
	if e.invalidated || c.opts.StaleTime <= 0 {
		return true
	}
	return c.now().Sub(e.updatedAt) >= c.opts.StaleTime
}

// Fetch 获取查询数据：
// 新鲜数据直接返回；过期数据先返回旧值并触发后台刷新；无数据时阻塞等待（并发调用共享同一次获取）。
func (c *Cache[T]) Fetch(ctx context.Context, q Query[T]) (T, error) {
	c.remember(q)
	st := c.Peek(q.Key)
	if st.Status == StatusResolved {
		if st.Stale {
			c.Revalidate(q)
		}
		return st.Data, nil
	}
	return c.Refetch(ctx, q)
}

// Refetch 强制获取并等待结果。ctx 取消只结束当前调用方的等待，不会中断共享的获取。
func (c *Cache[T]) Refetch(ctx context.Context, q Query[T]) (T, error) {
	c.remember(q)
	ch := c.group.DoChan(q.Key, func() (interface{}, error) {
		return c.load(q)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Revalidate 在后台刷新查询，已有进行中的获取时直接复用
func (c *Cache[T]) Revalidate(q Query[T]) {
	c.remember(q)
	c.group.DoChan(q.Key, func() (interface{}, error) {
		return c.load(q)
	})
}

// Invalidate 标记查询失效。保留旧数据的查询继续展示旧值，否则回到 Pending。
// 失效前已开始的获取不再被复用，其结果落地后仍视为过期。
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.gen++
	c.group.Forget(key)
	if e.keepPrevious {
		e.invalidated = true
		return
	}
	var zero T
	e.data = zero
	e.hasData = false
	e.invalidated = false
}

// Subscribe 订阅查询的新结果，只保证送达最新一次结果。返回的函数用于取消订阅。
func (c *Cache[T]) Subscribe(key string) (<-chan T, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan T, 1)
	if c.subs[key] == nil {
		c.subs[key] = make(map[int]chan T)
	}
	c.subs[key][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs[key], id)
			close(ch)
		})
	}
}

func (c *Cache[T]) remember(q Query[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[q.Key]
	if !ok {
		e = &entry[T]{}
		c.entries[q.Key] = e
	}
	e.keepPrevious = q.KeepPreviousData
}

func (c *Cache[T]) load(q Query[T]) (T, error) {
	c.mu.Lock()
	e := c.entries[q.Key]
	e.inflight++
	gen := e.gen
	c.mu.Unlock()

	ctx := context.Background()
	if c.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
	}

	start := c.now()
	data, err := q.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	e.inflight--
	if err != nil {
		// 失败时保留已有数据
		e.err = err
		logger.Warn("查询获取失败", "key", q.Key, "error", err)
		var zero T
		return zero, fmt.Errorf("查询 %s 获取失败: %w", q.Key, err)
	}

	// 更晚开始的获取已经写入，丢弃本次结果
	if e.hasData && gen < e.applied {
		return data, nil
	}

	e.data = data
	e.hasData = true
	e.applied = gen
	e.invalidated = gen != e.gen
	e.err = nil
	e.updatedAt = c.now()
	logger.Debug("查询获取完成", "key", q.Key, "elapsed", e.updatedAt.Sub(start).String())

	for _, ch := range c.subs[q.Key] {
		select {
		case <-ch:
		default:
		}
		ch <- data
	}
	return data, nil
}
