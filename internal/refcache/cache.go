package refcache

import (
	"context"
	"sync"

	"gig-wizard/internal/events"
	"gig-wizard/internal/model"
	"gig-wizard/internal/refclient"

	"golang.org/x/sync/singleflight"
)

// entry 是单个类别的缓存状态。
type entry struct {
	items  []model.ReferenceItem
	loaded bool
}

// Cache 按类别懒加载受控词表，生命周期为 New -> Load -> Clear。
//
// loaded 标记只是粗粒度的防重：两个并发的冷启动 Load 都可能发起请求，
// 后返回的结果覆盖先返回的结果。开启 WithDedupe 后同一类别的并发冷加载合并为一次请求。
type Cache struct {
	fetcher refclient.Fetcher
	sink    events.Sink
	dedupe  bool
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[model.Category]*entry
}

// Option 配置 Cache。
type Option func(*Cache)

// WithSink 注入事件输出。
func WithSink(sink events.Sink) Option {
	return func(c *Cache) { c.sink = events.OrDiscard(sink) }
}

// WithDedupe 合并同一类别的并发冷加载。
func WithDedupe() Option {
	return func(c *Cache) { c.dedupe = true }
}

// New 创建空缓存，所有类别处于未加载状态。
func New(fetcher refclient.Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		sink:    events.Discard,
		entries: make(map[model.Category]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load 返回类别下的全部条目。已加载且非空时直接返回缓存；
// 否则请求远端，失败时返回空列表并保持未加载，下次调用会重试。
func (c *Cache) Load(ctx context.Context, category model.Category) []model.ReferenceItem {
	if items, ok := c.Items(category); ok && len(items) > 0 {
		c.sink.Emit(events.Event{Kind: events.CacheHit, Category: category, Count: len(items)})
		return items
	}
	c.sink.Emit(events.Event{Kind: events.CacheMiss, Category: category})

	if !c.dedupe {
		return c.fetch(ctx, category)
	}

	// 合并后的请求被多个调用方共享，不随发起者取消。
	shared := context.WithoutCancel(ctx)
	v, _, _ := c.group.Do(string(category), func() (any, error) {
		return c.fetch(shared, category), nil
	})
	items, _ := v.([]model.ReferenceItem)
	return cloneItems(items)
}

func (c *Cache) fetch(ctx context.Context, category model.Category) []model.ReferenceItem {
	if c.fetcher == nil {
		return []model.ReferenceItem{}
	}
	items, err := c.fetcher.FetchCategory(ctx, category)
	if err != nil {
		c.sink.Emit(events.Event{Kind: events.CacheFetchFailed, Category: category, Err: err})
		return []model.ReferenceItem{}
	}

	stored := cloneItems(items)
	if stored == nil {
		stored = []model.ReferenceItem{}
	}
	c.mu.Lock()
	c.entries[category] = &entry{items: stored, loaded: true}
	c.mu.Unlock()

	c.sink.Emit(events.Event{Kind: events.CacheLoaded, Category: category, Count: len(stored)})
	return cloneItems(stored)
}

// Items 读取当前快照，不触发请求。第二个返回值表示是否已加载。
func (c *Cache) Items(category model.Category) ([]model.ReferenceItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[category]
	if !ok || !e.loaded {
		return []model.ReferenceItem{}, false
	}
	return cloneItems(e.items), true
}

// Loaded 判断类别是否已加载。
func (c *Cache) Loaded(category model.Category) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[category]
	return ok && e.loaded
}

// Invalidate 把单个类别重置为未加载，下一次 Load 会重新请求。
func (c *Cache) Invalidate(category model.Category) {
	c.mu.Lock()
	delete(c.entries, category)
	c.mu.Unlock()
	c.sink.Emit(events.Event{Kind: events.CacheInvalidated, Category: category})
}

// Clear 把全部类别重置为初始状态。
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[model.Category]*entry)
	c.mu.Unlock()
	c.sink.Emit(events.Event{Kind: events.CacheCleared})
}

func cloneItems(in []model.ReferenceItem) []model.ReferenceItem {
	if in == nil {
		return nil
	}
	out := make([]model.ReferenceItem, len(in))
	copy(out, in)
	return out
}
