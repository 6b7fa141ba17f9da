package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"gig-wizard/internal/model"

	"golang.org/x/sync/errgroup"
)

// Config 用于预热配置。
type Config struct {
	Interval    string `yaml:"interval" json:"interval"`
	Timeout     string `yaml:"timeout" json:"timeout"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
}

// Cache 抽象缓存接口，refcache.Cache 满足该接口。
type Cache interface {
	Loaded(category model.Category) bool
	Load(ctx context.Context, category model.Category) []model.ReferenceItem
}

// Scheduler 周期性地把仍未加载的类别并发加载进缓存。已加载的类别不会被重新请求。
type Scheduler struct {
	cache       Cache
	categories  []model.Category
	interval    time.Duration
	timeout     time.Duration
	concurrency int
	running     atomic.Bool
	newTicker   func(time.Duration) ticker
	logger      *log.Logger
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewScheduler 创建 Scheduler，解析配置的间隔与超时。
func NewScheduler(cache Cache, cfg Config) *Scheduler {
	interval := 10 * time.Minute
	if cfg.Interval != "" {
		if d, err := time.ParseDuration(cfg.Interval); err == nil && d > 0 {
			interval = d
		}
	}
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	return &Scheduler{
		cache:       cache,
		categories:  model.AllCategories(),
		interval:    interval,
		timeout:     timeout,
		concurrency: concurrency,
		newTicker:   defaultTicker,
		logger:      log.New(os.Stdout, "[scheduler] ", log.LstdFlags),
	}
}

// Start 先预热一次，然后按间隔重复，直到上下文取消。单次失败只记录日志。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cache == nil {
		return fmt.Errorf("scheduler missing cache")
	}

	if _, err := s.runOnce(ctx); err != nil {
		s.logger.Printf("warm up: %v", err)
	}

	tick := s.newTicker(s.interval)
	defer tick.Stop()
	ch := tick.C()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			if _, err := s.runOnce(ctx); err != nil {
				s.logger.Printf("warm up: %v", err)
			}
		drain:
			for {
				select {
				case <-ch:
					continue
				default:
					break drain
				}
			}
		}
	}
}

// RunOnce 对外暴露单次预热，返回已加载的类别数量。仍有类别未加载时返回错误。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) (int, error) {
	if s.running.Swap(true) {
		return s.loadedCount(), nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// 单个类别失败不影响其它类别，所以不用 WithContext。
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, c := range s.categories {
		if s.cache.Loaded(c) {
			continue
		}
		g.Go(func() error {
			items := s.cache.Load(ctx, c)
			if !s.cache.Loaded(c) {
				return fmt.Errorf("category %s still cold", c)
			}
			s.logger.Printf("category=%s loaded=%d", c, len(items))
			return nil
		})
	}
	err := g.Wait()

	loaded := s.loadedCount()
	if err != nil {
		return loaded, fmt.Errorf("%d of %d categories loaded: %w", loaded, len(s.categories), err)
	}
	return loaded, nil
}

func (s *Scheduler) loadedCount() int {
	n := 0
	for _, c := range s.categories {
		if s.cache.Loaded(c) {
			n++
		}
	}
	return n
}

func defaultTicker(d time.Duration) ticker {
	t := time.NewTicker(d)
	return tickerWrapper{t}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }
