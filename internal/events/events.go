package events

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"gig-wizard/internal/model"
)

// Kind 事件类型。
type Kind string

const (
	CacheHit         Kind = "cache.hit"
	CacheMiss        Kind = "cache.miss"
	CacheLoaded      Kind = "cache.loaded"
	CacheFetchFailed Kind = "cache.fetch_failed"
	CacheInvalidated Kind = "cache.invalidated"
	CacheCleared     Kind = "cache.cleared"

	NameUnresolved Kind = "resolver.name_unresolved"

	RefResolved   Kind = "migrate.resolved"
	RefUnresolved Kind = "migrate.unresolved"
	RefDropped    Kind = "migrate.dropped"

	BatchItemFailed Kind = "skillcrud.batch_item_failed"
)

// Event 是一次结构化观测记录，字段按需填写。
type Event struct {
	Kind     Kind
	Category model.Category
	Name     string
	ID       string
	Count    int
	Err      error
}

// Sink 接收事件，由缓存、解析器与迁移器注入使用。
type Sink interface {
	Emit(Event)
}

// Discard 丢弃所有事件。
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// OrDiscard 在 sink 为空时返回 Discard。
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// LogSink 把事件打印为 key=value 日志行。
type LogSink struct {
	logger *log.Logger
}

// NewLogSink 创建日志事件输出，未提供 logger 时默认输出到标准输出。
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.New(os.Stdout, "[refdata] ", log.LstdFlags)
	}
	return &LogSink{logger: logger}
}

// Emit 输出一行日志。
func (s *LogSink) Emit(e Event) {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Category != "" {
		b.WriteString(" category=")
		b.WriteString(string(e.Category))
	}
	if e.ID != "" {
		b.WriteString(" id=")
		b.WriteString(e.ID)
	}
	if e.Name != "" {
		b.WriteString(" name=")
		b.WriteString(quoteIfNeeded(e.Name))
	}
	if e.Count > 0 {
		b.WriteString(" count=")
		b.WriteString(strconv.Itoa(e.Count))
	}
	if e.Err != nil {
		b.WriteString(" error=")
		b.WriteString(quoteIfNeeded(e.Err.Error()))
	}
	s.logger.Print(b.String())
}

// Recorder 在内存中记录事件，供测试断言。
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit 记录事件。
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events 返回已记录事件的副本。
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count 统计某类事件次数。
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset 清空记录。
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t\"=") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
