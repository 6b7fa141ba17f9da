package resolver

import (
	"sort"
	"strings"

	"gig-wizard/internal/events"
	"gig-wizard/internal/model"
)

// Snapshotter 提供某一类别的当前缓存快照，refcache.Cache 满足该接口。
type Snapshotter interface {
	Items(category model.Category) ([]model.ReferenceItem, bool)
}

// Option 是供前端选择器使用的选项。
type Option struct {
	Value       string         `json:"value"`
	Label       string         `json:"label"`
	Code        string         `json:"code,omitempty"`
	Category    model.Category `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Resolver 在单个类别的缓存上做双向查找。它只读快照，从不触发请求，
// 冷缓存上的所有查询都返回空结果。
type Resolver struct {
	cache    Snapshotter
	category model.Category
	sink     events.Sink
}

// New 创建 Resolver。
func New(cache Snapshotter, category model.Category, sink events.Sink) *Resolver {
	return &Resolver{cache: cache, category: category, sink: events.OrDiscard(sink)}
}

// Category 返回所属类别。
func (r *Resolver) Category() model.Category {
	return r.category
}

// Loaded 判断缓存是否已加载。
func (r *Resolver) Loaded() bool {
	_, ok := r.cache.Items(r.category)
	return ok
}

// Items 返回当前快照。
func (r *Resolver) Items() []model.ReferenceItem {
	items, _ := r.cache.Items(r.category)
	return items
}

// ByID 精确查找，未启用条目同样可以查到。
func (r *Resolver) ByID(id string) (model.ReferenceItem, bool) {
	if id == "" {
		return model.ReferenceItem{}, false
	}
	for _, item := range r.Items() {
		if item.ID == id {
			return item, true
		}
	}
	return model.ReferenceItem{}, false
}

// NameOf 返回名称，找不到时返回 "Unknown <Label>" 占位符。
func (r *Resolver) NameOf(id string) string {
	if item, ok := r.ByID(id); ok {
		return item.Name
	}
	return UnknownName(r.category)
}

// UnknownName 返回类别的占位名称。
func UnknownName(category model.Category) string {
	return "Unknown " + category.Label()
}

// IDsOfNames 大小写不敏感地把名称转换为标识，找不到的名称被省略并记录事件。
func (r *Resolver) IDsOfNames(names []string) []string {
	items := r.Items()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		key := strings.TrimSpace(name)
		item, ok := firstMatch(items, func(candidate string) bool {
			return key != "" && strings.EqualFold(candidate, key)
		})
		if !ok {
			r.sink.Emit(events.Event{Kind: events.NameUnresolved, Category: r.category, Name: name})
			continue
		}
		ids = append(ids, item.ID)
	}
	return ids
}

// Match 在当前快照上做三级模糊匹配。
func (r *Resolver) Match(name string) (model.ReferenceItem, Tier, bool) {
	return Match(r.Items(), name)
}

// Options 只投影启用条目，按名称排序；语言带 Code，技能带类别。
func (r *Resolver) Options() []Option {
	items := r.Items()
	opts := make([]Option, 0, len(items))
	for _, item := range items {
		if !item.IsActive {
			continue
		}
		opt := Option{Value: item.ID, Label: item.Name, Description: item.Description}
		switch {
		case r.category == model.CategoryLanguage:
			opt.Code = item.Code
		case r.category.IsSkill():
			opt.Category = r.category
		}
		opts = append(opts, opt)
	}
	sort.SliceStable(opts, func(i, j int) bool {
		return strings.ToLower(opts[i].Label) < strings.ToLower(opts[j].Label)
	})
	return opts
}
