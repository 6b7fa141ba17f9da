package migrate

import (
	"strings"

	"gig-wizard/internal/events"
	"gig-wizard/internal/model"
	"gig-wizard/internal/resolver"
)

// Lookup 是迁移器对单个类别的查询能力，resolver.Resolver 满足该接口。
type Lookup interface {
	Loaded() bool
	ByID(id string) (model.ReferenceItem, bool)
	Match(name string) (model.ReferenceItem, resolver.Tier, bool)
}

// Policy 决定无法解析的旧格式条目如何处理。
type Policy int

const (
	// Retain 编辑阶段的软校验：保留原名称，等缓存重新加载后再试。
	Retain Policy = iota
	// Drop 最终提交：直接丢弃。
	Drop
)

// Reason 说明条目为何未能解析。
type Reason string

const (
	ReasonNotLoaded Reason = "cache not loaded"
	ReasonNoMatch   Reason = "no match"
	ReasonEmpty     Reason = "empty reference"
)

// Unresolved 描述一条未解析的引用，Index 为其在输入数组中的位置。
type Unresolved struct {
	Category model.Category `json:"category"`
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	Reason   Reason         `json:"reason"`
}

// Result 是一次迁移的输出。
type Result struct {
	Bundle     model.Bundle `json:"bundle"`
	Resolved   int          `json:"resolved"`
	Unresolved []Unresolved `json:"unresolved,omitempty"`
	Dropped    []Unresolved `json:"dropped,omitempty"`
}

// Clean 判断结果中是否不再有旧格式引用。
func (r Result) Clean() bool {
	return len(r.Unresolved) == 0
}

// Migrator 把技能包中的旧格式名称引用改写为标识引用。
// 它是纯函数式的：不修改输入、不发起请求、不会 panic，对同一输入重复执行结果不变。
type Migrator struct {
	lookups map[model.Category]Lookup
	sink    events.Sink
}

// New 创建 Migrator，lookups 按类别提供查询，缺失的类别视为未加载。
func New(lookups map[model.Category]Lookup, sink events.Sink) *Migrator {
	copied := make(map[model.Category]Lookup, len(lookups))
	for c, l := range lookups {
		copied[c] = l
	}
	return &Migrator{lookups: copied, sink: events.OrDiscard(sink)}
}

// Migrate 软校验路径：未解析条目原样保留并列入 Result.Unresolved。
func (m *Migrator) Migrate(b model.Bundle) Result {
	return m.run(b, Retain)
}

// Finalize 最终提交路径：未解析条目被丢弃并列入 Result.Dropped。
func (m *Migrator) Finalize(b model.Bundle) Result {
	return m.run(b, Drop)
}

// Run 按指定策略执行迁移。
func (m *Migrator) Run(b model.Bundle, policy Policy) Result {
	return m.run(b, policy)
}

func (m *Migrator) run(b model.Bundle, policy Policy) Result {
	in := b.Clone()
	res := Result{}

	res.Bundle.Soft = m.migrateSkills(model.CategorySoftSkill, in.Soft, policy, &res)
	res.Bundle.Technical = m.migrateSkills(model.CategoryTechnicalSkill, in.Technical, policy, &res)
	res.Bundle.Professional = m.migrateSkills(model.CategoryProfessionalSkill, in.Professional, policy, &res)
	res.Bundle.Languages = m.migrateLanguages(in.Languages, policy, &res)

	return res
}

func (m *Migrator) migrateSkills(category model.Category, entries []model.SkillEntry, policy Policy, res *Result) []model.SkillEntry {
	if entries == nil {
		return nil
	}
	out := make([]model.SkillEntry, 0, len(entries))
	for i, entry := range entries {
		item, reason, ok := m.resolve(category, entry.Ref)
		if ok {
			if entry.Ref.IsLegacy() {
				entry.Ref = model.CanonicalRef(item.ID)
				if strings.TrimSpace(entry.Details) == "" && item.Description != "" {
					entry.Details = item.Description
				}
				res.Resolved++
			}
			out = append(out, entry)
			continue
		}
		if m.unresolved(category, i, entry.Ref, reason, policy, res) {
			out = append(out, entry)
		}
	}
	return out
}

func (m *Migrator) migrateLanguages(entries []model.LanguageEntry, policy Policy, res *Result) []model.LanguageEntry {
	if entries == nil {
		return nil
	}
	out := make([]model.LanguageEntry, 0, len(entries))
	for i, entry := range entries {
		item, reason, ok := m.resolve(model.CategoryLanguage, entry.Ref)
		if ok {
			if entry.Ref.IsLegacy() {
				entry.Ref = model.CanonicalRef(item.ID)
				res.Resolved++
			}
			out = append(out, entry)
			continue
		}
		if m.unresolved(model.CategoryLanguage, i, entry.Ref, reason, policy, res) {
			out = append(out, entry)
		}
	}
	return out
}

// resolve 对 Canonical 引用直接放行；对 Legacy 引用先按标识查，再走三级模糊匹配。
func (m *Migrator) resolve(category model.Category, ref model.Ref) (model.ReferenceItem, Reason, bool) {
	switch ref.Kind() {
	case model.RefCanonical:
		return model.ReferenceItem{ID: ref.ID()}, "", true
	case model.RefLegacy:
	default:
		return model.ReferenceItem{}, ReasonEmpty, false
	}

	name := strings.TrimSpace(ref.Name())
	if name == "" {
		return model.ReferenceItem{}, ReasonEmpty, false
	}

	lookup, ok := m.lookups[category]
	if !ok || lookup == nil || !lookup.Loaded() {
		return model.ReferenceItem{}, ReasonNotLoaded, false
	}

	if item, ok := lookup.ByID(name); ok {
		m.sink.Emit(events.Event{Kind: events.RefResolved, Category: category, Name: ref.Name(), ID: item.ID})
		return item, "", true
	}
	if item, _, ok := lookup.Match(name); ok {
		m.sink.Emit(events.Event{Kind: events.RefResolved, Category: category, Name: ref.Name(), ID: item.ID})
		return item, "", true
	}
	return model.ReferenceItem{}, ReasonNoMatch, false
}

// unresolved 记录未解析条目，返回是否保留该条目。
func (m *Migrator) unresolved(category model.Category, index int, ref model.Ref, reason Reason, policy Policy, res *Result) bool {
	u := Unresolved{Category: category, Index: index, Name: ref.Name(), Reason: reason}
	if policy == Drop {
		res.Dropped = append(res.Dropped, u)
		m.sink.Emit(events.Event{Kind: events.RefDropped, Category: category, Name: u.Name})
		return false
	}
	res.Unresolved = append(res.Unresolved, u)
	m.sink.Emit(events.Event{Kind: events.RefUnresolved, Category: category, Name: u.Name})
	return true
}
