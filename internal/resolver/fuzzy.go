package resolver

import (
	"strings"

	"gig-wizard/internal/model"
)

// Tier 表示命中的匹配层级，数值越小越精确。
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierCaseInsensitive
	TierSubstring
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierCaseInsensitive:
		return "case-insensitive"
	case TierSubstring:
		return "substring"
	}
	return "none"
}

// Match 按 精确 -> 大小写不敏感 -> 双向子串 的顺序匹配名称，先命中者胜出，
// 精确匹配永远不会被更弱的层级遮蔽。
// 同一层级有多个候选时，启用条目优先，其次按服务端返回顺序。
func Match(items []model.ReferenceItem, needle string) (model.ReferenceItem, Tier, bool) {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return model.ReferenceItem{}, TierNone, false
	}
	lower := strings.ToLower(needle)

	tiers := []struct {
		tier  Tier
		match func(name string) bool
	}{
		{TierExact, func(name string) bool { return name == needle }},
		{TierCaseInsensitive, func(name string) bool { return strings.EqualFold(name, needle) }},
		{TierSubstring, func(name string) bool {
			candidate := strings.ToLower(name)
			if candidate == "" {
				return false
			}
			return strings.Contains(candidate, lower) || strings.Contains(lower, candidate)
		}},
	}

	for _, tier := range tiers {
		if item, ok := firstMatch(items, tier.match); ok {
			return item, tier.tier, true
		}
	}
	return model.ReferenceItem{}, TierNone, false
}

// firstMatch 先在启用条目中找，再退回到未启用条目。
func firstMatch(items []model.ReferenceItem, pred func(string) bool) (model.ReferenceItem, bool) {
	var fallback *model.ReferenceItem
	for i := range items {
		name := strings.TrimSpace(items[i].Name)
		if !pred(name) {
			continue
		}
		if items[i].IsActive {
			return items[i], true
		}
		if fallback == nil {
			fallback = &items[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return model.ReferenceItem{}, false
}
