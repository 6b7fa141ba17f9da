package reference

import (
	"context"

	"gig-wizard/internal/events"
	"gig-wizard/internal/migrate"
	"gig-wizard/internal/model"
	"gig-wizard/internal/refcache"
	"gig-wizard/internal/resolver"
)

// Service 是前端与应用层使用的参考数据入口：按类别加载、投影选项、名称与标识互转、技能包迁移。
type Service struct {
	cache     *refcache.Cache
	resolvers map[model.Category]*resolver.Resolver
	migrator  *migrate.Migrator
}

// New 基于注入的缓存创建 Service。
func New(cache *refcache.Cache, sink events.Sink) *Service {
	sink = events.OrDiscard(sink)
	resolvers := make(map[model.Category]*resolver.Resolver)
	lookups := make(map[model.Category]migrate.Lookup)
	for _, c := range model.AllCategories() {
		r := resolver.New(cache, c, sink)
		resolvers[c] = r
		lookups[c] = r
	}
	return &Service{
		cache:     cache,
		resolvers: resolvers,
		migrator:  migrate.New(lookups, sink),
	}
}

// Cache 返回底层缓存。
func (s *Service) Cache() *refcache.Cache {
	return s.cache
}

// Resolver 返回类别的解析器，未知类别返回 nil。
func (s *Service) Resolver(category model.Category) *resolver.Resolver {
	return s.resolvers[category]
}

// Load 加载类别（必要时请求远端）。
func (s *Service) Load(ctx context.Context, category model.Category) []model.ReferenceItem {
	if !category.Valid() {
		return []model.ReferenceItem{}
	}
	return s.cache.Load(ctx, category)
}

// Options 返回启用条目的选项；类别未加载时为空列表。
func (s *Service) Options(category model.Category) []resolver.Option {
	r, ok := s.resolvers[category]
	if !ok {
		return []resolver.Option{}
	}
	return r.Options()
}

// NameByID 返回名称或 "Unknown <Label>"。
func (s *Service) NameByID(category model.Category, id string) string {
	r, ok := s.resolvers[category]
	if !ok {
		return resolver.UnknownName(category)
	}
	return r.NameOf(id)
}

// NamesToIDs 把名称转换为标识，找不到的名称被省略。
func (s *Service) NamesToIDs(category model.Category, names []string) []string {
	r, ok := s.resolvers[category]
	if !ok {
		return []string{}
	}
	return r.IDsOfNames(names)
}

// Migrate 软校验迁移，不加载缓存。
func (s *Service) Migrate(b model.Bundle) migrate.Result {
	return s.migrator.Migrate(b)
}

// Finalize 最终提交迁移，不加载缓存。
func (s *Service) Finalize(b model.Bundle) migrate.Result {
	return s.migrator.Finalize(b)
}

// bundleCategories 是技能包涉及的类别。
var bundleCategories = []model.Category{
	model.CategorySoftSkill,
	model.CategoryTechnicalSkill,
	model.CategoryProfessionalSkill,
	model.CategoryLanguage,
}

// LoadAndMigrate 先加载技能包涉及的类别，再按策略迁移。
func (s *Service) LoadAndMigrate(ctx context.Context, b model.Bundle, policy migrate.Policy) migrate.Result {
	for _, c := range bundleCategories {
		s.cache.Load(ctx, c)
	}
	return s.migrator.Run(b, policy)
}

// ClearCache 重置全部类别。
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// View 绑定单个类别的便捷访问。
type View struct {
	svc      *Service
	category model.Category
}

func (v View) Load(ctx context.Context) []model.ReferenceItem { return v.svc.Load(ctx, v.category) }
func (v View) Options() []resolver.Option                     { return v.svc.Options(v.category) }
func (v View) NameByID(id string) string                      { return v.svc.NameByID(v.category, id) }
func (v View) NamesToIDs(names []string) []string             { return v.svc.NamesToIDs(v.category, names) }

func (s *Service) Activities() View         { return View{s, model.CategoryActivity} }
func (s *Service) Industries() View         { return View{s, model.CategoryIndustry} }
func (s *Service) Languages() View          { return View{s, model.CategoryLanguage} }
func (s *Service) SoftSkills() View         { return View{s, model.CategorySoftSkill} }
func (s *Service) TechnicalSkills() View    { return View{s, model.CategoryTechnicalSkill} }
func (s *Service) ProfessionalSkills() View { return View{s, model.CategoryProfessionalSkill} }
