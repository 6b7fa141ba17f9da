package skillcrud

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gig-wizard/internal/events"
	"gig-wizard/internal/model"
	"gig-wizard/internal/refclient"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput 请求体未通过校验。
var ErrInvalidInput = errors.New("invalid skill input")

// Remote 抽象远端技能存储的可变接口，refclient.HTTPClient 满足该接口。
type Remote interface {
	SaveSkill(ctx context.Context, in model.SkillInput) (model.ReferenceItem, error)
	UpdateSkill(ctx context.Context, id string, in model.SkillInput) (model.ReferenceItem, error)
	DeleteSkill(ctx context.Context, id string) error
	SearchSkillsByName(ctx context.Context, category model.Category, name string) ([]model.ReferenceItem, error)
	GetSkillByID(ctx context.Context, id string) (model.ReferenceItem, error)
	SyncSkills(ctx context.Context, items []model.ReferenceItem) (refclient.SyncResult, error)
}

// Cache 是管理器需要的缓存能力：读快照与按类别失效。
type Cache interface {
	Items(category model.Category) ([]model.ReferenceItem, bool)
	Invalidate(category model.Category)
}

// Manager 包装技能的增删改查，每次变更后让对应类别的缓存失效（不主动重新加载）。
type Manager struct {
	remote   Remote
	cache    Cache
	sink     events.Sink
	validate *validator.Validate
	logger   *log.Logger
}

// New 创建 Manager。
func New(remote Remote, cache Cache, sink events.Sink) *Manager {
	return &Manager{
		remote:   remote,
		cache:    cache,
		sink:     events.OrDiscard(sink),
		validate: validator.New(),
		logger:   log.New(os.Stdout, "[skillcrud] ", log.LstdFlags),
	}
}

// Create 创建技能并使所属类别失效。
func (m *Manager) Create(ctx context.Context, in model.SkillInput) (model.ReferenceItem, error) {
	in = normalizeInput(in)
	if err := m.check(in); err != nil {
		return model.ReferenceItem{}, err
	}
	item, err := m.remote.SaveSkill(ctx, in)
	if err != nil {
		return model.ReferenceItem{}, fmt.Errorf("create skill: %w", err)
	}
	m.invalidate(in.Category)
	return item, nil
}

// Update 更新技能；若类别发生变化，新旧类别都会失效。
func (m *Manager) Update(ctx context.Context, id string, in model.SkillInput) (model.ReferenceItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.ReferenceItem{}, fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	in = normalizeInput(in)
	if err := m.check(in); err != nil {
		return model.ReferenceItem{}, err
	}
	previous, err := m.stored(ctx, id)
	if err != nil {
		return model.ReferenceItem{}, fmt.Errorf("update skill: %w", err)
	}

	item, err := m.remote.UpdateSkill(ctx, id, in)
	if err != nil {
		return model.ReferenceItem{}, fmt.Errorf("update skill: %w", err)
	}
	m.invalidate(in.Category)
	if previous.Category != "" && previous.Category != in.Category {
		m.invalidate(previous.Category)
	}
	if item.Category != "" && item.Category != in.Category {
		m.invalidate(item.Category)
	}
	return item, nil
}

// Delete 删除技能并使所属类别失效。以存储中的类别为准，传入的类别同样失效。
func (m *Manager) Delete(ctx context.Context, category model.Category, id string) error {
	if !category.IsSkill() {
		return fmt.Errorf("%w: %q is not a skill category", ErrInvalidInput, category)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	current, err := m.stored(ctx, id)
	if err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	if err := m.remote.DeleteSkill(ctx, id); err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	m.invalidate(category)
	if current.Category != "" && current.Category != category {
		m.invalidate(current.Category)
	}
	return nil
}

// SearchByName 按名称搜索，空查询直接返回空列表。
func (m *Manager) SearchByName(ctx context.Context, category model.Category, query string) ([]model.ReferenceItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.ReferenceItem{}, nil
	}
	if category != "" && !category.IsSkill() {
		return nil, fmt.Errorf("%w: %q is not a skill category", ErrInvalidInput, category)
	}
	items, err := m.remote.SearchSkillsByName(ctx, category, query)
	if err != nil {
		return nil, fmt.Errorf("search skills: %w", err)
	}
	return items, nil
}

// GetByID 优先读已加载的缓存，未命中时请求远端。
func (m *Manager) GetByID(ctx context.Context, id string) (model.ReferenceItem, error) {
	if item, ok := m.cached(id); ok {
		return item, nil
	}
	item, err := m.remote.GetSkillByID(ctx, id)
	if err != nil {
		return model.ReferenceItem{}, fmt.Errorf("get skill: %w", err)
	}
	return item, nil
}

// SaveBatch 顺序创建，单条失败只记录日志并继续，返回成功的条目。
func (m *Manager) SaveBatch(ctx context.Context, inputs []model.SkillInput) []model.ReferenceItem {
	saved := make([]model.ReferenceItem, 0, len(inputs))
	for i, in := range inputs {
		item, err := m.Create(ctx, in)
		if err != nil {
			m.logger.Printf("batch item %d (%s) failed: %v", i, in.Name, err)
			m.sink.Emit(events.Event{Kind: events.BatchItemFailed, Category: in.Category, Name: in.Name, Err: err})
			continue
		}
		saved = append(saved, item)
	}
	return saved
}

// Sync 批量同步技能到远端数据库，并使涉及的类别失效。
func (m *Manager) Sync(ctx context.Context, items []model.ReferenceItem) (refclient.SyncResult, error) {
	if len(items) == 0 {
		return refclient.SyncResult{}, nil
	}
	touched := make(map[model.Category]struct{})
	for _, item := range items {
		if !item.Category.IsSkill() {
			return refclient.SyncResult{}, fmt.Errorf("%w: item %q has non-skill category %q", ErrInvalidInput, item.ID, item.Category)
		}
		if strings.TrimSpace(item.Name) == "" {
			return refclient.SyncResult{}, fmt.Errorf("%w: item %q has empty name", ErrInvalidInput, item.ID)
		}
		touched[item.Category] = struct{}{}
	}
	res, err := m.remote.SyncSkills(ctx, items)
	if err != nil {
		return refclient.SyncResult{}, fmt.Errorf("sync skills: %w", err)
	}
	for _, c := range model.SkillCategories() {
		if _, ok := touched[c]; ok {
			m.invalidate(c)
		}
	}
	return res, nil
}

func (m *Manager) check(in model.SkillInput) error {
	if err := m.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// stored 返回变更前的条目。非技能条目按不存在处理，避免误删语言、行业等数据。
func (m *Manager) stored(ctx context.Context, id string) (model.ReferenceItem, error) {
	if item, ok := m.cached(id); ok {
		return item, nil
	}
	item, err := m.remote.GetSkillByID(ctx, id)
	if err != nil {
		return model.ReferenceItem{}, err
	}
	if item.Category != "" && !item.Category.IsSkill() {
		return model.ReferenceItem{}, fmt.Errorf("%w: %s is %s", refclient.ErrNotFound, id, item.Category)
	}
	return item, nil
}

func (m *Manager) cached(id string) (model.ReferenceItem, bool) {
	if m.cache == nil || id == "" {
		return model.ReferenceItem{}, false
	}
	for _, c := range model.SkillCategories() {
		items, loaded := m.cache.Items(c)
		if !loaded {
			continue
		}
		for _, item := range items {
			if item.ID == id {
				return item, true
			}
		}
	}
	return model.ReferenceItem{}, false
}

func (m *Manager) invalidate(category model.Category) {
	if m.cache != nil {
		m.cache.Invalidate(category)
	}
}

func normalizeInput(in model.SkillInput) model.SkillInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
