package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gig-wizard/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 记录不存在。
var ErrNotFound = errors.New("record not found")

// Store 封装 SQLite 数据库访问，负责参考数据与 gig 记录的增删查。
type Store struct {
	db *gorm.DB
}

// UpsertResult 表示批量写入结果。
type UpsertResult struct {
	Created int
	Total   int
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&model.ReferenceItem{}, &model.Gig{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// ListItems 返回类别下全部条目（含未启用），按写入顺序排列。
func (s *Store) ListItems(ctx context.Context, category model.Category) ([]model.ReferenceItem, error) {
	var items []model.ReferenceItem
	if err := s.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetItem 根据 ID 获取条目。
func (s *Store) GetItem(ctx context.Context, id string) (*model.ReferenceItem, error) {
	var item model.ReferenceItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// CreateItem 新增条目，未指定 ID 时自动生成。
func (s *Store) CreateItem(ctx context.Context, item *model.ReferenceItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// UpdateItem 更新名称、类别、描述与启用状态。
func (s *Store) UpdateItem(ctx context.Context, item *model.ReferenceItem) error {
	tx := s.db.WithContext(ctx).Model(&model.ReferenceItem{}).Where("id = ?", item.ID).Updates(map[string]any{
		"name":        item.Name,
		"category":    item.Category,
		"code":        item.Code,
		"description": item.Description,
		"is_active":   item.IsActive,
	})
	if tx.Error != nil {
		return fmt.Errorf("update item: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	updated, err := s.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}
	*item = *updated
	return nil
}

// DeleteItem 删除条目，返回被删除的记录。
func (s *Store) DeleteItem(ctx context.Context, id string) (*model.ReferenceItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&model.ReferenceItem{}, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return item, nil
}

// SearchItems 在技能类别中按名称做大小写不敏感的包含查询，category 为空时搜索全部技能类别。
func (s *Store) SearchItems(ctx context.Context, category model.Category, query string) ([]model.ReferenceItem, error) {
	var items []model.ReferenceItem
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	tx := s.db.WithContext(ctx).Model(&model.ReferenceItem{}).Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
	if category != "" {
		tx = tx.Where("category = ?", category)
	} else {
		tx = tx.Where("category IN ?", model.SkillCategories())
	}
	if err := tx.Order("name ASC").Limit(50).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

// UpsertItems 批量写入条目，已有主键则更新，返回新增数量。
func (s *Store) UpsertItems(ctx context.Context, items []model.ReferenceItem) (UpsertResult, error) {
	res := UpsertResult{Total: len(items)}
	if len(items) == 0 {
		return res, nil
	}

	// 补 id 时不改动调用方的切片。
	items = append([]model.ReferenceItem(nil), items...)
	ids := make([]string, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		ids = append(ids, items[i].ID)
	}

	var existing []string
	if err := s.db.WithContext(ctx).Model(&model.ReferenceItem{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return res, fmt.Errorf("query existing ids: %w", err)
	}

	existingSet := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := existingSet[id]; !ok {
			res.Created++
			existingSet[id] = struct{}{}
		}
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"category",
			"code",
			"description",
			"is_active",
			"updated_at",
		}),
	}).Create(&items)
	if tx.Error != nil {
		return res, fmt.Errorf("upsert items: %w", tx.Error)
	}

	return res, nil
}

// CountItems 返回类别下条目数量。
func (s *Store) CountItems(ctx context.Context, category model.Category) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.ReferenceItem{}).Where("category = ?", category).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return total, nil
}

// CreateGig 写入 gig 记录，未指定 ID 时自动生成。
func (s *Store) CreateGig(ctx context.Context, gig *model.Gig) error {
	if gig.ID == "" {
		gig.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(gig).Error; err != nil {
		return fmt.Errorf("create gig: %w", err)
	}
	return nil
}

// GetGig 根据 ID 获取 gig。
func (s *Store) GetGig(ctx context.Context, id string) (*model.Gig, error) {
	var gig model.Gig
	if err := s.db.WithContext(ctx).First(&gig, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get gig: %w", err)
	}
	return &gig, nil
}

// ListGigs 返回按创建时间倒序的 gig 列表。
func (s *Store) ListGigs(ctx context.Context, limit int) ([]model.Gig, error) {
	var gigs []model.Gig
	query := s.db.WithContext(ctx).Model(&model.Gig{}).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&gigs).Error; err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	return gigs, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
