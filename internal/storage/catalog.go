package storage

import (
	"context"
	"errors"
	"fmt"

	"gig-wizard/internal/model"
	"gig-wizard/internal/refclient"
)

// Catalog 把 Store 适配成参考数据服务的读写接口，未配置远端地址时由它充当后端。
type Catalog struct {
	store *Store
}

// NewCatalog 创建 Catalog。
func NewCatalog(store *Store) *Catalog {
	return &Catalog{store: store}
}

// FetchCategory 返回类别下的全部条目。
func (c *Catalog) FetchCategory(ctx context.Context, category model.Category) ([]model.ReferenceItem, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("fetch category: unknown category %q", category)
	}
	return c.store.ListItems(ctx, category)
}

// SaveSkill 新增技能。
func (c *Catalog) SaveSkill(ctx context.Context, in model.SkillInput) (model.ReferenceItem, error) {
	item := model.ReferenceItem{
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		IsActive:    in.Active(),
	}
	if err := c.store.CreateItem(ctx, &item); err != nil {
		return model.ReferenceItem{}, err
	}
	return item, nil
}

// UpdateSkill 覆盖技能字段，只能修改技能类别的条目。
func (c *Catalog) UpdateSkill(ctx context.Context, id string, in model.SkillInput) (model.ReferenceItem, error) {
	if _, err := c.GetSkillByID(ctx, id); err != nil {
		return model.ReferenceItem{}, err
	}
	item := model.ReferenceItem{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		IsActive:    in.Active(),
	}
	if err := c.store.UpdateItem(ctx, &item); err != nil {
		return model.ReferenceItem{}, notFound(err, id)
	}
	return item, nil
}

// DeleteSkill 删除技能，语言、行业等条目视为不存在。
func (c *Catalog) DeleteSkill(ctx context.Context, id string) error {
	if _, err := c.GetSkillByID(ctx, id); err != nil {
		return err
	}
	if _, err := c.store.DeleteItem(ctx, id); err != nil {
		return notFound(err, id)
	}
	return nil
}

// SearchSkillsByName 在技能类别中按名称搜索。
func (c *Catalog) SearchSkillsByName(ctx context.Context, category model.Category, name string) ([]model.ReferenceItem, error) {
	return c.store.SearchItems(ctx, category, name)
}

// GetSkillByID 读取技能，非技能类别的条目视为不存在。
func (c *Catalog) GetSkillByID(ctx context.Context, id string) (model.ReferenceItem, error) {
	item, err := c.store.GetItem(ctx, id)
	if err != nil {
		return model.ReferenceItem{}, notFound(err, id)
	}
	if !item.Category.IsSkill() {
		return model.ReferenceItem{}, fmt.Errorf("%w: %s", refclient.ErrNotFound, id)
	}
	return *item, nil
}

// SyncSkills 批量写入技能。
func (c *Catalog) SyncSkills(ctx context.Context, items []model.ReferenceItem) (refclient.SyncResult, error) {
	res, err := c.store.UpsertItems(ctx, items)
	if err != nil {
		return refclient.SyncResult{}, err
	}
	return refclient.SyncResult{Created: res.Created, Total: res.Total}, nil
}

// notFound 让调用方只需识别 refclient.ErrNotFound。
func notFound(err error, id string) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", refclient.ErrNotFound, id)
	}
	return err
}
