package gig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gig-wizard/internal/migrate"
	"gig-wizard/internal/model"
	"gig-wizard/internal/reference"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// ErrInvalidDraft 草稿未通过校验。
var ErrInvalidDraft = errors.New("invalid gig draft")

// Store 定义持久化接口。
type Store interface {
	CreateGig(ctx context.Context, gig *model.Gig) error
}

// Draft 是向导提交的 gig 草稿。Activity 与 Industries 既可以是标识也可以是旧数据里的名称。
type Draft struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description,omitempty" validate:"max=5000"`
	Activity    string       `json:"activity,omitempty"`
	Industries  []string     `json:"industries,omitempty"`
	Skills      model.Bundle `json:"skills"`
}

// Revalidation 是软校验的结果。
type Revalidation struct {
	Draft  Draft          `json:"draft"`
	Result migrate.Result `json:"result"`
}

// DecodeDraft 先做 JSON Schema 校验再解码。
func DecodeDraft(data []byte) (Draft, error) {
	if err := validateDraftJSON(data); err != nil {
		return Draft{}, err
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	return d, nil
}

// Service 负责草稿的软校验与最终提交。
type Service struct {
	refs     *reference.Service
	store    Store
	validate *validator.Validate
}

// NewService 创建 gig 服务。
func NewService(refs *reference.Service, store Store) *Service {
	return &Service{refs: refs, store: store, validate: validator.New()}
}

// Revalidate 加载缓存后按软校验策略迁移技能包，未解析条目保留。
func (s *Service) Revalidate(ctx context.Context, d Draft) Revalidation {
	res := s.refs.LoadAndMigrate(ctx, d.Skills, migrate.Retain)
	d.Skills = res.Bundle
	return Revalidation{Draft: d, Result: res}
}

// Submit 校验并写入 gig。技能包按最终提交策略迁移，未解析条目被丢弃。
func (s *Service) Submit(ctx context.Context, d Draft) (model.Gig, migrate.Result, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if err := s.validate.Struct(d); err != nil {
		return model.Gig{}, migrate.Result{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	activityID := ""
	if strings.TrimSpace(d.Activity) != "" {
		s.refs.Load(ctx, model.CategoryActivity)
		id, ok := s.resolveOne(model.CategoryActivity, d.Activity)
		if !ok {
			return model.Gig{}, migrate.Result{}, fmt.Errorf("%w: unknown activity %q", ErrInvalidDraft, d.Activity)
		}
		activityID = id
	}

	industryIDs := []string{}
	if len(d.Industries) > 0 {
		s.refs.Load(ctx, model.CategoryIndustry)
		industryIDs = s.resolveMany(model.CategoryIndustry, d.Industries)
	}

	res := s.refs.LoadAndMigrate(ctx, d.Skills, migrate.Drop)

	skills, err := json.Marshal(res.Bundle)
	if err != nil {
		return model.Gig{}, res, fmt.Errorf("encode skills: %w", err)
	}
	industries, err := json.Marshal(industryIDs)
	if err != nil {
		return model.Gig{}, res, fmt.Errorf("encode industries: %w", err)
	}

	gig := model.Gig{
		Title:       d.Title,
		Description: d.Description,
		ActivityID:  activityID,
		IndustryIDs: datatypes.JSON(industries),
		Skills:      datatypes.JSON(skills),
		Status:      model.GigStatusSubmitted,
	}
	if err := s.store.CreateGig(ctx, &gig); err != nil {
		return model.Gig{}, res, err
	}
	return gig, res, nil
}

// resolveOne 标识优先，其次三级模糊匹配。
func (s *Service) resolveOne(category model.Category, value string) (string, bool) {
	r := s.refs.Resolver(category)
	if r == nil {
		return "", false
	}
	value = strings.TrimSpace(value)
	if item, ok := r.ByID(value); ok {
		return item.ID, true
	}
	if item, _, ok := r.Match(value); ok {
		return item.ID, true
	}
	return "", false
}

// resolveMany 已知标识原样保留，其余按名称转换，找不到的被省略，结果去重。
func (s *Service) resolveMany(category model.Category, values []string) []string {
	r := s.refs.Resolver(category)
	if r == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	ids := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		id := ""
		if item, ok := r.ByID(v); ok {
			id = item.ID
		} else if converted := s.refs.NamesToIDs(category, []string{v}); len(converted) == 1 {
			id = converted[0]
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
