package model

import (
	"fmt"
	"strings"
	"time"
)

// Category 表示一个受控词表的类别。
type Category string

const (
	CategoryActivity          Category = "activity"
	CategoryIndustry          Category = "industry"
	CategoryLanguage          Category = "language"
	CategorySoftSkill         Category = "soft-skill"
	CategoryTechnicalSkill    Category = "technical-skill"
	CategoryProfessionalSkill Category = "professional-skill"
)

var allCategories = []Category{
	CategoryActivity,
	CategoryIndustry,
	CategoryLanguage,
	CategorySoftSkill,
	CategoryTechnicalSkill,
	CategoryProfessionalSkill,
}

// AllCategories 返回全部类别，顺序固定。
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// SkillCategories 返回可增删改的技能类别。
func SkillCategories() []Category {
	return []Category{CategorySoftSkill, CategoryTechnicalSkill, CategoryProfessionalSkill}
}

// Valid 判断类别是否已知。
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsSkill 判断是否为技能类别。
func (c Category) IsSkill() bool {
	switch c {
	case CategorySoftSkill, CategoryTechnicalSkill, CategoryProfessionalSkill:
		return true
	}
	return false
}

// Label 返回展示用名称，如 "Soft Skill"。
func (c Category) Label() string {
	switch c {
	case CategoryActivity:
		return "Activity"
	case CategoryIndustry:
		return "Industry"
	case CategoryLanguage:
		return "Language"
	case CategorySoftSkill:
		return "Soft Skill"
	case CategoryTechnicalSkill:
		return "Technical Skill"
	case CategoryProfessionalSkill:
		return "Professional Skill"
	}
	return "Reference"
}

// Path 返回 REST 路径片段（复数形式）。
func (c Category) Path() string {
	switch c {
	case CategoryActivity:
		return "activities"
	case CategoryIndustry:
		return "industries"
	case CategoryLanguage:
		return "languages"
	}
	return string(c) + "s"
}

// ParseCategory 同时接受类别名与路径片段，大小写不敏感。
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range allCategories {
		if key == string(c) || key == c.Path() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ReferenceItem 受控词表中的一条记录。
// - ID: 远端分配的稳定标识
// - Name: 类别内唯一的展示名（不保证跨类别唯一）
// - Code: 仅语言使用，如 "en"
// - IsActive: false 时不出现在选项中，但仍可按 ID 解析
type ReferenceItem struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"index" json:"name"`
	Category    Category  `gorm:"index" json:"category"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// TableName 指定表名。
func (ReferenceItem) TableName() string {
	return "reference_items"
}

// SkillInput 是创建/更新技能的请求体。
type SkillInput struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Category    Category `json:"category" validate:"required,oneof=soft-skill technical-skill professional-skill"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// Active 未显式指定时视为启用。
func (in SkillInput) Active() bool {
	return in.IsActive == nil || *in.IsActive
}
