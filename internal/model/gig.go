package model

import (
	"time"

	"gorm.io/datatypes"
)

// GigStatus 表示 gig 的发布状态。
type GigStatus string

const (
	GigStatusDraft     GigStatus = "draft"
	GigStatusSubmitted GigStatus = "submitted"
)

// Gig 表示一条已提交的职位发布
// - ActivityID/IndustryIDs: 受控词表中的标识
// - Skills: 迁移后的技能包，只含 Canonical 引用
// - CreatedAt/UpdatedAt: 由 GORM 自动维护
type Gig struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ActivityID  string         `json:"activityId"`
	IndustryIDs datatypes.JSON `json:"industryIds"`
	Skills      datatypes.JSON `json:"skills"`
	Status      GigStatus      `gorm:"index" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
