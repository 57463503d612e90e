package model

import (
	"time"
)

// 套餐类型
const (
	PlanTypeTeacher   = "teacher"
	PlanTypeInstitute = "institute"
	PlanTypeVendor    = "vendor"
)

// UnlimitedQuota 不限量配额的哨兵值。0 表示禁止该动作，-1 表示不限量。
const UnlimitedQuota = -1

// PlanFeatures 套餐功能限制，所有字段在创建时必填
type PlanFeatures struct {
	MaxListings       int    `gorm:"not null" json:"max_listings"`        // 最大发布数量，-1 不限
	MaxJobPosts       int    `gorm:"not null" json:"max_job_posts"`       // 最大招聘帖数量，-1 不限
	MaxMonthlyBrowses int    `gorm:"not null" json:"max_monthly_browses"` // 每周期最大浏览次数，-1 不限
	DataDelayDays     int    `gorm:"not null" json:"data_delay_days"`     // 非高级套餐的数据延迟天数
	PriorityListing   bool   `gorm:"not null" json:"priority_listing"`
	AdEnabled         bool   `gorm:"not null" json:"ad_enabled"`
	InstantAlerts     bool   `gorm:"not null" json:"instant_alerts"`
	Analytics         bool   `gorm:"not null" json:"analytics"`
	SupportTier       string `gorm:"size:20;not null" json:"support_tier"` // basic, standard, premium
}

type SubscriptionPlan struct {
	ID          int64        `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:50;uniqueIndex;not null" json:"name"`
	DisplayName string       `gorm:"size:100;not null" json:"display_name"`
	Description string       `gorm:"type:text" json:"description"`
	PlanType    string       `gorm:"size:20;not null;index" json:"plan_type"` // teacher, institute, vendor
	Price       float64      `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency    string       `gorm:"size:10;not null;default:CNY" json:"currency"`
	DurationDays int         `gorm:"not null" json:"duration_days"`
	Features    PlanFeatures `gorm:"embedded;embeddedPrefix:feature_" json:"features"`
	IsActive    bool         `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// IsUnlimited 判断配额值是否为不限量
func IsUnlimited(allowed int) bool {
	return allowed == UnlimitedQuota
}

// ValidQuota 校验配额值，只允许 -1 或非负数
func ValidQuota(v int) bool {
	return v == UnlimitedQuota || v >= 0
}

// ValidPlanType 校验套餐类型
func ValidPlanType(t string) bool {
	switch t {
	case PlanTypeTeacher, PlanTypeInstitute, PlanTypeVendor:
		return true
	}
	return false
}
