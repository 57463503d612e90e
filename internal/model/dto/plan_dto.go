package dto

// PlanFeaturesPayload 套餐功能限制，创建和更新时所有字段必填。
// 配额字段取值 -1 表示不限量，0 表示禁止，正数为上限。
type PlanFeaturesPayload struct {
	MaxListings       *int   `json:"max_listings" binding:"required"`
	MaxJobPosts       *int   `json:"max_job_posts" binding:"required"`
	MaxMonthlyBrowses *int   `json:"max_monthly_browses" binding:"required"`
	DataDelayDays     *int   `json:"data_delay_days" binding:"required,min=0"`
	PriorityListing   *bool  `json:"priority_listing" binding:"required"`
	AdEnabled         *bool  `json:"ad_enabled" binding:"required"`
	InstantAlerts     *bool  `json:"instant_alerts" binding:"required"`
	Analytics         *bool  `json:"analytics" binding:"required"`
	SupportTier       string `json:"support_tier" binding:"required,oneof=basic standard premium"`
}

// CreatePlanRequest 创建套餐请求
type CreatePlanRequest struct {
	Name         string               `json:"name" binding:"required,max=50"`
	DisplayName  string               `json:"display_name" binding:"required,max=100"`
	Description  string               `json:"description,omitempty" binding:"omitempty,max=2000"`
	PlanType     string               `json:"plan_type" binding:"required,oneof=teacher institute vendor"`
	Price        *float64             `json:"price" binding:"required,min=0"`
	Currency     string               `json:"currency" binding:"required,max=10"`
	DurationDays int                  `json:"duration_days" binding:"required,min=1"`
	Features     *PlanFeaturesPayload `json:"features" binding:"required"`
}

// UpdatePlanRequest 更新套餐请求，未提供的字段保持不变
type UpdatePlanRequest struct {
	DisplayName  *string              `json:"display_name,omitempty" binding:"omitempty,max=100"`
	Description  *string              `json:"description,omitempty" binding:"omitempty,max=2000"`
	Price        *float64             `json:"price,omitempty" binding:"omitempty,min=0"`
	Currency     *string              `json:"currency,omitempty" binding:"omitempty,max=10"`
	DurationDays *int                 `json:"duration_days,omitempty" binding:"omitempty,min=1"`
	Features     *PlanFeaturesPayload `json:"features,omitempty"`
}
