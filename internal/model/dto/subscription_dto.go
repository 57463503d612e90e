package dto

// SelectPlanRequest 首次选择套餐请求
type SelectPlanRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

// QuotaUsage 单项配额用量
type QuotaUsage struct {
	Used    int `json:"used"`
	Allowed int `json:"allowed"` // -1 表示不限量
}

// UsageStats 订阅用量统计，由订阅记录和匹配套餐实时推导
type UsageStats struct {
	DaysRemaining  int        `json:"days_remaining"`
	IsExpired      bool       `json:"is_expired"`
	IsExpiringSoon bool       `json:"is_expiring_soon"`
	BrowseCount    QuotaUsage `json:"browse_count"`
	ListingCount   QuotaUsage `json:"listing_count"`
}

// EntitlementSnapshot 权益快照，所有调用方统一消费这一份派生结果，
// 不自行重复计算。Status 与日期有效性是两个独立信号。
type EntitlementSnapshot struct {
	SubscriptionID int64      `json:"subscription_id"`
	PlanID         int64      `json:"plan_id"`
	PlanName       string     `json:"plan_name"`
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	DaysRemaining  int        `json:"days_remaining"`
	IsExpired      bool       `json:"is_expired"`
	IsExpiringSoon bool       `json:"is_expiring_soon"`
	CanBrowse      bool       `json:"can_browse"`
	CanListing     bool       `json:"can_listing"`
	BrowseCount    QuotaUsage `json:"browse_count"`
	ListingCount   QuotaUsage `json:"listing_count"`
}
