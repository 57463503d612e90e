package dto

// ExtendSubscriptionRequest 延长订阅请求，新到期时间不能早于当前到期时间
type ExtendSubscriptionRequest struct {
	NewExpiresAt string `json:"new_expires_at" binding:"required"` // RFC3339
	Note         string `json:"note,omitempty" binding:"omitempty,max=255"`
}

// ContinueSubscriptionRequest 按月续期请求
type ContinueSubscriptionRequest struct {
	Months int `json:"months" binding:"required,min=1,max=36"`
}

// SuspendSubscriptionRequest 停用订阅请求
type SuspendSubscriptionRequest struct {
	Reason string `json:"reason,omitempty" binding:"omitempty,max=255"`
}

// GlobalStats 管理端全局统计
type GlobalStats struct {
	TotalSubscriptions  int64   `json:"total_subscriptions"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	ExpiringSoon        int64   `json:"expiring_soon"`
	RevenueProjection   float64 `json:"revenue_projection"`
}
