package model

import (
	"time"
)

// 订阅状态
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusSuspended = "suspended"
)

// 支付状态
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// UserSubscription 用户订阅记录。每个用户同一时间只有一条当前订阅
// （user_id 下 id 最大的一条），历史记录保留不删除。
type UserSubscription struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	UserID           int64     `gorm:"not null;index" json:"user_id"`
	PlanID           int64     `gorm:"not null;index" json:"plan_id"`
	PlanName         string    `gorm:"size:50;not null" json:"plan_name"`
	Status           string    `gorm:"size:20;not null;default:active;index" json:"status"`          // active, expired, suspended
	PaymentStatus    string    `gorm:"size:20;not null;default:pending" json:"payment_status"`       // pending, completed, failed
	StartedAt        time.Time `gorm:"not null" json:"started_at"`
	ExpiresAt        time.Time `gorm:"not null;index" json:"expires_at"`
	BrowseCountUsed  int       `gorm:"not null;default:0" json:"browse_count_used"`
	ListingCountUsed int       `gorm:"not null;default:0" json:"listing_count_used"`
	SuspendReason    string    `gorm:"size:255" json:"suspend_reason,omitempty"`
	AdminNote        string    `gorm:"size:255" json:"admin_note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}
