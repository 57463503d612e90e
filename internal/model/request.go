package model

import (
	"time"
)

// 变更申请类型
const (
	RequestTypeUpgrade   = "upgrade"
	RequestTypeDowngrade = "downgrade"
	RequestTypeRenewal   = "renewal"
)

// 变更申请状态，pending 为唯一非终态
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// SubscriptionRequest 套餐变更申请。由用户发起，管理员审批后才会
// 修改订阅记录，审批结果为终态。
type SubscriptionRequest struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	PlanID      int64      `gorm:"not null;index" json:"plan_id"`
	PlanName    string     `gorm:"size:50;not null" json:"plan_name"`
	RequestType string     `gorm:"size:20;not null" json:"request_type"`               // upgrade, downgrade, renewal
	Status      string     `gorm:"size:20;not null;default:pending;index" json:"status"` // pending, approved, rejected
	UserNote    string     `gorm:"size:500" json:"user_note,omitempty"`
	AdminNote   string     `gorm:"size:500" json:"admin_note,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (SubscriptionRequest) TableName() string {
	return "subscription_requests"
}
