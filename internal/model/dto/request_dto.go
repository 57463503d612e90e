package dto

// CreateSubscriptionRequestRequest 创建变更申请请求
type CreateSubscriptionRequestRequest struct {
	PlanID      int64  `json:"plan_id" binding:"required"`
	RequestType string `json:"request_type" binding:"required,oneof=upgrade downgrade renewal"`
	Note        string `json:"note,omitempty" binding:"omitempty,max=500"`
}

// ResolveRequestRequest 审批变更申请请求
type ResolveRequestRequest struct {
	Note string `json:"note,omitempty" binding:"omitempty,max=500"`
}
