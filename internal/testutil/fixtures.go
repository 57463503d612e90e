package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := time.Now().UnixNano()
	user := &model.User{
		Username:     fmt.Sprintf("testuser_%d", seq%1000000),
		Email:        fmt.Sprintf("test_%d@example.com", seq),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Role:         model.RoleInstitute,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithRole 设置用户角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// TestPlan 创建测试套餐
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.SubscriptionPlan)) *model.SubscriptionPlan {
	t.Helper()

	plan := &model.SubscriptionPlan{
		Name:         fmt.Sprintf("plan_%d", time.Now().UnixNano()),
		DisplayName:  "测试套餐",
		PlanType:     model.PlanTypeInstitute,
		Price:        99,
		Currency:     "CNY",
		DurationDays: 30,
		Features: model.PlanFeatures{
			MaxListings:       10,
			MaxJobPosts:       5,
			MaxMonthlyBrowses: 100,
			DataDelayDays:     3,
			SupportTier:       "basic",
		},
		IsActive: true,
	}

	for _, opt := range opts {
		opt(plan)
	}

	// IsActive=false 是零值，Create 会被 gorm 的 default:true 覆盖，需要显式更新
	inactive := !plan.IsActive

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	if inactive {
		if err := db.Model(plan).Update("is_active", false).Error; err != nil {
			t.Fatalf("Failed to deactivate test plan: %v", err)
		}
		plan.IsActive = false
	}

	return plan
}

// WithPlanName 设置套餐系统名
func WithPlanName(name string) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.Name = name
	}
}

// WithPlanType 设置套餐类型
func WithPlanType(planType string) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.PlanType = planType
	}
}

// WithPrice 设置套餐价格
func WithPrice(price float64) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.Price = price
	}
}

// WithQuotas 设置发布和浏览配额
func WithQuotas(maxListings, maxBrowses int) func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.Features.MaxListings = maxListings
		p.Features.MaxMonthlyBrowses = maxBrowses
	}
}

// WithInactive 设置为停用套餐
func WithInactive() func(*model.SubscriptionPlan) {
	return func(p *model.SubscriptionPlan) {
		p.IsActive = false
	}
}

// TestSubscription 创建测试订阅
func TestSubscription(t *testing.T, db *gorm.DB, userID, planID int64, opts ...func(*model.UserSubscription)) *model.UserSubscription {
	t.Helper()

	now := time.Now()
	sub := &model.UserSubscription{
		UserID:        userID,
		PlanID:        planID,
		PlanName:      "测试套餐",
		Status:        model.SubscriptionStatusActive,
		PaymentStatus: model.PaymentStatusCompleted,
		StartedAt:     now,
		ExpiresAt:     now.AddDate(0, 0, 30),
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithStatus 设置订阅状态
func WithStatus(status string) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.Status = status
	}
}

// WithPaymentStatus 设置支付状态
func WithPaymentStatus(status string) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.PaymentStatus = status
	}
}

// WithExpiresAt 设置到期时间
func WithExpiresAt(expiresAt time.Time) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.ExpiresAt = expiresAt
	}
}

// WithUsage 设置已使用配额
func WithUsage(browses, listings int) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.BrowseCountUsed = browses
		s.ListingCountUsed = listings
	}
}

// TestRequest 创建测试变更申请
func TestRequest(t *testing.T, db *gorm.DB, userID, planID int64, opts ...func(*model.SubscriptionRequest)) *model.SubscriptionRequest {
	t.Helper()

	request := &model.SubscriptionRequest{
		UserID:      userID,
		PlanID:      planID,
		PlanName:    "测试套餐",
		RequestType: model.RequestTypeUpgrade,
		Status:      model.RequestStatusPending,
	}

	for _, opt := range opts {
		opt(request)
	}

	if err := db.Create(request).Error; err != nil {
		t.Fatalf("Failed to create test request: %v", err)
	}

	return request
}

// WithRequestType 设置申请类型
func WithRequestType(requestType string) func(*model.SubscriptionRequest) {
	return func(r *model.SubscriptionRequest) {
		r.RequestType = requestType
	}
}

// WithRequestStatus 设置申请状态
func WithRequestStatus(status string) func(*model.SubscriptionRequest) {
	return func(r *model.SubscriptionRequest) {
		r.Status = status
	}
}
