package service

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/repository"
)

var (
	ErrNoSubscription         = errors.New("当前没有订阅")
	ErrSubscriptionInactive   = errors.New("订阅不在生效状态")
	ErrPaymentFailed          = errors.New("订阅支付失败，无法使用")
	ErrBrowseQuotaExceeded    = errors.New("本周期浏览配额已用完")
	ErrListingQuotaExceeded   = errors.New("本周期发布配额已用完")
	ErrSubscriptionPlanMissing = errors.New("订阅关联的套餐不存在")
)

// EntitlementService 权益引擎。根据订阅记录、匹配套餐和当前时间推导
// 只读权益快照，所有调用方消费同一份派生结果。
type EntitlementService struct {
	subRepo  *repository.SubscriptionRepository
	planRepo *repository.PlanRepository
	cfg      *config.Config
}

func NewEntitlementService(
	subRepo *repository.SubscriptionRepository,
	planRepo *repository.PlanRepository,
	cfg *config.Config,
) *EntitlementService {
	return &EntitlementService{
		subRepo:  subRepo,
		planRepo: planRepo,
		cfg:      cfg,
	}
}

// DaysRemaining 剩余天数，向上取整，已过期为负数
func DaysRemaining(expiresAt, now time.Time) int {
	return int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
}

// DeriveSnapshot 纯推导函数，不访问数据库。状态字段与日期有效性
// 互相独立：状态为 active 但日期已过期时，IsExpired 照常为 true。
func DeriveSnapshot(sub *model.UserSubscription, plan *model.SubscriptionPlan, now time.Time, warningDays int) *dto.EntitlementSnapshot {
	days := DaysRemaining(sub.ExpiresAt, now)

	usable := sub.Status == model.SubscriptionStatusActive &&
		sub.PaymentStatus != model.PaymentStatusFailed

	browse := dto.QuotaUsage{Used: sub.BrowseCountUsed, Allowed: plan.Features.MaxMonthlyBrowses}
	listing := dto.QuotaUsage{Used: sub.ListingCountUsed, Allowed: plan.Features.MaxListings}

	return &dto.EntitlementSnapshot{
		SubscriptionID: sub.ID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		Status:         sub.Status,
		PaymentStatus:  sub.PaymentStatus,
		DaysRemaining:  days,
		IsExpired:      days < 0,
		IsExpiringSoon: days >= 0 && days <= warningDays,
		CanBrowse:      usable && quotaAvailable(browse),
		CanListing:     usable && quotaAvailable(listing),
		BrowseCount:    browse,
		ListingCount:   listing,
	}
}

func quotaAvailable(q dto.QuotaUsage) bool {
	return model.IsUnlimited(q.Allowed) || q.Used < q.Allowed
}

// GetSnapshot 获取用户当前订阅的权益快照，无订阅时返回 nil
func (s *EntitlementService) GetSnapshot(userID int64) (*dto.EntitlementSnapshot, error) {
	sub, plan, err := s.currentWithPlan(userID)
	if err != nil || sub == nil {
		return nil, err
	}
	return DeriveSnapshot(sub, plan, time.Now(), s.cfg.Subscription.ExpiryWarningDaysOrDefault()), nil
}

// GetUsageStats 获取用量统计，无订阅时返回 nil。配额上限始终来自
// 按 plan_id 实时查询的套餐，不缓存。
func (s *EntitlementService) GetUsageStats(userID int64) (*dto.UsageStats, error) {
	sub, plan, err := s.currentWithPlan(userID)
	if err != nil || sub == nil {
		return nil, err
	}

	days := DaysRemaining(sub.ExpiresAt, time.Now())
	warningDays := s.cfg.Subscription.ExpiryWarningDaysOrDefault()

	return &dto.UsageStats{
		DaysRemaining:  days,
		IsExpired:      days < 0,
		IsExpiringSoon: days >= 0 && days <= warningDays,
		BrowseCount:    dto.QuotaUsage{Used: sub.BrowseCountUsed, Allowed: plan.Features.MaxMonthlyBrowses},
		ListingCount:   dto.QuotaUsage{Used: sub.ListingCountUsed, Allowed: plan.Features.MaxListings},
	}, nil
}

// ConsumeBrowse 消耗一次浏览配额。计数扣减由单条条件 UPDATE 完成，
// 并发请求不会超扣或丢失更新。
func (s *EntitlementService) ConsumeBrowse(userID int64) error {
	sub, plan, err := s.usableWithPlan(userID)
	if err != nil {
		return err
	}

	ok, err := s.subRepo.ConsumeBrowse(sub.ID, plan.Features.MaxMonthlyBrowses)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBrowseQuotaExceeded
	}
	return nil
}

// ConsumeListing 消耗一次发布配额
func (s *EntitlementService) ConsumeListing(userID int64) error {
	sub, plan, err := s.usableWithPlan(userID)
	if err != nil {
		return err
	}

	ok, err := s.subRepo.ConsumeListing(sub.ID, plan.Features.MaxListings)
	if err != nil {
		return err
	}
	if !ok {
		return ErrListingQuotaExceeded
	}
	return nil
}

// currentWithPlan 查询当前订阅和匹配套餐，无订阅时返回 (nil, nil, nil)
func (s *EntitlementService) currentWithPlan(userID int64) (*model.UserSubscription, *model.SubscriptionPlan, error) {
	sub, err := s.subRepo.GetCurrentByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	plan, err := s.planRepo.GetByID(sub.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSubscriptionPlanMissing
		}
		return nil, nil, err
	}

	return sub, plan, nil
}

// usableWithPlan 同 currentWithPlan，并要求订阅处于可用状态
func (s *EntitlementService) usableWithPlan(userID int64) (*model.UserSubscription, *model.SubscriptionPlan, error) {
	sub, plan, err := s.currentWithPlan(userID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, ErrNoSubscription
	}
	if sub.PaymentStatus == model.PaymentStatusFailed {
		return nil, nil, ErrPaymentFailed
	}
	if sub.Status != model.SubscriptionStatusActive {
		return nil, nil, ErrSubscriptionInactive
	}
	return sub, plan, nil
}
