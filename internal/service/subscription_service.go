package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/repository"
)

var (
	ErrAlreadySubscribed = errors.New("已有订阅，请通过变更申请调整套餐")
	ErrPlanNotAvailable  = errors.New("套餐不可用")
	ErrPlanTypeMismatch  = errors.New("套餐类型与账号角色不匹配")
)

// SubscriptionService 订阅记录的读取与首次开通
type SubscriptionService struct {
	subRepo  *repository.SubscriptionRepository
	planRepo *repository.PlanRepository
	userRepo *repository.UserRepository
	cfg      *config.Config
}

func NewSubscriptionService(
	subRepo *repository.SubscriptionRepository,
	planRepo *repository.PlanRepository,
	userRepo *repository.UserRepository,
	cfg *config.Config,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		planRepo: planRepo,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// GetCurrent 查询当前订阅，没有时返回 nil
func (s *SubscriptionService) GetCurrent(userID int64) (*model.UserSubscription, error) {
	sub, err := s.subRepo.GetCurrentByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// SelectPlan 首次选择套餐，直接创建订阅记录，支付状态为 pending。
// 已有订阅的用户必须走变更申请流程。
func (s *SubscriptionService) SelectPlan(userID, planID int64) (*model.UserSubscription, error) {
	current, err := s.GetCurrent(userID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, ErrAlreadySubscribed
	}

	plan, err := s.planRepo.GetByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanNotAvailable
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if plan.PlanType != s.cfg.Subscription.PlanTypeForRole(user.Role) {
		return nil, ErrPlanTypeMismatch
	}

	now := time.Now()
	sub := &model.UserSubscription{
		UserID:        userID,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Status:        model.SubscriptionStatusActive,
		PaymentStatus: model.PaymentStatusPending,
		StartedAt:     now,
		ExpiresAt:     now.AddDate(0, 0, plan.DurationDays),
	}

	if err := s.subRepo.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}
