package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
	"github.com/qs3c/subs_go_server/internal/repository"
)

var (
	ErrRequestNotFound     = errors.New("变更申请不存在")
	ErrRequestResolved     = errors.New("变更申请已被处理")
	ErrDuplicateRequest    = errors.New("该套餐已有待审批的申请")
	ErrRequestTypeMismatch = errors.New("申请类型与套餐价格比较结果不一致")
)

// RequestService 套餐变更申请工作流。申请由用户发起，pending 状态经
// 管理员审批进入 approved/rejected 终态，只有审批通过才会改写订阅记录。
type RequestService struct {
	db          *gorm.DB
	requestRepo *repository.RequestRepository
	subRepo     *repository.SubscriptionRepository
	planRepo    *repository.PlanRepository
	publisher   *pubsub.Publisher
	cfg         *config.Config
}

func NewRequestService(
	db *gorm.DB,
	requestRepo *repository.RequestRepository,
	subRepo *repository.SubscriptionRepository,
	planRepo *repository.PlanRepository,
	publisher *pubsub.Publisher,
	cfg *config.Config,
) *RequestService {
	return &RequestService{
		db:          db,
		requestRepo: requestRepo,
		subRepo:     subRepo,
		planRepo:    planRepo,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// Create 创建变更申请。申请类型必须与当前套餐、目标套餐的价格比较
// 一致：目标价更高为 upgrade，更低为 downgrade，同一套餐为 renewal。
func (s *RequestService) Create(userID int64, req *dto.CreateSubscriptionRequestRequest) (*model.SubscriptionRequest, error) {
	plan, err := s.planRepo.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanNotAvailable
	}

	current, err := s.currentSubscription(userID)
	if err != nil {
		return nil, err
	}

	expected, err := s.expectedRequestType(current, plan)
	if err != nil {
		return nil, err
	}
	if req.RequestType != expected {
		return nil, ErrRequestTypeMismatch
	}

	exists, err := s.requestRepo.ExistsPending(userID, plan.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	request := &model.SubscriptionRequest{
		UserID:      userID,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		RequestType: req.RequestType,
		Status:      model.RequestStatusPending,
		UserNote:    req.Note,
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}
	return request, nil
}

// ListMine 查询用户自己的申请记录
func (s *RequestService) ListMine(userID int64) ([]model.SubscriptionRequest, error) {
	return s.requestRepo.ListByUserID(userID)
}

// List 管理端申请列表
func (s *RequestService) List(status string) ([]model.SubscriptionRequest, error) {
	return s.requestRepo.List(status)
}

// Approve 审批通过。事务内先以条件更新终结申请（防止两个管理员同时
// 审批），再改写订阅记录：切换套餐、清零配额计数、重算到期时间。订阅
// 改写失败时整体回滚，申请保持 pending。停用中的订阅是否顺带恢复由
// reactivate_on_approve 配置决定。
func (s *RequestService) Approve(requestID int64, adminNote string) (*model.SubscriptionRequest, error) {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	plan, err := s.planRepo.GetByID(request.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionPlanMissing
		}
		return nil, err
	}

	now := time.Now()
	var sub *model.UserSubscription
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.requestRepo.WithTx(tx).Resolve(requestID, model.RequestStatusApproved, adminNote, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRequestResolved
		}

		sub, err = s.applyApproval(tx, request, plan, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	request.Status = model.RequestStatusApproved
	request.AdminNote = adminNote
	request.ResolvedAt = &now

	s.publish(&pubsub.SubscriptionEvent{
		Type:           pubsub.EventRequestApproved,
		UserID:         request.UserID,
		SubscriptionID: sub.ID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
	})

	return request, nil
}

// Reject 审批拒绝，订阅记录保持不动
func (s *RequestService) Reject(requestID int64, adminNote string) (*model.SubscriptionRequest, error) {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	now := time.Now()
	ok, err := s.requestRepo.Resolve(requestID, model.RequestStatusRejected, adminNote, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRequestResolved
	}

	request.Status = model.RequestStatusRejected
	request.AdminNote = adminNote
	request.ResolvedAt = &now

	s.publish(&pubsub.SubscriptionEvent{
		Type:   pubsub.EventRequestRejected,
		UserID: request.UserID,
		PlanID: request.PlanID,
	})

	return request, nil
}

// applyApproval 在审批事务内改写订阅记录。续期且未到期时从当前到期
// 时间往后顺延，避免损失剩余时长；其余情况从当前时间起算。
func (s *RequestService) applyApproval(tx *gorm.DB, request *model.SubscriptionRequest, plan *model.SubscriptionPlan, now time.Time) (*model.UserSubscription, error) {
	subRepo := s.subRepo.WithTx(tx)

	sub, err := subRepo.GetCurrentByUserID(request.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 没有订阅的用户由审批直接开通（管理员授予）
	if sub == nil {
		sub = &model.UserSubscription{
			UserID:        request.UserID,
			PlanID:        plan.ID,
			PlanName:      plan.Name,
			Status:        model.SubscriptionStatusActive,
			PaymentStatus: model.PaymentStatusCompleted,
			StartedAt:     now,
			ExpiresAt:     now.AddDate(0, 0, plan.DurationDays),
		}
		if err := subRepo.Create(sub); err != nil {
			return nil, err
		}
		return sub, nil
	}

	base := now
	if request.RequestType == model.RequestTypeRenewal && sub.ExpiresAt.After(now) {
		base = sub.ExpiresAt
	}
	newExpiresAt := base.AddDate(0, 0, plan.DurationDays)

	fields := map[string]interface{}{
		"plan_id":            plan.ID,
		"plan_name":          plan.Name,
		"payment_status":     model.PaymentStatusCompleted,
		"expires_at":         newExpiresAt,
		"browse_count_used":  0,
		"listing_count_used": 0,
	}

	// 停用状态是否在审批时解除由策略开关决定，其它状态一律回到 active
	if sub.Status != model.SubscriptionStatusSuspended || s.cfg.Subscription.ReactivateOnApprove {
		fields["status"] = model.SubscriptionStatusActive
		fields["suspend_reason"] = ""
	}

	if err := subRepo.UpdateFields(sub.ID, fields); err != nil {
		return nil, err
	}

	return subRepo.GetByID(sub.ID)
}

// expectedRequestType 根据价格和套餐 ID 比较推导申请类型
func (s *RequestService) expectedRequestType(current *model.UserSubscription, plan *model.SubscriptionPlan) (string, error) {
	if current == nil {
		// 没有订阅时只能发起升级申请（从无到有）
		return model.RequestTypeUpgrade, nil
	}

	if current.PlanID == plan.ID {
		return model.RequestTypeRenewal, nil
	}

	currentPlan, err := s.planRepo.GetByID(current.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSubscriptionPlanMissing
		}
		return "", err
	}

	if plan.Price < currentPlan.Price {
		return model.RequestTypeDowngrade, nil
	}
	return model.RequestTypeUpgrade, nil
}

func (s *RequestService) currentSubscription(userID int64) (*model.UserSubscription, error) {
	sub, err := s.subRepo.GetCurrentByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *RequestService) publish(event *pubsub.SubscriptionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		log.Printf("Failed to publish subscription event %s: %v", event.Type, err)
	}
}
