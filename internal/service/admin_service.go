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
	ErrSubscriptionNotFound = errors.New("订阅不存在")
	ErrEndDateTooEarly      = errors.New("新到期时间不能早于当前到期时间")
	ErrNotSuspended         = errors.New("订阅不在停用状态，无法恢复")
	ErrAlreadySuspended     = errors.New("订阅已处于停用状态")
)

// AdminService 管理端对订阅记录的直接操作，绕过变更申请工作流。
// 所有操作先校验记录存在，失败时不写入任何变更。
type AdminService struct {
	subRepo   *repository.SubscriptionRepository
	publisher *pubsub.Publisher
	cfg       *config.Config
}

func NewAdminService(
	subRepo *repository.SubscriptionRepository,
	publisher *pubsub.Publisher,
	cfg *config.Config,
) *AdminService {
	return &AdminService{
		subRepo:   subRepo,
		publisher: publisher,
		cfg:       cfg,
	}
}

// ListSubscriptions 订阅列表，支持按状态、套餐过滤
func (s *AdminService) ListSubscriptions(status string, planID int64, page, pageSize int) ([]model.UserSubscription, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.subRepo.List(status, planID, page, pageSize)
}

// Extend 延长订阅到期时间，新时间不能早于当前到期时间，不动配额计数
func (s *AdminService) Extend(id int64, newExpiresAt time.Time, note string) (*model.UserSubscription, error) {
	sub, err := s.getSubscription(id)
	if err != nil {
		return nil, err
	}

	ok, err := s.subRepo.ExtendIfLater(id, newExpiresAt, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEndDateTooEarly
	}

	s.restoreIfDateExpired(sub)

	s.publish(&pubsub.SubscriptionEvent{
		Type:           pubsub.EventExtended,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
	})

	return s.subRepo.GetByID(id)
}

// Continue 按自然月续期。未到期从当前到期时间顺延，已到期从现在起算。
func (s *AdminService) Continue(id int64, months int) (*model.UserSubscription, error) {
	sub, err := s.getSubscription(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	base := sub.ExpiresAt
	if base.Before(now) {
		base = now
	}
	newExpiresAt := base.AddDate(0, months, 0)

	if err := s.subRepo.UpdateFields(id, map[string]interface{}{"expires_at": newExpiresAt}); err != nil {
		return nil, err
	}

	s.restoreIfDateExpired(sub)

	s.publish(&pubsub.SubscriptionEvent{
		Type:           pubsub.EventExtended,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
	})

	return s.subRepo.GetByID(id)
}

// ResetUsage 清零配额计数，到期时间保持不变
func (s *AdminService) ResetUsage(id int64) (*model.UserSubscription, error) {
	sub, err := s.getSubscription(id)
	if err != nil {
		return nil, err
	}

	if err := s.subRepo.ResetUsage(id); err != nil {
		return nil, err
	}

	s.publish(&pubsub.SubscriptionEvent{
		Type:           pubsub.EventUsageReset,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
	})

	return s.subRepo.GetByID(id)
}

// Suspend 停用订阅。权益检查会把停用视同无权访问，
// 但状态单独上报，便于审计和界面区分。
func (s *AdminService) Suspend(id int64, reason string) (*model.UserSubscription, error) {
	sub, err := s.getSubscription(id)
	if err != nil {
		return nil, err
	}

	ok, err := s.subRepo.Suspend(id, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadySuspended
	}

	s.publish(&pubsub.SubscriptionEvent{
		Type:           pubsub.EventSuspended,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
	})

	return s.subRepo.GetByID(id)
}

// Reactivate 恢复订阅，只允许从停用状态恢复。日期已过期的订阅
// 恢复后状态仍为 active，权益引擎会按日期独立上报 is_expired。
func (s *AdminService) Reactivate(id int64) (*model.UserSubscription, error) {
	sub, err := s.getSubscription(id)
	if err != nil {
		return nil, err
	}

	ok, err := s.subRepo.Reactivate(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotSuspended
	}

	s.publish(&pubsub.SubscriptionEvent{
		Type:           pubsub.EventReactivated,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
	})

	return s.subRepo.GetByID(id)
}

// GlobalStats 全局统计
func (s *AdminService) GlobalStats() (*dto.GlobalStats, error) {
	total, err := s.subRepo.CountAll()
	if err != nil {
		return nil, err
	}

	active, err := s.subRepo.CountByStatus(model.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}

	warningDays := s.cfg.Subscription.ExpiryWarningDaysOrDefault()
	expiring, err := s.subRepo.CountExpiringSoon(time.Now(), time.Duration(warningDays)*24*time.Hour)
	if err != nil {
		return nil, err
	}

	revenue, err := s.subRepo.RevenueProjection()
	if err != nil {
		return nil, err
	}

	return &dto.GlobalStats{
		TotalSubscriptions:  total,
		ActiveSubscriptions: active,
		ExpiringSoon:        expiring,
		RevenueProjection:   revenue,
	}, nil
}

// restoreIfDateExpired 延期操作把日期拉回有效区间后，顺带把到期
// 标记改回 active。条件更新只命中 expired 状态，停用等其它状态不受
// 影响，仍需显式恢复。
func (s *AdminService) restoreIfDateExpired(sub *model.UserSubscription) {
	if _, err := s.subRepo.RestoreExpired(sub.ID); err != nil {
		log.Printf("Failed to restore expired subscription %d: %v", sub.ID, err)
	}
}

func (s *AdminService) getSubscription(id int64) (*model.UserSubscription, error) {
	sub, err := s.subRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *AdminService) publish(event *pubsub.SubscriptionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		log.Printf("Failed to publish subscription event %s: %v", event.Type, err)
	}
}
