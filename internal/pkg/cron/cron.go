package cron

import (
	"context"
	"log"
	"time"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
	"github.com/qs3c/subs_go_server/internal/repository"
)

// Service 定时任务：每日把到期的 active 订阅标记为 expired，
// 并对进入提醒窗口的订阅发布 expiring_soon 事件。
type Service struct {
	subRepo     *repository.SubscriptionRepository
	publisher   *pubsub.Publisher
	warningDays int
	stopChan    chan struct{}
}

func NewService(subRepo *repository.SubscriptionRepository, publisher *pubsub.Publisher, warningDays int) *Service {
	if warningDays <= 0 {
		warningDays = 7
	}
	return &Service{
		subRepo:     subRepo,
		publisher:   publisher,
		warningDays: warningDays,
		stopChan:    make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runDailySweep()
	log.Println("Cron service started (expiry sweep + expiring-soon alerts)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runDailySweep 每日零点（UTC）执行一次到期巡检
func (s *Service) runDailySweep() {
	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.Sweep()
			timer.Reset(24 * time.Hour)
		}
	}
}

// Sweep 立即执行一次到期巡检（也用于 cmd/expirer 手动触发）
func (s *Service) Sweep() {
	now := time.Now()

	// 标记前取出待通知的记录，标记后逐条发布到期事件
	var swept []model.UserSubscription
	if s.publisher != nil {
		var err error
		swept, err = s.subRepo.ListDateExpired(now)
		if err != nil {
			log.Printf("Expiry sweep: failed to list expired subscriptions: %v", err)
		}
	}

	marked, err := s.subRepo.MarkExpired(now)
	if err != nil {
		log.Printf("Expiry sweep failed: %v", err)
		return
	}
	if marked > 0 {
		log.Printf("Expiry sweep: marked %d subscriptions expired", marked)
	}

	for _, sub := range swept {
		event := &pubsub.SubscriptionEvent{
			Type:           pubsub.EventExpired,
			UserID:         sub.UserID,
			SubscriptionID: sub.ID,
			PlanID:         sub.PlanID,
			PlanName:       sub.PlanName,
		}
		if err := s.publisher.Publish(context.Background(), event); err != nil {
			log.Printf("Expiry sweep: failed to publish expired event for subscription %d: %v", sub.ID, err)
		}
	}

	s.alertExpiringSoon(now)
}

// alertExpiringSoon 对提醒窗口内的订阅发布到期提醒事件
func (s *Service) alertExpiringSoon(now time.Time) {
	if s.publisher == nil {
		return
	}

	subs, err := s.subRepo.ListExpiringSoon(now, time.Duration(s.warningDays)*24*time.Hour)
	if err != nil {
		log.Printf("Expiry sweep: failed to list expiring subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		event := &pubsub.SubscriptionEvent{
			Type:           pubsub.EventExpiringSoon,
			UserID:         sub.UserID,
			SubscriptionID: sub.ID,
			PlanID:         sub.PlanID,
			PlanName:       sub.PlanName,
		}
		if err := s.publisher.Publish(context.Background(), event); err != nil {
			log.Printf("Expiry sweep: failed to publish alert for subscription %d: %v", sub.ID, err)
		}
	}
}
