package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

func (r *SubscriptionRepository) Create(sub *model.UserSubscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) GetByID(id int64) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetCurrentByUserID 查询用户当前订阅（最新一条），历史记录不参与
func (r *SubscriptionRepository) GetCurrentByUserID(userID int64) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.Where("user_id = ?", userID).Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// List 管理端订阅列表，status、planID 为可选过滤条件
func (r *SubscriptionRepository) List(status string, planID int64, page, pageSize int) ([]model.UserSubscription, int64, error) {
	query := r.db.Model(&model.UserSubscription{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if planID > 0 {
		query = query.Where("plan_id = ?", planID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []model.UserSubscription
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&subs).Error
	return subs, total, err
}

func (r *SubscriptionRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.UserSubscription{}).Where("id = ?", id).Updates(fields).Error
}

// ConsumeBrowse 原子扣减浏览配额。单条条件 UPDATE 防止并发丢失更新，
// 返回 false 表示配额已用完（未命中行）。
func (r *SubscriptionRepository) ConsumeBrowse(id int64, allowed int) (bool, error) {
	query := r.db.Model(&model.UserSubscription{}).Where("id = ?", id)
	if !model.IsUnlimited(allowed) {
		query = query.Where("browse_count_used < ?", allowed)
	}
	res := query.Update("browse_count_used", gorm.Expr("browse_count_used + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeListing 原子扣减发布配额，语义同 ConsumeBrowse
func (r *SubscriptionRepository) ConsumeListing(id int64, allowed int) (bool, error) {
	query := r.db.Model(&model.UserSubscription{}).Where("id = ?", id)
	if !model.IsUnlimited(allowed) {
		query = query.Where("listing_count_used < ?", allowed)
	}
	res := query.Update("listing_count_used", gorm.Expr("listing_count_used + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ResetUsage 清零两个配额计数，不影响到期时间
func (r *SubscriptionRepository) ResetUsage(id int64) error {
	return r.db.Model(&model.UserSubscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"browse_count_used":  0,
		"listing_count_used": 0,
	}).Error
}

// ExtendIfLater 延长到期时间，条件更新保证新时间不早于当前到期时间。
// 返回 false 表示前置条件不满足或记录不存在。
func (r *SubscriptionRepository) ExtendIfLater(id int64, newExpiresAt time.Time, note string) (bool, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND expires_at <= ?", id, newExpiresAt).
		Updates(map[string]interface{}{
			"expires_at": newExpiresAt,
			"admin_note": note,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Suspend 停用订阅，仅对非停用状态生效
func (r *SubscriptionRepository) Suspend(id int64, reason string) (bool, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND status <> ?", id, model.SubscriptionStatusSuspended).
		Updates(map[string]interface{}{
			"status":         model.SubscriptionStatusSuspended,
			"suspend_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Reactivate 恢复订阅，仅对停用状态生效
func (r *SubscriptionRepository) Reactivate(id int64) (bool, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionStatusSuspended).
		Updates(map[string]interface{}{
			"status":         model.SubscriptionStatusActive,
			"suspend_reason": "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RestoreExpired 把到期标记改回 active，仅对 expired 状态生效，
// 避免覆盖并发的停用操作
func (r *SubscriptionRepository) RestoreExpired(id int64) (bool, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionStatusExpired).
		Update("status", model.SubscriptionStatusActive)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkExpired 将到期的 active 订阅批量标记为 expired，返回影响行数
func (r *SubscriptionRepository) MarkExpired(now time.Time) (int64, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("status = ? AND expires_at < ?", model.SubscriptionStatusActive, now).
		Update("status", model.SubscriptionStatusExpired)
	return res.RowsAffected, res.Error
}

// ListExpiringSoon 查询即将到期的 active 订阅，用于到期提醒
func (r *SubscriptionRepository) ListExpiringSoon(now time.Time, within time.Duration) ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := r.db.Where("status = ? AND expires_at >= ? AND expires_at <= ?",
		model.SubscriptionStatusActive, now, now.Add(within)).
		Find(&subs).Error
	return subs, err
}

// ListDateExpired 查询已过期但仍标记为 active 的订阅，
// 供巡检在标记前取出待通知的记录
func (r *SubscriptionRepository) ListDateExpired(now time.Time) ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := r.db.Where("status = ? AND expires_at < ?",
		model.SubscriptionStatusActive, now).
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&model.UserSubscription{}).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserSubscription{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) CountExpiringSoon(now time.Time, within time.Duration) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserSubscription{}).
		Where("status = ? AND expires_at >= ? AND expires_at <= ?",
			model.SubscriptionStatusActive, now, now.Add(within)).
		Count(&count).Error
	return count, err
}

// RevenueProjection 活跃订阅的套餐价格合计，作为营收预估
func (r *SubscriptionRepository) RevenueProjection() (float64, error) {
	var total *float64
	err := r.db.Model(&model.UserSubscription{}).
		Select("SUM(subscription_plans.price)").
		Joins("JOIN subscription_plans ON subscription_plans.id = user_subscriptions.plan_id").
		Where("user_subscriptions.status = ?", model.SubscriptionStatusActive).
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
