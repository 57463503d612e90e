package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/internal/model"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx}
}

func (r *RequestRepository) Create(req *model.SubscriptionRequest) error {
	return r.db.Create(req).Error
}

func (r *RequestRepository) GetByID(id int64) (*model.SubscriptionRequest, error) {
	var req model.SubscriptionRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) ListByUserID(userID int64) ([]model.SubscriptionRequest, error) {
	var reqs []model.SubscriptionRequest
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&reqs).Error
	return reqs, err
}

// List 管理端申请列表，status 为空时返回全部
func (r *RequestRepository) List(status string) ([]model.SubscriptionRequest, error) {
	var reqs []model.SubscriptionRequest
	query := r.db.Model(&model.SubscriptionRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("id DESC").Find(&reqs).Error
	return reqs, err
}

// ExistsPending 同一用户对同一套餐最多只允许一条待审批申请
func (r *RequestRepository) ExistsPending(userID, planID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.SubscriptionRequest{}).
		Where("user_id = ? AND plan_id = ? AND status = ?", userID, planID, model.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// Resolve 终结申请，条件更新保证只有 pending 状态可以被终结。
// 返回 false 表示申请不存在或已被处理。
func (r *RequestRepository) Resolve(id int64, status, adminNote string, resolvedAt time.Time) (bool, error) {
	res := r.db.Model(&model.SubscriptionRequest{}).
		Where("id = ? AND status = ?", id, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"admin_note":  adminNote,
			"resolved_at": resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
