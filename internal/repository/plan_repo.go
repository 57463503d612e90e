package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(plan *model.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

func (r *PlanRepository) GetByID(id int64) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := r.db.Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) GetByName(name string) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := r.db.Where("name = ?", name).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive 查询启用中的套餐，planType 为空时不过滤类型
func (r *PlanRepository) ListActive(planType string) ([]model.SubscriptionPlan, error) {
	var plans []model.SubscriptionPlan
	query := r.db.Where("is_active = ?", true)
	if planType != "" {
		query = query.Where("plan_type = ?", planType)
	}
	err := query.Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) ListAll() ([]model.SubscriptionPlan, error) {
	var plans []model.SubscriptionPlan
	err := r.db.Order("plan_type ASC, price ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) Update(plan *model.SubscriptionPlan) error {
	return r.db.Save(plan).Error
}

func (r *PlanRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.SubscriptionPlan{}).Where("id = ?", id).Updates(fields).Error
}

// ExistsByName 检查套餐系统名是否已被占用，excludeID 用于更新时排除自身
func (r *PlanRepository) ExistsByName(name string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.Model(&model.SubscriptionPlan{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}
