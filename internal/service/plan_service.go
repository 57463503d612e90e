package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/repository"
)

var (
	ErrPlanNotFound   = errors.New("套餐不存在")
	ErrPlanNameExists = errors.New("套餐系统名已被使用")
	ErrInvalidQuota   = errors.New("配额值无效，只允许 -1 或非负数")
)

type PlanService struct {
	planRepo *repository.PlanRepository
	cfg      *config.Config
}

func NewPlanService(planRepo *repository.PlanRepository, cfg *config.Config) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		cfg:      cfg,
	}
}

// ListForRole 返回某角色可见的启用套餐（按角色映射到套餐类型过滤）
func (s *PlanService) ListForRole(role string) ([]model.SubscriptionPlan, error) {
	planType := s.cfg.Subscription.PlanTypeForRole(role)
	return s.planRepo.ListActive(planType)
}

// ListActive 按套餐类型查询启用套餐，planType 为空返回全部启用套餐
func (s *PlanService) ListActive(planType string) ([]model.SubscriptionPlan, error) {
	return s.planRepo.ListActive(planType)
}

// ListAll 管理端查询全部套餐，含停用的
func (s *PlanService) ListAll() ([]model.SubscriptionPlan, error) {
	return s.planRepo.ListAll()
}

func (s *PlanService) GetByID(id int64) (*model.SubscriptionPlan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Create 创建套餐。配额哨兵值在创建时校验，读取侧不再做缺省兜底。
func (s *PlanService) Create(req *dto.CreatePlanRequest) (*model.SubscriptionPlan, error) {
	features, err := buildFeatures(req.Features)
	if err != nil {
		return nil, err
	}

	exists, err := s.planRepo.ExistsByName(req.Name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPlanNameExists
	}

	plan := &model.SubscriptionPlan{
		Name:         req.Name,
		DisplayName:  req.DisplayName,
		Description:  req.Description,
		PlanType:     req.PlanType,
		Price:        *req.Price,
		Currency:     req.Currency,
		DurationDays: req.DurationDays,
		Features:     *features,
		IsActive:     true,
	}

	if err := s.planRepo.Create(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Update 更新套餐。已发放订阅的当期配额固定在发放时刻，
// 这里的修改只影响之后签发或续期的订阅。
func (s *PlanService) Update(id int64, req *dto.UpdatePlanRequest) (*model.SubscriptionPlan, error) {
	plan, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		plan.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.Currency != nil {
		plan.Currency = *req.Currency
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.Features != nil {
		features, err := buildFeatures(req.Features)
		if err != nil {
			return nil, err
		}
		plan.Features = *features
	}

	if err := s.planRepo.Update(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ToggleActive 切换套餐启用状态，停用不影响已发放的订阅
func (s *PlanService) ToggleActive(id int64) (*model.SubscriptionPlan, error) {
	plan, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.UpdateFields(id, map[string]interface{}{"is_active": !plan.IsActive}); err != nil {
		return nil, err
	}
	plan.IsActive = !plan.IsActive
	return plan, nil
}

func buildFeatures(p *dto.PlanFeaturesPayload) (*model.PlanFeatures, error) {
	if !model.ValidQuota(*p.MaxListings) || !model.ValidQuota(*p.MaxJobPosts) || !model.ValidQuota(*p.MaxMonthlyBrowses) {
		return nil, ErrInvalidQuota
	}

	return &model.PlanFeatures{
		MaxListings:       *p.MaxListings,
		MaxJobPosts:       *p.MaxJobPosts,
		MaxMonthlyBrowses: *p.MaxMonthlyBrowses,
		DataDelayDays:     *p.DataDelayDays,
		PriorityListing:   *p.PriorityListing,
		AdEnabled:         *p.AdEnabled,
		InstantAlerts:     *p.InstantAlerts,
		Analytics:         *p.Analytics,
		SupportTier:       p.SupportTier,
	}, nil
}
