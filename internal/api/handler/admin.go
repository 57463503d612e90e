package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/service"
)

type AdminHandler struct {
	adminService   *service.AdminService
	planService    *service.PlanService
	requestService *service.RequestService
}

func NewAdminHandler(
	adminService *service.AdminService,
	planService *service.PlanService,
	requestService *service.RequestService,
) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		planService:    planService,
		requestService: requestService,
	}
}

// ListPlans 全部套餐（含停用）
// GET /api/v1/admin/plans
func (h *AdminHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListAll()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, plans)
}

// CreatePlan 创建套餐
// POST /api/v1/admin/plans
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	plan, err := h.planService.Create(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNameExists):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrInvalidQuota):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, plan)
}

// UpdatePlan 更新套餐
// PUT /api/v1/admin/plans/:id
func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	plan, err := h.planService.Update(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInvalidQuota):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, plan)
}

// TogglePlan 切换套餐启用状态
// POST /api/v1/admin/plans/:id/toggle
func (h *AdminHandler) TogglePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	plan, err := h.planService.ToggleActive(id)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, plan)
}

// ListSubscriptions 订阅列表
// GET /api/v1/admin/subscriptions?status=&plan_id=&page=&page_size=
func (h *AdminHandler) ListSubscriptions(c *gin.Context) {
	planID, _ := strconv.ParseInt(c.Query("plan_id"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	subs, total, err := h.adminService.ListSubscriptions(c.Query("status"), planID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, subs)
}

// ExtendSubscription 延长订阅
// POST /api/v1/admin/subscriptions/:id/extend
func (h *AdminHandler) ExtendSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ExtendSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	newExpiresAt, err := time.Parse(time.RFC3339, req.NewExpiresAt)
	if err != nil {
		response.ParamError(c, "到期时间格式错误，需要 RFC3339")
		return
	}

	sub, err := h.adminService.Extend(id, newExpiresAt, req.Note)
	if err != nil {
		h.adminError(c, err)
		return
	}

	response.Success(c, sub)
}

// ContinueSubscription 按月续期
// POST /api/v1/admin/subscriptions/:id/continue
func (h *AdminHandler) ContinueSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ContinueSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	sub, err := h.adminService.Continue(id, req.Months)
	if err != nil {
		h.adminError(c, err)
		return
	}

	response.Success(c, sub)
}

// ResetUsage 清零配额计数
// POST /api/v1/admin/subscriptions/:id/reset-usage
func (h *AdminHandler) ResetUsage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sub, err := h.adminService.ResetUsage(id)
	if err != nil {
		h.adminError(c, err)
		return
	}

	response.Success(c, sub)
}

// SuspendSubscription 停用订阅
// POST /api/v1/admin/subscriptions/:id/suspend
func (h *AdminHandler) SuspendSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.SuspendSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.ParamError(c, "")
		return
	}

	sub, err := h.adminService.Suspend(id, req.Reason)
	if err != nil {
		h.adminError(c, err)
		return
	}

	response.Success(c, sub)
}

// ReactivateSubscription 恢复订阅
// POST /api/v1/admin/subscriptions/:id/reactivate
func (h *AdminHandler) ReactivateSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sub, err := h.adminService.Reactivate(id)
	if err != nil {
		h.adminError(c, err)
		return
	}

	response.Success(c, sub)
}

// ListRequests 申请列表
// GET /api/v1/admin/requests?status=
func (h *AdminHandler) ListRequests(c *gin.Context) {
	requests, err := h.requestService.List(c.Query("status"))
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, requests)
}

// ApproveRequest 审批通过
// POST /api/v1/admin/requests/:id/approve
func (h *AdminHandler) ApproveRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ResolveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.ParamError(c, "")
		return
	}

	request, err := h.requestService.Approve(id, req.Note)
	if err != nil {
		h.requestError(c, err)
		return
	}

	response.Success(c, request)
}

// RejectRequest 审批拒绝
// POST /api/v1/admin/requests/:id/reject
func (h *AdminHandler) RejectRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ResolveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.ParamError(c, "")
		return
	}

	request, err := h.requestService.Reject(id, req.Note)
	if err != nil {
		h.requestError(c, err)
		return
	}

	response.Success(c, request)
}

// GetStats 全局统计
// GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.GlobalStats()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, stats)
}

func (h *AdminHandler) adminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubscriptionNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrEndDateTooEarly),
		errors.Is(err, service.ErrNotSuspended),
		errors.Is(err, service.ErrAlreadySuspended):
		response.ConflictError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}

func (h *AdminHandler) requestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrRequestResolved):
		response.ConflictError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的 ID")
		return 0, false
	}
	return id, true
}
