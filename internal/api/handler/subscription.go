package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/subs_go_server/internal/api/middleware"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	entitlementService  *service.EntitlementService
}

func NewSubscriptionHandler(
	subscriptionService *service.SubscriptionService,
	entitlementService *service.EntitlementService,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		entitlementService:  entitlementService,
	}
}

// GetCurrent 查询当前订阅，没有时 data 为 null
// GET /api/v1/subscription
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	sub, err := h.subscriptionService.GetCurrent(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, sub)
}

// SelectPlan 首次选择套餐开通订阅
// POST /api/v1/subscription
func (h *SubscriptionHandler) SelectPlan(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SelectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	sub, err := h.subscriptionService.SelectPlan(userID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrAlreadySubscribed):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrPlanNotAvailable), errors.Is(err, service.ErrPlanTypeMismatch):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, sub)
}

// GetUsage 查询用量统计，没有订阅时 data 为 null
// GET /api/v1/subscription/usage
func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	stats, err := h.entitlementService.GetUsageStats(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, stats)
}

// GetEntitlements 查询权益快照，没有订阅时 data 为 null
// GET /api/v1/subscription/entitlements
func (h *SubscriptionHandler) GetEntitlements(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	snapshot, err := h.entitlementService.GetSnapshot(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, snapshot)
}

// ConsumeBrowse 记录一次目录浏览，原子扣减配额
// POST /api/v1/usage/browses
func (h *SubscriptionHandler) ConsumeBrowse(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.entitlementService.ConsumeBrowse(userID); err != nil {
		h.consumeError(c, err)
		return
	}

	stats, err := h.entitlementService.GetUsageStats(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, stats)
}

// ConsumeListing 记录一次发布，原子扣减配额
// POST /api/v1/usage/listings
func (h *SubscriptionHandler) ConsumeListing(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.entitlementService.ConsumeListing(userID); err != nil {
		h.consumeError(c, err)
		return
	}

	stats, err := h.entitlementService.GetUsageStats(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, stats)
}

func (h *SubscriptionHandler) consumeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBrowseQuotaExceeded), errors.Is(err, service.ErrListingQuotaExceeded):
		response.QuotaError(c, err.Error())
	case errors.Is(err, service.ErrNoSubscription),
		errors.Is(err, service.ErrSubscriptionInactive),
		errors.Is(err, service.ErrPaymentFailed):
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
