package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/subs_go_server/internal/api/middleware"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/service"
)

type RequestHandler struct {
	requestService *service.RequestService
}

func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
	}
}

// Create 创建套餐变更申请
// POST /api/v1/subscription/requests
func (h *RequestHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateSubscriptionRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	request, err := h.requestService.Create(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrDuplicateRequest):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrRequestTypeMismatch), errors.Is(err, service.ErrPlanNotAvailable):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, request)
}

// ListMine 查询自己的申请记录
// GET /api/v1/subscription/requests
func (h *RequestHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	requests, err := h.requestService.ListMine(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, requests)
}
