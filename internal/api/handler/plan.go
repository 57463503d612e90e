package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/subs_go_server/internal/api/middleware"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// List 查询可选套餐。已登录用户按角色过滤套餐类型，
// 未登录时可用 plan_type 查询参数过滤。
// GET /api/v1/plans?plan_type=xxx
func (h *PlanHandler) List(c *gin.Context) {
	if role, ok := middleware.GetRole(c); ok {
		plans, err := h.planService.ListForRole(role)
		if err != nil {
			response.ServerError(c, "")
			return
		}
		response.Success(c, plans)
		return
	}

	plans, err := h.planService.ListActive(c.Query("plan_type"))
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, plans)
}
