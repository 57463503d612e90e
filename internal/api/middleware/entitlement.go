package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/service"
)

// RequireEntitlement 权益前置检查中间件。挂在需要有效订阅的路由组上，
// 拦截无订阅、停用、到期标记或支付失败的请求。配额扣减仍由业务层的
// 原子操作完成，这里只做状态门槛。
func RequireEntitlement(entitlementService *service.EntitlementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		snapshot, err := entitlementService.GetSnapshot(userID)
		if err != nil {
			if errors.Is(err, service.ErrSubscriptionPlanMissing) {
				response.ServerError(c, "订阅数据异常")
			} else {
				response.ServerError(c, "权益检查失败")
			}
			c.Abort()
			return
		}

		if snapshot == nil {
			response.PermissionError(c, "当前没有订阅")
			c.Abort()
			return
		}

		if snapshot.Status != model.SubscriptionStatusActive || snapshot.PaymentStatus == model.PaymentStatusFailed {
			response.PermissionError(c, "订阅不可用")
			c.Abort()
			return
		}

		c.Next()
	}
}
