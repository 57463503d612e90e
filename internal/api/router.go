package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/api/handler"
	"github.com/qs3c/subs_go_server/internal/api/middleware"
	"github.com/qs3c/subs_go_server/internal/service"
)

type Router struct {
	authHandler         *handler.AuthHandler
	planHandler         *handler.PlanHandler
	subscriptionHandler *handler.SubscriptionHandler
	requestHandler      *handler.RequestHandler
	adminHandler        *handler.AdminHandler
	websocketHandler    *handler.WebSocketHandler
	entitlementService  *service.EntitlementService
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	planHandler *handler.PlanHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	requestHandler *handler.RequestHandler,
	adminHandler *handler.AdminHandler,
	websocketHandler *handler.WebSocketHandler,
	entitlementService *service.EntitlementService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		planHandler:         planHandler,
		subscriptionHandler: subscriptionHandler,
		requestHandler:      requestHandler,
		adminHandler:        adminHandler,
		websocketHandler:    websocketHandler,
		entitlementService:  entitlementService,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 公开接口 - 套餐目录（可选认证，登录后按角色过滤）
		plans := api.Group("/plans")
		plans.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			plans.GET("", r.planHandler.List)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 订阅
			subscription := authenticated.Group("/subscription")
			{
				subscription.GET("", r.subscriptionHandler.GetCurrent)
				subscription.POST("", r.subscriptionHandler.SelectPlan)
				subscription.GET("/usage", r.subscriptionHandler.GetUsage)
				subscription.GET("/entitlements", r.subscriptionHandler.GetEntitlements)
				subscription.POST("/requests", r.requestHandler.Create)
				subscription.GET("/requests", r.requestHandler.ListMine)
			}

			// 配额消耗（业务模块调用），先过权益门槛再原子扣减
			usage := authenticated.Group("/usage")
			usage.Use(middleware.RequireEntitlement(r.entitlementService))
			{
				usage.POST("/browses", r.subscriptionHandler.ConsumeBrowse)
				usage.POST("/listings", r.subscriptionHandler.ConsumeListing)
			}
		}

		// 管理端接口
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.AdminOnly())
		{
			admin.GET("/plans", r.adminHandler.ListPlans)
			admin.POST("/plans", r.adminHandler.CreatePlan)
			admin.PUT("/plans/:id", r.adminHandler.UpdatePlan)
			admin.POST("/plans/:id/toggle", r.adminHandler.TogglePlan)

			admin.GET("/subscriptions", r.adminHandler.ListSubscriptions)
			admin.POST("/subscriptions/:id/extend", r.adminHandler.ExtendSubscription)
			admin.POST("/subscriptions/:id/continue", r.adminHandler.ContinueSubscription)
			admin.POST("/subscriptions/:id/reset-usage", r.adminHandler.ResetUsage)
			admin.POST("/subscriptions/:id/suspend", r.adminHandler.SuspendSubscription)
			admin.POST("/subscriptions/:id/reactivate", r.adminHandler.ReactivateSubscription)

			admin.GET("/requests", r.adminHandler.ListRequests)
			admin.POST("/requests/:id/approve", r.adminHandler.ApproveRequest)
			admin.POST("/requests/:id/reject", r.adminHandler.RejectRequest)

			admin.GET("/stats", r.adminHandler.GetStats)
		}
	}

	return engine
}
