package main

import (
	"context"
	"fmt"
	"log"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/api"
	"github.com/qs3c/subs_go_server/internal/api/handler"
	"github.com/qs3c/subs_go_server/internal/database"
	"github.com/qs3c/subs_go_server/internal/pkg/cron"
	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
	"github.com/qs3c/subs_go_server/internal/pkg/ws"
	"github.com/qs3c/subs_go_server/internal/repository"
	"github.com/qs3c/subs_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化事件发布/订阅
	publisher := pubsub.NewPublisher(rdb, cfg.Events.SubscriptionChannel)
	subscriber := pubsub.NewSubscriber(rdb, cfg.Events.SubscriptionChannel)

	// 初始化 WebSocket Hub，转发订阅变更事件
	wsHub := ws.NewHub()
	go func() {
		if err := subscriber.Subscribe(context.Background(), wsHub.DispatchEvent); err != nil {
			log.Printf("Event subscriber stopped: %v", err)
		}
	}()
	log.Println("WebSocket hub started")

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	planService := service.NewPlanService(planRepo, cfg)
	subscriptionService := service.NewSubscriptionService(subRepo, planRepo, userRepo, cfg)
	entitlementService := service.NewEntitlementService(subRepo, planRepo, cfg)
	requestService := service.NewRequestService(db, requestRepo, subRepo, planRepo, publisher, cfg)
	adminService := service.NewAdminService(subRepo, publisher, cfg)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	planHandler := handler.NewPlanHandler(planService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, entitlementService)
	requestHandler := handler.NewRequestHandler(requestService)
	adminHandler := handler.NewAdminHandler(adminService, planService, requestService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 启动到期巡检
	cronService := cron.NewService(subRepo, publisher, cfg.Subscription.ExpiryWarningDaysOrDefault())
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		planHandler,
		subscriptionHandler,
		requestHandler,
		adminHandler,
		websocketHandler,
		entitlementService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
