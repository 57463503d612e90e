package main

import (
	"log"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/database"
	"github.com/qs3c/subs_go_server/internal/pkg/cron"
	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
	"github.com/qs3c/subs_go_server/internal/repository"
)

// 一次性到期巡检，供外部调度器（crontab、k8s CronJob）调用
func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	var publisher *pubsub.Publisher
	if rdb, err := database.NewRedis(&cfg.Redis); err != nil {
		log.Printf("Redis unavailable, skipping event publish: %v", err)
	} else {
		publisher = pubsub.NewPublisher(rdb, cfg.Events.SubscriptionChannel)
	}

	subRepo := repository.NewSubscriptionRepository(db)
	cronService := cron.NewService(subRepo, publisher, cfg.Subscription.ExpiryWarningDaysOrDefault())

	log.Println("Running expiry sweep...")
	cronService.Sweep()
	log.Println("Expiry sweep finished")
}
