package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/repository"
	"github.com/qs3c/subs_go_server/internal/testutil"
)

func setupCronService(t *testing.T) (*Service, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	subRepo := repository.NewSubscriptionRepository(db)
	svc := NewService(subRepo, nil, 7)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return svc, db, cleanup
}

func TestNewService(t *testing.T) {
	svc, _, cleanup := setupCronService(t)
	defer cleanup()

	assert.NotNil(t, svc)
	assert.NotNil(t, svc.stopChan)
	assert.Equal(t, 7, svc.warningDays)

	// 非法阈值回退到默认值
	fallback := NewService(nil, nil, 0)
	assert.Equal(t, 7, fallback.warningDays)
}

func TestService_StartAndStop(t *testing.T) {
	svc, _, cleanup := setupCronService(t)
	defer cleanup()

	svc.Start()
	time.Sleep(10 * time.Millisecond)
	svc.Stop()
	time.Sleep(10 * time.Millisecond)
}

func TestService_Sweep_MarksExpired(t *testing.T) {
	svc, db, cleanup := setupCronService(t)
	defer cleanup()

	plan := testutil.TestPlan(t, db)

	expiredUser := testutil.TestUser(t, db)
	expired := testutil.TestSubscription(t, db, expiredUser.ID, plan.ID,
		testutil.WithExpiresAt(time.Now().AddDate(0, 0, -1)))

	activeUser := testutil.TestUser(t, db)
	active := testutil.TestSubscription(t, db, activeUser.ID, plan.ID)

	svc.Sweep()

	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, expired.ID).Error)
	assert.Equal(t, model.SubscriptionStatusExpired, reloaded.Status)

	var reloadedActive model.UserSubscription
	require.NoError(t, db.First(&reloadedActive, active.ID).Error)
	assert.Equal(t, model.SubscriptionStatusActive, reloadedActive.Status)
}

func TestService_Sweep_SkipsSuspended(t *testing.T) {
	svc, db, cleanup := setupCronService(t)
	defer cleanup()

	plan := testutil.TestPlan(t, db)
	user := testutil.TestUser(t, db)
	suspended := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStatus(model.SubscriptionStatusSuspended),
		testutil.WithExpiresAt(time.Now().AddDate(0, 0, -1)))

	svc.Sweep()

	// 停用状态不参与到期标记
	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, suspended.ID).Error)
	assert.Equal(t, model.SubscriptionStatusSuspended, reloaded.Status)
}

func TestService_Sweep_NoSubscriptions(t *testing.T) {
	svc, _, cleanup := setupCronService(t)
	defer cleanup()

	// 空库巡检不报错
	svc.Sweep()
}

func TestService_Sweep_Idempotent(t *testing.T) {
	svc, db, cleanup := setupCronService(t)
	defer cleanup()

	plan := testutil.TestPlan(t, db)
	user := testutil.TestUser(t, db)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithExpiresAt(time.Now().AddDate(0, 0, -1)))

	svc.Sweep()
	svc.Sweep()

	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, model.SubscriptionStatusExpired, reloaded.Status)
}
