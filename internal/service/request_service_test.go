package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/repository"
	"github.com/qs3c/subs_go_server/internal/testutil"
)

func setupRequestService(t *testing.T, reactivateOnApprove bool) (*RequestService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	requestRepo := repository.NewRequestRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	planRepo := repository.NewPlanRepository(db)

	cfg := &config.Config{
		Subscription: config.SubscriptionConfig{
			ExpiryWarningDays:   7,
			ReactivateOnApprove: reactivateOnApprove,
		},
	}

	service := NewRequestService(db, requestRepo, subRepo, planRepo, nil, cfg)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return service, db, cleanup
}

func TestRequestService_Create_Upgrade(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	current := testutil.TestPlan(t, db, testutil.WithPrice(99))
	target := testutil.TestPlan(t, db, testutil.WithPrice(199))
	testutil.TestSubscription(t, db, user.ID, current.ID)

	request, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      target.ID,
		RequestType: model.RequestTypeUpgrade,
		Note:        "需要更多发布额度",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, request.Status)
	assert.Equal(t, target.Name, request.PlanName)
	assert.Equal(t, "需要更多发布额度", request.UserNote)
}

func TestRequestService_Create_TypeMismatch(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	current := testutil.TestPlan(t, db, testutil.WithPrice(199))
	cheaper := testutil.TestPlan(t, db, testutil.WithPrice(99))
	testutil.TestSubscription(t, db, user.ID, current.ID)

	// 目标价更低却声称升级
	_, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      cheaper.ID,
		RequestType: model.RequestTypeUpgrade,
	})
	assert.Equal(t, ErrRequestTypeMismatch, err)
}

func TestRequestService_Create_SamePlanIsRenewal(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	_, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      plan.ID,
		RequestType: model.RequestTypeUpgrade,
	})
	assert.Equal(t, ErrRequestTypeMismatch, err)

	request, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      plan.ID,
		RequestType: model.RequestTypeRenewal,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestTypeRenewal, request.RequestType)
}

func TestRequestService_Create_NoSubscriptionIsUpgrade(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)

	// 没有订阅时只接受升级申请
	_, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      plan.ID,
		RequestType: model.RequestTypeRenewal,
	})
	assert.Equal(t, ErrRequestTypeMismatch, err)

	request, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      plan.ID,
		RequestType: model.RequestTypeUpgrade,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestTypeUpgrade, request.RequestType)
}

func TestRequestService_Create_DuplicatePending(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)

	_, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      plan.ID,
		RequestType: model.RequestTypeUpgrade,
	})
	require.NoError(t, err)

	_, err = service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      plan.ID,
		RequestType: model.RequestTypeUpgrade,
	})
	assert.Equal(t, ErrDuplicateRequest, err)
}

func TestRequestService_Create_InactivePlan(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, testutil.WithInactive())

	_, err := service.Create(user.ID, &dto.CreateSubscriptionRequestRequest{
		PlanID:      plan.ID,
		RequestType: model.RequestTypeUpgrade,
	})
	assert.Equal(t, ErrPlanNotAvailable, err)
}

func TestRequestService_Approve_SwitchesPlanAndResetsUsage(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	oldPlan := testutil.TestPlan(t, db, testutil.WithPrice(99))
	newPlan := testutil.TestPlan(t, db, testutil.WithPrice(199))
	sub := testutil.TestSubscription(t, db, user.ID, oldPlan.ID, testutil.WithUsage(50, 8))
	request := testutil.TestRequest(t, db, user.ID, newPlan.ID)

	resolved, err := service.Approve(request.ID, "同意升级")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, resolved.Status)
	assert.Equal(t, "同意升级", resolved.AdminNote)
	require.NotNil(t, resolved.ResolvedAt)

	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, newPlan.ID, reloaded.PlanID)
	assert.Equal(t, newPlan.Name, reloaded.PlanName)
	assert.Equal(t, model.PaymentStatusCompleted, reloaded.PaymentStatus)
	// 换套餐后配额计数清零
	assert.Equal(t, 0, reloaded.BrowseCountUsed)
	assert.Equal(t, 0, reloaded.ListingCountUsed)
}

func TestRequestService_Approve_RenewalExtendsFromExpiry(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	remaining := time.Now().AddDate(0, 0, 10)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID, testutil.WithExpiresAt(remaining))
	request := testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestType(model.RequestTypeRenewal))

	_, err := service.Approve(request.ID, "")
	require.NoError(t, err)

	// 未到期续费从原到期时间顺延，剩余时长不丢
	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	expected := remaining.AddDate(0, 0, plan.DurationDays)
	assert.WithinDuration(t, expected, reloaded.ExpiresAt, time.Second)
}

func TestRequestService_Approve_RenewalAfterExpiryStartsNow(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithExpiresAt(time.Now().AddDate(0, 0, -5)))
	request := testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestType(model.RequestTypeRenewal))

	_, err := service.Approve(request.ID, "")
	require.NoError(t, err)

	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	expected := time.Now().AddDate(0, 0, plan.DurationDays)
	assert.WithinDuration(t, expected, reloaded.ExpiresAt, 5*time.Second)
}

func TestRequestService_Approve_AlreadyResolved(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	request := testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestStatus(model.RequestStatusRejected))

	_, err := service.Approve(request.ID, "")
	assert.Equal(t, ErrRequestResolved, err)
}

func TestRequestService_Approve_FailedApplyKeepsRequestPending(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestSubscription(t, db, user.ID, plan.ID)
	request := testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestType(model.RequestTypeRenewal))

	// 订阅表不可写时整个审批回滚，申请不能残留 approved
	require.NoError(t, db.Migrator().DropTable(&model.UserSubscription{}))

	_, err := service.Approve(request.ID, "")
	require.Error(t, err)

	var reloaded model.SubscriptionRequest
	require.NoError(t, db.First(&reloaded, request.ID).Error)
	assert.Equal(t, model.RequestStatusPending, reloaded.Status)
	assert.Nil(t, reloaded.ResolvedAt)
}

func TestRequestService_Approve_NoSubscriptionCreatesOne(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	request := testutil.TestRequest(t, db, user.ID, plan.ID)

	_, err := service.Approve(request.ID, "管理员直接开通")
	require.NoError(t, err)

	var sub model.UserSubscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, plan.ID, sub.PlanID)
	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, model.PaymentStatusCompleted, sub.PaymentStatus)
}

func TestRequestService_Approve_SuspendedStaysSuspended(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStatus(model.SubscriptionStatusSuspended))
	request := testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestType(model.RequestTypeRenewal))

	_, err := service.Approve(request.ID, "")
	require.NoError(t, err)

	// 默认策略：审批不解除停用，需要管理员显式恢复
	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, model.SubscriptionStatusSuspended, reloaded.Status)
}

func TestRequestService_Approve_SuspendedReactivatedByPolicy(t *testing.T) {
	service, db, cleanup := setupRequestService(t, true)
	defer cleanup()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStatus(model.SubscriptionStatusSuspended))
	request := testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestType(model.RequestTypeRenewal))

	_, err := service.Approve(request.ID, "")
	require.NoError(t, err)

	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, model.SubscriptionStatusActive, reloaded.Status)
}

func TestRequestService_Reject_LeavesSubscriptionUntouched(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	oldPlan := testutil.TestPlan(t, db, testutil.WithPrice(99))
	newPlan := testutil.TestPlan(t, db, testutil.WithPrice(199))
	sub := testutil.TestSubscription(t, db, user.ID, oldPlan.ID, testutil.WithUsage(50, 8))
	request := testutil.TestRequest(t, db, user.ID, newPlan.ID)

	resolved, err := service.Reject(request.ID, "预算原因")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, resolved.Status)
	assert.Equal(t, "预算原因", resolved.AdminNote)

	var reloaded model.UserSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, oldPlan.ID, reloaded.PlanID)
	assert.Equal(t, 50, reloaded.BrowseCountUsed)
	assert.Equal(t, 8, reloaded.ListingCountUsed)
}

func TestRequestService_Reject_NotFound(t *testing.T) {
	service, _, cleanup := setupRequestService(t, false)
	defer cleanup()

	_, err := service.Reject(99999, "")
	assert.Equal(t, ErrRequestNotFound, err)
}

func TestRequestService_ListMine(t *testing.T) {
	service, db, cleanup := setupRequestService(t, false)
	defer cleanup()

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestRequest(t, db, user.ID, plan.ID)
	testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestStatus(model.RequestStatusApproved))
	testutil.TestRequest(t, db, other.ID, plan.ID)

	requests, err := service.ListMine(user.ID)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}
