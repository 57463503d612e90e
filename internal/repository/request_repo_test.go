package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/testutil"
)

func TestRequestRepository_Resolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRequestRepository(db)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	request := testutil.TestRequest(t, db, user.ID, plan.ID)

	now := time.Now()
	ok, err := repo.Resolve(request.ID, model.RequestStatusApproved, "同意", now)
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.GetByID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, found.Status)
	assert.Equal(t, "同意", found.AdminNote)
	require.NotNil(t, found.ResolvedAt)
}

func TestRequestRepository_Resolve_OnlyPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRequestRepository(db)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	request := testutil.TestRequest(t, db, user.ID, plan.ID)

	ok, err := repo.Resolve(request.ID, model.RequestStatusApproved, "", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	// 已处理的申请不能再次终结，终态保持不变
	ok, err = repo.Resolve(request.ID, model.RequestStatusRejected, "", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetByID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, found.Status)
}

func TestRequestRepository_Resolve_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRequestRepository(db)

	ok, err := repo.Resolve(99999, model.RequestStatusApproved, "", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestRepository_ExistsPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRequestRepository(db)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	other := testutil.TestPlan(t, db)

	testutil.TestRequest(t, db, user.ID, plan.ID)
	testutil.TestRequest(t, db, user.ID, other.ID,
		testutil.WithRequestStatus(model.RequestStatusApproved))

	exists, err := repo.ExistsPending(user.ID, plan.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// 已终结的申请不算在途
	exists, err = repo.ExistsPending(user.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRequestRepository_List_FilterByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRequestRepository(db)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestRequest(t, db, user.ID, plan.ID)
	testutil.TestRequest(t, db, user.ID, plan.ID,
		testutil.WithRequestStatus(model.RequestStatusRejected))

	pending, err := repo.List(model.RequestStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := repo.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
