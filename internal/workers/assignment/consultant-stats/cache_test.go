// internal/workers/assignment/consultant-stats/cache_test.go
package consultantstats

import (
	"context"
	"errors"
	"testing"

	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCacheInvalidator_LedgerWriteRefreshesStats(t *testing.T) {
	mr, rdb := setupRedis(t)
	stats := &mockStats{}
	before := testStats()
	after := testStats()
	after.ActiveAssignments = 2
	after.CurrentActiveApplications = 2
	after.LoadPercentage = 40
	stats.On("GetConsultantStats", mock.Anything, "cons-002").Return(before, nil).Once()
	stats.On("GetConsultantStats", mock.Anything, "cons-002").Return(after, nil).Once()

	log := logger.NewTestLogger(t)
	h := NewHandler(LoadConfig(), stats, rdb, log)
	inv := NewCacheInvalidator(rdb, log)

	out, err := h.Execute(context.Background(), &Input{ConsultantID: "cons-002"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, out.Stats.LoadPercentage)
	assert.True(t, mr.Exists("consultant:stats:cons-002"))

	inv.OnLedgerChange(context.Background(), models.AssignmentRecord{ID: "rec-9", ConsultantID: "cons-002"})
	assert.False(t, mr.Exists("consultant:stats:cons-002"))

	out, err = h.Execute(context.Background(), &Input{ConsultantID: "cons-002"})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 40.0, out.Stats.LoadPercentage)
	stats.AssertExpectations(t)
}

func TestCacheInvalidator_OtherConsultantsUntouched(t *testing.T) {
	mr, rdb := setupRedis(t)
	require.NoError(t, mr.Set("consultant:stats:cons-001", "{}"))

	NewCacheInvalidator(rdb, logger.NewTestLogger(t)).
		OnLedgerChange(context.Background(), models.AssignmentRecord{ConsultantID: "cons-002"})
	assert.True(t, mr.Exists("consultant:stats:cons-001"))
}

func TestCacheInvalidator_RedisErrorIsSwallowed(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	rmock.ExpectDel("consultant:stats:cons-002").SetErr(errors.New("connection refused"))

	inv := NewCacheInvalidator(rdb, logger.NewTestLogger(t))
	assert.NotPanics(t, func() {
		inv.OnLedgerChange(context.Background(), models.AssignmentRecord{ConsultantID: "cons-002"})
	})
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestCacheInvalidator_NoRedis(t *testing.T) {
	inv := NewCacheInvalidator(nil, logger.NewTestLogger(t))
	assert.NotPanics(t, func() {
		inv.OnLedgerChange(context.Background(), models.AssignmentRecord{ConsultantID: "cons-002"})
	})
}
