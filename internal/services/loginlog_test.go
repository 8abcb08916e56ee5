package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductionnl/commonground-gateway/internal/metrics"
	"github.com/conductionnl/commonground-gateway/internal/models"
	"github.com/conductionnl/commonground-gateway/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func TestLoginLogService_LogAndShutdownFlush(t *testing.T) {
	s := newTestStore(t)
	svc := NewLoginLogService(s, metrics.NewNoopMetrics(), true, 10)

	svc.Log(LoginLogEntry{Address: "10.0.0.1", Method: models.LoginMethodIdin, Status: "200"})
	svc.Log(LoginLogEntry{Address: "10.0.0.2", Method: models.LoginMethodRegister, Status: "201"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	logs, pagination, err := svc.GetLoginLogs(store.NewPaginationParams(1, 10), store.LoginLogFilters{})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, int64(2), pagination.Total)
}

func TestLoginLogService_DisabledIsNoop(t *testing.T) {
	s := newTestStore(t)
	svc := NewLoginLogService(s, metrics.NewNoopMetrics(), false, 10)

	svc.Log(LoginLogEntry{Address: "10.0.0.1", Method: models.LoginMethodIdin, Status: "200"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	logs, _, err := svc.GetLoginLogs(store.NewPaginationParams(1, 10), store.LoginLogFilters{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestLoginLogService_FilterByMethod(t *testing.T) {
	s := newTestStore(t)
	svc := NewLoginLogService(s, metrics.NewNoopMetrics(), true, 10)

	svc.Log(LoginLogEntry{Address: "10.0.0.1", Method: models.LoginMethodIdin, Status: "200"})
	svc.Log(LoginLogEntry{Address: "10.0.0.1", Method: models.LoginMethodIdin, Status: "401"})
	svc.Log(LoginLogEntry{Address: "10.0.0.2", Method: models.LoginMethodRegister, Status: "201"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	logs, _, err := svc.GetLoginLogs(store.NewPaginationParams(1, 10), store.LoginLogFilters{
		Method: models.LoginMethodIdin,
	})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	for _, entry := range logs {
		assert.Equal(t, models.LoginMethodIdin, entry.Method)
	}
}

func TestLoginLogService_CleanupOldLogs(t *testing.T) {
	s := newTestStore(t)

	// Seed rows directly so we control their timestamps.
	old := &models.LoginLog{
		ID:        "old-1",
		Address:   "10.0.0.1",
		Method:    models.LoginMethodIdin,
		Status:    "200",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &models.LoginLog{
		ID:        "recent-1",
		Address:   "10.0.0.2",
		Method:    models.LoginMethodIdin,
		Status:    "200",
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateLoginLogBatch([]*models.LoginLog{old, recent}))

	svc := NewLoginLogService(s, metrics.NewNoopMetrics(), true, 10)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	}()

	deleted, err := svc.CleanupOldLogs(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := s.CountLoginLogs()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
