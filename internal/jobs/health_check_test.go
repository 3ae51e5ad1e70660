package jobs

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orbis-maintenance/internal/cache"
	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/tenantdb"
)

const healthKeyPrefix = "orbis:health:"

func newHealthJob(dir *fakeDirectory, factory *stubFactory, masterDB *sql.DB, kv cache.KVStore, pub *fakePublisher) *HealthCheckJob {
	logger := zap.NewNop()
	subs := repository.NewSubscriptionRepository(masterDB, logger)
	return NewHealthCheckJob(dir, factory, subs, kv, healthKeyPrefix, 30*time.Minute, pub, logger)
}

func expectHealthQueries(tenantMock, masterMock sqlmock.Sqlmock, backlog int, subStatus string) {
	tenantMock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(backlog))
	masterMock.ExpectQuery(`FROM subscriptions`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(subStatus))
}

func TestPerformHealthCheck_Healthy(t *testing.T) {
	tenantDB, tenantMock := newMockDB(t)
	masterDB, masterMock := newMockDB(t)
	defer masterDB.Close()

	expectHealthQueries(tenantMock, masterMock, 3, domain.SubscriptionStatusActive)
	tenantMock.ExpectClose()

	tenant := activeTenant("a")
	dir := &fakeDirectory{tenants: []domain.Tenant{tenant}}
	factory := &stubFactory{queue: []*tenantdb.Context{
		tenantdb.NewContext(tenant.TenantID, tenant.TenantName, tenantDB),
	}}
	kv := cache.NewMemoryKVStore()
	pub := &fakePublisher{}

	report := newHealthJob(dir, factory, masterDB, kv, pub).PerformHealthCheck(context.Background(), tenant)

	assert.Equal(t, domain.HealthStatusHealthy, report.Status)
	assert.Equal(t, 100, report.Score)

	// 报告进缓存且已推送
	cached, err := kv.Get(context.Background(), healthKeyPrefix+tenant.TenantID)
	require.NoError(t, err)
	assert.NotEmpty(t, cached)
	require.Len(t, pub.reports, 1)
	assert.Equal(t, tenant.TenantID, pub.reports[0].TenantID)

	assert.NoError(t, tenantMock.ExpectationsWereMet())
	assert.NoError(t, masterMock.ExpectationsWereMet())
}

func TestPerformHealthCheck_DegradedByBacklogAndSuspension(t *testing.T) {
	// 积压 -10，订阅停用 -30：60 分落入 degraded 档
	tenantDB, tenantMock := newMockDB(t)
	masterDB, masterMock := newMockDB(t)
	defer masterDB.Close()

	expectHealthQueries(tenantMock, masterMock, 150, domain.SubscriptionStatusSuspended)
	tenantMock.ExpectClose()

	tenant := activeTenant("a")
	dir := &fakeDirectory{tenants: []domain.Tenant{tenant}}
	factory := &stubFactory{queue: []*tenantdb.Context{
		tenantdb.NewContext(tenant.TenantID, tenant.TenantName, tenantDB),
	}}

	report := newHealthJob(dir, factory, masterDB, cache.NewMemoryKVStore(), &fakePublisher{}).
		PerformHealthCheck(context.Background(), tenant)

	assert.Equal(t, domain.HealthStatusDegraded, report.Status)
	assert.Equal(t, 60, report.Score)

	assert.NoError(t, tenantMock.ExpectationsWereMet())
	assert.NoError(t, masterMock.ExpectationsWereMet())
}

func TestPerformHealthCheck_StoreUnreachable(t *testing.T) {
	masterDB, _ := newMockDB(t)
	defer masterDB.Close()

	tenant := activeTenant("a")
	dir := &fakeDirectory{tenants: []domain.Tenant{tenant}}
	factory := &stubFactory{errs: map[string]error{"a": assert.AnError}}
	pub := &fakePublisher{}

	report := newHealthJob(dir, factory, masterDB, cache.NewMemoryKVStore(), pub).
		PerformHealthCheck(context.Background(), tenant)

	assert.Equal(t, domain.HealthStatusUnhealthy, report.Status)
	assert.Equal(t, 0, report.Score)
	// 不可达同样要推送，监控端据此告警
	require.Len(t, pub.reports, 1)
}

func TestPerformHealthCheck_NotProvisioned(t *testing.T) {
	masterDB, _ := newMockDB(t)
	defer masterDB.Close()

	tenant := activeTenant("a")
	tenant.DatabaseName = ""
	dir := &fakeDirectory{tenants: []domain.Tenant{tenant}}
	factory := &stubFactory{missing: map[string]bool{"a": true}}
	pub := &fakePublisher{}

	report := newHealthJob(dir, factory, masterDB, cache.NewMemoryKVStore(), pub).
		PerformHealthCheck(context.Background(), tenant)

	assert.Equal(t, domain.HealthStatusNotProvisioned, report.Status)
	assert.Empty(t, pub.reports)
}

func TestHealthCheck_SweepCounts(t *testing.T) {
	tenantDB, tenantMock := newMockDB(t)
	masterDB, masterMock := newMockDB(t)
	defer masterDB.Close()

	expectHealthQueries(tenantMock, masterMock, 3, domain.SubscriptionStatusActive)
	tenantMock.ExpectClose()

	provisioned := activeTenant("a")
	unprovisioned := activeTenant("b")
	unprovisioned.DatabaseName = ""

	dir := &fakeDirectory{tenants: []domain.Tenant{provisioned, unprovisioned}}
	factory := &stubFactory{
		queue:   []*tenantdb.Context{tenantdb.NewContext(provisioned.TenantID, provisioned.TenantName, tenantDB)},
		missing: map[string]bool{"b": true},
	}

	result, err := newHealthJob(dir, factory, masterDB, cache.NewMemoryKVStore(), &fakePublisher{}).
		Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.TenantsProcessed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	assert.NoError(t, tenantMock.ExpectationsWereMet())
	assert.NoError(t, masterMock.ExpectationsWereMet())
}

func TestPerformHealthCheckByID(t *testing.T) {
	tenantDB, tenantMock := newMockDB(t)
	masterDB, masterMock := newMockDB(t)
	defer masterDB.Close()

	expectHealthQueries(tenantMock, masterMock, 3, domain.SubscriptionStatusActive)
	tenantMock.ExpectClose()

	tenant := activeTenant("a")
	dir := &fakeDirectory{tenants: []domain.Tenant{tenant}}
	factory := &stubFactory{queue: []*tenantdb.Context{
		tenantdb.NewContext(tenant.TenantID, tenant.TenantName, tenantDB),
	}}

	job := newHealthJob(dir, factory, masterDB, cache.NewMemoryKVStore(), &fakePublisher{})

	report, err := job.PerformHealthCheckByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatusHealthy, report.Status)

	_, err = job.PerformHealthCheckByID(context.Background(), "missing")
	assert.Error(t, err)
}
