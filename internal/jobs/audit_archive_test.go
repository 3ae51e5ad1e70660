package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/runner"
	"orbis-maintenance/internal/tenantdb"
)

func auditRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"entry_id", "action", "actor_id", "category", "payload", "created_at"})
	for i, id := range ids {
		rows.AddRow(id, "user.login", "actor-1", "auth", []byte(`{}`),
			time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC))
	}
	return rows
}

func TestAuditArchive_ExportAckDelete(t *testing.T) {
	masterDB, mock := newMockDB(t)
	defer masterDB.Close()

	mock.ExpectQuery(`FROM audit_logs`).
		WillReturnRows(auditRows("11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222"))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	archiver := &fakeArchiver{}
	logger := zap.NewNop()
	dir := &fakeDirectory{} // 无租户，只走 master 库
	job := NewAuditLogArchiveJob(masterDB, dir, runner.NewRunner(&stubFactory{}, logger), archiver, 5000, 6, logger)

	result, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, result.ItemsProcessed)

	require.Len(t, archiver.batches, 1)
	assert.Equal(t, []string{masterStore}, archiver.stores)
	assert.Len(t, archiver.batches[0], 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditArchive_UnacknowledgedBatchIsNeverDeleted(t *testing.T) {
	// 冷存储不确认时热存储必须原样保留：mock 上没有任何 DELETE 期望
	masterDB, mock := newMockDB(t)
	defer masterDB.Close()

	mock.ExpectQuery(`FROM audit_logs`).
		WillReturnRows(auditRows("11111111-1111-1111-1111-111111111111"))

	archiver := &fakeArchiver{err: fmt.Errorf("cold store rejected batch")}
	logger := zap.NewNop()
	dir := &fakeDirectory{}
	job := NewAuditLogArchiveJob(masterDB, dir, runner.NewRunner(&stubFactory{}, logger), archiver, 5000, 6, logger)

	result, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.ItemsProcessed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditArchive_SweepsTenantStores(t *testing.T) {
	masterDB, masterMock := newMockDB(t)
	defer masterDB.Close()
	masterMock.ExpectQuery(`FROM audit_logs`).
		WillReturnRows(auditRows())

	tenantDB, tenantMock := newMockDB(t)
	tenantMock.ExpectQuery(`FROM audit_logs`).
		WillReturnRows(auditRows("33333333-3333-3333-3333-333333333333"))
	tenantMock.ExpectBegin()
	tenantMock.ExpectExec(`DELETE FROM audit_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	tenantMock.ExpectCommit()
	tenantMock.ExpectClose()

	tenant := activeTenant("a")
	dir := &fakeDirectory{tenants: []domain.Tenant{tenant}}
	factory := &stubFactory{queue: []*tenantdb.Context{
		tenantdb.NewContext(tenant.TenantID, tenant.TenantName, tenantDB),
	}}

	archiver := &fakeArchiver{}
	logger := zap.NewNop()
	job := NewAuditLogArchiveJob(masterDB, dir, runner.NewRunner(factory, logger), archiver, 5000, 6, logger)

	result, err := job.Execute(context.Background())
	require.NoError(t, err)
	// master（空批）+ 租户各记一次成功
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.ItemsProcessed)
	// master 库空批不触发归档调用
	assert.Equal(t, []string{tenant.TenantID}, archiver.stores)

	assert.NoError(t, masterMock.ExpectationsWereMet())
	assert.NoError(t, tenantMock.ExpectationsWereMet())
}
