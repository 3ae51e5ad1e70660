package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/tenantdb"
)

// fakeDirectory 固定租户列表的目录
type fakeDirectory struct {
	tenants []domain.Tenant
	err     error
}

func (d *fakeDirectory) ListActiveTenants(ctx context.Context) ([]domain.Tenant, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.tenants, nil
}

func (d *fakeDirectory) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	for _, t := range d.tenants {
		if t.TenantID == tenantID {
			tenant := t
			return &tenant, nil
		}
	}
	return nil, fmt.Errorf("tenant not found: %s", tenantID)
}

// stubFactory 每次 OpenContext 按顺序弹出一个预建上下文
type stubFactory struct {
	queue   []*tenantdb.Context
	missing map[string]bool
	errs    map[string]error
}

func (f *stubFactory) OpenContext(tenant domain.Tenant) (*tenantdb.Context, error) {
	if f.errs[tenant.TenantID] != nil {
		return nil, f.errs[tenant.TenantID]
	}
	if f.missing[tenant.TenantID] {
		return nil, nil
	}
	if len(f.queue) == 0 {
		return nil, fmt.Errorf("stubFactory: no context queued for %s", tenant.TenantID)
	}
	tc := f.queue[0]
	f.queue = f.queue[1:]
	return tc, nil
}

// fakeArchiver records acknowledged batches; err simulates a cold store
// that never acknowledges.
type fakeArchiver struct {
	stores  []string
	batches [][]domain.AuditLogEntry
	err     error
}

func (a *fakeArchiver) ArchiveBatch(ctx context.Context, store string, entries []domain.AuditLogEntry) error {
	if a.err != nil {
		return a.err
	}
	a.stores = append(a.stores, store)
	a.batches = append(a.batches, entries)
	return nil
}

// fakeNotifier records sent emails
type fakeNotifier struct {
	expiring     []string
	expiringDays []int
	expired      []string
	err          error
}

func (n *fakeNotifier) SendTrialExpiringEmail(ctx context.Context, address, tenantName string, daysRemaining int) error {
	if n.err != nil {
		return n.err
	}
	n.expiring = append(n.expiring, address)
	n.expiringDays = append(n.expiringDays, daysRemaining)
	return nil
}

func (n *fakeNotifier) SendTrialExpiredEmail(ctx context.Context, address, tenantName string) error {
	if n.err != nil {
		return n.err
	}
	n.expired = append(n.expired, address)
	return nil
}

// fakeArtifactStore records deleted keys; failKeys simulate storage errors
type fakeArtifactStore struct {
	deleted  []string
	failKeys map[string]bool
}

func (s *fakeArtifactStore) DeleteArtifact(ctx context.Context, storageKey string) error {
	if s.failKeys[storageKey] {
		return fmt.Errorf("storage unavailable")
	}
	s.deleted = append(s.deleted, storageKey)
	return nil
}

// fakePublisher records pushed health reports
type fakePublisher struct {
	reports []domain.HealthReport
}

func (p *fakePublisher) PublishHealth(report domain.HealthReport) error {
	p.reports = append(p.reports, report)
	return nil
}

func (p *fakePublisher) Close() {}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func activeTenant(id string) domain.Tenant {
	return domain.Tenant{
		TenantID:     id,
		TenantName:   "Tenant " + id,
		DatabaseName: "tenant_" + id,
		Status:       domain.TenantStatusActive,
	}
}
