package tenantdb

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orbis-maintenance/internal/config"
	"orbis-maintenance/internal/domain"
)

func TestOpenContext_NotProvisioned(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "localhost", Port: 5432}
	factory := NewPostgresFactory(cfg, zap.NewNop())

	// database_name 为空 == 模块未开通，返回 (nil, nil)
	tc, err := factory.OpenContext(domain.Tenant{
		TenantID:   "tenant-1",
		TenantName: "Acme Ltd",
		Status:     domain.TenantStatusActive,
	})
	require.NoError(t, err)
	assert.Nil(t, tc)
}

func TestContext_Accessors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	tc := NewContext("tenant-1", "Acme Ltd", db)
	assert.Equal(t, "tenant-1", tc.TenantID())
	assert.Equal(t, "Acme Ltd", tc.TenantName())
	assert.Same(t, db, tc.DB())

	require.NoError(t, tc.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContext_CloseNilDB(t *testing.T) {
	tc := NewContext("tenant-1", "Acme Ltd", nil)
	assert.NoError(t, tc.Close())
}
