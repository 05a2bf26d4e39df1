package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func newTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "catalog.db")
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return NewRepository(db), db
}

func TestProfessionalTenantScope(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	p := &Professional{TenantID: 3, DisplayName: "Dr. Scope", IsActive: true}
	require.NoError(t, repo.CreateProfessional(ctx, p))

	tenant, err := repo.ProfessionalTenant(ctx, 0, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tenant)

	_, err = repo.ProfessionalTenant(ctx, 3, p.ID)
	assert.NoError(t, err)
	_, err = repo.ProfessionalTenant(ctx, 4, p.ID)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	require.NoError(t, db.Model(&Professional{}).Where("id = ?", p.ID).Update("is_active", false).Error)
	_, err = repo.GetProfessional(ctx, 3, p.ID)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)
}

func TestServiceDurationBounds(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	s := &Service{TenantID: 1, Name: "Check-up", DurationMinutes: 45, IsActive: true}
	require.NoError(t, repo.CreateService(ctx, s))

	d, err := repo.ServiceDuration(ctx, 1, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, d)

	_, err = repo.ServiceDuration(ctx, 2, s.ID)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	for _, bad := range []int{0, 4, 481} {
		err := repo.CreateService(ctx, &Service{TenantID: 1, Name: "bad", DurationMinutes: bad, IsActive: true})
		assert.ErrorIs(t, err, ErrDurationOutOfRange, bad)
	}
	assert.NoError(t, ValidateDuration(MinServiceDuration))
	assert.NoError(t, ValidateDuration(MaxServiceDuration))
}
