package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProfessional returns an active professional. tenantID 0 skips the tenant filter.
func (r *Repository) GetProfessional(ctx context.Context, tenantID, id int64) (*Professional, error) {
	q := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true)
	if tenantID != 0 {
		q = q.Where("tenant_id = ?", tenantID)
	}

	var p Professional
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfessionalNotFound
		}
		return nil, fmt.Errorf("get professional %d: %w", id, err)
	}
	return &p, nil
}

// GetService returns an active service of the tenant. tenantID 0 skips the tenant filter.
func (r *Repository) GetService(ctx context.Context, tenantID, id int64) (*Service, error) {
	q := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true)
	if tenantID != 0 {
		q = q.Where("tenant_id = ?", tenantID)
	}

	var s Service
	if err := q.First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return &s, nil
}

// ServiceDuration resolves the slot length of a service and enforces its bound.
func (r *Repository) ServiceDuration(ctx context.Context, tenantID, id int64) (int, error) {
	s, err := r.GetService(ctx, tenantID, id)
	if err != nil {
		return 0, err
	}
	if err := ValidateDuration(s.DurationMinutes); err != nil {
		return 0, err
	}
	return s.DurationMinutes, nil
}

func (r *Repository) CreateProfessional(ctx context.Context, p *Professional) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) CreateService(ctx context.Context, s *Service) error {
	if err := ValidateDuration(s.DurationMinutes); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(s).Error
}

// ProfessionalTenant resolves the owning tenant of an active professional.
func (r *Repository) ProfessionalTenant(ctx context.Context, tenantID, id int64) (int64, error) {
	p, err := r.GetProfessional(ctx, tenantID, id)
	if err != nil {
		return 0, err
	}
	return p.TenantID, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Professional{}, &Service{}); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}
