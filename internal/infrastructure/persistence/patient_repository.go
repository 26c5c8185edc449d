package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/clinic/backend/internal/domain/patient"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPatientRepository implements PatientRepository using GORM
type GormPatientRepository struct {
	db *gorm.DB
}

// NewGormPatientRepository creates a new GormPatientRepository
func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

// FindByID finds a patient by its ID
func (r *GormPatientRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDs finds multiple patients by their IDs
func (r *GormPatientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]patient.Patient, error) {
	if len(ids) == 0 {
		return []patient.Patient{}, nil
	}
	var patients []patient.Patient
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

// FindByCode finds a patient by its external ledger code
func (r *GormPatientRepository) FindByCode(ctx context.Context, code string) (*patient.Patient, error) {
	var p patient.Patient
	if err := r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(code)).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindAll finds all patients matching the filter
func (r *GormPatientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]patient.Patient, error) {
	var patients []patient.Patient
	query := r.applyFilter(r.db.WithContext(ctx).Model(&patient.Patient{}), filter)

	if err := query.Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

// Save creates or updates a patient
func (r *GormPatientRepository) Save(ctx context.Context, p *patient.Patient) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete deletes a patient
func (r *GormPatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&patient.Patient{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts patients matching the filter
func (r *GormPatientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&patient.Patient{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateVIPBadge sets the denormalized badge column directly. An empty grade
// clears the badge.
func (r *GormPatientRepository) UpdateVIPBadge(ctx context.Context, id uuid.UUID, grade string) error {
	result := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ?", id).
		Update("vip_grade", grade)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormPatientRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	filter = filter.Normalized()
	query = query.Offset(filter.Offset()).Limit(filter.PageSize)

	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, PatientSortFields, "name")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("name ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPatientRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ? OR chart_no LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "household_code":
			query = query.Where("household_code = ?", value)
		case "vip_grade":
			query = query.Where("vip_grade = ?", value)
		}
	}

	return query
}

// Ensure GormPatientRepository implements PatientRepository
var _ patient.PatientRepository = (*GormPatientRepository)(nil)
