package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/vip"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDesignationRepository implements DesignationRepository using GORM
type GormDesignationRepository struct {
	db *gorm.DB
}

// NewGormDesignationRepository creates a new GormDesignationRepository
func NewGormDesignationRepository(db *gorm.DB) *GormDesignationRepository {
	return &GormDesignationRepository{db: db}
}

// Upsert inserts the designation or overwrites the existing row for the same
// patient and year. The conflict target is the (patient_id, year) unique index.
func (r *GormDesignationRepository) Upsert(ctx context.Context, d *vip.Designation) error {
	d.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "patient_id"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"grade", "reason", "score", "created_by", "updated_at",
			}),
		}).
		Create(d).Error
}

// FindByPatientAndYear finds the designation for one patient and year
func (r *GormDesignationRepository) FindByPatientAndYear(ctx context.Context, patientID uuid.UUID, year int) (*vip.Designation, error) {
	var d vip.Designation
	if err := r.db.WithContext(ctx).
		Where("patient_id = ? AND year = ?", patientID, year).
		First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByYear finds all designations for a year, highest score first
func (r *GormDesignationRepository) FindByYear(ctx context.Context, year int) ([]vip.Designation, error) {
	var designations []vip.Designation
	if err := r.db.WithContext(ctx).
		Where("year = ?", year).
		Order("score DESC, created_at ASC").
		Find(&designations).Error; err != nil {
		return nil, err
	}
	return designations, nil
}

// FindByPatient finds every designation a patient has held, newest year first
func (r *GormDesignationRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]vip.Designation, error) {
	var designations []vip.Designation
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("year DESC").
		Find(&designations).Error; err != nil {
		return nil, err
	}
	return designations, nil
}

// FindByPatients finds all designations for a set of patients
func (r *GormDesignationRepository) FindByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]vip.Designation, error) {
	if len(patientIDs) == 0 {
		return []vip.Designation{}, nil
	}
	var designations []vip.Designation
	if err := r.db.WithContext(ctx).
		Where("patient_id IN ?", patientIDs).
		Order("year DESC").
		Find(&designations).Error; err != nil {
		return nil, err
	}
	return designations, nil
}

// FindPatientIDsByYear returns the patients already designated for a year
func (r *GormDesignationRepository) FindPatientIDsByYear(ctx context.Context, year int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&vip.Designation{}).
		Where("year = ?", year).
		Pluck("patient_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByPatientAndYear counts designation rows for one patient and year
func (r *GormDesignationRepository) CountByPatientAndYear(ctx context.Context, patientID uuid.UUID, year int) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&vip.Designation{}).
		Where("patient_id = ? AND year = ?", patientID, year).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the designation for one patient and year
func (r *GormDesignationRepository) Delete(ctx context.Context, patientID uuid.UUID, year int) error {
	result := r.db.WithContext(ctx).
		Delete(&vip.Designation{}, "patient_id = ? AND year = ?", patientID, year)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDesignationRepository implements DesignationRepository
var _ vip.DesignationRepository = (*GormDesignationRepository)(nil)
