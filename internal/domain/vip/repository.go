package vip

import (
	"context"

	"github.com/google/uuid"
)

// DesignationRepository defines the persistence operations for designations
type DesignationRepository interface {
	// Upsert inserts the designation or, on a (patient_id, year) conflict,
	// overwrites grade, reason, score and created_by.
	Upsert(ctx context.Context, d *Designation) error

	FindByPatientAndYear(ctx context.Context, patientID uuid.UUID, year int) (*Designation, error)
	FindByYear(ctx context.Context, year int) ([]Designation, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]Designation, error)
	FindByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]Designation, error)

	// FindPatientIDsByYear returns the patients already designated for a year;
	// the candidate engine uses this as its exclusion set.
	FindPatientIDsByYear(ctx context.Context, year int) ([]uuid.UUID, error)

	// CountByPatientAndYear supports the defensive re-check before the
	// denormalized badge is cleared.
	CountByPatientAndYear(ctx context.Context, patientID uuid.UUID, year int) (int64, error)

	Delete(ctx context.Context, patientID uuid.UUID, year int) error
}
