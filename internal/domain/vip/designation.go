package vip

import (
	"time"

	"github.com/clinic/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Grade is the tier classification of a designation
type Grade string

const (
	GradeStandard Grade = "standard"
	GradePremium  Grade = "premium"
)

// IsValid returns true for a known grade
func (g Grade) IsValid() bool {
	return g == GradeStandard || g == GradePremium
}

// Designation is the persisted yearly tier record for one patient.
// (patient_id, year) is unique; a repeated add for the same key has upsert
// semantics and overwrites grade, reason and score.
type Designation struct {
	shared.BaseEntity
	PatientID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vip_designations_patient_year,priority:1"`
	Year      int       `gorm:"not null;uniqueIndex:idx_vip_designations_patient_year,priority:2"`
	Grade     Grade     `gorm:"type:varchar(20);not null"`
	Reason    string    `gorm:"type:text"`
	Score     float64   `gorm:"not null;default:0"`
	CreatedBy string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Designation) TableName() string {
	return "vip_designations"
}

// NewDesignation creates a new designation for a patient and year
func NewDesignation(patientID uuid.UUID, year int, grade Grade, reason string, score float64, createdBy string) (*Designation, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if !grade.IsValid() {
		return nil, shared.NewDomainError("INVALID_GRADE", "Grade must be 'standard' or 'premium'")
	}
	if score < 0 {
		return nil, shared.NewDomainError("INVALID_SCORE", "Score cannot be negative")
	}

	return &Designation{
		BaseEntity: shared.NewBaseEntity(),
		PatientID:  patientID,
		Year:       year,
		Grade:      grade,
		Reason:     reason,
		Score:      score,
		CreatedBy:  createdBy,
	}, nil
}

// ChangeGrade toggles the designation between the two tiers
func (d *Designation) ChangeGrade(grade Grade) error {
	if !grade.IsValid() {
		return shared.NewDomainError("INVALID_GRADE", "Grade must be 'standard' or 'premium'")
	}
	if d.Grade == grade {
		return shared.NewDomainError("INVALID_STATE", "Designation already has this grade")
	}

	d.Grade = grade
	d.UpdatedAt = time.Now()

	return nil
}

// IsCurrentFor returns true when the designation is for the given year
func (d *Designation) IsCurrentFor(year int) bool {
	return d.Year == year
}

func validateYear(year int) error {
	if year < 1900 || year > 2200 {
		return shared.NewDomainError("INVALID_YEAR", "Year is out of range")
	}
	return nil
}
