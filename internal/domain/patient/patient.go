package patient

import (
	"regexp"
	"strings"
	"time"

	"github.com/clinic/backend/internal/domain/shared"
)

// PatientStatus represents the status of a patient record
type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

// Patient represents a patient in the clinic registry.
// It is the aggregate root for patient-related operations.
//
// VIPGrade is a denormalized badge mirroring the patient's designation for the
// current calendar year only. It is a cache, not a source of truth: past-year
// status is always read from the designation history. The registry service is
// the only writer of this field.
type Patient struct {
	shared.BaseAggregateRoot
	Code          string        `gorm:"type:varchar(50);not null;uniqueIndex"` // External id shared with the ledger store
	ChartNo       string        `gorm:"type:varchar(50);not null;uniqueIndex"` // Human-readable chart number
	Name          string        `gorm:"type:varchar(200);not null"`
	Phone         string        `gorm:"type:varchar(50);index"`
	Status        PatientStatus `gorm:"type:varchar(20);not null;default:'active'"`
	HouseholdCode string        `gorm:"type:varchar(50);index"` // Shared by members of one household; empty for none
	ReferralNote  string        `gorm:"type:text"`              // Free-text annotation, may embed a referrer token
	FirstVisitAt  *time.Time    `gorm:"type:date"`
	VIPGrade      string        `gorm:"column:vip_grade;type:varchar(20)"` // Current-year designation badge; empty when none
	Notes         string        `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Patient) TableName() string {
	return "patients"
}

// NewPatient creates a new patient with required fields
func NewPatient(code, chartNo, name string) (*Patient, error) {
	if err := validatePatientCode(code); err != nil {
		return nil, err
	}
	if err := validateChartNo(chartNo); err != nil {
		return nil, err
	}
	if err := validatePatientName(name); err != nil {
		return nil, err
	}

	return &Patient{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		ChartNo:           chartNo,
		Name:              name,
		Status:            PatientStatusActive,
	}, nil
}

// Update updates the patient's basic information
func (p *Patient) Update(name, phone string) error {
	if err := validatePatientName(name); err != nil {
		return err
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}

	p.Name = name
	p.Phone = phone
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetHousehold assigns the patient to a household group
func (p *Patient) SetHousehold(householdCode string) error {
	if householdCode != "" && len(householdCode) > 50 {
		return shared.NewDomainError("INVALID_HOUSEHOLD", "Household code cannot exceed 50 characters")
	}

	p.HouseholdCode = householdCode
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetReferralNote sets the free-text referral annotation
func (p *Patient) SetReferralNote(note string) {
	p.ReferralNote = note
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetFirstVisit records the date of the first relationship with the clinic
func (p *Patient) SetFirstVisit(at time.Time) {
	p.FirstVisitAt = &at
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetVIPBadge sets the denormalized current-year designation badge
func (p *Patient) SetVIPBadge(grade string) {
	p.VIPGrade = grade
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// ClearVIPBadge clears the denormalized current-year designation badge
func (p *Patient) ClearVIPBadge() {
	p.VIPGrade = ""
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// HasVIPBadge returns true if the patient holds a current-year designation
func (p *Patient) HasVIPBadge() bool {
	return p.VIPGrade != ""
}

// FirstVisitYear returns the year of the first visit, or 0 when unknown
func (p *Patient) FirstVisitYear() int {
	if p.FirstVisitAt == nil {
		return 0
	}
	return p.FirstVisitAt.Year()
}

// IsActive returns true if the patient record is active
func (p *Patient) IsActive() bool {
	return p.Status == PatientStatusActive
}

// Validation functions

func validatePatientCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Patient code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Patient code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Patient code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateChartNo(chartNo string) error {
	if chartNo == "" {
		return shared.NewDomainError("INVALID_CHART_NO", "Chart number cannot be empty")
	}
	if len(chartNo) > 50 {
		return shared.NewDomainError("INVALID_CHART_NO", "Chart number cannot exceed 50 characters")
	}
	return nil
}

func validatePatientName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Patient name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Patient name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}
