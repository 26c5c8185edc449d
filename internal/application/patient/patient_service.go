package patient

import (
	"context"
	"time"

	"github.com/clinic/backend/internal/domain/patient"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PatientService exposes the patient roster to the front desk
type PatientService struct {
	patients patient.PatientRepository
	logger   *zap.Logger
}

// NewPatientService creates a new PatientService
func NewPatientService(patients patient.PatientRepository, logger *zap.Logger) *PatientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientService{patients: patients, logger: logger}
}

// PatientResponse represents a patient in API responses
type PatientResponse struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	ChartNo       string     `json:"chart_no"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone,omitempty"`
	Status        string     `json:"status"`
	HouseholdCode string     `json:"household_code,omitempty"`
	FirstVisitAt  *time.Time `json:"first_visit_at,omitempty"`
	VIPGrade      string     `json:"vip_grade,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToPatientResponse converts a domain patient to its response shape
func ToPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:            p.ID,
		Code:          p.Code,
		ChartNo:       p.ChartNo,
		Name:          p.Name,
		Phone:         p.Phone,
		Status:        string(p.Status),
		HouseholdCode: p.HouseholdCode,
		FirstVisitAt:  p.FirstVisitAt,
		VIPGrade:      p.VIPGrade,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Get returns one patient by ID
func (s *PatientService) Get(ctx context.Context, id uuid.UUID) (*PatientResponse, error) {
	p, err := s.patients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPatientResponse(p)
	return &resp, nil
}

// List returns patients matching the filter plus the unpaginated total
func (s *PatientService) List(ctx context.Context, filter shared.Filter) ([]PatientResponse, int64, error) {
	patients, err := s.patients.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.patients.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PatientResponse, len(patients))
	for i := range patients {
		responses[i] = ToPatientResponse(&patients[i])
	}
	return responses, total, nil
}
