package vip

import (
	"time"

	"github.com/clinic/backend/internal/domain/vip"
	"github.com/google/uuid"
)

// =============================================================================
// Candidate generation DTOs
// =============================================================================

// GenerateCandidatesRequest selects the criteria for one generation run
type GenerateCandidatesRequest struct {
	Year             int      `json:"year" binding:"required,min=1990,max=2200"`
	MaxCount         int      `json:"max_count" binding:"omitempty,min=1,max=500"`
	RevenueCriteria  []string `json:"revenue_criteria"`
	IncludeVisits    bool     `json:"include_visits"`
	IncludeLoyalty   bool     `json:"include_loyalty"`
	IncludeHousehold bool     `json:"include_household"`
	IncludeReferrals bool     `json:"include_referrals"`
	MinScore         float64  `json:"min_score" binding:"gte=0"`
}

// =============================================================================
// Designation DTOs
// =============================================================================

// AddDesignationRequest creates or overwrites a designation
type AddDesignationRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	Year      int       `json:"year"`
	Grade     string    `json:"grade"`
	Reason    string    `json:"reason"`
	Score     float64   `json:"score"`
	Actor     string    `json:"actor"`
}

// DesignationResponse represents a designation in API responses
type DesignationResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Year      int       `json:"year"`
	Grade     string    `json:"grade"`
	Reason    string    `json:"reason"`
	Score     float64   `json:"score"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DesignationListItem is a year listing row joined with patient display
// fields and the patient's full multi-year designation history
type DesignationListItem struct {
	DesignationResponse
	PatientName string                `json:"patient_name"`
	ChartNo     string                `json:"chart_no"`
	Code        string                `json:"code"`
	History     []DesignationResponse `json:"history"`
}

// ToDesignationResponse converts a domain designation to its response shape
func ToDesignationResponse(d *vip.Designation) DesignationResponse {
	return DesignationResponse{
		ID:        d.ID,
		PatientID: d.PatientID,
		Year:      d.Year,
		Grade:     string(d.Grade),
		Reason:    d.Reason,
		Score:     d.Score,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// =============================================================================
// Batch commit DTOs
// =============================================================================

// CommitCandidate is one approved candidate submitted for batch commit
type CommitCandidate struct {
	PatientID uuid.UUID `json:"patient_id"`
	Grade     string    `json:"grade"`
	Reason    string    `json:"reason"`
	Score     float64   `json:"score"`
}

// BatchCommitItemResult reports the outcome for one committed candidate
type BatchCommitItemResult struct {
	PatientID uuid.UUID `json:"patient_id"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// BatchCommitResult is the best-effort batch outcome: the success count plus
// a per-item breakdown so callers can retry only the failed subset
type BatchCommitResult struct {
	SuccessCount int                     `json:"success_count"`
	Items        []BatchCommitItemResult `json:"items"`
}
