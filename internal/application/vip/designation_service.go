package vip

import (
	"context"
	"time"

	"github.com/clinic/backend/internal/domain/patient"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/vip"
	"github.com/clinic/backend/internal/infrastructure/logger"
	"github.com/clinic/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DesignationService manages the designation registry and keeps the
// denormalized badge column on patients in sync for the current year.
type DesignationService struct {
	designations vip.DesignationRepository
	patients     patient.PatientRepository
	logger       *zap.Logger

	now func() time.Time
}

// NewDesignationService creates a new DesignationService
func NewDesignationService(designations vip.DesignationRepository, patients patient.PatientRepository, logger *zap.Logger) *DesignationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesignationService{
		designations: designations,
		patients:     patients,
		logger:       logger,
		now:          time.Now,
	}
}

// log returns the service logger correlated with the request trace.
func (s *DesignationService) log(ctx context.Context) *zap.Logger {
	return logger.WithTraceContext(ctx, s.logger)
}

// Add creates a designation, or overwrites the existing one for the same
// patient and year. The badge on the patient record is updated only when the
// designation is for the current year.
func (s *DesignationService) Add(ctx context.Context, req AddDesignationRequest) (*DesignationResponse, error) {
	d, err := vip.NewDesignation(req.PatientID, req.Year, vip.Grade(req.Grade), req.Reason, req.Score, req.Actor)
	if err != nil {
		return nil, err
	}

	if _, err := s.patients.FindByID(ctx, req.PatientID); err != nil {
		return nil, err
	}

	if err := s.designations.Upsert(ctx, d); err != nil {
		return nil, err
	}
	s.syncBadge(ctx, req.PatientID, req.Year, string(d.Grade))

	resp := ToDesignationResponse(d)
	return &resp, nil
}

// SetGrade toggles an existing designation between standard and premium
func (s *DesignationService) SetGrade(ctx context.Context, patientID uuid.UUID, year int, grade string) (*DesignationResponse, error) {
	d, err := s.designations.FindByPatientAndYear(ctx, patientID, year)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, shared.ErrNotFound
	}

	if err := d.ChangeGrade(vip.Grade(grade)); err != nil {
		return nil, err
	}
	if err := s.designations.Upsert(ctx, d); err != nil {
		return nil, err
	}
	s.syncBadge(ctx, patientID, year, string(d.Grade))

	resp := ToDesignationResponse(d)
	return &resp, nil
}

// Remove deletes a designation. For the current year the registry is
// re-checked before the badge is cleared, so a concurrent re-add never ends
// up badge-less.
func (s *DesignationService) Remove(ctx context.Context, patientID uuid.UUID, year int) error {
	if err := s.designations.Delete(ctx, patientID, year); err != nil {
		return err
	}

	if year != s.now().Year() {
		return nil
	}
	count, err := s.designations.CountByPatientAndYear(ctx, patientID, year)
	if err != nil {
		s.log(ctx).Warn("badge re-check failed after designation removal",
			zap.String("patient_id", patientID.String()), zap.Int("year", year), zap.Error(err))
		return nil
	}
	if count == 0 {
		s.syncBadge(ctx, patientID, year, "")
	}
	return nil
}

// BatchCommit commits approved candidates one by one. A failing item is
// recorded and skipped; the batch itself never aborts.
func (s *DesignationService) BatchCommit(ctx context.Context, year int, actor string, candidates []CommitCandidate) *BatchCommitResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "vip", "batch_commit",
		telemetry.WithAttribute(telemetry.SpanAttrYear, year),
		telemetry.WithAttribute(telemetry.SpanAttrBatchSize, len(candidates)),
	)
	defer span.End()

	result := &BatchCommitResult{
		Items: make([]BatchCommitItemResult, 0, len(candidates)),
	}
	for _, c := range candidates {
		item := BatchCommitItemResult{PatientID: c.PatientID, Success: true}
		_, err := s.Add(ctx, AddDesignationRequest{
			PatientID: c.PatientID,
			Year:      year,
			Grade:     c.Grade,
			Reason:    c.Reason,
			Score:     c.Score,
			Actor:     actor,
		})
		if err != nil {
			item.Success = false
			item.Error = err.Error()
			telemetry.AddEvent(span, "commit_item_failed",
				telemetry.SpanAttrPatientID, c.PatientID,
				telemetry.SpanAttrGrade, c.Grade,
			)
			s.log(ctx).Warn("batch commit item failed",
				zap.String("patient_id", c.PatientID.String()), zap.Int("year", year), zap.Error(err))
		} else {
			result.SuccessCount++
		}
		result.Items = append(result.Items, item)
	}
	telemetry.SetAttribute(span, "committed_count", result.SuccessCount)
	telemetry.SetOK(span)
	return result
}

// ListByYear returns all designations for a year joined with patient display
// fields and each patient's full multi-year history
func (s *DesignationService) ListByYear(ctx context.Context, year int) ([]DesignationListItem, error) {
	designations, err := s.designations.FindByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(designations) == 0 {
		return []DesignationListItem{}, nil
	}

	patientIDs := make([]uuid.UUID, 0, len(designations))
	for _, d := range designations {
		patientIDs = append(patientIDs, d.PatientID)
	}

	patientsByID := make(map[uuid.UUID]patient.Patient)
	if found, err := s.patients.FindByIDs(ctx, patientIDs); err != nil {
		s.log(ctx).Warn("patient lookup failed for designation listing", zap.Error(err))
	} else {
		for _, p := range found {
			patientsByID[p.ID] = p
		}
	}

	historyByPatient := make(map[uuid.UUID][]DesignationResponse)
	if history, err := s.designations.FindByPatients(ctx, patientIDs); err != nil {
		s.log(ctx).Warn("history lookup failed for designation listing", zap.Error(err))
	} else {
		for i := range history {
			h := ToDesignationResponse(&history[i])
			historyByPatient[history[i].PatientID] = append(historyByPatient[history[i].PatientID], h)
		}
	}

	items := make([]DesignationListItem, 0, len(designations))
	for i := range designations {
		d := &designations[i]
		item := DesignationListItem{
			DesignationResponse: ToDesignationResponse(d),
			History:             historyByPatient[d.PatientID],
		}
		if p, ok := patientsByID[d.PatientID]; ok {
			item.PatientName = p.Name
			item.ChartNo = p.ChartNo
			item.Code = p.Code
		}
		items = append(items, item)
	}
	return items, nil
}

// History returns every designation one patient has ever held
func (s *DesignationService) History(ctx context.Context, patientID uuid.UUID) ([]DesignationResponse, error) {
	designations, err := s.designations.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	responses := make([]DesignationResponse, 0, len(designations))
	for i := range designations {
		responses = append(responses, ToDesignationResponse(&designations[i]))
	}
	return responses, nil
}

// syncBadge updates the denormalized badge for current-year changes only.
// Badge writes are best-effort; the designation row is the source of truth.
func (s *DesignationService) syncBadge(ctx context.Context, patientID uuid.UUID, year int, grade string) {
	if year != s.now().Year() {
		return
	}
	if err := s.patients.UpdateVIPBadge(ctx, patientID, grade); err != nil {
		s.log(ctx).Warn("badge sync failed",
			zap.String("patient_id", patientID.String()), zap.String("grade", grade), zap.Error(err))
	}
}
