package vip

import (
	"context"
	"errors"
	"testing"
	"time"

	domainpatient "github.com/clinic/backend/internal/domain/patient"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/vip"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedYear pins the service clock so "current year" checks are deterministic
const fixedYear = 2025

func newDesignationFixture() (*DesignationService, *MockDesignationRepository, *MockPatientRepository) {
	designations := &MockDesignationRepository{}
	patients := &MockPatientRepository{}
	svc := NewDesignationService(designations, patients, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(fixedYear, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, designations, patients
}

func testPatient(t *testing.T) *domainpatient.Patient {
	p, err := domainpatient.NewPatient("P001", "CH-1", "Jane Smith")
	require.NoError(t, err)
	return p
}

func TestDesignationService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the designation and syncs the current-year badge", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		p := testPatient(t)

		patients.On("FindByID", mock.Anything, p.ID).Return(p, nil)
		designations.On("Upsert", mock.Anything, mock.AnythingOfType("*vip.Designation")).Return(nil)
		patients.On("UpdateVIPBadge", mock.Anything, p.ID, "premium").Return(nil)

		resp, err := svc.Add(ctx, AddDesignationRequest{
			PatientID: p.ID,
			Year:      fixedYear,
			Grade:     "premium",
			Reason:    "yearly revenue 1200000, 24 visits",
			Score:     91.5,
			Actor:     "admin",
		})

		require.NoError(t, err)
		assert.Equal(t, p.ID, resp.PatientID)
		assert.Equal(t, fixedYear, resp.Year)
		assert.Equal(t, "premium", resp.Grade)
		assert.Equal(t, 91.5, resp.Score)
		patients.AssertCalled(t, "UpdateVIPBadge", mock.Anything, p.ID, "premium")
	})

	t.Run("past-year designation leaves the badge alone", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		p := testPatient(t)

		patients.On("FindByID", mock.Anything, p.ID).Return(p, nil)
		designations.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Add(ctx, AddDesignationRequest{
			PatientID: p.ID,
			Year:      fixedYear - 1,
			Grade:     "standard",
			Actor:     "admin",
		})

		require.NoError(t, err)
		patients.AssertNotCalled(t, "UpdateVIPBadge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails with an unknown grade before touching the repository", func(t *testing.T) {
		svc, designations, _ := newDesignationFixture()

		_, err := svc.Add(ctx, AddDesignationRequest{
			PatientID: uuid.New(),
			Year:      fixedYear,
			Grade:     "gold",
			Actor:     "admin",
		})

		require.Error(t, err)
		designations.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("fails when the patient does not exist", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		patientID := uuid.New()

		patients.On("FindByID", mock.Anything, patientID).Return(nil, shared.ErrNotFound)

		_, err := svc.Add(ctx, AddDesignationRequest{
			PatientID: patientID,
			Year:      fixedYear,
			Grade:     "standard",
			Actor:     "admin",
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		designations.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("badge sync failure does not fail the designation", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		p := testPatient(t)

		patients.On("FindByID", mock.Anything, p.ID).Return(p, nil)
		designations.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		patients.On("UpdateVIPBadge", mock.Anything, p.ID, "standard").Return(errors.New("write failed"))

		_, err := svc.Add(ctx, AddDesignationRequest{
			PatientID: p.ID,
			Year:      fixedYear,
			Grade:     "standard",
			Actor:     "admin",
		})

		assert.NoError(t, err)
	})
}

func TestDesignationService_SetGrade(t *testing.T) {
	ctx := context.Background()

	t.Run("toggles the grade and syncs the badge", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		patientID := uuid.New()
		d, err := vip.NewDesignation(patientID, fixedYear, vip.GradeStandard, "", 70, "admin")
		require.NoError(t, err)

		designations.On("FindByPatientAndYear", mock.Anything, patientID, fixedYear).Return(d, nil)
		designations.On("Upsert", mock.Anything, d).Return(nil)
		patients.On("UpdateVIPBadge", mock.Anything, patientID, "premium").Return(nil)

		resp, err := svc.SetGrade(ctx, patientID, fixedYear, "premium")

		require.NoError(t, err)
		assert.Equal(t, "premium", resp.Grade)
	})

	t.Run("fails when no designation exists for the year", func(t *testing.T) {
		svc, designations, _ := newDesignationFixture()
		patientID := uuid.New()

		designations.On("FindByPatientAndYear", mock.Anything, patientID, fixedYear).Return(nil, nil)

		_, err := svc.SetGrade(ctx, patientID, fixedYear, "premium")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("fails when the grade is already held", func(t *testing.T) {
		svc, designations, _ := newDesignationFixture()
		patientID := uuid.New()
		d, err := vip.NewDesignation(patientID, fixedYear, vip.GradePremium, "", 90, "admin")
		require.NoError(t, err)

		designations.On("FindByPatientAndYear", mock.Anything, patientID, fixedYear).Return(d, nil)

		_, err = svc.SetGrade(ctx, patientID, fixedYear, "premium")
		require.Error(t, err)
		designations.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestDesignationService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the badge when the last current-year designation goes", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		patientID := uuid.New()

		designations.On("Delete", mock.Anything, patientID, fixedYear).Return(nil)
		designations.On("CountByPatientAndYear", mock.Anything, patientID, fixedYear).Return(int64(0), nil)
		patients.On("UpdateVIPBadge", mock.Anything, patientID, "").Return(nil)

		require.NoError(t, svc.Remove(ctx, patientID, fixedYear))
		patients.AssertCalled(t, "UpdateVIPBadge", mock.Anything, patientID, "")
	})

	t.Run("keeps the badge when a designation was re-added concurrently", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		patientID := uuid.New()

		designations.On("Delete", mock.Anything, patientID, fixedYear).Return(nil)
		designations.On("CountByPatientAndYear", mock.Anything, patientID, fixedYear).Return(int64(1), nil)

		require.NoError(t, svc.Remove(ctx, patientID, fixedYear))
		patients.AssertNotCalled(t, "UpdateVIPBadge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("past-year removal never touches the badge", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		patientID := uuid.New()

		designations.On("Delete", mock.Anything, patientID, fixedYear-2).Return(nil)

		require.NoError(t, svc.Remove(ctx, patientID, fixedYear-2))
		designations.AssertNotCalled(t, "CountByPatientAndYear", mock.Anything, mock.Anything, mock.Anything)
		patients.AssertNotCalled(t, "UpdateVIPBadge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("re-check failure is swallowed and the badge stays", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()
		patientID := uuid.New()

		designations.On("Delete", mock.Anything, patientID, fixedYear).Return(nil)
		designations.On("CountByPatientAndYear", mock.Anything, patientID, fixedYear).
			Return(int64(0), errors.New("registry unavailable"))

		require.NoError(t, svc.Remove(ctx, patientID, fixedYear))
		patients.AssertNotCalled(t, "UpdateVIPBadge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates delete failures", func(t *testing.T) {
		svc, designations, _ := newDesignationFixture()
		patientID := uuid.New()

		deleteErr := errors.New("delete failed")
		designations.On("Delete", mock.Anything, patientID, fixedYear).Return(deleteErr)

		assert.ErrorIs(t, svc.Remove(ctx, patientID, fixedYear), deleteErr)
	})
}

func TestDesignationService_BatchCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("a failing item is recorded without aborting the batch", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()

		good1, good2 := testPatient(t), testPatient(t)
		missingID := uuid.New()

		patients.On("FindByID", mock.Anything, good1.ID).Return(good1, nil)
		patients.On("FindByID", mock.Anything, good2.ID).Return(good2, nil)
		patients.On("FindByID", mock.Anything, missingID).Return(nil, shared.ErrNotFound)
		designations.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		patients.On("UpdateVIPBadge", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result := svc.BatchCommit(ctx, fixedYear, "admin", []CommitCandidate{
			{PatientID: good1.ID, Grade: "premium", Score: 92},
			{PatientID: missingID, Grade: "standard", Score: 55},
			{PatientID: good2.ID, Grade: "standard", Score: 61},
		})

		assert.Equal(t, 2, result.SuccessCount)
		require.Len(t, result.Items, 3)
		assert.True(t, result.Items[0].Success)
		assert.False(t, result.Items[1].Success)
		assert.NotEmpty(t, result.Items[1].Error)
		assert.True(t, result.Items[2].Success)
	})

	t.Run("empty batch succeeds vacuously", func(t *testing.T) {
		svc, _, _ := newDesignationFixture()

		result := svc.BatchCommit(ctx, fixedYear, "admin", nil)

		assert.Zero(t, result.SuccessCount)
		assert.Empty(t, result.Items)
	})
}

func TestDesignationService_ListByYear(t *testing.T) {
	ctx := context.Background()

	newListFixture := func(t *testing.T) (*DesignationService, *MockDesignationRepository, *MockPatientRepository, []vip.Designation, *domainpatient.Patient) {
		svc, designations, patients := newDesignationFixture()
		p := testPatient(t)
		current, err := vip.NewDesignation(p.ID, fixedYear, vip.GradePremium, "top spender", 95, "admin")
		require.NoError(t, err)
		past, err := vip.NewDesignation(p.ID, fixedYear-1, vip.GradeStandard, "", 60, "admin")
		require.NoError(t, err)
		return svc, designations, patients, []vip.Designation{*current, *past}, p
	}

	t.Run("joins patient display fields and full history", func(t *testing.T) {
		svc, designations, patients, ds, p := newListFixture(t)

		designations.On("FindByYear", mock.Anything, fixedYear).Return(ds[:1], nil)
		patients.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return([]domainpatient.Patient{*p}, nil)
		designations.On("FindByPatients", mock.Anything, []uuid.UUID{p.ID}).Return(ds, nil)

		items, err := svc.ListByYear(ctx, fixedYear)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Jane Smith", items[0].PatientName)
		assert.Equal(t, "CH-1", items[0].ChartNo)
		assert.Equal(t, "P001", items[0].Code)
		assert.Equal(t, "premium", items[0].Grade)
		require.Len(t, items[0].History, 2)
	})

	t.Run("patient lookup failure degrades to bare rows", func(t *testing.T) {
		svc, designations, patients, ds, p := newListFixture(t)

		designations.On("FindByYear", mock.Anything, fixedYear).Return(ds[:1], nil)
		patients.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return(nil, errors.New("db down"))
		designations.On("FindByPatients", mock.Anything, []uuid.UUID{p.ID}).Return(ds, nil)

		items, err := svc.ListByYear(ctx, fixedYear)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].PatientName)
		assert.Equal(t, "premium", items[0].Grade)
	})

	t.Run("empty year returns an empty list", func(t *testing.T) {
		svc, designations, patients := newDesignationFixture()

		designations.On("FindByYear", mock.Anything, fixedYear).Return([]vip.Designation{}, nil)

		items, err := svc.ListByYear(ctx, fixedYear)

		require.NoError(t, err)
		assert.Empty(t, items)
		patients.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
	})

	t.Run("propagates the year listing failure", func(t *testing.T) {
		svc, designations, _ := newDesignationFixture()

		listErr := errors.New("query failed")
		designations.On("FindByYear", mock.Anything, fixedYear).Return(nil, listErr)

		_, err := svc.ListByYear(ctx, fixedYear)
		assert.ErrorIs(t, err, listErr)
	})
}

func TestDesignationService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("returns every designation the patient has held", func(t *testing.T) {
		svc, designations, _ := newDesignationFixture()
		patientID := uuid.New()
		d1, err := vip.NewDesignation(patientID, fixedYear, vip.GradePremium, "", 95, "admin")
		require.NoError(t, err)
		d2, err := vip.NewDesignation(patientID, fixedYear-1, vip.GradeStandard, "", 62, "admin")
		require.NoError(t, err)

		designations.On("FindByPatient", mock.Anything, patientID).
			Return([]vip.Designation{*d1, *d2}, nil)

		history, err := svc.History(ctx, patientID)

		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, fixedYear, history[0].Year)
		assert.Equal(t, fixedYear-1, history[1].Year)
	})

	t.Run("empty history is an empty slice, not nil", func(t *testing.T) {
		svc, designations, _ := newDesignationFixture()
		patientID := uuid.New()

		designations.On("FindByPatient", mock.Anything, patientID).Return([]vip.Designation{}, nil)

		history, err := svc.History(ctx, patientID)
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})
}
