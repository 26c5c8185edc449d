package vip

import (
	"context"

	"github.com/clinic/backend/internal/domain/patient"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/vip"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock ports and repositories
// =============================================================================

// MockLedgerSource is a mock implementation of vip.LedgerSource
type MockLedgerSource struct {
	mock.Mock
}

func (m *MockLedgerSource) FetchYearlySummaries(ctx context.Context, year int, codes []string) ([]vip.LedgerRow, error) {
	args := m.Called(ctx, year, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.LedgerRow), args.Error(1)
}

func (m *MockLedgerSource) FetchLifetimeSummaries(ctx context.Context, codes []string) ([]vip.LedgerRow, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.LedgerRow), args.Error(1)
}

// MockCustomerDirectory is a mock implementation of vip.CustomerDirectory
type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) FetchByCodes(ctx context.Context, codes []string) ([]vip.DirectoryEntry, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.DirectoryEntry), args.Error(1)
}

func (m *MockCustomerDirectory) FetchByHouseholds(ctx context.Context, householdCodes []string) ([]vip.DirectoryEntry, error) {
	args := m.Called(ctx, householdCodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.DirectoryEntry), args.Error(1)
}

func (m *MockCustomerDirectory) FetchReferralAnnotations(ctx context.Context) ([]vip.DirectoryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.DirectoryEntry), args.Error(1)
}

// MockIdentityRegistry is a mock implementation of vip.IdentityRegistry
type MockIdentityRegistry struct {
	mock.Mock
}

func (m *MockIdentityRegistry) FetchByCodes(ctx context.Context, codes []string) ([]vip.IdentityEntry, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.IdentityEntry), args.Error(1)
}

// MockDesignationRepository is a mock implementation of vip.DesignationRepository
type MockDesignationRepository struct {
	mock.Mock
}

func (m *MockDesignationRepository) Upsert(ctx context.Context, d *vip.Designation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDesignationRepository) FindByPatientAndYear(ctx context.Context, patientID uuid.UUID, year int) (*vip.Designation, error) {
	args := m.Called(ctx, patientID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vip.Designation), args.Error(1)
}

func (m *MockDesignationRepository) FindByYear(ctx context.Context, year int) ([]vip.Designation, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.Designation), args.Error(1)
}

func (m *MockDesignationRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]vip.Designation, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.Designation), args.Error(1)
}

func (m *MockDesignationRepository) FindByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]vip.Designation, error) {
	args := m.Called(ctx, patientIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vip.Designation), args.Error(1)
}

func (m *MockDesignationRepository) FindPatientIDsByYear(ctx context.Context, year int) ([]uuid.UUID, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockDesignationRepository) CountByPatientAndYear(ctx context.Context, patientID uuid.UUID, year int) (int64, error) {
	args := m.Called(ctx, patientID, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDesignationRepository) Delete(ctx context.Context, patientID uuid.UUID, year int) error {
	args := m.Called(ctx, patientID, year)
	return args.Error(0)
}

// MockPatientRepository is a mock implementation of patient.PatientRepository
type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]patient.Patient, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByCode(ctx context.Context, code string) (*patient.Patient, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]patient.Patient, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) Save(ctx context.Context, p *patient.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPatientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPatientRepository) UpdateVIPBadge(ctx context.Context, id uuid.UUID, grade string) error {
	args := m.Called(ctx, id, grade)
	return args.Error(0)
}
