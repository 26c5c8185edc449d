package patient

import (
	"context"

	"github.com/clinic/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PatientRepository defines the persistence operations for patients
type PatientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Patient, error)
	FindByCode(ctx context.Context, code string) (*Patient, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Patient, error)
	Save(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// UpdateVIPBadge sets the denormalized current-year badge column directly.
	// An empty grade clears the badge.
	UpdateVIPBadge(ctx context.Context, id uuid.UUID, grade string) error
}
