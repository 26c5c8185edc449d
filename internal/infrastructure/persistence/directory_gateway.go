package persistence

import (
	"context"

	"github.com/clinic/backend/internal/domain/patient"
	"github.com/clinic/backend/internal/domain/vip"
	"gorm.io/gorm"
)

// GormDirectoryGateway implements CustomerDirectory and IdentityRegistry over
// the patients table. Both ports are read-only projections of the same rows:
// the directory view carries relationship fields, the identity view carries
// the code-to-patient mapping.
type GormDirectoryGateway struct {
	db *gorm.DB
}

// NewGormDirectoryGateway creates a new GormDirectoryGateway
func NewGormDirectoryGateway(db *gorm.DB) *GormDirectoryGateway {
	return &GormDirectoryGateway{db: db}
}

// FetchByCodes returns directory entries for the given customer codes
func (g *GormDirectoryGateway) FetchByCodes(ctx context.Context, codes []string) ([]vip.DirectoryEntry, error) {
	if len(codes) == 0 {
		return []vip.DirectoryEntry{}, nil
	}
	var patients []patient.Patient
	if err := g.db.WithContext(ctx).
		Where("code IN ?", codes).
		Find(&patients).Error; err != nil {
		return nil, err
	}
	return toDirectoryEntries(patients), nil
}

// FetchByHouseholds returns every member of the given households, including
// members that were not part of the original lookup
func (g *GormDirectoryGateway) FetchByHouseholds(ctx context.Context, householdCodes []string) ([]vip.DirectoryEntry, error) {
	if len(householdCodes) == 0 {
		return []vip.DirectoryEntry{}, nil
	}
	var patients []patient.Patient
	if err := g.db.WithContext(ctx).
		Where("household_code IN ?", householdCodes).
		Find(&patients).Error; err != nil {
		return nil, err
	}
	return toDirectoryEntries(patients), nil
}

// FetchReferralAnnotations returns all entries carrying a non-empty referral
// annotation
func (g *GormDirectoryGateway) FetchReferralAnnotations(ctx context.Context) ([]vip.DirectoryEntry, error) {
	var patients []patient.Patient
	if err := g.db.WithContext(ctx).
		Where("referral_note <> ''").
		Find(&patients).Error; err != nil {
		return nil, err
	}
	return toDirectoryEntries(patients), nil
}

// FetchIdentitiesByCodes returns identity entries for the given customer codes
func (g *GormDirectoryGateway) FetchIdentitiesByCodes(ctx context.Context, codes []string) ([]vip.IdentityEntry, error) {
	if len(codes) == 0 {
		return []vip.IdentityEntry{}, nil
	}
	var patients []patient.Patient
	if err := g.db.WithContext(ctx).
		Where("code IN ?", codes).
		Find(&patients).Error; err != nil {
		return nil, err
	}

	entries := make([]vip.IdentityEntry, len(patients))
	for i, p := range patients {
		entries[i] = vip.IdentityEntry{
			PatientID:    p.ID,
			Code:         p.Code,
			ChartNo:      p.ChartNo,
			Name:         p.Name,
			FirstVisitAt: p.FirstVisitAt,
		}
	}
	return entries, nil
}

func toDirectoryEntries(patients []patient.Patient) []vip.DirectoryEntry {
	entries := make([]vip.DirectoryEntry, len(patients))
	for i, p := range patients {
		entries[i] = vip.DirectoryEntry{
			Code:          p.Code,
			HouseholdCode: p.HouseholdCode,
			ReferralNote:  p.ReferralNote,
		}
	}
	return entries
}

// identityRegistryAdapter exposes the gateway through the IdentityRegistry port
type identityRegistryAdapter struct {
	gateway *GormDirectoryGateway
}

// NewIdentityRegistry returns the identity-registry view of the directory
func NewIdentityRegistry(gateway *GormDirectoryGateway) vip.IdentityRegistry {
	return identityRegistryAdapter{gateway: gateway}
}

func (a identityRegistryAdapter) FetchByCodes(ctx context.Context, codes []string) ([]vip.IdentityEntry, error) {
	return a.gateway.FetchIdentitiesByCodes(ctx, codes)
}

// Ensure GormDirectoryGateway implements CustomerDirectory
var _ vip.CustomerDirectory = (*GormDirectoryGateway)(nil)
