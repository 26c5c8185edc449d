package vip

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerSource is the read-only port to the external transactional store.
// Both methods group the underlying charge records by customer; a nil or
// empty code filter means all customers.
type LedgerSource interface {
	// FetchYearlySummaries returns per-customer aggregates for one year
	FetchYearlySummaries(ctx context.Context, year int, codes []string) ([]LedgerRow, error)

	// FetchLifetimeSummaries returns per-customer aggregates across all years
	FetchLifetimeSummaries(ctx context.Context, codes []string) ([]LedgerRow, error)
}

// DirectoryEntry is the relationship record the customer directory keeps per
// customer: the household grouping key and the free-text referral annotation.
type DirectoryEntry struct {
	Code          string
	HouseholdCode string
	ReferralNote  string
}

// CustomerDirectory is the read-only port to the customer directory
type CustomerDirectory interface {
	FetchByCodes(ctx context.Context, codes []string) ([]DirectoryEntry, error)

	// FetchByHouseholds returns every member of the given households,
	// including members that were not part of the original lookup.
	FetchByHouseholds(ctx context.Context, householdCodes []string) ([]DirectoryEntry, error)

	// FetchReferralAnnotations returns all entries carrying a non-empty
	// referral annotation.
	FetchReferralAnnotations(ctx context.Context) ([]DirectoryEntry, error)
}

// IdentityEntry maps an external customer code to the local patient identity
type IdentityEntry struct {
	PatientID    uuid.UUID
	Code         string
	ChartNo      string
	Name         string
	FirstVisitAt *time.Time
}

// FirstVisitYear returns the year of the first relationship, or 0 when unknown
func (e IdentityEntry) FirstVisitYear() int {
	if e.FirstVisitAt == nil {
		return 0
	}
	return e.FirstVisitAt.Year()
}

// IdentityRegistry is the read-only port to the local identity registry
type IdentityRegistry interface {
	FetchByCodes(ctx context.Context, codes []string) ([]IdentityEntry, error)
}
