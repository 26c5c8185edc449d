package vip

import (
	"context"
	"sort"
	"time"

	"github.com/clinic/backend/internal/domain/vip"
	"github.com/clinic/backend/internal/infrastructure/logger"
	"github.com/clinic/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CandidateServiceConfig bounds the candidate engine's external fetches and
// carries the referral bonus thresholds
type CandidateServiceConfig struct {
	FetchTimeout          time.Duration
	FetchBatchSize        int
	ReferralRevenueHigh   decimal.Decimal
	ReferralRevenueMedium decimal.Decimal
}

// DefaultCandidateServiceConfig returns the default engine configuration
func DefaultCandidateServiceConfig() CandidateServiceConfig {
	return CandidateServiceConfig{
		FetchTimeout:          10 * time.Second,
		FetchBatchSize:        200,
		ReferralRevenueHigh:   decimal.NewFromInt(5_000_000),
		ReferralRevenueMedium: decimal.NewFromInt(1_000_000),
	}
}

func (c CandidateServiceConfig) withDefaults() CandidateServiceConfig {
	def := DefaultCandidateServiceConfig()
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.FetchBatchSize <= 0 {
		c.FetchBatchSize = def.FetchBatchSize
	}
	if c.ReferralRevenueHigh.IsZero() {
		c.ReferralRevenueHigh = def.ReferralRevenueHigh
	}
	if c.ReferralRevenueMedium.IsZero() {
		c.ReferralRevenueMedium = def.ReferralRevenueMedium
	}
	return c
}

// CandidateService runs the VIP candidate engine: ledger aggregation,
// household resolution, referral resolution, scoring and exclusion.
// All runs are pure reads; designated patients are filtered out before the
// ranked list is returned.
type CandidateService struct {
	ledger       vip.LedgerSource
	directory    vip.CustomerDirectory
	identities   vip.IdentityRegistry
	designations vip.DesignationRepository
	extractor    vip.ReferralExtractor
	cfg          CandidateServiceConfig
	logger       *zap.Logger
}

// NewCandidateService creates a new CandidateService
func NewCandidateService(
	ledger vip.LedgerSource,
	directory vip.CustomerDirectory,
	identities vip.IdentityRegistry,
	designations vip.DesignationRepository,
	extractor vip.ReferralExtractor,
	cfg CandidateServiceConfig,
	logger *zap.Logger,
) *CandidateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateService{
		ledger:       ledger,
		directory:    directory,
		identities:   identities,
		designations: designations,
		extractor:    extractor,
		cfg:          cfg.withDefaults(),
		logger:       logger,
	}
}

// log returns the service logger correlated with the request trace, so the
// degradation warnings below can be tied back to a specific engine run.
func (s *CandidateService) log(ctx context.Context) *zap.Logger {
	return logger.WithTraceContext(ctx, s.logger)
}

// Generate computes the ranked candidate list for a year. Upstream fetch
// failures degrade to empty segments, so the result may be partial but the
// call itself only fails on invalid criteria or a registry read error.
func (s *CandidateService) Generate(ctx context.Context, req GenerateCandidatesRequest) ([]vip.Candidate, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "vip", "generate_candidates",
		telemetry.WithAttribute(telemetry.SpanAttrYear, req.Year),
	)
	defer span.End()

	opts := s.toScoringOptions(req)
	if err := opts.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	summaries := s.fetchYearlySummaries(ctx, req.Year, nil)
	if len(summaries) == 0 {
		return []vip.Candidate{}, nil
	}
	summaryByCode := make(map[string]vip.LedgerSummary, len(summaries))
	for _, sm := range summaries {
		summaryByCode[sm.Code] = sm
	}

	// Seed the pool with the top-N customers by raw, non-aggregated revenue
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalRevenue.GreaterThan(summaries[j].TotalRevenue)
	})
	seeds := summaries
	if len(seeds) > opts.MaxCandidates {
		seeds = seeds[:opts.MaxCandidates]
	}

	var pool []poolEntry
	if req.IncludeHousehold {
		pool = s.resolveHouseholds(ctx, req.Year, seeds, summaryByCode)
	} else {
		pool = make([]poolEntry, 0, len(seeds))
		for _, seed := range seeds {
			pool = append(pool, poolEntry{Code: seed.Code, Summary: seed})
		}
	}

	identByCode := s.fetchIdentities(ctx, poolCodes(pool))

	excluded, err := s.designations.FindPatientIDsByYear(ctx, req.Year)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	excludedSet := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		excludedSet[id.String()] = true
	}

	var referrals map[string]*vip.ReferralAggregate
	if req.IncludeReferrals {
		referrals = s.resolveReferrals(ctx)
	}

	inputs := make([]vip.CandidateInput, 0, len(pool))
	for _, entry := range pool {
		ident, ok := identByCode[entry.Code]
		if !ok {
			s.log(ctx).Debug("skipping candidate without local identity", zap.String("code", entry.Code))
			continue
		}
		if excludedSet[ident.PatientID.String()] {
			continue
		}

		members := entry.Members
		for i := range members {
			if m, ok := identByCode[members[i].Code]; ok {
				members[i].Name = m.Name
			}
		}

		inputs = append(inputs, vip.CandidateInput{
			PatientID:      ident.PatientID,
			Code:           entry.Code,
			ChartNo:        ident.ChartNo,
			Name:           ident.Name,
			Summary:        entry.Summary,
			FamilyMembers:  members,
			FirstVisitYear: ident.FirstVisitYear(),
			Referral:       referrals[ident.ChartNo],
		})
	}

	candidates, err := vip.ScorePool(inputs, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCandidates, len(candidates))
	return candidates, nil
}

func (s *CandidateService) toScoringOptions(req GenerateCandidatesRequest) vip.ScoringOptions {
	criteria := make([]vip.RevenueCriterion, 0, len(req.RevenueCriteria))
	for _, c := range req.RevenueCriteria {
		criteria = append(criteria, vip.RevenueCriterion(c))
	}
	maxCount := req.MaxCount
	if maxCount <= 0 {
		maxCount = 20
	}
	return vip.ScoringOptions{
		Year:                  req.Year,
		RevenueCriteria:       criteria,
		IncludeVisits:         req.IncludeVisits,
		IncludeLoyalty:        req.IncludeLoyalty,
		IncludeReferrals:      req.IncludeReferrals,
		MaxCandidates:         maxCount,
		MinScore:              req.MinScore,
		ReferralRevenueHigh:   s.cfg.ReferralRevenueHigh,
		ReferralRevenueMedium: s.cfg.ReferralRevenueMedium,
	}
}

// poolEntry is one pre-scoring pool row: either a single customer or a
// household represented by its highest-revenue seed member
type poolEntry struct {
	Code    string
	Summary vip.LedgerSummary
	Members []vip.FamilyMember
}

func poolCodes(pool []poolEntry) []string {
	seen := make(map[string]bool)
	codes := make([]string, 0, len(pool))
	for _, e := range pool {
		if !seen[e.Code] {
			seen[e.Code] = true
			codes = append(codes, e.Code)
		}
		for _, m := range e.Members {
			if !seen[m.Code] {
				seen[m.Code] = true
				codes = append(codes, m.Code)
			}
		}
	}
	return codes
}

// fetchYearlySummaries pulls per-customer aggregates from the ledger under a
// bounded timeout, validates each row and drops customers with non-positive
// total revenue. Any fetch failure degrades to an empty result.
func (s *CandidateService) fetchYearlySummaries(ctx context.Context, year int, codes []string) []vip.LedgerSummary {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	rows, err := s.ledger.FetchYearlySummaries(fctx, year, codes)
	if err != nil {
		s.log(ctx).Warn("ledger fetch failed, continuing with empty segment",
			zap.Int("year", year), zap.Error(err))
		return nil
	}

	summaries := make([]vip.LedgerSummary, 0, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			s.log(ctx).Warn("dropping malformed ledger row", zap.String("code", row.Code), zap.Error(err))
			continue
		}
		summary := row.ToSummary(year)
		if !summary.HasRevenue() {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// resolveHouseholds expands the seed set into complete household groups.
// Every discovered household is re-expanded to its full membership, missing
// members' summaries are fetched directly, and exactly one pool entry is
// emitted per household regardless of how many members were seeded.
func (s *CandidateService) resolveHouseholds(ctx context.Context, year int, seeds []vip.LedgerSummary, summaryByCode map[string]vip.LedgerSummary) []poolEntry {
	seedCodes := make([]string, len(seeds))
	for i, seed := range seeds {
		seedCodes[i] = seed.Code
	}

	entryByCode := make(map[string]vip.DirectoryEntry, len(seedCodes))
	householdCodes := make([]string, 0, len(seedCodes))
	seenHouseholdCode := make(map[string]bool)
	for _, batch := range chunk(seedCodes, s.cfg.FetchBatchSize) {
		entries, err := s.fetchDirectory(ctx, batch)
		if err != nil {
			s.log(ctx).Warn("directory fetch failed, treating batch as households of one", zap.Error(err))
			continue
		}
		for _, e := range entries {
			entryByCode[e.Code] = e
			if e.HouseholdCode != "" && !seenHouseholdCode[e.HouseholdCode] {
				seenHouseholdCode[e.HouseholdCode] = true
				householdCodes = append(householdCodes, e.HouseholdCode)
			}
		}
	}

	// Second pass: full membership of every discovered household, including
	// members absent from the seed set
	membership := make(map[string][]string, len(householdCodes))
	missing := make([]string, 0)
	for _, batch := range chunk(householdCodes, s.cfg.FetchBatchSize) {
		members, err := s.fetchHouseholdMembers(ctx, batch)
		if err != nil {
			s.log(ctx).Warn("household expansion failed, scoring seeds individually", zap.Error(err))
			continue
		}
		for _, m := range members {
			membership[m.HouseholdCode] = append(membership[m.HouseholdCode], m.Code)
			if _, ok := summaryByCode[m.Code]; !ok {
				missing = append(missing, m.Code)
			}
		}
	}

	for _, batch := range chunk(missing, s.cfg.FetchBatchSize) {
		for _, fetched := range s.fetchYearlySummaries(ctx, year, batch) {
			summaryByCode[fetched.Code] = fetched
		}
	}

	pool := make([]poolEntry, 0, len(seeds))
	seenHousehold := make(map[string]bool)
	for _, seed := range seeds {
		dir, ok := entryByCode[seed.Code]
		if !ok || dir.HouseholdCode == "" {
			pool = append(pool, poolEntry{Code: seed.Code, Summary: seed})
			continue
		}
		// One candidate per household: later members of an already-emitted
		// household are skipped for the remainder of the run
		if seenHousehold[dir.HouseholdCode] {
			continue
		}
		seenHousehold[dir.HouseholdCode] = true

		memberCodes := membership[dir.HouseholdCode]
		if len(memberCodes) == 0 {
			pool = append(pool, poolEntry{Code: seed.Code, Summary: seed})
			continue
		}

		effective := vip.LedgerSummary{Code: seed.Code, Year: year}
		members := make([]vip.FamilyMember, 0, len(memberCodes))
		for _, code := range memberCodes {
			ms, ok := summaryByCode[code]
			if !ok {
				continue
			}
			effective = effective.Add(ms)
			members = append(members, vip.FamilyMember{
				Code:         code,
				TotalRevenue: ms.TotalRevenue,
				VisitCount:   ms.VisitCount,
			})
		}
		pool = append(pool, poolEntry{Code: seed.Code, Summary: effective, Members: members})
	}
	return pool
}

// resolveReferrals parses every referral annotation, groups the edges by
// referrer chart number and aggregates the referred customers' lifetime
// revenue. Unparsable annotations are skipped without failing the batch.
func (s *CandidateService) resolveReferrals(ctx context.Context) map[string]*vip.ReferralAggregate {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	entries, err := s.directory.FetchReferralAnnotations(fctx)
	if err != nil {
		s.log(ctx).Warn("referral annotation fetch failed, skipping referral bonus", zap.Error(err))
		return nil
	}

	referredByReferrer := make(map[string][]string)
	referrerOrder := make([]string, 0)
	referredCodes := make([]string, 0, len(entries))
	for _, e := range entries {
		chartNo, ok := s.extractor.Extract(e.ReferralNote)
		if !ok {
			continue
		}
		if _, seen := referredByReferrer[chartNo]; !seen {
			referrerOrder = append(referrerOrder, chartNo)
		}
		referredByReferrer[chartNo] = append(referredByReferrer[chartNo], e.Code)
		referredCodes = append(referredCodes, e.Code)
	}
	if len(referredByReferrer) == 0 {
		return nil
	}

	lifetimeByCode := make(map[string]vip.LedgerRow, len(referredCodes))
	for _, batch := range chunk(referredCodes, s.cfg.FetchBatchSize) {
		rows, err := s.fetchLifetime(ctx, batch)
		if err != nil {
			s.log(ctx).Warn("lifetime revenue fetch failed for referral batch", zap.Error(err))
			continue
		}
		for _, row := range rows {
			lifetimeByCode[row.Code] = row
		}
	}

	aggregates := make(map[string]*vip.ReferralAggregate, len(referredByReferrer))
	for _, chartNo := range referrerOrder {
		codes := referredByReferrer[chartNo]
		agg := &vip.ReferralAggregate{
			ReferrerChartNo:   chartNo,
			ReferredCount:     len(codes),
			TotalRevenue:      decimal.Zero,
			NoncoveredRevenue: decimal.Zero,
		}
		for _, code := range codes {
			if row, ok := lifetimeByCode[code]; ok {
				agg.TotalRevenue = agg.TotalRevenue.Add(row.TotalRevenue)
				agg.NoncoveredRevenue = agg.NoncoveredRevenue.Add(row.NoncoveredRevenue)
			}
		}
		aggregates[chartNo] = agg
	}
	return aggregates
}

func (s *CandidateService) fetchIdentities(ctx context.Context, codes []string) map[string]vip.IdentityEntry {
	identByCode := make(map[string]vip.IdentityEntry, len(codes))
	for _, batch := range chunk(codes, s.cfg.FetchBatchSize) {
		fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		entries, err := s.identities.FetchByCodes(fctx, batch)
		cancel()
		if err != nil {
			s.log(ctx).Warn("identity fetch failed for batch", zap.Error(err))
			continue
		}
		for _, e := range entries {
			identByCode[e.Code] = e
		}
	}
	return identByCode
}

func (s *CandidateService) fetchDirectory(ctx context.Context, codes []string) ([]vip.DirectoryEntry, error) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.directory.FetchByCodes(fctx, codes)
}

func (s *CandidateService) fetchHouseholdMembers(ctx context.Context, householdCodes []string) ([]vip.DirectoryEntry, error) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.directory.FetchByHouseholds(fctx, householdCodes)
}

func (s *CandidateService) fetchLifetime(ctx context.Context, codes []string) ([]vip.LedgerRow, error) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.ledger.FetchLifetimeSummaries(fctx, codes)
}

// chunk splits codes into batches of at most size elements
func chunk(codes []string, size int) [][]string {
	if len(codes) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(codes)+size-1)/size)
	for start := 0; start < len(codes); start += size {
		end := start + size
		if end > len(codes) {
			end = len(codes)
		}
		batches = append(batches, codes[start:end])
	}
	return batches
}
