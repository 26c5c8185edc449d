package vip

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clinic/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RevenueCriterion selects one of the three revenue figures for scoring
type RevenueCriterion string

const (
	RevenueTotal      RevenueCriterion = "total_revenue"
	RevenueNoncovered RevenueCriterion = "noncovered_revenue"
	RevenueCopay      RevenueCriterion = "copay_revenue"
)

// Fixed weight budget before rescaling. The revenue budget is split evenly
// across the selected revenue sub-criteria; the weights of whatever groups
// are enabled are rescaled so the maximum achievable base score is 100.
const (
	revenueWeightBudget = 40.0
	visitWeightBudget   = 30.0
	loyaltyWeightBudget = 20.0

	// A relationship of this many years always earns the full loyalty weight
	loyaltyCapYears = 5

	// Final score at or above this gets the premium grade
	premiumGradeThreshold = 80.0
)

// Referral bonus points, additive outside the 0-100 base
const (
	referralCountBonusHigh   = 15.0 // referred_count >= 3
	referralCountBonusLow    = 10.0 // referred_count >= 1
	referralRevenueBonusHigh = 10.0 // referred lifetime revenue >= high threshold
	referralRevenueBonusLow  = 5.0  // referred lifetime revenue >= medium threshold
)

// ScoringOptions selects the criteria and bounds for one scoring run
type ScoringOptions struct {
	Year             int
	RevenueCriteria  []RevenueCriterion // selection order is preserved in the reason text
	IncludeVisits    bool
	IncludeLoyalty   bool
	IncludeReferrals bool
	MaxCandidates    int
	MinScore         float64

	// Lifetime-revenue thresholds for the referral bonus
	ReferralRevenueHigh   decimal.Decimal
	ReferralRevenueMedium decimal.Decimal
}

// Validate rejects option sets that cannot produce a meaningful score.
// It runs before any I/O so an invalid selection never reaches the ledger.
func (o ScoringOptions) Validate() error {
	if o.Year <= 0 {
		return shared.NewDomainError("INVALID_YEAR", "Target year must be positive")
	}
	if len(o.RevenueCriteria) == 0 && !o.IncludeVisits && !o.IncludeLoyalty {
		return shared.NewDomainError("INVALID_CRITERIA", "At least one scoring criterion must be selected")
	}
	seen := make(map[RevenueCriterion]bool, len(o.RevenueCriteria))
	for _, c := range o.RevenueCriteria {
		switch c {
		case RevenueTotal, RevenueNoncovered, RevenueCopay:
		default:
			return shared.NewDomainErrorf("INVALID_CRITERIA", "Unknown revenue criterion %q", c)
		}
		if seen[c] {
			return shared.NewDomainErrorf("INVALID_CRITERIA", "Revenue criterion %q selected twice", c)
		}
		seen[c] = true
	}
	if o.MaxCandidates <= 0 {
		return shared.NewDomainError("INVALID_CRITERIA", "Maximum candidate count must be positive")
	}
	if o.MinScore < 0 {
		return shared.NewDomainError("INVALID_CRITERIA", "Minimum score floor cannot be negative")
	}
	return nil
}

// FamilyMember is one member of a household candidate's breakdown
type FamilyMember struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	VisitCount   int             `json:"visit_count"`
}

// CandidateInput is one pool entry handed to the scoring engine. Summary is
// the effective aggregate (household sum when household resolution ran).
type CandidateInput struct {
	PatientID      uuid.UUID
	Code           string
	ChartNo        string
	Name           string
	Summary        LedgerSummary
	FamilyMembers  []FamilyMember
	FirstVisitYear int
	Referral       *ReferralAggregate // nil when the candidate referred nobody
}

// Contribution is one criterion's share of a candidate's base score
type Contribution struct {
	Criterion string  `json:"criterion"`
	Points    float64 `json:"points"`
}

// Candidate is a computed, unpersisted recommendation for tier designation
type Candidate struct {
	PatientID       uuid.UUID       `json:"patient_id"`
	Code            string          `json:"code"`
	ChartNo         string          `json:"chart_no"`
	Name            string          `json:"name"`
	Score           float64         `json:"score"`
	BaseScore       float64         `json:"base_score"`
	ReferralBonus   float64         `json:"referral_bonus"`
	Grade           Grade           `json:"grade"`
	Reason          string          `json:"reason"`
	Contributions   []Contribution  `json:"contributions"`
	FamilyMembers   []FamilyMember  `json:"family_members,omitempty"`
	ReferredCount   int             `json:"referred_count"`
	ReferredRevenue decimal.Decimal `json:"referred_revenue"`
	Summary         LedgerSummary   `json:"summary"`
}

// criterionWeights holds the per-criterion weights after rescaling
type criterionWeights struct {
	revenue map[RevenueCriterion]float64
	visits  float64
	loyalty float64
}

// buildWeights splits the revenue budget across the selected sub-criteria and
// rescales the enabled groups so a candidate at every pool maximum scores
// exactly 100 before the referral bonus.
func buildWeights(opts ScoringOptions) criterionWeights {
	enabled := 0.0
	if len(opts.RevenueCriteria) > 0 {
		enabled += revenueWeightBudget
	}
	if opts.IncludeVisits {
		enabled += visitWeightBudget
	}
	if opts.IncludeLoyalty {
		enabled += loyaltyWeightBudget
	}
	// Validate guarantees at least one group is enabled
	scale := 100.0 / enabled

	w := criterionWeights{revenue: make(map[RevenueCriterion]float64, len(opts.RevenueCriteria))}
	if len(opts.RevenueCriteria) > 0 {
		per := revenueWeightBudget / float64(len(opts.RevenueCriteria)) * scale
		for _, c := range opts.RevenueCriteria {
			w.revenue[c] = per
		}
	}
	if opts.IncludeVisits {
		w.visits = visitWeightBudget * scale
	}
	if opts.IncludeLoyalty {
		w.loyalty = loyaltyWeightBudget * scale
	}
	return w
}

// revenueValue picks the selected revenue figure out of a summary
func revenueValue(s LedgerSummary, c RevenueCriterion) float64 {
	switch c {
	case RevenueNoncovered:
		return s.NoncoveredRevenue.InexactFloat64()
	case RevenueCopay:
		return s.CopayRevenue.InexactFloat64()
	default:
		return s.TotalRevenue.InexactFloat64()
	}
}

// poolMaxima computes, per enabled criterion, the maximum raw value observed
// anywhere in the pool. A non-positive maximum is replaced by 1 so that
// normalization never divides by zero.
func poolMaxima(inputs []CandidateInput, opts ScoringOptions) (map[RevenueCriterion]float64, float64) {
	revMax := make(map[RevenueCriterion]float64, len(opts.RevenueCriteria))
	visitMax := 0.0
	for _, in := range inputs {
		for _, c := range opts.RevenueCriteria {
			if v := revenueValue(in.Summary, c); v > revMax[c] {
				revMax[c] = v
			}
		}
		if v := float64(in.Summary.VisitCount); v > visitMax {
			visitMax = v
		}
	}
	for _, c := range opts.RevenueCriteria {
		if revMax[c] <= 0 {
			revMax[c] = 1
		}
	}
	if visitMax <= 0 {
		visitMax = 1
	}
	return revMax, visitMax
}

// loyaltyYears returns the whole years of relationship, never negative
func loyaltyYears(year, firstVisitYear int) int {
	if firstVisitYear <= 0 || firstVisitYear > year {
		return 0
	}
	return year - firstVisitYear
}

// referralBonus computes the additive bonus for a candidate's referral record
func referralBonus(agg *ReferralAggregate, opts ScoringOptions) float64 {
	if agg == nil || agg.ReferredCount <= 0 {
		return 0
	}
	bonus := referralCountBonusLow
	if agg.ReferredCount >= 3 {
		bonus = referralCountBonusHigh
	}
	if !opts.ReferralRevenueHigh.IsZero() && agg.TotalRevenue.GreaterThanOrEqual(opts.ReferralRevenueHigh) {
		bonus += referralRevenueBonusHigh
	} else if !opts.ReferralRevenueMedium.IsZero() && agg.TotalRevenue.GreaterThanOrEqual(opts.ReferralRevenueMedium) {
		bonus += referralRevenueBonusLow
	}
	return bonus
}

// GradeForScore maps a final score to the suggested grade
func GradeForScore(score float64) Grade {
	if score >= premiumGradeThreshold {
		return GradePremium
	}
	return GradeStandard
}

// ScorePool computes a normalized, weighted composite score for every pool
// entry and returns the surviving candidates ranked by score. Normalization
// is pool-relative: each raw value is divided by the maximum observed in the
// current pool. The computation is pure and performs no I/O.
func ScorePool(inputs []CandidateInput, opts ScoringOptions) ([]Candidate, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	weights := buildWeights(opts)
	revMax, visitMax := poolMaxima(inputs, opts)

	candidates := make([]Candidate, 0, len(inputs))
	for _, in := range inputs {
		base := 0.0
		contributions := make([]Contribution, 0, len(opts.RevenueCriteria)+2)

		for _, c := range opts.RevenueCriteria {
			pts := revenueValue(in.Summary, c) / revMax[c] * weights.revenue[c]
			base += pts
			contributions = append(contributions, Contribution{Criterion: string(c), Points: pts})
		}

		if opts.IncludeVisits {
			pts := float64(in.Summary.VisitCount) / visitMax * weights.visits
			base += pts
			contributions = append(contributions, Contribution{Criterion: "visit_count", Points: pts})
		}

		years := loyaltyYears(opts.Year, in.FirstVisitYear)
		if opts.IncludeLoyalty {
			ratio := float64(years) / loyaltyCapYears
			if ratio > 1 {
				ratio = 1
			}
			pts := ratio * weights.loyalty
			base += pts
			contributions = append(contributions, Contribution{Criterion: "loyalty", Points: pts})
		}

		bonus := 0.0
		referredCount := 0
		referredRevenue := decimal.Zero
		if opts.IncludeReferrals && in.Referral != nil {
			bonus = referralBonus(in.Referral, opts)
			referredCount = in.Referral.ReferredCount
			referredRevenue = in.Referral.TotalRevenue
		}

		score := base + bonus
		if score <= opts.MinScore {
			continue
		}

		candidates = append(candidates, Candidate{
			PatientID:       in.PatientID,
			Code:            in.Code,
			ChartNo:         in.ChartNo,
			Name:            in.Name,
			Score:           score,
			BaseScore:       base,
			ReferralBonus:   bonus,
			Grade:           GradeForScore(score),
			Reason:          buildReason(in, opts, years, referredCount),
			Contributions:   contributions,
			FamilyMembers:   in.FamilyMembers,
			ReferredCount:   referredCount,
			ReferredRevenue: referredRevenue,
			Summary:         in.Summary,
		})
	}

	// Stable sort keeps encounter order for equal scores
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}
	return candidates, nil
}

// revenueCriterionLabels are the reason-text labels, in criterion terms
var revenueCriterionLabels = map[RevenueCriterion]string{
	RevenueTotal:      "yearly revenue",
	RevenueNoncovered: "noncovered revenue",
	RevenueCopay:      "copay revenue",
}

// buildReason assembles the human-readable explanation by appending, in a
// fixed order, only the facts that actually contributed: selected revenue
// figures (in selection order), visit count, relationship years (3+ only),
// household size, and referral count.
func buildReason(in CandidateInput, opts ScoringOptions, years, referredCount int) string {
	parts := make([]string, 0, 6)

	for _, c := range opts.RevenueCriteria {
		v := revenueValue(in.Summary, c)
		if v > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", revenueCriterionLabels[c], formatAmount(in.Summary, c)))
		}
	}
	if opts.IncludeVisits && in.Summary.VisitCount > 0 {
		parts = append(parts, fmt.Sprintf("%d visits", in.Summary.VisitCount))
	}
	if opts.IncludeLoyalty && years >= 3 {
		parts = append(parts, fmt.Sprintf("%d-year relationship", years))
	}
	if len(in.FamilyMembers) > 0 {
		parts = append(parts, fmt.Sprintf("household of %d", len(in.FamilyMembers)))
	}
	if referredCount > 0 {
		parts = append(parts, fmt.Sprintf("%d referrals", referredCount))
	}
	return strings.Join(parts, ", ")
}

// formatAmount renders the selected revenue figure without fractional digits
func formatAmount(s LedgerSummary, c RevenueCriterion) string {
	switch c {
	case RevenueNoncovered:
		return s.NoncoveredRevenue.StringFixed(0)
	case RevenueCopay:
		return s.CopayRevenue.StringFixed(0)
	default:
		return s.TotalRevenue.StringFixed(0)
	}
}
