package vip

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// ReferralEdge records that one customer brought in another. The referrer is
// identified by chart number because that is what the free-text annotation
// embeds; the referred side carries the external customer code.
type ReferralEdge struct {
	ReferrerChartNo string
	ReferredCode    string
}

// ReferralAggregate accumulates, per referrer, the lifetime revenue of every
// customer that referrer brought in. Keyed by the referrer's chart number so
// the scoring engine can match it back to the candidate pool.
type ReferralAggregate struct {
	ReferrerChartNo   string          `json:"referrer_chart_no"`
	ReferredCount     int             `json:"referred_count"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	NoncoveredRevenue decimal.Decimal `json:"noncovered_revenue"`
}

// ReferralExtractor extracts a referrer chart number from a free-text
// annotation. Extraction is brittle text mining, so it lives behind this
// interface where it can be tested and replaced in isolation.
type ReferralExtractor interface {
	// Extract returns the referrer's chart number and true when the note
	// carries a parsable token, or false when it does not.
	Extract(note string) (string, bool)
}

// referralTokenPattern matches the bracketed referrer token, e.g. "[REF:C-1042]".
// The tag is case-insensitive and surrounding text is arbitrary.
var referralTokenPattern = regexp.MustCompile(`(?i)\[ref:\s*([a-z0-9_-]+)\s*\]`)

// TokenReferralExtractor parses the standard bracketed referral token
type TokenReferralExtractor struct{}

// NewTokenReferralExtractor creates the default extractor
func NewTokenReferralExtractor() *TokenReferralExtractor {
	return &TokenReferralExtractor{}
}

// Extract implements ReferralExtractor
func (e *TokenReferralExtractor) Extract(note string) (string, bool) {
	if note == "" {
		return "", false
	}
	m := referralTokenPattern.FindStringSubmatch(note)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Ensure TokenReferralExtractor implements ReferralExtractor
var _ ReferralExtractor = (*TokenReferralExtractor)(nil)
