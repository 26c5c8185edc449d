package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC. Anything
// other than a case-insensitive "asc" falls back to DESC, so raw query
// parameters can never reach the ORDER BY clause.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks the requested field against a whitelist. Empty,
// unknown, or hostile input returns defaultField. Matching is exact and
// case sensitive; column names are lowercase in the schema.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// sortFields builds a whitelist seeded with the audit columns every table has
func sortFields(columns ...string) map[string]bool {
	fields := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
	}
	for _, c := range columns {
		fields[c] = true
	}
	return fields
}

// PatientSortFields is the whitelist for patient roster ordering
var PatientSortFields = sortFields(
	"code",
	"chart_no",
	"name",
	"status",
	"household_code",
	"first_visit_at",
	"vip_grade",
)
