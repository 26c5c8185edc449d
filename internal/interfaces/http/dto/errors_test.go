package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRange, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// Codes outside the catalog fall back to 500
		{"ERR_SOMETHING_ELSE", http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

// Every code in the catalog must resolve to a concrete HTTP status,
// otherwise new codes silently surface as 500s.
func TestEveryCatalogCodeHasStatus(t *testing.T) {
	for code, status := range ErrorCodeHTTPStatus {
		assert.GreaterOrEqual(t, status, 400, "code %s maps to non-error status %d", code, status)
		assert.Less(t, status, 600, "code %s maps to invalid status %d", code, status)
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Domain error codes from the shared error types
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"INTERNAL_ERROR", ErrCodeInternal},
		{"REQUEST_TOO_LARGE", ErrCodeRequestTooLarge},
		// Candidate engine and registry codes
		{"INVALID_YEAR", ErrCodeValidationRange},
		{"INVALID_SCORE", ErrCodeValidationRange},
		{"INVALID_GRADE", ErrCodeInvalidInput},
		{"INVALID_PATIENT", ErrCodeInvalidInput},
		{"INVALID_CRITERIA", ErrCodeInvalidInput},
		{"INVALID_LEDGER_ROW", ErrCodeInvalidInput},
		// Already-normalized codes pass through
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeBusinessRule, ErrCodeBusinessRule},
		// Unknown codes pass through untouched
		{"SOME_VENDOR_CODE", "SOME_VENDOR_CODE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

// Normalized targets of the legacy mapping must themselves be in the
// catalog, so a mapped domain error always gets the right status.
func TestLegacyMappingTargetsAreCataloged(t *testing.T) {
	for legacy, normalized := range LegacyErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[normalized]
		assert.True(t, ok, "legacy code %s maps to uncataloged code %s", legacy, normalized)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("NOT_FOUND", "Patient not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code, "domain code should be normalized")
	assert.Equal(t, "Patient not found", resp.Error.Message)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeAlreadyExists, "Designation already exists for 2026", "req-reg-001")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeAlreadyExists, resp.Error.Code)
	assert.Equal(t, "Designation already exists for 2026", resp.Error.Message)
	assert.Equal(t, "req-reg-001", resp.Error.RequestID)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "patient_id", Message: "Invalid UUID format"},
		{Field: "year", Message: "Must be 2000 or later"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-reg-002", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Validation failed", resp.Error.Message)
	assert.Equal(t, "req-reg-002", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "patient_id", resp.Error.Details[0].Field)
	assert.Equal(t, "Invalid UUID format", resp.Error.Details[0].Message)
}

func TestNewErrorResponseWithHelp(t *testing.T) {
	help := "https://docs.example.com/errors/designations"
	resp := NewErrorResponseWithHelp(ErrCodeInvalidState, "Year is closed for designation changes", "req-003", help)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidState, resp.Error.Code)
	assert.Equal(t, "Year is closed for designation changes", resp.Error.Message)
	assert.Equal(t, help, resp.Error.Help)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Patient not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeNotFound, decoded.Error.Code)
	assert.Equal(t, "Patient not found", decoded.Error.Message)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}

func TestErrorResponseTimestamp(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeInternal, "Server error")
	after := time.Now()

	assert.False(t, resp.Error.Timestamp.Before(before))
	assert.False(t, resp.Error.Timestamp.After(after))
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"grade": "gold"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"cand-1", "cand-2"}, 100, 1, 10)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 10, resp.Meta.PageSize)
	assert.Equal(t, 10, resp.Meta.TotalPages)
}

func TestNewSuccessResponseWithMetaPagination(t *testing.T) {
	tests := []struct {
		name          string
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{"even pages", 100, 10, 10, 10},
		{"partial last page", 101, 10, 11, 10},
		{"empty result", 0, 10, 0, 10},
		{"single short page", 9, 10, 1, 10},
		{"boundary just over", 11, 10, 2, 10},
		{"zero page size defaults to 20", 100, 0, 5, 20},
		{"negative page size defaults to 20", 100, -1, 5, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
			assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
		})
	}
}
