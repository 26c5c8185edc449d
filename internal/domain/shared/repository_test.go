package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterNormalized(t *testing.T) {
	tests := []struct {
		name         string
		in           Filter
		wantPage     int
		wantPageSize int
	}{
		{"zero values clamp to defaults", Filter{}, 1, 20},
		{"negative page clamps to first", Filter{Page: -3, PageSize: 50}, 1, 50},
		{"oversized page size capped", Filter{Page: 2, PageSize: 10000}, 2, 500},
		{"valid values pass through", Filter{Page: 4, PageSize: 25}, 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalized()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPageSize, got.PageSize)
		})
	}
}

func TestFilterOffset(t *testing.T) {
	assert.Equal(t, 0, Filter{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.Equal(t, "desc", f.OrderDir)
}
