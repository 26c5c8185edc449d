package vip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenReferralExtractor_Extract(t *testing.T) {
	extractor := NewTokenReferralExtractor()

	t.Run("extracts a plain token", func(t *testing.T) {
		chartNo, ok := extractor.Extract("[REF:C-1042]")
		assert.True(t, ok)
		assert.Equal(t, "C-1042", chartNo)
	})

	t.Run("token may sit inside surrounding text", func(t *testing.T) {
		chartNo, ok := extractor.Extract("long-time patient, introduced by [REF:CH_77] in 2019")
		assert.True(t, ok)
		assert.Equal(t, "CH_77", chartNo)
	})

	t.Run("tag is case-insensitive", func(t *testing.T) {
		chartNo, ok := extractor.Extract("[ref:c-1042]")
		assert.True(t, ok)
		assert.Equal(t, "c-1042", chartNo)
	})

	t.Run("whitespace around the chart number is tolerated", func(t *testing.T) {
		chartNo, ok := extractor.Extract("[REF: C-1042 ]")
		assert.True(t, ok)
		assert.Equal(t, "C-1042", chartNo)
	})

	t.Run("first token wins when several are present", func(t *testing.T) {
		chartNo, ok := extractor.Extract("[REF:FIRST] then [REF:SECOND]")
		assert.True(t, ok)
		assert.Equal(t, "FIRST", chartNo)
	})

	t.Run("empty note yields nothing", func(t *testing.T) {
		_, ok := extractor.Extract("")
		assert.False(t, ok)
	})

	t.Run("note without a token yields nothing", func(t *testing.T) {
		_, ok := extractor.Extract("referred by her sister")
		assert.False(t, ok)
	})

	t.Run("malformed token yields nothing", func(t *testing.T) {
		for _, note := range []string{"[REF:]", "[REF C-1042]", "[REF:C@42]"} {
			_, ok := extractor.Extract(note)
			assert.False(t, ok, "note %q should not parse", note)
		}
	})
}
