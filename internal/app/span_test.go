package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpanFixed(t *testing.T) {
	span, err := ParseSpan("10")
	require.NoError(t, err)
	assert.Equal(t, Span{Min: 10, Max: 10}, span)
	assert.Equal(t, "10", span.String())
}

func TestParseSpanRange(t *testing.T) {
	span, err := ParseSpan("10-20")
	require.NoError(t, err)
	assert.Equal(t, Span{Min: 10, Max: 20}, span)
	assert.Equal(t, "10-20", span.String())
}

func TestParseSpanWhitespace(t *testing.T) {
	span, err := ParseSpan(" 5 - 15 ")
	require.NoError(t, err)
	assert.Equal(t, Span{Min: 5, Max: 15}, span)
}

func TestParseSpanInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "10-", "-5", "20-10", "10-abc"} {
		_, err := ParseSpan(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestSpanSampleFixed(t *testing.T) {
	span := Span{Min: 10, Max: 10}
	for range 20 {
		assert.Equal(t, 10*time.Second, span.Sample())
	}
}

func TestSpanSampleRangeBounds(t *testing.T) {
	span := Span{Min: 10, Max: 20}

	seen := make(map[time.Duration]bool)
	for range 2000 {
		d := span.Sample()
		assert.GreaterOrEqual(t, d, 10*time.Second)
		assert.LessOrEqual(t, d, 20*time.Second)
		assert.Zero(t, d%time.Second, "samples are whole seconds")
		seen[d] = true
	}

	// Uniform draw over 11 values: all of them show up across 2000 trials.
	assert.Len(t, seen, 11)
}

func TestSpanUnmarshalText(t *testing.T) {
	var span Span
	require.NoError(t, span.UnmarshalText([]byte("30-120")))
	assert.Equal(t, Span{Min: 30, Max: 120}, span)

	assert.Error(t, span.UnmarshalText([]byte("bogus")))
}

func TestSpanIsZero(t *testing.T) {
	assert.True(t, Span{}.IsZero())
	assert.False(t, Span{Min: 0, Max: 1}.IsZero())
}
