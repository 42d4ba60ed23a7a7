package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateParam(t *testing.T) {
	got, dateOnly, err := ParseDateParam("2024-05-02")
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), got)

	got, dateOnly, err = ParseDateParam("2024-05-02T10:30:00+03:00")
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, time.Date(2024, 5, 2, 7, 30, 0, 0, time.UTC), got.UTC())

	_, _, err = ParseDateParam("02.05.2024")
	assert.Error(t, err)
}

func TestEndOfDay(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	end := EndOfDay(day)
	assert.Equal(t, 2, end.Day())
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), end.Add(time.Nanosecond))
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"8", 8 * time.Hour, false},
		{"1.5", 90 * time.Minute, false},
		{"1,5", 90 * time.Minute, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"often", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"-Inf", 0, true},
		{"1e12", 0, true},
		{"2562047", 2562047 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHours(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
