package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEarnedForStreak(t *testing.T) {
	tests := []struct {
		name   string
		streak int
		want   []BadgeID
	}{
		{"zero streak", 0, nil},
		{"below first threshold", 29, nil},
		{"exactly 30", 30, []BadgeID{Badge30Day}},
		{"between 30 and 60", 59, []BadgeID{Badge30Day}},
		{"exactly 60", 60, []BadgeID{Badge30Day, Badge60Day}},
		{"90 days", 90, []BadgeID{Badge30Day, Badge60Day, Badge90Day}},
		{"a full year", 365, []BadgeID{Badge30Day, Badge60Day, Badge90Day, Badge365Day}},
		{"beyond all thresholds", 1000, []BadgeID{Badge30Day, Badge60Day, Badge90Day, Badge365Day}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EarnedForStreak(tt.streak))
		})
	}
}

func TestEarnedForStreakMonotonic(t *testing.T) {
	prev := 0
	for s := 0; s <= 400; s++ {
		got := len(EarnedForStreak(s))
		assert.GreaterOrEqual(t, got, prev, "badge count shrank at streak %d", s)
		prev = got
	}
}

func TestMergeSanitizesMalformedInput(t *testing.T) {
	tests := []struct {
		name     string
		existing any
		streak   int
		want     []BadgeID
	}{
		{"nil input", nil, 0, []BadgeID{}},
		{"non-array input", "30_day", 30, []BadgeID{Badge30Day}},
		{"map input", map[string]int{"30_day": 1}, 0, []BadgeID{}},
		{"unrecognized entries dropped", []string{"30_day", "1000_day", "gold"}, 0, []BadgeID{Badge30Day}},
		{"non-string entries dropped", []any{"60_day", 42, true, nil}, 0, []BadgeID{Badge60Day}},
		{"jsonb decoded array", []any{"30_day", "60_day"}, 0, []BadgeID{Badge30Day, Badge60Day}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.existing, tt.streak))
		})
	}
}

func TestMergeNeverRemoves(t *testing.T) {
	// A badge earned under an old streak survives a lower current streak.
	got := Merge([]string{"90_day"}, 5)
	assert.Equal(t, []BadgeID{Badge90Day}, got)
}

func TestMergeIdempotent(t *testing.T) {
	first := Merge([]string{"30_day"}, 60)
	second := Merge(first, 60)
	assert.Equal(t, first, second)
}

func TestMergeAddsNewMilestone(t *testing.T) {
	got := Merge([]string{"30_day"}, 60)
	assert.Equal(t, []BadgeID{Badge30Day, Badge60Day}, got)
}
