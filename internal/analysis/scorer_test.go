package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, name := range FieldNames {
		w, ok := fieldWeights[name]
		assert.True(t, ok, "missing weight for %s", name)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Len(t, fieldWeights, len(FieldNames))
}

func TestActivityScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      func() RawInputs
		expected float64
	}{
		{
			name:     "defaults",
			raw:      DefaultInputs,
			expected: 2.29,
		},
		{
			name: "strong profile",
			raw: func() RawInputs {
				return RawInputs{Fields{
					Attendance:         90,
					CGPA:               8,
					Certificates:       3,
					Internships:        2,
					ExtraCurricular:    6,
					LibraryUsage:       30,
					ProjectInvolvement: 2,
					GPASem1:            8,
					GPASem2:            8,
				}}
			},
			expected: 5.45,
		},
		{
			name: "all zero",
			raw: func() RawInputs {
				return RawInputs{}
			},
			expected: 0,
		},
		{
			name: "not clamped above ten",
			raw: func() RawInputs {
				r := DefaultInputs()
				r.Certificates = 100
				return r
			},
			expected: 12.29,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActivityScore(Normalize(tt.raw()))
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.Equal(t, got, round2(got))
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.234, 1.23},
		{1.236, 1.24},
		{-1.236, -1.24},
		{9.999, 10},
		// stored just below the tie
		{1.115, 1.11},
		{2.675, 2.67},
		// exact binary ties go to even
		{0.125, 0.12},
		{0.375, 0.38},
		{-0.125, -0.12},
		{-1.5e306, -1.5e306},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}

	assert.True(t, math.IsInf(round2(1e307), 1))
	assert.True(t, math.IsInf(round2(-1e307), -1))
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, clip(-0.5, 0, 10))
	assert.Equal(t, 10.0, clip(12.3, 0, 10))
	assert.Equal(t, 4.2, clip(4.2, 0, 10))
}
