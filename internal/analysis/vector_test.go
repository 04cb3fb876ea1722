package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildVector(t *testing.T) {
	values := map[string]float64{"a": 1, "b": 2, "c": 3}

	tests := []struct {
		name     string
		names    []string
		fallback []string
		expected []float64
	}{
		{
			name:     "follows declared order",
			names:    []string{"c", "a", "b"},
			fallback: []string{"a", "b", "c"},
			expected: []float64{3, 1, 2},
		},
		{
			name:     "unknown names are zero",
			names:    []string{"a", "zzz"},
			fallback: []string{"a", "b", "c"},
			expected: []float64{1, 0},
		},
		{
			name:     "uses fallback without declared names",
			names:    nil,
			fallback: []string{"b", "a"},
			expected: []float64{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildVector(tt.names, values, tt.fallback))
		})
	}
}

func TestVectorLengthFollowsSchema(t *testing.T) {
	values := Normalize(DefaultInputs()).Values()

	assert.Len(t, BuildVector(nil, values, FieldNames), 9)
	assert.Len(t, BuildVector(nil, values, ClassifierFieldNames), 10)
	assert.Len(t, BuildVector([]string{"cgpa", "cgpa", "x", "y"}, values, FieldNames), 4)
}

func TestClassifierFallbackOrder(t *testing.T) {
	assert.Equal(t, FeatureActivityScore, ClassifierFieldNames[len(ClassifierFieldNames)-1])
	assert.Equal(t, FieldNames, ClassifierFieldNames[:len(FieldNames)])
}
