package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegressor(t *testing.T) {
	forest, err := LoadFile(filepath.Join("testdata", "regressor.json"), KindRegressor)
	require.NoError(t, err)

	assert.Len(t, forest.Trees, 2)
	assert.Equal(t, []string{"a", "b"}, forest.Features())
	assert.Equal(t, 2, forest.NumFeatures())

	inputs := [][]float64{{0., 0.}, {2.5, 9.}, {3., 0.}, {100., -4.}}
	expected := []float64{3., 3., 4., 4.}
	for i, input := range inputs {
		out, err := forest.Predict(input)
		require.NoError(t, err)
		assert.InDelta(t, expected[i], out, 1e-12, "at i=%d", i)
	}
}

func TestLoadClassifier(t *testing.T) {
	forest, err := LoadFile(filepath.Join("testdata", "classifier.json"), KindClassifier)
	require.NoError(t, err)

	assert.Empty(t, forest.Features())
	assert.Equal(t, 1, forest.NumFeatures())

	proba, err := forest.PredictProba([]float64{0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.375, 0.125}, proba, 1e-12)

	label, err := forest.Classify([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	label, err = forest.Classify([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, 2, label)
}

func TestClassifyReportsDeclaredLabels(t *testing.T) {
	forest := &Forest{
		Kind:    KindClassifier,
		Classes: []int{7, 9},
		Trees: []Tree{
			{Distributions: [][]float64{{1, 4}}, FeatureSize: 1},
		},
	}
	require.NoError(t, forest.Validate())

	label, err := forest.Classify([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 9, label)
}

func TestClassifyTieGoesToFirstClass(t *testing.T) {
	forest := &Forest{
		Kind:    KindClassifier,
		Classes: []int{0, 1},
		Trees: []Tree{
			{Distributions: [][]float64{{1, 1}}, FeatureSize: 1},
		},
	}

	label, err := forest.Classify([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestPredictWrongWidth(t *testing.T) {
	forest, err := LoadFile(filepath.Join("testdata", "regressor.json"), KindRegressor)
	require.NoError(t, err)

	_, err = forest.Predict([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrFeatureCount)
}

func TestPredictWrongKind(t *testing.T) {
	forest, err := LoadFile(filepath.Join("testdata", "classifier.json"), KindClassifier)
	require.NoError(t, err)

	_, err = forest.Predict([]float64{0})
	assert.Error(t, err)
}

func TestLoadFileKindMismatch(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "regressor.json"), KindClassifier)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected classifier model")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"), KindRegressor)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidModels(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "not json",
			body:    `{"kind":`,
			wantErr: "failed to decode model",
		},
		{
			name:    "unknown kind",
			body:    `{"kind":"svm","trees":[{"outputs":[1],"feature_size":1}]}`,
			wantErr: "unknown model kind",
		},
		{
			name:    "no trees",
			body:    `{"kind":"regressor","trees":[]}`,
			wantErr: "forest has no trees",
		},
		{
			name:    "classifier without classes",
			body:    `{"kind":"classifier","trees":[{"distributions":[[1]],"feature_size":1}]}`,
			wantErr: "declares no classes",
		},
		{
			name:    "feature names disagree with width",
			body:    `{"kind":"regressor","feature_names":["a","b"],"trees":[{"outputs":[1],"feature_size":1}]}`,
			wantErr: "declares 2 feature names",
		},
		{
			name: "leaf out of range",
			body: `{"kind":"regressor","trees":[{"nodes":[{"feature_index":0,"threshold":1,"left_child":0,"left_is_leaf":true,"right_child":5,"right_is_leaf":true}],"outputs":[1,2],"feature_size":1,"depth":1}]}`,
			wantErr: "leaf index 5 out of range",
		},
		{
			name: "split feature out of range",
			body: `{"kind":"regressor","trees":[{"nodes":[{"feature_index":3,"threshold":1,"left_child":0,"left_is_leaf":true,"right_child":1,"right_is_leaf":true}],"outputs":[1,2],"feature_size":1,"depth":1}]}`,
			wantErr: "splits on feature 3",
		},
		{
			name:    "distribution width mismatch",
			body:    `{"kind":"classifier","classes":[0,1],"trees":[{"distributions":[[1,2,3]],"feature_size":1}]}`,
			wantErr: "has 3 class weights",
		},
		{
			name:    "mixed tree widths",
			body:    `{"kind":"regressor","trees":[{"outputs":[1],"feature_size":1},{"outputs":[1],"feature_size":2}]}`,
			wantErr: "tree 1 expects 2 features",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShippedModelsLoad(t *testing.T) {
	dir := filepath.Join("..", "..", "models")
	if _, err := os.Stat(dir); err != nil {
		t.Skip("models directory not present")
	}

	reg, err := LoadFile(filepath.Join(dir, "RandomForestRegressor.json"), KindRegressor)
	require.NoError(t, err)
	assert.Equal(t, 9, reg.NumFeatures())

	clf, err := LoadFile(filepath.Join(dir, "RandomForestClassifier.json"), KindClassifier)
	require.NoError(t, err)
	assert.Equal(t, 10, clf.NumFeatures())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, clf.Classes)
}
