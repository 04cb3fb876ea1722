package model

import (
	"fmt"
	"math"
)

// Kind distinguishes regression forests from classification forests
type Kind string

const (
	KindRegressor  Kind = "regressor"
	KindClassifier Kind = "classifier"
)

// A Forest averages the outputs of its trees. Regressors average leaf values, classifiers
// average leaf class probabilities and report the class with the highest mean.
type Forest struct {
	Kind Kind `json:"kind"`
	// FeatureNames is the column order the forest was fit on. It may be empty.
	FeatureNames []string `json:"feature_names,omitempty"`
	// Classes holds the label reported for each distribution slot (classifiers only)
	Classes []int  `json:"classes,omitempty"`
	Trees   []Tree `json:"trees"`
}

// Features returns the declared feature order, or nil when the forest declares none.
func (f *Forest) Features() []string {
	return f.FeatureNames
}

// NumFeatures returns the vector width expected by the forest.
func (f *Forest) NumFeatures() int {
	if len(f.Trees) == 0 {
		return 0
	}
	return f.Trees[0].FeatureSize
}

// Predict computes the mean regression output over all trees.
func (f *Forest) Predict(x []float64) (float64, error) {
	if f.Kind != KindRegressor {
		return 0, fmt.Errorf("predict called on %s forest", f.Kind)
	}
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("forest has no trees")
	}

	var sum float64
	for i := range f.Trees {
		v, err := f.Trees[i].Evaluate(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}

	out := sum / float64(len(f.Trees))
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("forest produced non-finite output")
	}
	return out, nil
}

// PredictProba computes the mean class distribution over all trees.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if f.Kind != KindClassifier {
		return nil, fmt.Errorf("predict_proba called on %s forest", f.Kind)
	}
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}

	mean := make([]float64, len(f.Classes))
	for i := range f.Trees {
		p, err := f.Trees[i].Proba(x)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		for c, v := range p {
			mean[c] += v
		}
	}
	for c := range mean {
		mean[c] /= float64(len(f.Trees))
	}
	return mean, nil
}

// Classify returns the label of the most probable class. Ties go to the lowest slot.
func (f *Forest) Classify(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}

	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.Classes[best], nil
}

// Validate checks the forest is internally consistent so inference cannot index out of range.
func (f *Forest) Validate() error {
	switch f.Kind {
	case KindRegressor:
	case KindClassifier:
		if len(f.Classes) == 0 {
			return fmt.Errorf("classifier declares no classes")
		}
	default:
		return fmt.Errorf("unknown model kind %q", f.Kind)
	}

	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}

	width := f.Trees[0].FeatureSize
	if len(f.FeatureNames) > 0 && len(f.FeatureNames) != width {
		return fmt.Errorf("forest declares %d feature names but trees expect %d features", len(f.FeatureNames), width)
	}

	for i := range f.Trees {
		if f.Trees[i].FeatureSize != width {
			return fmt.Errorf("tree %d expects %d features, tree 0 expects %d", i, f.Trees[i].FeatureSize, width)
		}
		if err := f.Trees[i].validate(f.Kind, len(f.Classes)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
