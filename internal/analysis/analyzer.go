package analysis

import (
	"fmt"
	"math"

	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
)

// Regressor predicts a continuous score from a feature vector.
type Regressor interface {
	Predict(x []float64) (float64, error)
	// Features returns the declared feature order, or nil when the model declares none
	Features() []string
}

// Classifier predicts a class label from a feature vector.
type Classifier interface {
	Classify(x []float64) (int, error)
	Features() []string
}

// Analyzer runs both models over request inputs. It holds no mutable state and is safe for
// concurrent use once built.
type Analyzer struct {
	regressor  Regressor
	classifier Classifier
}

// NewAnalyzer creates an analyzer around the loaded models
func NewAnalyzer(regressor Regressor, classifier Classifier) *Analyzer {
	return &Analyzer{
		regressor:  regressor,
		classifier: classifier,
	}
}

// prepared is the per-request state shared by both predictions
type prepared struct {
	raw      RawInputs
	scaled   ScaledFields
	activity float64
}

func prepare(payload map[string]any) (prepared, error) {
	raw, err := ParseRawInputs(payload)
	if err != nil {
		return prepared{}, err
	}
	scaled := Normalize(raw)

	// finite inputs large enough to overflow the weighted sum
	activity := ActivityScore(scaled)
	if !isFinite(activity) {
		return prepared{}, apperrors.NewValidationError(
			fmt.Sprintf("invalid value for %s: inputs are too large", FeatureActivityScore))
	}

	return prepared{
		raw:      raw,
		scaled:   scaled,
		activity: activity,
	}, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// PredictScore estimates the 0-10 academic score and attaches band text and suggestions.
func (a *Analyzer) PredictScore(payload map[string]any) (ScoreResult, error) {
	p, err := prepare(payload)
	if err != nil {
		return ScoreResult{}, err
	}

	vec := BuildVector(a.regressor.Features(), p.scaled.Values(), FieldNames)
	out, err := a.regressor.Predict(vec)
	if err != nil {
		return ScoreResult{}, apperrors.NewPredictionError("regressor", err)
	}
	if !isFinite(out) {
		return ScoreResult{}, apperrors.NewPredictionError("regressor", fmt.Errorf("non-finite output %v", out))
	}

	// round before clamping so the band helpers see the reported value
	score := clip(round2(out), 0, 10)

	return ScoreResult{
		Score:         score,
		ActivityScore: p.activity,
		Message:       MessageFromScore(score),
		RiskLevel:     RiskLevelFromScore(score),
		Suggestions:   Suggestions(p.raw, score),
	}, nil
}

// PredictRisk classifies the request into one of the risk bands. The classifier additionally
// sees the rounded activity score.
func (a *Analyzer) PredictRisk(payload map[string]any) (RiskResult, error) {
	p, err := prepare(payload)
	if err != nil {
		return RiskResult{}, err
	}

	values := p.scaled.Values()
	values[FeatureActivityScore] = p.activity

	vec := BuildVector(a.classifier.Features(), values, ClassifierFieldNames)
	idx, err := a.classifier.Classify(vec)
	if err != nil {
		return RiskResult{}, apperrors.NewPredictionError("classifier", err)
	}

	return RiskResult{
		RiskLevel:     RiskLabel(idx),
		RiskIndex:     idx,
		ActivityScore: p.activity,
		Suggestions:   Suggestions(p.raw, p.activity),
	}, nil
}

// ScoreFeatures is the feature order the regressor is evaluated with.
func (a *Analyzer) ScoreFeatures() []string {
	return Schema(a.regressor.Features(), FieldNames)
}

// RiskFeatures is the feature order the classifier is evaluated with.
func (a *Analyzer) RiskFeatures() []string {
	return Schema(a.classifier.Features(), ClassifierFieldNames)
}
