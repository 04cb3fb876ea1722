package database

import (
	"time"

	"github.com/google/uuid"
)

// Endpoint names stored with each prediction
const (
	EndpointScore = "predict_score"
	EndpointRisk  = "predict_risk"
)

// Prediction is one recorded prediction outcome. Raw request inputs are never stored.
type Prediction struct {
	ID            string    `json:"id"`
	Endpoint      string    `json:"endpoint"`
	ActivityScore float64   `json:"activity_score"`
	Score         *float64  `json:"score,omitempty"`
	RiskIndex     *int      `json:"risk_index,omitempty"`
	RiskLevel     string    `json:"risk_level"`
	CreatedAt     time.Time `json:"created_at"`
}

// EndpointStats aggregates the history of one endpoint
type EndpointStats struct {
	Endpoint         string   `json:"endpoint"`
	Count            int64    `json:"count"`
	AvgActivityScore float64  `json:"avg_activity_score"`
	AvgScore         *float64 `json:"avg_score,omitempty"`
	AvgRiskIndex     *float64 `json:"avg_risk_index,omitempty"`
}

// NewScorePrediction records a /predict_score outcome
func NewScorePrediction(score, activityScore float64, riskLevel string) *Prediction {
	return &Prediction{
		ID:            uuid.New().String(),
		Endpoint:      EndpointScore,
		ActivityScore: activityScore,
		Score:         &score,
		RiskLevel:     riskLevel,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewRiskPrediction records a /predict_risk outcome
func NewRiskPrediction(riskIndex int, activityScore float64, riskLevel string) *Prediction {
	return &Prediction{
		ID:            uuid.New().String(),
		Endpoint:      EndpointRisk,
		ActivityScore: activityScore,
		RiskIndex:     &riskIndex,
		RiskLevel:     riskLevel,
		CreatedAt:     time.Now().UTC(),
	}
}
