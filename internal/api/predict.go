package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/database"
	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
	"github.com/gin-gonic/gin"
)

// decodePayload reads the body as a single JSON object
func decodePayload(c *gin.Context) (map[string]any, *apperrors.AppError) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("request body too large: limit is %d bytes", maxErr.Limit))
		}
		return nil, apperrors.NewValidationError("failed to read request body", err)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.NewValidationError("invalid JSON body", err)
	}

	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, apperrors.NewValidationError("request body must be a JSON object")
	}
	return payload, nil
}

// fail renders a processing error. Every prediction failure is a 400 for the client.
func (h *Handler) fail(c *gin.Context, endpoint string, appErr *apperrors.AppError) {
	apperrors.LogError(c, appErr)
	h.Metrics.RecordPrediction(endpoint, false)
	h.Instruments.RecordPrediction(c.Request.Context(), endpoint, false)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: appErr.Error()})
}

// succeed encodes the response before anything is counted, so a result that cannot be rendered
// becomes a 400 instead of a recorded success. It reports whether the response was sent.
func (h *Handler) succeed(c *gin.Context, endpoint string, response any, started time.Time) bool {
	body, err := json.Marshal(response)
	if err != nil {
		h.fail(c, endpoint, apperrors.NewValidationError("failed to encode prediction", err))
		return false
	}

	h.Metrics.RecordPrediction(endpoint, true)
	h.Instruments.RecordPrediction(c.Request.Context(), endpoint, true)
	h.Logger.PredictionLogger(endpoint, response, time.Since(started))
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	return true
}

func (h *Handler) record(p *database.Prediction) {
	if h.Recorder != nil {
		h.Recorder.Record(p)
	}
}

// PredictScore godoc
// @Summary Predict the 0-10 academic score
// @Description Missing fields take their defaults. Numeric strings and booleans are accepted.
// @Tags predictions
// @Accept json
// @Produce json
// @Param request body analysis.Fields false "Student activity metrics"
// @Success 200 {object} analysis.ScoreResult
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} map[string]interface{}
// @Router /predict_score [post]
func (h *Handler) PredictScore(c *gin.Context) {
	const endpoint = database.EndpointScore
	started := time.Now()

	payload, appErr := decodePayload(c)
	if appErr != nil {
		h.fail(c, endpoint, appErr)
		return
	}
	h.Logger.PayloadLogger(endpoint, payload)

	result, err := h.Analyzer.PredictScore(payload)
	if err != nil {
		h.fail(c, endpoint, apperrors.ToAppError(err))
		return
	}

	if h.succeed(c, endpoint, result, started) {
		h.record(database.NewScorePrediction(result.Score, result.ActivityScore, result.RiskLevel))
	}
}

// PredictRisk godoc
// @Summary Classify the risk band
// @Description Missing fields take their defaults. Numeric strings and booleans are accepted.
// @Tags predictions
// @Accept json
// @Produce json
// @Param request body analysis.Fields false "Student activity metrics"
// @Success 200 {object} analysis.RiskResult
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} map[string]interface{}
// @Router /predict_risk [post]
func (h *Handler) PredictRisk(c *gin.Context) {
	const endpoint = database.EndpointRisk
	started := time.Now()

	payload, appErr := decodePayload(c)
	if appErr != nil {
		h.fail(c, endpoint, appErr)
		return
	}
	h.Logger.PayloadLogger(endpoint, payload)

	result, err := h.Analyzer.PredictRisk(payload)
	if err != nil {
		h.fail(c, endpoint, apperrors.ToAppError(err))
		return
	}

	if h.succeed(c, endpoint, result, started) {
		h.record(database.NewRiskPrediction(result.RiskIndex, result.ActivityScore, result.RiskLevel))
	}
}
