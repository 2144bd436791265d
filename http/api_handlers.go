package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

func (a *App) RegisterAPIHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("POST /api/retrain", a.handleRetrain)
	mux.HandleFunc("GET /api/metrics", a.handleMetrics)
}

const (
	metricRequests      = "http_requests_total"
	metricPredictions   = "predictions_total"
	metricFallbacks     = "prediction_fallbacks_total"
	metricModelAccuracy = "model_accuracy"
)

type healthResponse struct {
	Status     string `json:"status"`
	ModelRunID string `json:"model_run_id,omitempty"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	artifact := a.models.Current()
	if artifact == nil {
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "no model loaded"})
		return
	}
	a.metrics.SetGauge(metricModelAccuracy, artifact.Accuracy, nil)
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", ModelRunID: artifact.RunID})
}

func (a *App) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if artifact := a.models.Current(); artifact != nil {
		a.metrics.SetGauge(metricModelAccuracy, artifact.Accuracy, nil)
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if _, err := io.WriteString(w, a.metrics.ExportPrometheus()); err != nil {
		a.logger.Warn("Failed to write metrics", zap.Error(err))
	}
}

type retrainResponse struct {
	RunID     string    `json:"run_id"`
	Accuracy  float64   `json:"accuracy"`
	TrainedAt time.Time `json:"trained_at"`
}

func (a *App) handleRetrain(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.LoggedIn() {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return
	}

	a.logger.Info("retraining requested", zap.String("email", sess.Email()))
	artifact, err := a.models.Retrain(r.Context())
	if err != nil {
		a.logger.Error("Retraining failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "retraining failed"})
		return
	}
	a.metrics.SetGauge(metricModelAccuracy, artifact.Accuracy, nil)
	respondJSON(w, http.StatusOK, retrainResponse{
		RunID:     artifact.RunID,
		Accuracy:  artifact.Accuracy,
		TrainedAt: artifact.TrainedAt,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("Failed to encode JSON", zap.Error(err))
	}
}
