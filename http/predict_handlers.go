package http

import (
	"net/http"
	"strconv"
	"strings"

	"diabetesrisk/ml"
	"diabetesrisk/session"
	"go.uber.org/zap"
)

const (
	msgNoPrediction = "No prediction found. Please submit the form first."
	msgSaveFailed   = "Could not save your prediction. Please try again."
	msgHistoryError = "Could not load your history. Please try again."
	msgMinimumAge   = "Age must be at least 18"
	minimumAge      = 18
)

// requiredPredictFields must be filled on the web form even though the
// normalizer would default them.
var requiredPredictFields = []string{"glucose", "blood_pressure", "bmi", "age"}

func (a *App) RegisterPredictHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /predict", a.requireLogin(a.handlePredictForm))
	mux.HandleFunc("POST /predict", a.requireLogin(a.handlePredict))
	mux.HandleFunc("GET /advice", a.requireLogin(a.handleAdvice))
	mux.HandleFunc("GET /history", a.requireLogin(a.handleHistory))
}

func (a *App) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "predict", pageData{Title: "Predict"})
}

func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	submitted := make(map[string]string, len(r.PostForm))
	input := make(map[string]any, len(r.PostForm))
	for key := range r.PostForm {
		value := strings.TrimSpace(r.PostForm.Get(key))
		submitted[key] = value
		input[key] = value
	}
	rejected := func(message string) {
		sess.AddFlash(session.FlashDanger, "Invalid input: "+message)
		a.render(w, r, http.StatusBadRequest, "predict", pageData{Title: "Predict", Form: submitted})
	}

	for _, field := range requiredPredictFields {
		if submitted[field] == "" {
			rejected(field + " is required")
			return
		}
	}
	features, err := ml.FeaturesFromInput(input)
	if err != nil {
		rejected(err.Error())
		return
	}
	if features.Age < minimumAge {
		rejected(msgMinimumAge)
		return
	}

	result := a.models.Predictor().Predict(features.Vector())
	email := sess.Email()
	id, err := a.store.SavePrediction(r.Context(), email, features, result.Label)
	if err != nil {
		a.logger.Error("Failed to save prediction", zap.String("email", email), zap.Error(err))
		sess.AddFlash(session.FlashDanger, msgSaveFailed)
		a.render(w, r, http.StatusInternalServerError, "predict", pageData{Title: "Predict", Form: submitted})
		return
	}
	a.metrics.IncrCounter(metricPredictions, 1, map[string]string{"result": strconv.Itoa(result.Label)})
	if result.Fallback {
		a.metrics.IncrCounter(metricFallbacks, 1, nil)
	}
	a.logger.Info("prediction made",
		zap.Int64("id", id),
		zap.Int("label", result.Label),
		zap.Float64("probability", result.Probability),
		zap.Bool("fallback", result.Fallback))

	sess.SetPrediction(result.Label)
	a.redirect(w, r, "/advice")
}

func (a *App) handleAdvice(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	label, ok := sess.Prediction()
	if !ok {
		sess.AddFlash(session.FlashWarning, msgNoPrediction)
		a.redirect(w, r, "/predict")
		return
	}
	a.render(w, r, http.StatusOK, "advice", pageData{Title: "Advice", Prediction: label})
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	history, err := a.store.PredictionHistory(r.Context(), sess.Email())
	if err != nil {
		a.logger.Error("Failed to load history", zap.String("email", sess.Email()), zap.Error(err))
		sess.AddFlash(session.FlashDanger, msgHistoryError)
		a.render(w, r, http.StatusInternalServerError, "history", pageData{Title: "History"})
		return
	}
	a.render(w, r, http.StatusOK, "history", pageData{Title: "History", History: history})
}
