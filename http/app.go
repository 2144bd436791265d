package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"diabetesrisk/auth"
	"diabetesrisk/db"
	"diabetesrisk/ml"
	"diabetesrisk/monitoring"
	"diabetesrisk/session"
	"go.uber.org/zap"
)

// PredictionStore is the persistence the web layer needs.
type PredictionStore interface {
	SavePrediction(ctx context.Context, email string, features ml.Features, label int) (int64, error)
	PredictionHistory(ctx context.Context, email string) ([]db.PredictionRecord, error)
}

// ModelProvider exposes the process-wide model.
type ModelProvider interface {
	Current() *ml.Artifact
	Predictor() *ml.Predictor
	Retrain(ctx context.Context) (*ml.Artifact, error)
}

// App holds what the handlers share.
type App struct {
	auth      *auth.Service
	sessions  *session.Manager
	store     PredictionStore
	models    ModelProvider
	templates map[string]*template.Template
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

func NewApp(authService *auth.Service, sessions *session.Manager, store PredictionStore, models ModelProvider, logger *zap.Logger) (*App, error) {
	if authService == nil || sessions == nil || store == nil || models == nil {
		return nil, errors.New("http: app dependencies must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &App{
		auth:      authService,
		sessions:  sessions,
		store:     store,
		models:    models,
		templates: templates,
		metrics:   newAppMetrics(),
		logger:    logger,
	}, nil
}

// Metrics returns the collector the handlers and server record into.
func (a *App) Metrics() *monitoring.MetricsCollector {
	return a.metrics
}

func newAppMetrics() *monitoring.MetricsCollector {
	mc := monitoring.NewMetricsCollector()
	mc.Describe(metricRequests, "HTTP requests by method and status")
	mc.Describe(metricPredictions, "Stored predictions by result")
	mc.Describe(metricFallbacks, "Predictions answered by the fallback label")
	mc.Describe(metricModelAccuracy, "Held-out accuracy of the loaded model")
	return mc
}

// Handler returns the routed application wrapped in the session middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.RegisterHandlers(mux)
	a.RegisterPredictHandlers(mux)
	a.RegisterAPIHandlers(mux)
	mux.Handle("GET /static/", staticHandler())
	return a.sessionMiddleware(mux)
}

type sessionKey struct{}

func (a *App) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := a.sessions.Load(r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	if sess, ok := r.Context().Value(sessionKey{}).(*session.Session); ok {
		return sess
	}
	return &session.Session{}
}

// requireLogin sends anonymous visitors to the login page.
func (a *App) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if !sess.LoggedIn() {
			sess.AddFlash(session.FlashWarning, msgLoginRequired)
			a.redirect(w, r, "/login")
			return
		}
		next(w, r)
	}
}

// redirect saves the session before sending the client to target.
func (a *App) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if err := a.sessions.Save(w, sessionFrom(r)); err != nil {
		a.logger.Error("Failed to save session", zap.Error(err))
	}
	http.Redirect(w, r, target, http.StatusFound)
}
