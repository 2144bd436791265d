package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"diabetesrisk/auth"
	"diabetesrisk/db"
	"diabetesrisk/session"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = []string{"login", "signup", "home", "predict", "advice", "history"}

var templateFuncs = template.FuncMap{
	"riskLabel": func(result int) string {
		if result == 1 {
			return "High risk"
		}
		return "Low risk"
	},
}

type pageData struct {
	Title      string
	LoggedIn   bool
	Username   string
	Flashes    []session.Flash
	Form       map[string]string
	Strength   *strengthHint
	Prediction int
	History    []db.PredictionRecord
}

type strengthHint struct {
	Score int
	Label auth.Strength
}

func parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		templates[page] = t
	}
	return templates, nil
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// render saves the session, consumes its flashes and writes page with status.
func (a *App) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	sess := sessionFrom(r)
	data.LoggedIn = sess.LoggedIn()
	if data.Username == "" {
		data.Username = sess.Username()
	}
	data.Flashes = sess.Flashes()
	if err := a.sessions.Save(w, sess); err != nil {
		a.logger.Error("Failed to save session", zap.Error(err))
	}

	t, ok := a.templates[page]
	if !ok {
		a.logger.Error("Unknown template", zap.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		a.logger.Error("Failed to render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
