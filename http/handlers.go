package http

import (
	"errors"
	"net/http"

	"diabetesrisk/auth"
	"diabetesrisk/session"
	"go.uber.org/zap"
)

const (
	msgLoginRequired  = "Please log in to continue!"
	msgLoginSuccess   = "Login successful!"
	msgLoginFailed    = "Invalid email or password."
	msgRegistered     = "Registration successful! Please log in."
	msgLoggedOut      = "You have been logged out."
	msgInternalError  = "Something went wrong. Please try again."
	defaultUsername   = "User"
	rememberFormValue = "on"
)

func (a *App) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("GET /login", a.handleLoginForm)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /signup", a.handleSignupForm)
	mux.HandleFunc("POST /signup", a.handleSignup)
	mux.HandleFunc("GET /logout", a.handleLogout)
	mux.HandleFunc("GET /home", a.requireLogin(a.handleHome))
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).LoggedIn() {
		a.redirect(w, r, "/home")
		return
	}
	a.redirect(w, r, "/login")
}

func (a *App) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "login", pageData{Title: "Log in"})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")
	remember := r.PostForm.Get("remember") == rememberFormValue

	sess := sessionFrom(r)
	user, err := a.auth.Authenticate(r.Context(), email, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		sess.AddFlash(session.FlashDanger, msgLoginFailed)
		a.render(w, r, http.StatusUnauthorized, "login", pageData{
			Title: "Log in",
			Form:  map[string]string{"email": email},
		})
		return
	case err != nil:
		a.logger.Error("Login failed", zap.Error(err))
		sess.AddFlash(session.FlashDanger, msgInternalError)
		a.render(w, r, http.StatusInternalServerError, "login", pageData{Title: "Log in"})
		return
	}

	a.sessions.Renew(sess)
	sess.LogIn(user.Email, user.Username, remember)
	sess.AddFlash(session.FlashSuccess, msgLoginSuccess)
	a.logger.Info("user logged in", zap.String("email", user.Email), zap.Bool("remember", remember))
	a.redirect(w, r, "/home")
}

func (a *App) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "signup", pageData{Title: "Sign up"})
}

func (a *App) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := auth.SignupForm{
		Username:        r.PostForm.Get("username"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}

	sess := sessionFrom(r)
	_, err := a.auth.Register(r.Context(), form)
	if err == nil {
		sess.AddFlash(session.FlashSuccess, msgRegistered)
		a.redirect(w, r, "/login")
		return
	}

	data := pageData{
		Title: "Sign up",
		Form:  map[string]string{"username": form.Username, "email": form.Email},
	}
	var verr *auth.ValidationError
	if !errors.As(err, &verr) {
		a.logger.Error("Signup failed", zap.Error(err))
		sess.AddFlash(session.FlashDanger, msgInternalError)
		a.render(w, r, http.StatusInternalServerError, "signup", data)
		return
	}
	sess.AddFlash(session.FlashDanger, verr.Message)
	if form.Password != "" {
		score := auth.PasswordStrength(form.Password)
		data.Strength = &strengthHint{Score: score, Label: auth.StrengthLabel(score)}
	}
	a.render(w, r, http.StatusBadRequest, "signup", data)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	a.sessions.Destroy(sess)
	sess.AddFlash(session.FlashInfo, msgLoggedOut)
	a.redirect(w, r, "/login")
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	username := sessionFrom(r).Username()
	if username == "" {
		username = defaultUsername
	}
	a.render(w, r, http.StatusOK, "home", pageData{Title: "Home", Username: username})
}
