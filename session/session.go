package session

import "sync"

const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// Session is the server-side state behind one session cookie.
type Session struct {
	ID string

	mu         sync.Mutex
	email      string
	username   string
	remember   bool
	prediction *int
	flashes    []Flash
}

func newSession(id string) *Session {
	return &Session{ID: id}
}

// LogIn binds the session to a user.
func (s *Session) LogIn(email, username string, remember bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	s.username = username
	s.remember = remember
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email != ""
}

func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) Remember() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remember
}

// SetPrediction records the label of the latest prediction.
func (s *Session) SetPrediction(label int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prediction = &label
}

// Prediction returns the latest label, if any.
func (s *Session) Prediction() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prediction == nil {
		return 0, false
	}
	return *s.prediction, true
}

func (s *Session) AddFlash(category, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes = append(s.flashes, Flash{Category: category, Message: message})
}

// Flashes returns and clears pending messages.
func (s *Session) Flashes() []Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	flashes := s.flashes
	s.flashes = nil
	return flashes
}

// empty reports whether the session holds nothing worth a cookie.
func (s *Session) empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email == "" && s.prediction == nil && len(s.flashes) == 0
}

// clear drops everything but pending flashes.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = ""
	s.username = ""
	s.remember = false
	s.prediction = nil
}
