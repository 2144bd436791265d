package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

type Config struct {
	Secret      string        `yaml:"secret"`
	CookieName  string        `yaml:"cookie_name"`
	TTL         time.Duration `yaml:"ttl"`
	RememberTTL time.Duration `yaml:"remember_ttl"`
	MaxSessions int           `yaml:"max_sessions"`
	Secure      bool          `yaml:"secure"`
}

func DefaultConfig() Config {
	return Config{
		CookieName:  "session",
		TTL:         24 * time.Hour,
		RememberTTL: 31 * 24 * time.Hour,
		MaxSessions: 10000,
	}
}

var ErrNoSecret = errors.New("session secret is empty")

// Manager keeps sessions in an expiring LRU and hands out a signed token
// naming the session id as the cookie value.
type Manager struct {
	config   Config
	secret   []byte
	sessions *expirable.LRU[string, *Session]
	logger   *zap.Logger
}

func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	if config.Secret == "" {
		return nil, ErrNoSecret
	}
	defaults := DefaultConfig()
	if config.CookieName == "" {
		config.CookieName = defaults.CookieName
	}
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.RememberTTL <= 0 {
		config.RememberTTL = defaults.RememberTTL
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = defaults.MaxSessions
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	lifetime := config.TTL
	if config.RememberTTL > lifetime {
		lifetime = config.RememberTTL
	}
	return &Manager{
		config:   config,
		secret:   []byte(config.Secret),
		sessions: expirable.NewLRU[string, *Session](config.MaxSessions, nil, lifetime),
		logger:   logger,
	}, nil
}

// Load returns the session named by the request cookie, or a fresh unsaved
// session when the cookie is missing, expired or forged.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return newSession(uuid.NewString())
	}
	id, err := m.verify(cookie.Value)
	if err != nil {
		m.logger.Debug("rejected session cookie", zap.Error(err))
		return newSession(uuid.NewString())
	}
	if s, ok := m.sessions.Get(id); ok {
		return s
	}
	return newSession(uuid.NewString())
}

// Save stores the session and writes its cookie. Empty sessions that were
// never stored are skipped.
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	if _, known := m.sessions.Peek(s.ID); !known && s.empty() {
		return nil
	}

	ttl := m.config.TTL
	remember := s.Remember()
	if remember {
		ttl = m.config.RememberTTL
	}
	token, err := m.sign(s.ID, ttl)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	m.sessions.Add(s.ID, s)

	cookie := &http.Cookie{
		Name:     m.config.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
	return nil
}

// Renew moves the session to a new id, invalidating the old cookie.
func (m *Manager) Renew(s *Session) {
	m.sessions.Remove(s.ID)
	s.ID = uuid.NewString()
}

// Destroy logs the session out and rotates its id. Pending flashes survive
// so a goodbye message can still be shown.
func (m *Manager) Destroy(s *Session) {
	s.clear()
	m.Renew(s)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

func (m *Manager) sign(id string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session token has no id")
	}
	return claims.ID, nil
}
