package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	config := DefaultConfig()
	config.Secret = "test-secret"
	m, err := NewManager(config, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

// roundTrip saves s and returns a request carrying the resulting cookie.
func roundTrip(t *testing.T, m *Manager, s *Session) (*http.Request, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := m.Save(rec, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return req, cookies[0]
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(DefaultConfig(), nil); err != ErrNoSecret {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if s.LoggedIn() {
		t.Fatal("expected anonymous session")
	}
	s.LogIn("alice@example.com", "alice", false)
	s.SetPrediction(1)

	req, cookie := roundTrip(t, m, s)
	if !cookie.HttpOnly || cookie.MaxAge != 0 {
		t.Fatalf("expected http-only browser-session cookie, got %+v", cookie)
	}

	loaded := m.Load(req)
	if loaded.Email() != "alice@example.com" || loaded.Username() != "alice" {
		t.Fatalf("unexpected session user %q %q", loaded.Email(), loaded.Username())
	}
	if label, ok := loaded.Prediction(); !ok || label != 1 {
		t.Fatalf("expected prediction 1, got %d %v", label, ok)
	}
}

func TestRememberSetsPersistentCookie(t *testing.T) {
	m := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.LogIn("alice@example.com", "alice", true)

	_, cookie := roundTrip(t, m, s)
	if cookie.MaxAge != int((31 * 24 * time.Hour).Seconds()) {
		t.Fatalf("expected 31 day cookie, got %d", cookie.MaxAge)
	}
}

func TestTamperedCookieIsRejected(t *testing.T) {
	m := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.LogIn("alice@example.com", "alice", false)
	_, cookie := roundTrip(t, m, s)

	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("expected a three part token, got %q", cookie.Value)
	}
	tampered := []string{
		parts[0] + "." + parts[1] + ".c2lnbmF0dXJl",
		parts[0] + ".eyJqdGkiOiJvdGhlciJ9." + parts[2],
		"garbage",
	}
	for _, value := range tampered {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: value})
		if loaded := m.Load(req); loaded.LoggedIn() || loaded.ID == s.ID {
			t.Fatalf("expected tampered cookie %q to yield a fresh session", value)
		}
	}

	other, err := NewManager(Config{Secret: "other-secret"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if other.Load(req).LoggedIn() {
		t.Fatal("expected cookie signed with another secret to be rejected")
	}
}

func TestFlashesArePoppedOnce(t *testing.T) {
	m := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.AddFlash(FlashWarning, "Please log in to continue!")
	s.AddFlash(FlashInfo, "second")

	req, _ := roundTrip(t, m, s)
	loaded := m.Load(req)
	flashes := loaded.Flashes()
	if len(flashes) != 2 || flashes[0].Category != FlashWarning || flashes[1].Message != "second" {
		t.Fatalf("unexpected flashes %+v", flashes)
	}
	if again := loaded.Flashes(); len(again) != 0 {
		t.Fatalf("expected flashes to be consumed, got %+v", again)
	}
}

func TestEmptySessionIsNotStored(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	if err := m.Save(rec, m.Load(httptest.NewRequest(http.MethodGet, "/", nil))); err != nil {
		t.Fatal(err)
	}
	if len(rec.Result().Cookies()) != 0 || m.Len() != 0 {
		t.Fatal("expected no cookie and no stored session for an empty session")
	}
}

func TestDestroyInvalidatesOldCookie(t *testing.T) {
	m := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.LogIn("alice@example.com", "alice", false)
	oldReq, _ := roundTrip(t, m, s)
	oldID := s.ID

	m.Destroy(s)
	s.AddFlash(FlashInfo, "You have been logged out.")
	newReq, _ := roundTrip(t, m, s)

	if s.ID == oldID {
		t.Fatal("expected a new session id")
	}
	if m.Load(oldReq).LoggedIn() {
		t.Fatal("expected old cookie to be dead")
	}
	loaded := m.Load(newReq)
	if loaded.LoggedIn() {
		t.Fatal("expected logged out session")
	}
	if flashes := loaded.Flashes(); len(flashes) != 1 {
		t.Fatalf("expected logout flash to survive, got %+v", flashes)
	}
}

func TestRenewRotatesID(t *testing.T) {
	m := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.AddFlash(FlashInfo, "hello")
	oldReq, _ := roundTrip(t, m, s)
	oldID := s.ID

	m.Renew(s)
	s.LogIn("alice@example.com", "alice", false)
	roundTrip(t, m, s)

	if s.ID == oldID {
		t.Fatal("expected a new session id")
	}
	if m.Load(oldReq).ID == s.ID {
		t.Fatal("expected old cookie not to reach the renewed session")
	}
}
