package auth

import "testing"

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Abcdefg1", true},
		{"abcdefgh", false},
		{"Ab1", false},
		{"ABCDEFG1", false},
		{"Abcdefgh", false},
		{"Abcdéfg1", true},
		{"Ab1éééé", false},
	}
	for _, tt := range tests {
		if got := IsStrongPassword(tt.password); got != tt.want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"not-an-email", false},
		{"user@example", false},
		{"user@example.c", false},
		{"@example.com", false},
		{"user name@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		score    int
		label    Strength
	}{
		{"", 0, StrengthWeak},
		{"abc", 23, StrengthWeak},
		{"abcdefgh", 35, StrengthMedium},
		{"Abcdefg1", 75, StrengthStrong},
		{"Abcdefgh1!xyz", 100, StrengthStrong},
		{"123456789012", 45, StrengthMedium},
	}
	for _, tt := range tests {
		score := PasswordStrength(tt.password)
		if score != tt.score {
			t.Errorf("PasswordStrength(%q) = %d, want %d", tt.password, score, tt.score)
		}
		if label := StrengthLabel(score); label != tt.label {
			t.Errorf("StrengthLabel(%d) = %s, want %s", score, label, tt.label)
		}
	}
}

func TestStrengthLabelBoundaries(t *testing.T) {
	if StrengthLabel(29) != StrengthWeak || StrengthLabel(30) != StrengthMedium {
		t.Fatal("expected weak/medium boundary at 30")
	}
	if StrengthLabel(69) != StrengthMedium || StrengthLabel(70) != StrengthStrong {
		t.Fatal("expected medium/strong boundary at 70")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  User@Example.COM "); got != "user@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
