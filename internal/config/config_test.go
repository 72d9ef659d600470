package config

import (
	"reflect"
	"testing"
)

func TestOriginAllowed(t *testing.T) {
	cfg := &Config{
		AllowedOrigins:        []string{"https://portal.srbmarine.com"},
		AllowedOriginSuffixes: []string{".netlify.app"},
	}

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"exact match", "https://portal.srbmarine.com", true},
		{"exact match ignores case", "https://PORTAL.srbmarine.com", true},
		{"suffix match", "https://exam-preview.netlify.app", true},
		{"no origin header", "", true},
		{"unknown origin", "https://evil.example.com", false},
		{"suffix must be a suffix", "https://netlify.app.evil.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.OriginAllowed(tt.origin); got != tt.want {
				t.Errorf("OriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}

	t.Run("empty allow-list permits all", func(t *testing.T) {
		if !(&Config{}).OriginAllowed("https://anything.example") {
			t.Error("expected empty allow-list to permit origin")
		}
	})
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{",", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := splitList(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitList(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXAM_DURATION_SECONDS", "")
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")

	cfg := Load()
	if cfg.ExamDuration.Seconds() != 1200 {
		t.Errorf("ExamDuration = %v, want 20m", cfg.ExamDuration)
	}
	if cfg.RateLimitMax != 100 {
		t.Errorf("RateLimitMax = %d, want 100", cfg.RateLimitMax)
	}
}
