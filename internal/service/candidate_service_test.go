package service

import (
	"errors"
	"testing"
	"time"
)

func TestFormatCandidateID(t *testing.T) {
	tests := []struct {
		year, seq int
		want      string
	}{
		{2025, 1, "20250001"},
		{2025, 42, "20250042"},
		{2026, 9999, "20269999"},
		{2026, 10000, "202610000"},
	}
	for _, tt := range tests {
		if got := FormatCandidateID(tt.year, tt.seq); got != tt.want {
			t.Errorf("FormatCandidateID(%d, %d) = %q, want %q", tt.year, tt.seq, got, tt.want)
		}
	}
}

func TestParseDateOfBirth(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", "1999-12-31", false},
		{"padded", " 2000-01-15 ", false},
		{"today", "2025-06-01", false},
		{"future", "2025-06-02", true},
		{"bad month", "2000-13-01", true},
		{"wrong layout", "31/12/1999", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDateOfBirth(tt.raw, now)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDateOfBirth) {
				t.Fatalf("unexpected error type: %v", err)
			}
		})
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, perPage                 int
		wantPage, wantPer, wantOffset int
	}{
		{0, 0, 1, 10, 0},
		{3, 20, 3, 20, 40},
		{2, 500, 2, 100, 100},
	}
	for _, tt := range tests {
		page, per, limit, offset := clampPage(tt.page, tt.perPage)
		if page != tt.wantPage || per != tt.wantPer || limit != tt.wantPer || offset != tt.wantOffset {
			t.Errorf("clampPage(%d, %d) = %d %d %d %d", tt.page, tt.perPage, page, per, limit, offset)
		}
	}
}
