package journal

import (
	"strings"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		at       time.Time
		want     string
	}{
		{
			name:     "afternoon uses calendar date",
			template: "log/YYYY/MM/DD.md",
			at:       time.Date(2024, 3, 5, 15, 0, 0, 0, time.Local),
			want:     "log/2024/03/05.md",
		},
		{
			name:     "before 02:00 rolls back to previous day",
			template: "log/YYYY/MM/DD.md",
			at:       time.Date(2024, 3, 5, 1, 30, 0, 0, time.Local),
			want:     "log/2024/03/04.md",
		},
		{
			name:     "exactly 02:00 keeps calendar date",
			template: "log/YYYY/MM/DD.md",
			at:       time.Date(2024, 3, 5, 2, 0, 0, 0, time.Local),
			want:     "log/2024/03/05.md",
		},
		{
			name:     "rollover crosses month boundary",
			template: "log/YYYY/MM/DD.md",
			at:       time.Date(2024, 3, 1, 0, 45, 0, 0, time.Local),
			want:     "log/2024/02/29.md",
		},
		{
			name:     "rollover crosses year boundary",
			template: "journal/YYYY-MM-DD.md",
			at:       time.Date(2025, 1, 1, 1, 0, 0, 0, time.Local),
			want:     "journal/2024-12-31.md",
		},
		{
			name:     "zero padding of month and day",
			template: "YYYY/MM/DD",
			at:       time.Date(2024, 1, 2, 12, 0, 0, 0, time.Local),
			want:     "2024/01/02",
		},
		{
			name:     "missing placeholder is a no-op",
			template: "log/daily.md",
			at:       time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local),
			want:     "log/daily.md",
		},
		{
			name:     "partial placeholders still substitute",
			template: "notes/MM/file.md",
			at:       time.Date(2024, 7, 9, 12, 0, 0, 0, time.Local),
			want:     "notes/07/file.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tt.template, tt.at)
			if got != tt.want {
				t.Errorf("Resolve(%q, %v) = %q, want %q", tt.template, tt.at, got, tt.want)
			}
		})
	}
}

func TestResolve_NoPlaceholdersRemain(t *testing.T) {
	t.Parallel()

	templates := []string{
		"log/YYYY/MM/DD.md",
		"YYYY-MM-DD.md",
		"a/YYYY/b/MM/c/DD",
	}
	instants := []time.Time{
		time.Date(2023, 11, 30, 23, 59, 0, 0, time.Local),
		time.Date(2024, 2, 29, 1, 59, 0, 0, time.Local),
		time.Date(2030, 6, 15, 2, 0, 1, 0, time.Local),
	}

	for _, template := range templates {
		for _, at := range instants {
			got := Resolve(template, at)
			for _, placeholder := range []string{"YYYY", "MM", "DD"} {
				if strings.Contains(got, placeholder) {
					t.Errorf("Resolve(%q, %v) = %q still contains %s", template, at, got, placeholder)
				}
			}
		}
	}
}

func TestEffectiveDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		at      time.Time
		wantDay int
	}{
		{"01:59 is previous day", time.Date(2024, 3, 5, 1, 59, 59, 0, time.Local), 4},
		{"02:00 is same day", time.Date(2024, 3, 5, 2, 0, 0, 0, time.Local), 5},
		{"midnight is previous day", time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), 4},
		{"noon is same day", time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := EffectiveDate(tt.at)
			if got.Day() != tt.wantDay {
				t.Errorf("EffectiveDate(%v).Day() = %d, want %d", tt.at, got.Day(), tt.wantDay)
			}
		})
	}
}

func TestDefaultContent(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 5, 1, 30, 0, 0, time.Local)
	got := DefaultContent(at)
	want := "# 2024-03-04"
	if got != want {
		t.Errorf("DefaultContent(%v) = %q, want %q", at, got, want)
	}
}
