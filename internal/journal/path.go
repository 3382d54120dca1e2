// Package journal implements the journal-specific behavior on top of the
// repository client: dated path resolution, entry formatting and the
// optimistic-concurrency save session.
package journal

import (
	"fmt"
	"strings"
	"time"
)

const (
	// dayBoundaryHour is the local hour at which a new journal day starts.
	// Sessions running past midnight keep logging to the previous day's file.
	dayBoundaryHour = 2

	placeholderYear  = "YYYY"
	placeholderMonth = "MM"
	placeholderDay   = "DD"
)

// EffectiveDate returns the journaling date for an instant: local times
// before 02:00 belong to the previous calendar day.
func EffectiveDate(at time.Time) time.Time {
	if at.Hour() < dayBoundaryHour {
		return at.AddDate(0, 0, -1)
	}
	return at
}

// Resolve expands a path template into a concrete document path for the
// given instant. Substitution is unconditional and never fails; a missing
// placeholder is simply left unexpanded. Template validity is checked
// where settings are accepted, not here.
func Resolve(template string, at time.Time) string {
	date := EffectiveDate(at)
	path := strings.ReplaceAll(template, placeholderYear, fmt.Sprintf("%04d", date.Year()))
	path = strings.ReplaceAll(path, placeholderMonth, fmt.Sprintf("%02d", int(date.Month())))
	path = strings.ReplaceAll(path, placeholderDay, fmt.Sprintf("%02d", date.Day()))
	return path
}

// DefaultContent synthesizes the body for a journal file that does not
// exist yet: a single heading line with the effective date.
func DefaultContent(at time.Time) string {
	return "# " + EffectiveDate(at).Format("2006-01-02")
}
