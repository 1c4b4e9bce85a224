// Package expiry holds the pure time arithmetic behind entitlements. Every function
// takes "now" explicitly; nothing here reads the wall clock.
package expiry

import "time"

const (
	Day              = 24 * time.Hour
	ExpiringSoonDays = 7
	DisplayLayout    = "January 2, 2006"
	NotAvailable     = "N/A"
)

// Instant returns the expiry for a plan bought at now. Days are calendar days in
// now's location, so the wall-clock time of purchase is preserved across DST shifts.
func Instant(now time.Time, durationDays int) time.Time {
	return now.AddDate(0, 0, durationDays)
}

// IsActive reports whether expiresAt is still in the future. The expiry instant
// itself already counts as expired.
func IsActive(expiresAt, now time.Time) bool {
	return expiresAt.After(now)
}

// DaysRemaining is the ceiling of the remaining time in days. It reaches zero at the
// expiry instant and goes negative afterwards.
func DaysRemaining(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	days := d / Day
	if d%Day > 0 {
		days++
	}
	return int(days)
}

func IsExpiringSoon(daysRemaining int) bool {
	return IsWithinWindow(daysRemaining, ExpiringSoonDays)
}

func IsWithinWindow(daysRemaining, windowDays int) bool {
	return daysRemaining > 0 && daysRemaining <= windowDays
}

func FormatDisplay(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format(DisplayLayout)
}
