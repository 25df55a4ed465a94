package utils

import "time"

// FormatLetterDate renders t the way correspondence dates are written, e.g. "March 04, 2025".
func FormatLetterDate(t time.Time) string {
	return t.Format("January 02, 2006")
}
