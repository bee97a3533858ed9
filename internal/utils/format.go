package utils

import (
	"fmt"
	"time"
)

const (
	DateOnly    = "2006-01-02"
	DateTime    = "2006-01-02 15:04"
	DateTimeSec = "2006-01-02 15:04:05"
	TimeOnly    = "15:04:05"
	KeyStamp    = "20060102-150405"
)

// TimeOrDash formats a time value using the given layout, or returns "—" if zero.
func TimeOrDash(t time.Time, layout string) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format(layout)
}

// Bytes renders a byte count with a binary unit suffix.
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// OrDash returns s, or "—" if s is empty.
func OrDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
