package utils

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// GenerateRequestID returns a unique ID for correlating a request
// through pipeline logs and task records.
func GenerateRequestID() string {
	return uuid.NewString()
}

// FormatDuration renders a duration at a precision that reads well in
// logs and callback payloads.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.String()
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

// Contains reports whether item appears in slice.
func Contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}

// GetStringOrDefault returns value unless it is empty.
func GetStringOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
