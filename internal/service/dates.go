package service

import (
	"strings"
	"time"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
)

var scheduledDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseScheduledDate accepts RFC 3339, a zone-less date-time (read as UTC)
// or a bare date.
func ParseScheduledDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range scheduledDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, appErrors.NewValidation("invalid scheduled_date %q", s)
}
