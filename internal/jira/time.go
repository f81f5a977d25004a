package jira

import (
	"fmt"
	"time"
)

// jiraTimeLayouts covers the timestamp shapes Jira emits across server and
// cloud deployments: numeric offsets with and without fraction, then the
// RFC 3339 variants.
var jiraTimeLayouts = []string{
	"2006-01-02T15:04:05.999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

// DateParseError reports a timestamp no known Jira layout could parse. The
// raw value travels with the error so the failing issue can be identified in
// logs.
type DateParseError struct {
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("jira: unable to parse datetime %q", e.Value)
}

// ParseTime parses a Jira timestamp, trying each known layout in order.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range jiraTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateParseError{Value: value}
}
