package normalize

import (
	"strings"
	"time"
)

// DateLayout is the canonical date-key format.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order. Slash and dot forms are day-first;
// month-first input such as 01/23/2026 is rejected.
var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"2006/1/2",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04:05.999999999",
	"2006-1-2T15:04:05",
	"2006-1-2T15:04:05.999999999",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	time.RFC3339,
	time.RFC3339Nano,
}

// Date parses a raw date cell and returns it as zero-padded YYYY-MM-DD.
// Timestamps keep their date part as written (no zone conversion). Invalid
// calendar dates such as 31/02/2026 are rejected.
func Date(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(DateLayout), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return "", false
		}
		return v.Format(DateLayout), true
	case string:
		return parseDate(v)
	case []byte:
		return parseDate(string(v))
	}
	return "", false
}

func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < 1 {
			return "", false
		}
		return t.Format(DateLayout), true
	}
	return "", false
}
