package application

import (
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// plainText strips any markup from backend-authored free text.
func plainText(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var clockLayouts = []string{"15:04:05", "15:04"}

// parseDateTime accepts the date formats the backend emits. Unparseable or
// empty values yield the zero time.
func parseDateTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseClock combines a time of day, or a full timestamp, with day. A value
// that already carries a date is returned as is.
func parseClock(day time.Time, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if t := parseDateTime(value); !t.IsZero() {
		return t
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			if day.IsZero() {
				return t
			}
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location())
		}
	}
	return time.Time{}
}

// SplitFiles turns the comma-joined file field into names. Blank entries are
// dropped; the others are kept byte for byte since they name stored files.
func SplitFiles(joined string) []string {
	files := make([]string, 0, strings.Count(joined, ",")+1)
	for _, name := range strings.Split(joined, ",") {
		if strings.TrimSpace(name) != "" {
			files = append(files, name)
		}
	}
	return files
}

// JoinFiles is the inverse of SplitFiles for names without commas.
func JoinFiles(files []string) string {
	return strings.Join(files, ",")
}

// FileURL returns the download address of an attachment under base.
func FileURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(strings.TrimLeft(name, "/"))
}
