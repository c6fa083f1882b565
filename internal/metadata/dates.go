package metadata

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts seen across EXIF, QuickTime and XMP containers. EXIF's
// colon-separated date is tried first since exiftool emits it by default.
var dateLayouts = []string{
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006:01:02",
	"2006-01-02",
}

// ParseDate parses a metadata timestamp in any supported textual format.
// Returns false for empty or unrecognized input; many files simply carry
// dates in encodings we do not know, which is not an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

var durationClockRe = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d+(?:\.\d+)?)$`)

// ParseDuration parses a duration in seconds from the forms metadata tools
// produce: "H:MM:SS.ss", "M:SS.ss", "12.34 s", or a bare number.
func ParseDuration(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if m := durationClockRe.FindStringSubmatch(s); m != nil {
		var hours float64
		if m[1] != "" {
			hours, _ = strconv.ParseFloat(m[1], 64)
		}
		mins, _ := strconv.ParseFloat(m[2], 64)
		secs, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return 0, false
		}
		return hours*3600 + mins*60 + secs, true
	}
	s = strings.TrimSuffix(s, " s")
	s = strings.TrimSuffix(s, "s")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
