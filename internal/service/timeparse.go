package service

import (
	"strconv"
	"strings"
	"time"
)

// msThreshold separates unix seconds from unix milliseconds: any value above
// it is too large to be a plausible seconds timestamp (year 33658).
const msThreshold = 1_000_000_000_000

var closeTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseCloseTime normalises a POS close timestamp given as unix seconds, unix
// milliseconds or a "YYYY-MM-DD HH:MM:SS" string in loc. ok is false when the
// value could not be parsed, in which case now is returned.
func ParseCloseTime(raw string, loc *time.Location, now time.Time) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n <= 0 {
			return now, false
		}
		if n >= msThreshold {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
		if f >= msThreshold {
			return time.UnixMilli(int64(f)).UTC(), true
		}
		return time.Unix(int64(f), 0).UTC(), true
	}
	for _, layout := range closeTimeLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), true
		}
	}
	return now, false
}
