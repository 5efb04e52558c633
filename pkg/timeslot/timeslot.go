package timeslot

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date wire format.
const DateLayout = "2006-01-02"

// MinutesPerDay bounds TimeOfDay values; 24:00 is accepted as an end of day marker.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(parts) == 3 {
		if seconds, err := strconv.Atoi(parts[2]); err != nil || seconds != 0 {
			return 0, fmt.Errorf("seconds are not supported in %q", raw)
		}
	}
	t := TimeOfDay(hours*60 + minutes)
	if !t.Valid() {
		return 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return t, nil
}

// MustParseTimeOfDay panics on malformed input.
func MustParseTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t lies within [00:00, 24:00].
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

// String formats t as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON renders "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the minute offset.
func (t TimeOfDay) Value() (driver.Value, error) {
	return int64(t), nil
}

// Scan reads a minute offset.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
	case int32:
		*t = TimeOfDay(v)
	case int:
		*t = TimeOfDay(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("scan time of day: %w", err)
		}
		*t = TimeOfDay(n)
	case nil:
		*t = 0
	default:
		return fmt.Errorf("scan time of day: unsupported type %T", src)
	}
	return nil
}

// Overlaps reports whether [s1,e1) and [s2,e2) share any instant.
// Touching intervals (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

// Intersection returns the common part of two intervals, ok=false when empty.
func Intersection(s1, e1, s2, e2 TimeOfDay) (start, end TimeOfDay, ok bool) {
	start = max(s1, s2)
	end = min(e1, e2)
	return start, end, start < end
}

// Date truncates t to its calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", raw, DateLayout)
	}
	return t, nil
}

// DateRangesOverlap tests two inclusive date ranges where a nil end means open-ended.
func DateRangesOverlap(fromA time.Time, toA *time.Time, fromB time.Time, toB *time.Time) bool {
	if toB != nil && Date(fromA).After(Date(*toB)) {
		return false
	}
	if toA != nil && Date(*toA).Before(Date(fromB)) {
		return false
	}
	return true
}

// DateInRange reports whether day falls inside [from, to]; nil to is open-ended.
func DateInRange(day, from time.Time, to *time.Time) bool {
	day = Date(day)
	if day.Before(Date(from)) {
		return false
	}
	return to == nil || !day.After(Date(*to))
}

// NextWeekday returns the first date on or after from that falls on day.
func NextWeekday(from time.Time, day time.Weekday) time.Time {
	d := Date(from)
	offset := (int(day) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := Date(t)
	diff := (7 + int(d.Weekday()) - int(time.Monday)) % 7
	return d.AddDate(0, 0, -diff)
}

// OccurrenceInWeek returns the date of day within the Monday-based week starting at weekStart.
func OccurrenceInWeek(weekStart time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(time.Monday) + 7) % 7
	return Date(weekStart).AddDate(0, 0, offset)
}

// NormalizeAnchor moves an effective-from date onto a real occurrence of day.
// Past anchors are replaced by the next occurrence on or after today.
func NormalizeAnchor(effectiveFrom, today time.Time, day time.Weekday) time.Time {
	from := Date(effectiveFrom)
	today = Date(today)
	if from.Before(today) {
		return NextWeekday(today, day)
	}
	if from.Weekday() != day {
		return NextWeekday(from, day)
	}
	return from
}

// ValidWeekday reports whether d is within 0 (Sunday) .. 6 (Saturday).
func ValidWeekday(d int) bool {
	return d >= int(time.Sunday) && d <= int(time.Saturday)
}
