package timezone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Events are stored as UTC instants; a guild only configures a whole-hour UTC
// offset, never a zone with DST rules. ToStored and ToDisplay are exact
// inverses for the same offset.

// InputLayout is the format users type when creating an event.
const InputLayout = "DD/MM/YYYY HH:MM"

var inputPattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}\s\d{1,2}:\d{2}$`)

// ToStored converts a guild-local wall-clock time to the stored UTC instant.
// local carries the wall-clock fields only; its location is ignored.
func ToStored(local time.Time, utcOffsetHours int) time.Time {
	wall := time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), 0, 0, time.UTC)
	return wall.Add(-time.Duration(utcOffsetHours) * time.Hour)
}

// ToDisplay converts a stored instant back to the guild-local wall-clock time,
// truncated to the minute.
func ToDisplay(instant time.Time, utcOffsetHours int) time.Time {
	return instant.UTC().Add(time.Duration(utcOffsetHours) * time.Hour).Truncate(time.Minute)
}

// ValidInput reports whether s matches the DD/MM/YYYY HH:MM input format.
func ValidInput(s string) bool {
	return inputPattern.MatchString(s)
}

// ParseInput parses a DD/MM/YYYY HH:MM string into a wall-clock time.
func ParseInput(s string) (time.Time, error) {
	if !ValidInput(s) {
		return time.Time{}, fmt.Errorf("%q does not match %s", s, InputLayout)
	}
	parts := strings.SplitN(s, " ", 2)
	d := strings.Split(parts[0], "/")
	hm := strings.Split(parts[1], ":")

	day, _ := strconv.Atoi(d[0])
	month, _ := strconv.Atoi(d[1])
	year, _ := strconv.Atoi(d[2])
	hour, _ := strconv.Atoi(hm[0])
	minute, _ := strconv.Atoi(hm[1])

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("%q is not a valid date", s)
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

// FormatDisplay renders a display-local time for the summary post, minute
// precision, no zone suffix.
func FormatDisplay(local time.Time) string {
	return local.Format("Mon, 02 Jan 2006 15:04")
}
