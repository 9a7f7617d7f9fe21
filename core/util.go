package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CalendarDateLayout is the wire and storage format of meeting and event dates.
const CalendarDateLayout = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseCalendarDate parses a YYYY-MM-DD date (no time component) at UTC midnight.
func ParseCalendarDate(s string) (time.Time, error) {
	return time.ParseInLocation(CalendarDateLayout, CleanString(s), time.UTC)
}

// IsCalendarDate reports whether s is a well-formed YYYY-MM-DD date.
func IsCalendarDate(s string) bool {
	_, err := ParseCalendarDate(s)
	return err == nil
}

func FormatCalendarDate(t time.Time) string {
	return t.Format(CalendarDateLayout)
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run, so we walk up from there.
// Falls back to the current directory when no go.mod is found (e.g. a deployed binary).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
