package utils

import (
	"fmt"
	"time"
)

const (
	DateLayout       = "2006-01-02"
	PrettyDateLayout = "02-01-2006"
)

// LoadLocation resolves a time zone name, treating an empty name as UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return loc, nil
}

// PrettyDate formats t as dd-mm-yyyy.
func PrettyDate(t time.Time) string {
	return t.Format(PrettyDateLayout)
}
