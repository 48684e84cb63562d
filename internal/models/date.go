package models

import (
	"fmt"
	"strings"
	"time"
)

// FuzzyDate is a calendar date whose parts are independently optional.
type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

// Today returns the local calendar date of t as a fully populated FuzzyDate.
func Today(t time.Time) FuzzyDate {
	y, m, d := t.Local().Date()
	month := int(m)
	return FuzzyDate{Year: &y, Month: &month, Day: &d}
}

// IsZero reports whether no part of the date is known.
func (d FuzzyDate) IsZero() bool {
	return d.Year == nil && d.Month == nil && d.Day == nil
}

func (d FuzzyDate) String() string {
	part := func(p *int, width int) string {
		if p == nil {
			return strings.Repeat("?", width)
		}
		return fmt.Sprintf("%0*d", width, *p)
	}
	return part(d.Year, 4) + "-" + part(d.Month, 2) + "-" + part(d.Day, 2)
}
