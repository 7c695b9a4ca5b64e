// Package timeline holds the month year model, the viewport controller and the task layout engine.
package timeline

import "time"

// MonthsPerYear is the size of the year model.
const MonthsPerYear = 12

// Month is one fixed entry of the year model.
type Month struct {
	Index   int
	Name    string
	Quarter int
}

// Short returns the three-letter month abbreviation.
func (m Month) Short() string {
	if len(m.Name) < 3 {
		return m.Name
	}
	return m.Name[:3]
}

// yearModel stores the 12 static months.
var yearModel = func() []Month {
	months := make([]Month, 0, MonthsPerYear)
	for idx := range MonthsPerYear {
		months = append(months, Month{
			Index:   idx,
			Name:    time.Month(idx + 1).String(),
			Quarter: idx/3 + 1,
		})
	}
	return months
}()

// Months returns a copy of the year model.
func Months() []Month {
	return append([]Month(nil), yearModel...)
}

// MonthAt returns the month at index and whether the index is inside the year model.
func MonthAt(index int) (Month, bool) {
	if index < 0 || index >= MonthsPerYear {
		return Month{}, false
	}
	return yearModel[index], true
}

// DaysInMonth returns the calendar day count of a zero-based month, leap years included.
func DaysInMonth(year, monthIndex int) int {
	// Day zero of the following month normalizes to the last day of this one.
	return time.Date(year, time.Month(monthIndex+2), 0, 0, 0, 0, 0, time.UTC).Day()
}
