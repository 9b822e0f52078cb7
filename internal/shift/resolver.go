// Package shift maps a time of day to the meal service being served.
package shift

import (
	"time"

	"comedor-backend/internal/models"
)

const MinutesPerDay = 24 * 60

// Window is an inclusive [Start, End] range of minutes since midnight.
// Start > End wraps through midnight.
type Window struct {
	Start int
	End   int
}

func (w Window) Contains(minute int) bool {
	minute = normalize(minute)
	if w.Start <= w.End {
		return minute >= w.Start && minute <= w.End
	}
	return minute >= w.Start || minute <= w.End
}

// Policy windows. Anything not claimed here is cold-ration.
var (
	Breakfast = Window{Start: 240, End: 510}
	Lunch     = Window{Start: 690, End: 870}
	Dinner    = Window{Start: 1051, End: 1380}
)

// Resolve returns the shift active at the given minute of the day.
// Minutes outside [0, 1440) are reduced modulo one day.
func Resolve(minuteOfDay int) models.ShiftName {
	switch m := normalize(minuteOfDay); {
	case Breakfast.Contains(m):
		return models.ShiftBreakfast
	case Lunch.Contains(m):
		return models.ShiftLunch
	case Dinner.Contains(m):
		return models.ShiftDinner
	default:
		return models.ShiftColdRation
	}
}

// ResolveAt resolves the shift for t in t's own location.
func ResolveAt(t time.Time) models.ShiftName {
	return Resolve(MinuteOfDay(t))
}

func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ResolveFromTable picks the first configured shift whose window contains
// minute. When none matches it falls back to the cold-ration row; ok is
// false only if the table has neither.
func ResolveFromTable(shifts []models.Shift, minute int) (models.Shift, bool) {
	var fallback *models.Shift
	for i := range shifts {
		s := shifts[i]
		if (Window{Start: s.StartMinute, End: s.EndMinute}).Contains(minute) {
			return s, true
		}
		if s.Name == models.ShiftColdRation && fallback == nil {
			fallback = &shifts[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return models.Shift{}, false
}

// FindByName returns the configured row for a resolved shift name.
func FindByName(shifts []models.Shift, name models.ShiftName) (models.Shift, bool) {
	for _, s := range shifts {
		if s.Name == name {
			return s, true
		}
	}
	return models.Shift{}, false
}

func normalize(minute int) int {
	minute %= MinutesPerDay
	if minute < 0 {
		minute += MinutesPerDay
	}
	return minute
}
