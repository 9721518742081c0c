package stats

import (
	"time"

	apperrors "spendwise/internal/errors"
)

// Preset names a period relative to today.
type Preset string

const (
	PresetWeek    Preset = "week"
	PresetMonth   Preset = "month"
	PresetQuarter Preset = "quarter"
	PresetYear    Preset = "year"
	PresetCustom  Preset = "custom"
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewPeriod builds a period from two dates. Start must not be after End.
func NewPeriod(start, end time.Time) (Period, error) {
	start, end = day(start), day(end)
	if start.After(end) {
		return Period{}, apperrors.ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// ResolvePeriod turns a preset into a period ending today. The custom preset
// uses start and end, both of which are then required.
func ResolvePeriod(preset Preset, start, end *time.Time, now time.Time) (Period, error) {
	today := day(now)
	switch preset {
	case PresetCustom:
		if start == nil || end == nil {
			return Period{}, apperrors.WithMessage(apperrors.ErrInvalidPeriod, "A custom period needs start_date and end_date")
		}
		return NewPeriod(*start, *end)
	case PresetWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return Period{Start: today.AddDate(0, 0, -offset), End: today}, nil
	case PresetMonth, "":
		return Period{Start: monthStart(today), End: today}, nil
	case PresetQuarter:
		q := time.Month((int(today.Month())-1)/3*3 + 1)
		return Period{Start: time.Date(today.Year(), q, 1, 0, 0, 0, 0, time.UTC), End: today}, nil
	case PresetYear:
		return Period{Start: time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC), End: today}, nil
	default:
		return Period{}, apperrors.WithMessage(apperrors.ErrInvalidPeriod, "Unknown period "+string(preset))
	}
}

// Months returns the number of calendar months the period touches, at least 1.
func (p Period) Months() int {
	n := (p.End.Year()-p.Start.Year())*12 + int(p.End.Month()) - int(p.Start.Month()) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Contains reports whether t falls on a day inside the period.
func (p Period) Contains(t time.Time) bool {
	d := day(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// EndOfDay returns the last instant of the period, for inclusive SQL bounds.
func (p Period) EndOfDay() time.Time {
	return p.End.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// MonthRange returns the full calendar month containing t.
func MonthRange(t time.Time) Period {
	start := monthStart(day(t))
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
