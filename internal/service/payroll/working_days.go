package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const (
	WorkingDaysModeRatio    = "ratio"
	WorkingDaysModeCalendar = "calendar"

	// ratioMonthDays is the fixed month length the ratio approximation divides by.
	ratioMonthDays = 30
)

// WorkingDayCounter decides how much of a period an employee worked.
type WorkingDayCounter interface {
	// Worked returns the working days in [from, to], both inclusive.
	Worked(period payroll.Period, from, to time.Time) decimal.Decimal
	// Total returns the working days of the full period.
	Total(period payroll.Period) decimal.Decimal
}

// NewWorkingDayCounter returns the counter for mode, falling back to the ratio approximation.
func NewWorkingDayCounter(mode string, standardDays int) WorkingDayCounter {
	if mode == WorkingDaysModeCalendar {
		return weekdayCounter{}
	}
	return ratioCounter{standardDays: standardDays}
}

// ratioCounter approximates working days as calendarDays/30 of a fixed working month.
type ratioCounter struct {
	standardDays int
}

func (c ratioCounter) Worked(_ payroll.Period, from, to time.Time) decimal.Decimal {
	days := inclusiveDays(from, to)
	if days <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(days * c.standardDays)).Div(decimal.NewFromInt(ratioMonthDays))
}

func (c ratioCounter) Total(_ payroll.Period) decimal.Decimal {
	return decimal.NewFromInt(int64(c.standardDays))
}

// weekdayCounter counts Monday to Friday.
type weekdayCounter struct{}

func (weekdayCounter) Worked(_ payroll.Period, from, to time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(countWeekdays(from, to)))
}

func (weekdayCounter) Total(period payroll.Period) decimal.Decimal {
	return decimal.NewFromInt(int64(countWeekdays(period.Start(), period.End())))
}

func inclusiveDays(from, to time.Time) int {
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

func countWeekdays(from, to time.Time) int {
	count := 0
	for d := dateOnly(from); !d.After(dateOnly(to)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
