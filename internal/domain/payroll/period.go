package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
)

const (
	MinPeriodYear = 2020
	MaxPeriodYear = 2100

	periodLayout = "Jan-2006"
)

// Period is a calendar month, displayed as "Mar-2025".
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// ParsePeriod accepts the "Mon-YYYY" form, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 3 {
		s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:3]) + s[3:]
	}
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, validator.ValidationErrors{{Field: "period", Message: fmt.Sprintf("must look like 'Mar-2025', got %q", s)}}
	}
	return NewPeriod(int(t.Month()), t.Year())
}

func (p Period) Validate() error {
	var errs validator.ValidationErrors

	if p.Month < 1 || p.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if p.Year < MinPeriodYear || p.Year > MaxPeriodYear {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: fmt.Sprintf("must be between %d and %d", MinPeriodYear, MaxPeriodYear)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (p Period) String() string {
	return p.Start().Format(periodLayout)
}

// Start is the first day of the period at 00:00 UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the period at 00:00 UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}
