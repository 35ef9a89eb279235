package rule

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxBracket is one band of the progressive income-tax schedule.
// UpperBound nil means the band is open-ended.
type TaxBracket struct {
	ID         string
	Name       string
	LowerBound decimal.Decimal
	UpperBound *decimal.Decimal
	Rate       decimal.Decimal
	CreatedAt  time.Time
}

// InsuranceBracket selects contribution rates by gross salary.
// MaxInsurableSalary caps the contribution base when set.
type InsuranceBracket struct {
	ID                 string
	Name               string
	MinSalary          decimal.Decimal
	MaxSalary          *decimal.Decimal
	EmployeeRate       decimal.Decimal
	EmployerRate       decimal.Decimal
	MaxInsurableSalary *decimal.Decimal
	CreatedAt          time.Time
}

// Contains reports whether gross falls in [MinSalary, MaxSalary).
func (b InsuranceBracket) Contains(gross decimal.Decimal) bool {
	if gross.LessThan(b.MinSalary) {
		return false
	}
	return b.MaxSalary == nil || gross.LessThan(*b.MaxSalary)
}

// InsurableBase returns the part of gross the rates apply to.
func (b InsuranceBracket) InsurableBase(gross decimal.Decimal) decimal.Decimal {
	if b.MaxInsurableSalary != nil && gross.GreaterThan(*b.MaxInsurableSalary) {
		return *b.MaxInsurableSalary
	}
	return gross
}

func upper(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultTaxBrackets is the schedule applied when no brackets are configured.
func DefaultTaxBrackets() []TaxBracket {
	return []TaxBracket{
		{Name: "Exempt", LowerBound: decimal.Zero, UpperBound: upper(1250), Rate: decimal.Zero},
		{Name: "Band 1", LowerBound: decimal.NewFromInt(1250), UpperBound: upper(2500), Rate: decimal.RequireFromString("0.10")},
		{Name: "Band 2", LowerBound: decimal.NewFromInt(2500), UpperBound: upper(3750), Rate: decimal.RequireFromString("0.15")},
		{Name: "Band 3", LowerBound: decimal.NewFromInt(3750), UpperBound: upper(5000), Rate: decimal.RequireFromString("0.20")},
		{Name: "Band 4", LowerBound: decimal.NewFromInt(5000), UpperBound: upper(16667), Rate: decimal.RequireFromString("0.225")},
		{Name: "Band 5", LowerBound: decimal.NewFromInt(16667), Rate: decimal.RequireFromString("0.25")},
	}
}
