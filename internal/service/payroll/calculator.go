package payroll

import (
	"fmt"
	"sort"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// CalculationInput is everything the engine needs for one employee.
type CalculationInput struct {
	Employee          employee.Employee
	Period            payroll.Period
	Components        []payroll.EmployeePayrollComponent
	Attendance        payroll.AttendanceSummary
	Benefits          []benefit.Benefit
	Penalties         []benefit.Penalty
	TaxBrackets       []rule.TaxBracket
	InsuranceBrackets []rule.InsuranceBracket
}

// CalculationResult holds every intermediate figure so the detail record and
// the payslip can be filled from the same numbers.
type CalculationResult struct {
	ProrationFactor    decimal.Decimal
	BaseSalary         decimal.Decimal
	ProratedSalary     decimal.Decimal
	Allowances         decimal.Decimal
	Gross              decimal.Decimal
	HourlyRate         decimal.Decimal
	Overtime           decimal.Decimal
	Tax                decimal.Decimal
	InsuranceEmployee  decimal.Decimal
	InsuranceEmployer  decimal.Decimal
	Bonus              decimal.Decimal
	Benefit            decimal.Decimal
	Penalties          decimal.Decimal
	UnpaidLeave        decimal.Decimal
	Net                decimal.Decimal
	FinalNet           decimal.Decimal
	MinimumWageApplied bool
	Earnings           payroll.Earnings
	Deductions         payroll.Deductions
}

type Calculator struct {
	minimumWage         decimal.Decimal
	workingDaysPerMonth decimal.Decimal
	hoursPerDay         decimal.Decimal
	overtimeMultiplier  decimal.Decimal
	workingDays         WorkingDayCounter
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{
		minimumWage:         cfg.MinimumWage,
		workingDaysPerMonth: decimal.NewFromInt(int64(cfg.WorkingDaysPerMonth)),
		hoursPerDay:         decimal.NewFromInt(int64(cfg.HoursPerDay)),
		overtimeMultiplier:  cfg.OvertimeMultiplier,
		workingDays:         NewWorkingDayCounter(cfg.WorkingDaysMode, cfg.WorkingDaysPerMonth),
	}
}

// Calculate runs the salary pipeline for one employee. It is pure: the same
// input always yields the same result.
func (c *Calculator) Calculate(in CalculationInput) (CalculationResult, error) {
	if in.Employee.BaseSalary == nil {
		return CalculationResult{}, employee.ErrNoBaseSalary
	}
	if in.Employee.BaseSalary.IsNegative() {
		return CalculationResult{}, fmt.Errorf("base salary %s is negative", in.Employee.BaseSalary.String())
	}

	res := CalculationResult{BaseSalary: *in.Employee.BaseSalary}

	// Proration
	res.ProrationFactor = c.prorationFactor(in.Employee, in.Period)
	res.ProratedSalary = round(res.BaseSalary.Mul(res.ProrationFactor))
	res.Earnings.BaseSalary = res.ProratedSalary

	// Recurring components, prorated with the salary
	var componentDeductions []payroll.LineItem
	for _, comp := range sortedComponents(in.Components) {
		if !comp.ActiveDuring(in.Period.Start(), in.Period.End()) {
			continue
		}
		amount := round(comp.Amount.Mul(res.ProrationFactor))
		line := payroll.LineItem{Name: comp.ComponentName, Amount: amount, Source: "component"}
		if comp.ComponentType == payroll.ComponentTypeAllowance {
			res.Allowances = res.Allowances.Add(amount)
			res.Earnings.Allowances = append(res.Earnings.Allowances, line)
		} else {
			componentDeductions = append(componentDeductions, line)
		}
	}
	res.Gross = res.ProratedSalary.Add(res.Allowances)

	// Overtime
	res.HourlyRate = res.Gross.Div(c.workingDaysPerMonth.Mul(c.hoursPerDay))
	if in.Attendance.OvertimeHours.IsPositive() {
		res.Overtime = round(in.Attendance.OvertimeHours.Mul(res.HourlyRate).Mul(c.overtimeMultiplier))
	}
	res.Earnings.Overtime = res.Overtime

	// Tax
	res.Deductions.Taxes = progressiveTax(res.Gross, in.TaxBrackets)
	for _, line := range res.Deductions.Taxes {
		res.Tax = res.Tax.Add(line.Amount)
	}

	// Insurance
	if bracket, ok := findInsuranceBracket(res.Gross, in.InsuranceBrackets); ok {
		base := bracket.InsurableBase(res.Gross)
		res.InsuranceEmployee = round(base.Mul(bracket.EmployeeRate))
		res.InsuranceEmployer = round(base.Mul(bracket.EmployerRate))
		employeeRate := bracket.EmployeeRate
		res.Deductions.Insurance = append(res.Deductions.Insurance, payroll.LineItem{
			Name:   "Social insurance (" + bracketName(bracket.Name, "employee share") + ")",
			Amount: res.InsuranceEmployee,
			Base:   &base,
			Rate:   &employeeRate,
		})
	}
	res.Deductions.EmployerInsurance = res.InsuranceEmployer

	// Approved one-off benefits
	for _, b := range sortedBenefits(in.Benefits) {
		if b.Status != benefit.StatusApproved || !b.PayableIn(in.Period.Month, in.Period.Year) {
			continue
		}
		line := payroll.LineItem{Name: benefitLabel(b.Kind), Amount: round(b.Amount), Source: "benefit:" + b.ID}
		switch b.Kind {
		case benefit.KindSigningBonus:
			res.Bonus = res.Bonus.Add(line.Amount)
			res.Earnings.Bonuses = append(res.Earnings.Bonuses, line)
		case benefit.KindTerminationBenefit:
			res.Benefit = res.Benefit.Add(line.Amount)
			res.Earnings.Benefits = append(res.Earnings.Benefits, line)
		}
	}

	// Penalties and unpaid leave
	for _, p := range sortedPenalties(in.Penalties) {
		if p.PeriodMonth != in.Period.Month || p.PeriodYear != in.Period.Year {
			continue
		}
		line := payroll.LineItem{Name: p.Reason, Amount: round(p.Amount), Source: "penalty:" + p.ID}
		res.Penalties = res.Penalties.Add(line.Amount)
		res.Deductions.Penalties = append(res.Deductions.Penalties, line)
	}
	for _, line := range componentDeductions {
		res.Penalties = res.Penalties.Add(line.Amount)
		res.Deductions.Penalties = append(res.Deductions.Penalties, line)
	}
	if in.Attendance.UnpaidLeaveDays.IsPositive() {
		res.UnpaidLeave = round(in.Attendance.UnpaidLeaveDays.Mul(res.Gross).Div(c.workingDaysPerMonth))
	}
	res.Deductions.UnpaidLeave = res.UnpaidLeave

	// Net and minimum wage floor
	res.Net = res.Gross.
		Sub(res.Tax).
		Sub(res.InsuranceEmployee).
		Add(res.Overtime).
		Add(res.Bonus).
		Add(res.Benefit).
		Sub(res.Penalties).
		Sub(res.UnpaidLeave)

	res.FinalNet = res.Net
	if res.Net.LessThan(c.minimumWage) {
		res.FinalNet = c.minimumWage
		res.MinimumWageApplied = true
		res.Earnings.MinimumWageTopUp = c.minimumWage.Sub(res.Net)
	}

	return res, nil
}

// prorationFactor is 1 for a full period and worked/total otherwise.
func (c *Calculator) prorationFactor(emp employee.Employee, period payroll.Period) decimal.Decimal {
	start, end := period.Start(), period.End()
	from, to := start, end
	if hire := dateOnly(emp.HireDate); hire.After(from) {
		from = hire
	}
	if emp.ContractEndDate != nil {
		if ce := dateOnly(*emp.ContractEndDate); ce.Before(to) {
			to = ce
		}
	}
	if from.Equal(start) && to.Equal(end) {
		return decimal.NewFromInt(1)
	}
	if to.Before(from) {
		return decimal.Zero
	}

	total := c.workingDays.Total(period)
	if total.IsZero() {
		return decimal.Zero
	}
	factor := c.workingDays.Worked(period, from, to).Div(total)
	if factor.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return factor
}

// progressiveTax returns one line per band that taxes part of gross.
func progressiveTax(gross decimal.Decimal, brackets []rule.TaxBracket) []payroll.LineItem {
	if len(brackets) == 0 {
		brackets = rule.DefaultTaxBrackets()
	}
	sorted := make([]rule.TaxBracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LowerBound.LessThan(sorted[j].LowerBound)
	})

	var lines []payroll.LineItem
	for _, b := range sorted {
		if !gross.GreaterThan(b.LowerBound) {
			break
		}
		top := gross
		if b.UpperBound != nil && b.UpperBound.LessThan(gross) {
			top = *b.UpperBound
		}
		taxable := top.Sub(b.LowerBound)
		if !taxable.IsPositive() || b.Rate.IsZero() {
			continue
		}
		rate := b.Rate
		lines = append(lines, payroll.LineItem{
			Name:   "Income tax (" + bracketName(b.Name, fmt.Sprintf("from %s", b.LowerBound.StringFixed(moneyPlaces))) + ")",
			Amount: round(taxable.Mul(rate)),
			Base:   &taxable,
			Rate:   &rate,
		})
	}
	return lines
}

func findInsuranceBracket(gross decimal.Decimal, brackets []rule.InsuranceBracket) (rule.InsuranceBracket, bool) {
	for _, b := range brackets {
		if b.Contains(gross) {
			return b, true
		}
	}
	return rule.InsuranceBracket{}, false
}

func bracketName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func benefitLabel(kind benefit.Kind) string {
	switch kind {
	case benefit.KindSigningBonus:
		return "Signing bonus"
	case benefit.KindTerminationBenefit:
		return "Termination benefit"
	}
	return string(kind)
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// Inputs are sorted so line items come out in a stable order whatever the store returns.

func sortedComponents(in []payroll.EmployeePayrollComponent) []payroll.EmployeePayrollComponent {
	out := append([]payroll.EmployeePayrollComponent(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ComponentName != out[j].ComponentName {
			return out[i].ComponentName < out[j].ComponentName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedBenefits(in []benefit.Benefit) []benefit.Benefit {
	out := append([]benefit.Benefit(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedPenalties(in []benefit.Penalty) []benefit.Penalty {
	out := append([]benefit.Penalty(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
