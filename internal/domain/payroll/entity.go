package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft                RunStatus = "draft"
	RunStatusRejected             RunStatus = "rejected"
	RunStatusUnderReview          RunStatus = "under_review"
	RunStatusCalculating          RunStatus = "calculating"
	RunStatusCalculated           RunStatus = "calculated"
	RunStatusSubmittedForApproval RunStatus = "submitted_for_approval"
	RunStatusManagerApproved      RunStatus = "manager_approved"
	RunStatusFinanceApproved      RunStatus = "finance_approved"
	RunStatusNeedsRework          RunStatus = "needs_rework"
	RunStatusLocked               RunStatus = "locked"
	RunStatusUnfrozen             RunStatus = "unfrozen"
)

// PayrollRun - one salary cycle for one period
type PayrollRun struct {
	ID                string
	Period            Period
	Status            RunStatus
	SpecialistID      string
	ManagerID         *string
	FinanceID         *string
	TotalNetPay       decimal.Decimal
	EmployeeCount     int
	ExceptionCount    int
	Locked            bool
	LockedAt          *time.Time
	CalculationID     *string // owner of the current or last calculation pass
	CalculatedAt      *time.Time
	SubmittedAt       *time.Time
	ManagerReviewedAt *time.Time
	FinanceReviewedAt *time.Time
	RejectionReason   *string
	ManagerComment    *string
	FinanceComment    *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsPastSubmission reports whether approvers have already seen the figures.
func (r PayrollRun) IsPastSubmission() bool {
	switch r.Status {
	case RunStatusSubmittedForApproval, RunStatusManagerApproved, RunStatusFinanceApproved:
		return true
	}
	return false
}

// BankStatus enum
type BankStatus string

const (
	BankStatusValid   BankStatus = "valid"
	BankStatusMissing BankStatus = "missing"
)

// EmployeePayrollDetail - per-employee working record inside a run
type EmployeePayrollDetail struct {
	ID                   string
	RunID                string
	EmployeeID           string
	EmployeeCode         string
	EmployeeName         string
	BaseSalary           decimal.Decimal
	ProratedSalary       decimal.Decimal
	Allowances           decimal.Decimal
	GrossSalary          decimal.Decimal
	OvertimePay          decimal.Decimal
	TaxAmount            decimal.Decimal
	InsuranceEmployee    decimal.Decimal
	InsuranceEmployer    decimal.Decimal
	BonusAmount          decimal.Decimal
	BenefitAmount        decimal.Decimal
	PenaltyAmount        decimal.Decimal
	UnpaidLeaveDeduction decimal.Decimal
	NetPay               decimal.Decimal
	FinalNetPay          decimal.Decimal
	ManualAdjustment     decimal.Decimal
	MinimumWageApplied   bool
	BankStatus           BankStatus
	Exceptions           []string
	Skipped              bool
	SkipReason           *string
	CalculatedAt         *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// HasExceptions reports whether the detail needs attention before payout.
func (d EmployeePayrollDetail) HasExceptions() bool {
	return len(d.Exceptions) > 0
}

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentStatusDraft    PaymentStatus = "draft"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSkipped  PaymentStatus = "skipped"
	PaymentStatusApproved PaymentStatus = "approved"
)

// LineItem is one named amount on a payslip.
type LineItem struct {
	Name   string           `json:"name"`
	Amount decimal.Decimal  `json:"amount"`
	Source string           `json:"source,omitempty"`
	Base   *decimal.Decimal `json:"base,omitempty"`
	Rate   *decimal.Decimal `json:"rate,omitempty"`
}

type Earnings struct {
	BaseSalary decimal.Decimal `json:"base_salary"`
	Allowances []LineItem      `json:"allowances"`
	Overtime   decimal.Decimal `json:"overtime"`
	Bonuses    []LineItem      `json:"bonuses"`
	Benefits   []LineItem      `json:"benefits"`
	Refunds    []LineItem      `json:"refunds"`

	MinimumWageTopUp decimal.Decimal `json:"minimum_wage_top_up"`
}

func (e Earnings) Total() decimal.Decimal {
	total := e.BaseSalary.Add(e.Overtime).Add(e.MinimumWageTopUp)
	for _, group := range [][]LineItem{e.Allowances, e.Bonuses, e.Benefits, e.Refunds} {
		total = total.Add(sumLines(group))
	}
	return total
}

type Deductions struct {
	Taxes             []LineItem      `json:"taxes"`
	Insurance         []LineItem      `json:"insurance"`
	Penalties         []LineItem      `json:"penalties"`
	UnpaidLeave       decimal.Decimal `json:"unpaid_leave"`
	EmployerInsurance decimal.Decimal `json:"employer_insurance"` // informational, not withheld
}

func (d Deductions) Total() decimal.Decimal {
	return sumLines(d.Taxes).Add(sumLines(d.Insurance)).Add(sumLines(d.Penalties)).Add(d.UnpaidLeave)
}

func sumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Payslip - employee-facing statement for one run
type Payslip struct {
	ID              string
	RunID           string
	DetailID        string
	EmployeeID      string
	Earnings        Earnings
	Deductions      Deductions
	NetPay          decimal.Decimal
	PaymentStatus   PaymentStatus
	ManagerOverride bool
	OverrideReason  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AdjustmentType enum
type AdjustmentType string

const (
	AdjustmentTypeBonus     AdjustmentType = "bonus"
	AdjustmentTypeDeduction AdjustmentType = "deduction"
)

// PayslipAdjustment - manual correction applied on top of computed figures
type PayslipAdjustment struct {
	ID        string
	PayslipID string
	RunID     string
	Type      AdjustmentType
	Amount    decimal.Decimal
	Reason    *string
	ActorID   string
	CreatedAt time.Time
}

// Signed returns the effect of the adjustment on net pay.
func (a PayslipAdjustment) Signed() decimal.Decimal {
	if a.Type == AdjustmentTypeDeduction {
		return a.Amount.Neg()
	}
	return a.Amount
}

// AnomalyType enum
type AnomalyType string

const (
	AnomalyTypeNegativePay        AnomalyType = "negative_pay"
	AnomalyTypeMissingBankDetails AnomalyType = "missing_bank_details"
	AnomalyTypeRunRejected        AnomalyType = "run_rejected"
)

// Anomaly - flagged condition requiring human review. Never deleted.
type Anomaly struct {
	ID              string
	RunID           string
	EmployeeID      *string
	Type            AnomalyType
	Description     string
	Resolved        bool
	ResolvedBy      *string
	ResolutionNotes *string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
}

// AttendanceSummary - overtime and unpaid leave fed by attendance and leave subsystems
type AttendanceSummary struct {
	EmployeeID      string
	OvertimeHours   decimal.Decimal
	UnpaidLeaveDays decimal.Decimal
}

// ComponentType enum
type ComponentType string

const (
	ComponentTypeAllowance ComponentType = "allowance"
	ComponentTypeDeduction ComponentType = "deduction"
)

// EmployeePayrollComponent - recurring allowance or deduction assigned to an employee
type EmployeePayrollComponent struct {
	ID            string
	EmployeeID    string
	ComponentName string
	ComponentType ComponentType
	Amount        decimal.Decimal
	EffectiveDate time.Time
	EndDate       *time.Time
}

// ActiveDuring reports whether the assignment overlaps [start, end].
func (c EmployeePayrollComponent) ActiveDuring(start, end time.Time) bool {
	if c.EffectiveDate.After(end) {
		return false
	}
	return c.EndDate == nil || !c.EndDate.Before(start)
}
