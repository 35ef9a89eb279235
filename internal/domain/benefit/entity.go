package benefit

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindSigningBonus       Kind = "signing_bonus"
	KindTerminationBenefit Kind = "termination_benefit"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Benefit is a one-off payment that must be approved before a payroll run may include it.
type Benefit struct {
	ID             string
	EmployeeID     string
	Kind           Kind
	Amount         decimal.Decimal
	OriginalAmount *decimal.Decimal
	PeriodMonth    int
	PeriodYear     int
	Description    *string
	Status         Status
	CreatedBy      string
	ReviewedBy     *string
	ReviewNote     *string
	ReviewedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (b Benefit) IsDecided() bool {
	return b.Status != StatusPending
}

// PayableIn reports whether the benefit belongs to the given pay period.
func (b Benefit) PayableIn(month, year int) bool {
	return b.PeriodMonth == month && b.PeriodYear == year
}

// Penalty is a disciplinary deduction recorded by the attendance or HR subsystem.
type Penalty struct {
	ID          string
	EmployeeID  string
	PeriodMonth int
	PeriodYear  int
	Amount      decimal.Decimal
	Reason      string
	CreatedAt   time.Time
}
