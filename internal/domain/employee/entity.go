package employee

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the master record owned by the HR subsystem. Payroll only reads it.
type Employee struct {
	ID                    string
	EmployeeCode          string
	FullName              string
	Email                 *string
	HireDate              time.Time
	ContractEndDate       *time.Time
	EmploymentType        EmploymentType
	EmploymentStatus      EmploymentStatus
	BankName              string
	BankAccountHolderName *string
	BankAccountNumber     string
	BaseSalary            *decimal.Decimal
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type EmploymentType string

const (
	EmploymentTypePermanent  EmploymentType = "permanent"
	EmploymentTypeProbation  EmploymentType = "probation"
	EmploymentTypeContract   EmploymentType = "contract"
	EmploymentTypeInternship EmploymentType = "internship"
)

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusSuspended  EmploymentStatus = "suspended"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

// HasBankDetails reports whether a payout destination is on file.
func (e Employee) HasBankDetails() bool {
	return strings.TrimSpace(e.BankName) != "" && strings.TrimSpace(e.BankAccountNumber) != ""
}

// ContractEndedBefore reports whether the contract ended before the given day.
func (e Employee) ContractEndedBefore(day time.Time) bool {
	return e.ContractEndDate != nil && truncateDay(*e.ContractEndDate).Before(truncateDay(day))
}

// IsContractCurrent reports whether the contract overlaps [start, end].
func (e Employee) IsContractCurrent(start, end time.Time) bool {
	if truncateDay(e.HireDate).After(truncateDay(end)) {
		return false
	}
	return !e.ContractEndedBefore(start)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
