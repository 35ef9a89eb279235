package payroll

import (
	"context"
	"time"
)

// Transactor runs fn inside one unit of work. Repositories called with the
// ctx passed to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RunRepository interface {
	// Create returns ErrRunAlreadyExists when the period already has a run.
	Create(ctx context.Context, run PayrollRun) (PayrollRun, error)
	GetByID(ctx context.Context, id string) (PayrollRun, error)
	// GetByIDForUpdate locks the run until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (PayrollRun, error)
	GetByPeriod(ctx context.Context, period Period) (PayrollRun, error)
	List(ctx context.Context, filter RunFilter) ([]PayrollRun, int64, error)
	Update(ctx context.Context, run PayrollRun) error
}

type DetailRepository interface {
	// CreateIfAbsent inserts the detail unless the employee is already in the run.
	CreateIfAbsent(ctx context.Context, detail EmployeePayrollDetail) (EmployeePayrollDetail, bool, error)
	GetByID(ctx context.Context, id string) (EmployeePayrollDetail, error)
	ListByRun(ctx context.Context, runID string) ([]EmployeePayrollDetail, error)
	Update(ctx context.Context, detail EmployeePayrollDetail) error
}

type PayslipRepository interface {
	CreateIfAbsent(ctx context.Context, payslip Payslip) (Payslip, bool, error)
	GetByID(ctx context.Context, id string) (Payslip, error)
	GetByDetailID(ctx context.Context, detailID string) (Payslip, error)
	ListByRun(ctx context.Context, runID string) ([]Payslip, error)
	Update(ctx context.Context, payslip Payslip) error
	// SetPaymentStatusByRun updates every non-skipped payslip of the run.
	SetPaymentStatusByRun(ctx context.Context, runID string, status PaymentStatus) error

	CreateAdjustment(ctx context.Context, adj PayslipAdjustment) (PayslipAdjustment, error)
	ListAdjustments(ctx context.Context, payslipID string) ([]PayslipAdjustment, error)
}

type AnomalyRepository interface {
	Create(ctx context.Context, anomaly Anomaly) (Anomaly, error)
	// CreateIfAbsent is keyed by (run, employee, type) so recalculation does not duplicate.
	CreateIfAbsent(ctx context.Context, anomaly Anomaly) (Anomaly, bool, error)
	GetByID(ctx context.Context, id string) (Anomaly, error)
	ListByRun(ctx context.Context, runID string, includeResolved bool) ([]Anomaly, error)
	Resolve(ctx context.Context, id string, resolvedBy string, notes string, at time.Time) (Anomaly, error)
}

// InputRepository reads calculation inputs owned by the attendance, leave and
// compensation subsystems.
type InputRepository interface {
	GetAttendanceSummary(ctx context.Context, period Period, employeeIDs []string) (map[string]AttendanceSummary, error)
	GetEmployeeComponents(ctx context.Context, employeeID string, period Period) ([]EmployeePayrollComponent, error)
}
