package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

var testPeriod = payroll.Period{Month: 10, Year: 2026}

type testEnv struct {
	store *memory.Store
	svc   *PayrollServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	svc := NewPayrollService(store, Repositories{
		Runs:      store.Runs(),
		Details:   store.Details(),
		Payslips:  store.Payslips(),
		Anomalies: store.Anomalies(),
		Inputs:    store.Inputs(),
		Audit:     store.Audit(),
		Employees: store.Employees(),
		Benefits:  store.Benefits(),
		Penalties: store.Penalties(),
		Rules:     store.Rules(),
	}, nil, DefaultConfig()).(*PayrollServiceImpl)
	svc.now = func() time.Time { return testNow }
	return &testEnv{store: store, svc: svc}
}

func as(role user.Role) context.Context {
	return user.NewContext(context.Background(), user.Actor{UserID: "user-" + string(role), Role: role})
}

var (
	specialistCtx = as(user.RolePayrollSpecialist)
	managerCtx    = as(user.RolePayrollManager)
	financeCtx    = as(user.RoleFinanceOfficer)
	ownerCtx      = as(user.RoleOwner)
)

func salary(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (e *testEnv) addEmployee(code, base string, opts ...func(*employee.Employee)) employee.Employee {
	emp := employee.Employee{
		ID:                uuid.NewString(),
		EmployeeCode:      code,
		FullName:          "Employee " + code,
		HireDate:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EmploymentType:    employee.EmploymentTypePermanent,
		EmploymentStatus:  employee.EmploymentStatusActive,
		BankName:          "BCA",
		BankAccountNumber: "1234567890",
		BaseSalary:        salary(base),
	}
	for _, opt := range opts {
		opt(&emp)
	}
	e.store.PutEmployee(emp)
	return emp
}

// snapshotRun initiates the test period and approves it.
func (e *testEnv) snapshotRun(t *testing.T) payroll.PayrollRunResponse {
	t.Helper()
	run, err := e.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: testPeriod.Month, PeriodYear: testPeriod.Year})
	require.NoError(t, err)

	_, err = e.svc.ReviewPeriod(specialistCtx, payroll.ReviewPeriodRequest{RunID: run.ID, Action: payroll.PeriodReviewApprove})
	require.NoError(t, err)
	return run
}

// calculatedRun initiates, snapshots and calculates the test period.
func (e *testEnv) calculatedRun(t *testing.T) (payroll.PayrollRunResponse, payroll.CalculationSummary) {
	t.Helper()
	run := e.snapshotRun(t)
	summary, err := e.svc.Calculate(specialistCtx, run.ID)
	require.NoError(t, err)
	return run, summary
}

func (e *testEnv) detailFor(t *testing.T, runID, employeeID string) payroll.EmployeePayrollDetail {
	t.Helper()
	details, err := e.store.Details().ListByRun(context.Background(), runID)
	require.NoError(t, err)
	for _, d := range details {
		if d.EmployeeID == employeeID {
			return d
		}
	}
	t.Fatalf("no detail for employee %s", employeeID)
	return payroll.EmployeePayrollDetail{}
}

func (e *testEnv) payslipFor(t *testing.T, runID, employeeID string) payroll.Payslip {
	t.Helper()
	detail := e.detailFor(t, runID, employeeID)
	payslip, err := e.store.Payslips().GetByDetailID(context.Background(), detail.ID)
	require.NoError(t, err)
	return payslip
}

func strPtr(s string) *string { return &s }
