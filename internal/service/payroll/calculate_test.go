package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestPayrollService_Calculate_MinimumWageFloor(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetTaxBrackets([]rule.TaxBracket{
		{ID: "tax-flat", Name: "Flat", LowerBound: decimal.Zero, Rate: decimal.RequireFromString("0.10")},
	})
	insurableCap := decimal.NewFromInt(1500)
	env.store.SetInsuranceBrackets([]rule.InsuranceBracket{
		{ID: "ins-std", Name: "Standard", MinSalary: decimal.Zero, EmployeeRate: decimal.RequireFromString("0.1"), EmployerRate: decimal.RequireFromString("0.2"), MaxInsurableSalary: &insurableCap},
	})
	emp := env.addEmployee("EMP001", "3500")
	env.store.AddPenalty(benefit.Penalty{
		ID:          uuid.NewString(),
		EmployeeID:  emp.ID,
		PeriodMonth: testPeriod.Month,
		PeriodYear:  testPeriod.Year,
		Amount:      decimal.NewFromInt(4000),
		Reason:      "Damaged equipment",
	})

	run, summary := env.calculatedRun(t)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.AnomaliesCreated)

	detail := env.detailFor(t, run.ID, emp.ID)
	assertMoney(t, "3500", detail.GrossSalary)
	assertMoney(t, "350", detail.TaxAmount)
	assertMoney(t, "150", detail.InsuranceEmployee)
	assertMoney(t, "300", detail.InsuranceEmployer)
	assertMoney(t, "4000", detail.PenaltyAmount)
	assertMoney(t, "-1000", detail.NetPay)
	assertMoney(t, "2000", detail.FinalNetPay)
	assert.True(t, detail.MinimumWageApplied)
	assert.Contains(t, detail.Exceptions, exceptionNegativePay)

	payslip := env.payslipFor(t, run.ID, emp.ID)
	assertMoney(t, "2000", payslip.NetPay)
	assertMoney(t, "3000", payslip.Earnings.MinimumWageTopUp)
	assertMoney(t, "300", payslip.Deductions.EmployerInsurance)

	anomalies, err := env.svc.ListAnomalies(specialistCtx, run.ID, false)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, string(payroll.AnomalyTypeNegativePay), anomalies[0].Type)
	assert.Equal(t, emp.ID, *anomalies[0].EmployeeID)
}

func TestPayrollService_Calculate_ProratesEndingContract(t *testing.T) {
	env := newTestEnv(t)
	contractEnd := time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC)
	emp := env.addEmployee("EMP001", "3000", func(e *employee.Employee) {
		e.EmploymentType = employee.EmploymentTypeContract
		e.ContractEndDate = &contractEnd
	})

	run, _ := env.calculatedRun(t)

	detail := env.detailFor(t, run.ID, emp.ID)
	assertMoney(t, "1000.00", detail.ProratedSalary)
	assertMoney(t, "1000.00", detail.GrossSalary)
}

func TestPayrollService_Calculate_RecalculationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	a := env.addEmployee("EMP001", "8000")
	b := env.addEmployee("EMP002", "4500", func(e *employee.Employee) { e.BankName = "" })
	env.store.SetAttendance(testPeriod, payroll.AttendanceSummary{
		EmployeeID:      a.ID,
		OvertimeHours:   decimal.NewFromInt(6),
		UnpaidLeaveDays: decimal.NewFromInt(1),
	})
	env.store.AddComponent(payroll.EmployeePayrollComponent{
		ID:            uuid.NewString(),
		EmployeeID:    b.ID,
		ComponentName: "Transport",
		ComponentType: payroll.ComponentTypeAllowance,
		Amount:        decimal.NewFromInt(250),
		EffectiveDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	run, first := env.calculatedRun(t)
	firstA := env.payslipFor(t, run.ID, a.ID)
	firstB := env.payslipFor(t, run.ID, b.ID)

	second, err := env.svc.Calculate(specialistCtx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Processed, second.Processed)
	assert.True(t, first.TotalPayout.Equal(second.TotalPayout))
	assert.Equal(t, 0, second.AnomaliesCreated)
	assert.True(t, firstA.NetPay.Equal(env.payslipFor(t, run.ID, a.ID).NetPay))
	assert.True(t, firstB.NetPay.Equal(env.payslipFor(t, run.ID, b.ID).NetPay))

	details, err := env.store.Details().ListByRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, details, 2)

	anomalies, err := env.svc.ListAnomalies(specialistCtx, run.ID, true)
	require.NoError(t, err)
	assert.Len(t, anomalies, 1)
}

func TestPayrollService_Calculate_TotalMatchesPayslips(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "12000")
	env.addEmployee("EMP002", "6400")
	env.addEmployee("EMP003", "2100")
	late := env.addEmployee("EMP004", "5000")

	run := env.snapshotRun(t)
	// EMP004 resigns after the snapshot and must be skipped, not paid
	late.EmploymentStatus = employee.EmploymentStatusResigned
	env.store.PutEmployee(late)

	summary, err := env.svc.Calculate(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, late.ID, summary.Skipped[0].EmployeeID)

	eligible, err := env.svc.EligibleEmployees(specialistCtx, run.ID)
	require.NoError(t, err)
	total := decimal.Zero
	for _, p := range eligible.Payslips {
		total = total.Add(p.NetPay)
	}

	got, err := env.svc.GetRun(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(got.TotalNetPay), "sum of payslips %s, run total %s", total, got.TotalNetPay)
	assert.True(t, total.Equal(summary.TotalPayout))
	assert.Equal(t, string(payroll.RunStatusCalculated), got.Status)
	assert.NotNil(t, got.CalculatedAt)
}

func TestPayrollService_Calculate_SkipsInactiveAndExpired(t *testing.T) {
	env := newTestEnv(t)
	active := env.addEmployee("EMP001", "5000")
	resigned := env.addEmployee("EMP002", "5000")
	expired := env.addEmployee("EMP003", "5000")

	run := env.snapshotRun(t)

	resigned.EmploymentStatus = employee.EmploymentStatusResigned
	env.store.PutEmployee(resigned)
	ended := time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC)
	expired.ContractEndDate = &ended
	env.store.PutEmployee(expired)

	summary, err := env.svc.Calculate(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Len(t, summary.Skipped, 2)
	assert.Empty(t, summary.Errors)

	for _, emp := range []employee.Employee{resigned, expired} {
		detail := env.detailFor(t, run.ID, emp.ID)
		assert.True(t, detail.Skipped)
		require.NotNil(t, detail.SkipReason)
		assert.True(t, detail.NetPay.IsZero())

		payslip := env.payslipFor(t, run.ID, emp.ID)
		assert.Equal(t, payroll.PaymentStatusSkipped, payslip.PaymentStatus)
		assert.True(t, payslip.NetPay.IsZero())
	}
	assert.Equal(t, "contract ended on 2026-09-20", *env.detailFor(t, run.ID, expired.ID).SkipReason)

	got, err := env.svc.GetRun(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.True(t, env.payslipFor(t, run.ID, active.ID).NetPay.Equal(got.TotalNetPay))
}

func TestPayrollService_Calculate_FlagsMissingBankDetails(t *testing.T) {
	env := newTestEnv(t)
	emp := env.addEmployee("EMP001", "5000", func(e *employee.Employee) {
		e.BankName = ""
		e.BankAccountNumber = ""
	})

	run, summary := env.calculatedRun(t)
	assert.Equal(t, 1, summary.Processed)

	detail := env.detailFor(t, run.ID, emp.ID)
	assert.Equal(t, payroll.BankStatusMissing, detail.BankStatus)
	assert.Contains(t, detail.Exceptions, exceptionMissingBank)

	anomalies, err := env.svc.ListAnomalies(specialistCtx, run.ID, false)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, string(payroll.AnomalyTypeMissingBankDetails), anomalies[0].Type)

	got, err := env.svc.GetRun(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ExceptionCount)
}

func TestPayrollService_Calculate_EmployeeErrorDoesNotStopBatch(t *testing.T) {
	env := newTestEnv(t)
	ok := env.addEmployee("EMP001", "5000")
	broken := env.addEmployee("EMP002", "5000", func(e *employee.Employee) { e.BaseSalary = nil })

	run, summary := env.calculatedRun(t)
	assert.Equal(t, 1, summary.Processed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, broken.ID, summary.Errors[0].EmployeeID)
	assert.Equal(t, string(payroll.RunStatusCalculated), summary.Status)

	assert.Equal(t, payroll.PaymentStatusPending, env.payslipFor(t, run.ID, ok.ID).PaymentStatus)
}

func TestPayrollService_ResolveAnomalies(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "5000", func(e *employee.Employee) { e.BankAccountNumber = "" })
	run, _ := env.calculatedRun(t)

	anomalies, err := env.svc.ListAnomalies(specialistCtx, run.ID, false)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)

	resolved, err := env.svc.ResolveAnomalies(managerCtx, payroll.ResolveAnomaliesRequest{
		RunID:       run.ID,
		Resolutions: []payroll.AnomalyResolution{{AnomalyID: anomalies[0].ID, Notes: "employee will be paid by cheque"}},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].Resolved)
	assert.Equal(t, "user-payroll_manager", *resolved[0].ResolvedBy)

	open, err := env.svc.ListAnomalies(specialistCtx, run.ID, false)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := env.svc.ListAnomalies(specialistCtx, run.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = env.svc.ResolveAnomalies(managerCtx, payroll.ResolveAnomaliesRequest{
		RunID:       run.ID,
		Resolutions: []payroll.AnomalyResolution{{AnomalyID: "missing", Notes: "n/a"}},
	})
	assert.ErrorIs(t, err, payroll.ErrAnomalyNotFound)
}

func TestPayrollService_Calculate_IncludesApprovedBenefitsOnly(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetTaxBrackets([]rule.TaxBracket{{ID: "none", LowerBound: decimal.Zero, Rate: decimal.Zero}})
	emp := env.addEmployee("EMP001", "5000")

	ctx := context.Background()
	for _, b := range []benefit.Benefit{
		{ID: uuid.NewString(), EmployeeID: emp.ID, Kind: benefit.KindSigningBonus, Amount: decimal.NewFromInt(700), PeriodMonth: 10, PeriodYear: 2026, Status: benefit.StatusApproved},
		{ID: uuid.NewString(), EmployeeID: emp.ID, Kind: benefit.KindTerminationBenefit, Amount: decimal.NewFromInt(900), PeriodMonth: 10, PeriodYear: 2026, Status: benefit.StatusPending},
		{ID: uuid.NewString(), EmployeeID: emp.ID, Kind: benefit.KindSigningBonus, Amount: decimal.NewFromInt(300), PeriodMonth: 11, PeriodYear: 2026, Status: benefit.StatusApproved},
	} {
		_, err := env.store.Benefits().Create(ctx, b)
		require.NoError(t, err)
	}

	run, _ := env.calculatedRun(t)

	detail := env.detailFor(t, run.ID, emp.ID)
	assertMoney(t, "700", detail.BonusAmount)
	assert.True(t, detail.BenefitAmount.IsZero())
	assertMoney(t, "5700", detail.FinalNetPay)
}
