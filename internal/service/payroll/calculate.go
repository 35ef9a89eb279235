package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	exceptionMissingBank = "missing bank details"
	exceptionNegativePay = "net pay below zero before minimum wage floor"
)

// ruleTables are loaded once per batch and shared read-only by the workers.
type ruleTables struct {
	tax       []rule.TaxBracket
	insurance []rule.InsuranceBracket
}

type employeeOutcome struct {
	employeeID string
	processed  bool
	netPay     decimal.Decimal
	exception  bool
	anomalies  int
	skipped    *payroll.SkippedEmployee
	failure    *payroll.EmployeeError
}

func (s *PayrollServiceImpl) Calculate(ctx context.Context, runID string) (payroll.CalculationSummary, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollCalculate)
	if err != nil {
		return payroll.CalculationSummary{}, err
	}

	// Starting from calculating takes the run over from an earlier pass,
	// whose remaining writes are then refused.
	run, err := s.transitionRun(ctx, runID, payroll.ActionStartCalculation, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		id := newID()
		run.CalculationID = &id
		return nil
	})
	if err != nil {
		return payroll.CalculationSummary{}, err
	}
	calculationID := *run.CalculationID

	details, err := s.details.ListByRun(ctx, run.ID)
	if err != nil {
		return payroll.CalculationSummary{}, fmt.Errorf("failed to load run details: %w", err)
	}
	tables, err := s.loadRuleTables(ctx)
	if err != nil {
		return payroll.CalculationSummary{}, err
	}

	employeeIDs := make([]string, 0, len(details))
	for _, d := range details {
		employeeIDs = append(employeeIDs, d.EmployeeID)
	}
	attendance, err := s.inputs.GetAttendanceSummary(ctx, run.Period, employeeIDs)
	if err != nil {
		return payroll.CalculationSummary{}, fmt.Errorf("failed to load attendance summary: %w", err)
	}

	start := time.Now()
	outcomes := make([]employeeOutcome, len(details))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.CalculationWorkers)
	for i, d := range details {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out, err := s.calculateEmployee(gctx, run, calculationID, d, tables, attendance[d.EmployeeID])
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("Payroll calculation pass abandoned", "run_id", run.ID, "calculation_id", calculationID, "error", err)
		return payroll.CalculationSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return payroll.CalculationSummary{}, err
	}

	summary := payroll.CalculationSummary{
		RunID:       run.ID,
		TotalPayout: decimal.Zero,
		Skipped:     []payroll.SkippedEmployee{},
		Errors:      []payroll.EmployeeError{},
	}
	exceptions := 0
	for _, o := range outcomes {
		summary.AnomaliesCreated += o.anomalies
		if o.exception {
			exceptions++
		}
		switch {
		case o.failure != nil:
			summary.Errors = append(summary.Errors, *o.failure)
		case o.skipped != nil:
			summary.Skipped = append(summary.Skipped, *o.skipped)
		case o.processed:
			summary.Processed++
			summary.TotalPayout = summary.TotalPayout.Add(o.netPay)
		}
	}

	// Totals are written only after every employee write above has finished.
	run, err = s.transitionRun(ctx, run.ID, payroll.ActionEndCalculation, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		if run.CalculationID == nil || *run.CalculationID != calculationID {
			return payroll.ErrCalculationSuperseded
		}
		now := s.now()
		run.TotalNetPay = summary.TotalPayout
		run.EmployeeCount = len(details)
		run.ExceptionCount = exceptions
		run.CalculatedAt = &now
		return nil
	})
	if err != nil {
		return payroll.CalculationSummary{}, err
	}
	summary.Status = string(run.Status)

	slog.Info("Payroll run calculated",
		"run_id", run.ID,
		"processed", summary.Processed,
		"skipped", len(summary.Skipped),
		"errors", len(summary.Errors),
		"total_payout", summary.TotalPayout.String(),
		"duration", time.Since(start),
		"actor", actor.UserID,
	)
	return summary, nil
}

func (s *PayrollServiceImpl) loadRuleTables(ctx context.Context) (ruleTables, error) {
	tax, err := s.rules.ListTaxBrackets(ctx)
	if err != nil {
		return ruleTables{}, fmt.Errorf("failed to load tax brackets: %w", err)
	}
	if len(tax) == 0 {
		tax = rule.DefaultTaxBrackets()
	}
	insurance, err := s.rules.ListInsuranceBrackets(ctx)
	if err != nil {
		return ruleTables{}, fmt.Errorf("failed to load insurance brackets: %w", err)
	}
	return ruleTables{tax: tax, insurance: insurance}, nil
}

// calculateEmployee reports problems with one employee in the outcome so the
// rest of the batch continues. It returns an error only when the pass has
// lost ownership of the run and must stop.
func (s *PayrollServiceImpl) calculateEmployee(
	ctx context.Context,
	run payroll.PayrollRun,
	calculationID string,
	detail payroll.EmployeePayrollDetail,
	tables ruleTables,
	att payroll.AttendanceSummary,
) (employeeOutcome, error) {
	out := employeeOutcome{employeeID: detail.EmployeeID}
	fail := func(err error) (employeeOutcome, error) {
		if lostOwnership(err) {
			return employeeOutcome{employeeID: detail.EmployeeID}, err
		}
		slog.Warn("Payroll calculation failed for employee", "run_id", run.ID, "employee_id", detail.EmployeeID, "error", err)
		out.failure = &payroll.EmployeeError{EmployeeID: detail.EmployeeID, Message: err.Error()}
		return out, nil
	}

	if !validator.IsUUID(detail.EmployeeID) {
		return fail(employee.ErrInvalidEmployeeID)
	}
	emp, err := s.employees.GetByID(ctx, detail.EmployeeID)
	if err != nil {
		return fail(err)
	}

	detail.EmployeeCode = emp.EmployeeCode
	detail.EmployeeName = emp.FullName
	detail.BankStatus = payroll.BankStatusValid
	if !emp.HasBankDetails() {
		detail.BankStatus = payroll.BankStatusMissing
	}

	if reason, skip := skipReason(emp, run.Period); skip {
		slog.Warn("Employee skipped in payroll calculation", "run_id", run.ID, "employee_id", emp.ID, "reason", reason)
		if err := s.saveSkipped(ctx, run.ID, calculationID, detail, reason); err != nil {
			return fail(err)
		}
		out.skipped = &payroll.SkippedEmployee{EmployeeID: emp.ID, Reason: reason}
		out.exception = true
		return out, nil
	}

	components, err := s.inputs.GetEmployeeComponents(ctx, emp.ID, run.Period)
	if err != nil {
		return fail(err)
	}
	benefits, err := s.benefits.ListByEmployee(ctx, emp.ID, benefit.StatusApproved)
	if err != nil {
		return fail(err)
	}
	penalties, err := s.penalties.ListByEmployeePeriod(ctx, emp.ID, run.Period.Month, run.Period.Year)
	if err != nil {
		return fail(err)
	}
	if att.EmployeeID == "" {
		att = payroll.AttendanceSummary{EmployeeID: emp.ID, OvertimeHours: decimal.Zero, UnpaidLeaveDays: decimal.Zero}
	}

	res, err := s.calculator.Calculate(CalculationInput{
		Employee:          emp,
		Period:            run.Period,
		Components:        components,
		Attendance:        att,
		Benefits:          benefits,
		Penalties:         penalties,
		TaxBrackets:       tables.tax,
		InsuranceBrackets: tables.insurance,
	})
	if err != nil {
		return fail(err)
	}

	// The payslip and its adjustments are read under the run lock so manual
	// edits committed before this pass took the run are replayed, never lost.
	var anomalies int
	err = s.writeOwned(ctx, run.ID, calculationID, func(ctx context.Context) error {
		payslip, err := s.payslips.GetByDetailID(ctx, detail.ID)
		if err != nil {
			return err
		}
		adjustments, err := s.payslips.ListAdjustments(ctx, payslip.ID)
		if err != nil {
			return err
		}

		applyResult(&detail, &payslip, res, adjustments, s.now())
		if err := s.details.Update(ctx, detail); err != nil {
			return err
		}
		if err := s.payslips.Update(ctx, payslip); err != nil {
			return err
		}
		out.netPay = payslip.NetPay

		anomalies = 0
		if res.Net.IsNegative() {
			desc := fmt.Sprintf("Net pay %s is negative before the minimum wage floor of %s", res.Net.StringFixed(moneyPlaces), s.cfg.MinimumWage.StringFixed(moneyPlaces))
			created, err := s.flagEmployee(ctx, run.ID, emp.ID, payroll.AnomalyTypeNegativePay, desc)
			if err != nil {
				return err
			}
			if created {
				anomalies++
			}
		}
		if detail.BankStatus == payroll.BankStatusMissing {
			created, err := s.flagEmployee(ctx, run.ID, emp.ID, payroll.AnomalyTypeMissingBankDetails, "No bank account on file for payout")
			if err != nil {
				return err
			}
			if created {
				anomalies++
			}
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	out.processed = true
	out.anomalies = anomalies
	out.exception = detail.HasExceptions()
	return out, nil
}

// writeOwned runs fn in a transaction holding the run lock, provided the pass
// identified by calculationID still owns the run.
func (s *PayrollServiceImpl) writeOwned(ctx context.Context, runID, calculationID string, fn func(ctx context.Context) error) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		run, err := s.runs.GetByIDForUpdate(ctx, runID)
		if err != nil {
			return err
		}
		if err := run.CheckCalculationOwner(calculationID); err != nil {
			return err
		}
		return fn(ctx)
	})
}

func lostOwnership(err error) bool {
	return errors.Is(err, payroll.ErrInvalidTransition) || errors.Is(err, payroll.ErrCalculationSuperseded)
}

func skipReason(emp employee.Employee, period payroll.Period) (string, bool) {
	if !emp.IsActive() {
		return fmt.Sprintf("employment status is '%s'", emp.EmploymentStatus), true
	}
	if emp.ContractEndedBefore(period.Start()) {
		return fmt.Sprintf("contract ended on %s", emp.ContractEndDate.Format("2006-01-02")), true
	}
	if emp.HireDate.After(period.End()) {
		return fmt.Sprintf("contract starts on %s", emp.HireDate.Format("2006-01-02")), true
	}
	return "", false
}

func (s *PayrollServiceImpl) saveSkipped(ctx context.Context, runID, calculationID string, detail payroll.EmployeePayrollDetail, reason string) error {
	now := s.now()
	detail = payroll.EmployeePayrollDetail{
		ID:           detail.ID,
		RunID:        detail.RunID,
		EmployeeID:   detail.EmployeeID,
		EmployeeCode: detail.EmployeeCode,
		EmployeeName: detail.EmployeeName,
		BaseSalary:   detail.BaseSalary,
		BankStatus:   detail.BankStatus,
		Exceptions:   []string{"skipped: " + reason},
		Skipped:      true,
		SkipReason:   &reason,
		CalculatedAt: &now,
		CreatedAt:    detail.CreatedAt,
		UpdatedAt:    now,
	}

	return s.writeOwned(ctx, runID, calculationID, func(ctx context.Context) error {
		payslip, err := s.payslips.GetByDetailID(ctx, detail.ID)
		if err != nil {
			return err
		}
		payslip.Earnings = payroll.Earnings{}
		payslip.Deductions = payroll.Deductions{}
		payslip.NetPay = decimal.Zero
		payslip.PaymentStatus = payroll.PaymentStatusSkipped
		payslip.UpdatedAt = now

		if err := s.details.Update(ctx, detail); err != nil {
			return err
		}
		return s.payslips.Update(ctx, payslip)
	})
}

// applyResult overwrites every computed field, then replays stored manual
// adjustments so a rerun gives the same figures as the first run.
func applyResult(detail *payroll.EmployeePayrollDetail, payslip *payroll.Payslip, res CalculationResult, adjustments []payroll.PayslipAdjustment, now time.Time) {
	detail.ProratedSalary = res.ProratedSalary
	detail.Allowances = res.Allowances
	detail.GrossSalary = res.Gross
	detail.OvertimePay = res.Overtime
	detail.TaxAmount = res.Tax
	detail.InsuranceEmployee = res.InsuranceEmployee
	detail.InsuranceEmployer = res.InsuranceEmployer
	detail.BonusAmount = res.Bonus
	detail.BenefitAmount = res.Benefit
	detail.PenaltyAmount = res.Penalties
	detail.UnpaidLeaveDeduction = res.UnpaidLeave
	detail.NetPay = res.Net
	detail.FinalNetPay = res.FinalNet
	detail.MinimumWageApplied = res.MinimumWageApplied
	detail.Skipped = false
	detail.SkipReason = nil
	detail.CalculatedAt = &now
	detail.UpdatedAt = now

	detail.Exceptions = nil
	if detail.BankStatus == payroll.BankStatusMissing {
		detail.Exceptions = append(detail.Exceptions, exceptionMissingBank)
	}
	if res.Net.IsNegative() {
		detail.Exceptions = append(detail.Exceptions, exceptionNegativePay)
	}

	payslip.Earnings = res.Earnings
	payslip.Deductions = res.Deductions
	payslip.NetPay = res.FinalNet
	payslip.PaymentStatus = payroll.PaymentStatusPending
	payslip.UpdatedAt = now

	detail.ManualAdjustment = decimal.Zero
	for _, adj := range adjustments {
		applyAdjustment(payslip, adj)
		detail.ManualAdjustment = detail.ManualAdjustment.Add(adj.Signed())
	}
}

// applyAdjustment adds the manual line to the payslip and moves net pay by exactly its amount.
func applyAdjustment(payslip *payroll.Payslip, adj payroll.PayslipAdjustment) {
	line := payroll.LineItem{Amount: adj.Amount, Source: "manual:" + adj.ID}
	if adj.Type == payroll.AdjustmentTypeBonus {
		line.Name = "Manual bonus"
		payslip.Earnings.Bonuses = append(payslip.Earnings.Bonuses, line)
	} else {
		line.Name = "Manual deduction"
		payslip.Deductions.Penalties = append(payslip.Deductions.Penalties, line)
	}
	payslip.NetPay = payslip.NetPay.Add(adj.Signed())
}
