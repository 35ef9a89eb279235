package payroll

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

func (s *PayrollServiceImpl) ReviewPeriod(ctx context.Context, req payroll.ReviewPeriodRequest) (payroll.ReviewPeriodResult, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollReviewPeriod)
	if err != nil {
		return payroll.ReviewPeriodResult{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.ReviewPeriodResult{}, err
	}

	if req.Action == payroll.PeriodReviewReject {
		return s.rejectPeriod(ctx, actor, req.RunID, *req.RejectionReason)
	}

	var summary payroll.SnapshotSummary
	_, err = s.transitionRun(ctx, req.RunID, payroll.ActionApprovePeriod, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		var err error
		summary, err = s.snapshot(ctx, run)
		return err
	})
	if err != nil {
		return payroll.ReviewPeriodResult{}, err
	}

	slog.Info("Payroll period approved", "run_id", req.RunID, "processed", summary.Processed, "created", summary.Created, "actor", actor.UserID)
	return payroll.ReviewPeriodResult{Kind: payroll.ReviewResultSnapshot, Snapshot: &summary}, nil
}

func (s *PayrollServiceImpl) rejectPeriod(ctx context.Context, actor user.Actor, runID, reason string) (payroll.ReviewPeriodResult, error) {
	run, err := s.transitionRun(ctx, runID, payroll.ActionRejectPeriod, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		run.RejectionReason = &reason
		return s.auditRejection(ctx, actor, *run, from, reason)
	})
	if err != nil {
		return payroll.ReviewPeriodResult{}, err
	}

	s.raiseRunRejected(ctx, run, "Payroll period rejected: "+reason)
	slog.Info("Payroll period rejected", "run_id", run.ID, "actor", actor.UserID)

	resp := payroll.ToRunResponse(run)
	return payroll.ReviewPeriodResult{Kind: payroll.ReviewResultRun, Run: &resp}, nil
}

// snapshot freezes the eligible population of the run. It only adds employees
// that are not in the run yet, so approving again is safe.
func (s *PayrollServiceImpl) snapshot(ctx context.Context, run *payroll.PayrollRun) (payroll.SnapshotSummary, error) {
	summary := payroll.SnapshotSummary{RunID: run.ID}

	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		msg := err.Error()
		summary.FetchError = &msg
		slog.Warn("Employee fetch failed during snapshot", "run_id", run.ID, "error", err)
		employees = nil
	}

	start, end := run.Period.Start(), run.Period.End()
	now := s.now()
	for _, emp := range employees {
		if !emp.IsActive() || !emp.IsContractCurrent(start, end) {
			continue
		}
		summary.Processed++

		bankStatus := payroll.BankStatusValid
		if !emp.HasBankDetails() {
			bankStatus = payroll.BankStatusMissing
			summary.MissingBankCount++
		}

		detail, created, err := s.details.CreateIfAbsent(ctx, newDetail(run.ID, emp, bankStatus, now))
		if err != nil {
			return summary, err
		}
		if !created {
			continue
		}
		summary.Created++

		if _, _, err := s.payslips.CreateIfAbsent(ctx, newPayslip(detail, now)); err != nil {
			return summary, err
		}
	}

	details, err := s.details.ListByRun(ctx, run.ID)
	if err != nil {
		return summary, err
	}
	run.EmployeeCount = len(details)
	run.ExceptionCount = 0
	for _, d := range details {
		if d.BankStatus == payroll.BankStatusMissing || d.HasExceptions() {
			run.ExceptionCount++
		}
	}
	return summary, nil
}

func (s *PayrollServiceImpl) EligibleEmployees(ctx context.Context, runID string) (payroll.EligibleEmployeesResponse, error) {
	if _, err := s.authorize(ctx, user.PermissionPayrollView); err != nil {
		return payroll.EligibleEmployeesResponse{}, err
	}
	if _, err := s.runs.GetByID(ctx, runID); err != nil {
		return payroll.EligibleEmployeesResponse{}, err
	}

	details, err := s.details.ListByRun(ctx, runID)
	if err != nil {
		return payroll.EligibleEmployeesResponse{}, err
	}
	payslips, err := s.payslips.ListByRun(ctx, runID)
	if err != nil {
		return payroll.EligibleEmployeesResponse{}, err
	}

	resp := payroll.EligibleEmployeesResponse{
		RunID:    runID,
		Details:  make([]payroll.EmployeePayrollDetailResponse, 0, len(details)),
		Payslips: make([]payroll.PayslipResponse, 0, len(payslips)),
	}
	for _, d := range details {
		resp.Details = append(resp.Details, payroll.ToDetailResponse(d))
	}
	for _, p := range payslips {
		resp.Payslips = append(resp.Payslips, payroll.ToPayslipResponse(p, nil))
	}
	return resp, nil
}

func newDetail(runID string, emp employee.Employee, bankStatus payroll.BankStatus, now time.Time) payroll.EmployeePayrollDetail {
	base := decimal.Zero
	if emp.BaseSalary != nil {
		base = *emp.BaseSalary
	}
	return payroll.EmployeePayrollDetail{
		ID:           newID(),
		RunID:        runID,
		EmployeeID:   emp.ID,
		EmployeeCode: emp.EmployeeCode,
		EmployeeName: emp.FullName,
		BaseSalary:   base,
		BankStatus:   bankStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newPayslip(detail payroll.EmployeePayrollDetail, now time.Time) payroll.Payslip {
	return payroll.Payslip{
		ID:            newID(),
		RunID:         detail.RunID,
		DetailID:      detail.ID,
		EmployeeID:    detail.EmployeeID,
		Earnings:      payroll.Earnings{BaseSalary: detail.BaseSalary},
		PaymentStatus: payroll.PaymentStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
