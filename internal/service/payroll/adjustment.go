package payroll

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
)

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	if _, err := s.authorize(ctx, user.PermissionPayrollView); err != nil {
		return payroll.PayslipResponse{}, err
	}

	payslip, err := s.payslips.GetByID(ctx, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	adjustments, err := s.payslips.ListAdjustments(ctx, payslip.ID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.ToPayslipResponse(payslip, adjustments), nil
}

func (s *PayrollServiceImpl) AdjustPayslip(ctx context.Context, req payroll.AdjustPayslipRequest) (payroll.PayslipResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollAdjust)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}

	var (
		payslip     payroll.Payslip
		adjustments []payroll.PayslipAdjustment
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		payslip, err = s.payslips.GetByID(ctx, req.PayslipID)
		if err != nil {
			return err
		}
		run, err := s.runs.GetByIDForUpdate(ctx, payslip.RunID)
		if err != nil {
			return err
		}
		if err := run.CheckAdjustable(); err != nil {
			return err
		}
		if payslip.PaymentStatus == payroll.PaymentStatusSkipped {
			return validator.ValidationErrors{{Field: "payslip_id", Message: "payslip of a skipped employee cannot be adjusted"}}
		}

		pastSubmission := run.IsPastSubmission()
		if pastSubmission && (req.Reason == nil || validator.IsEmpty(*req.Reason)) {
			return validator.ValidationErrors{{Field: "reason", Message: "is required once the run has been submitted"}}
		}

		adjType := payroll.AdjustmentType(req.Type)
		if adjType == payroll.AdjustmentTypeDeduction && req.Amount.GreaterThan(payslip.NetPay) {
			return payroll.ErrDeductionExceedsNetPay
		}

		now := s.now()
		adj, err := s.payslips.CreateAdjustment(ctx, payroll.PayslipAdjustment{
			ID:        newID(),
			PayslipID: payslip.ID,
			RunID:     run.ID,
			Type:      adjType,
			Amount:    req.Amount,
			Reason:    req.Reason,
			ActorID:   actor.UserID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		applyAdjustment(&payslip, adj)
		payslip.ManagerOverride = true
		payslip.OverrideReason = req.Reason
		payslip.UpdatedAt = now
		if err := s.payslips.Update(ctx, payslip); err != nil {
			return err
		}

		detail, err := s.details.GetByID(ctx, payslip.DetailID)
		if err != nil {
			return err
		}
		detail.ManualAdjustment = detail.ManualAdjustment.Add(adj.Signed())
		detail.UpdatedAt = now
		if err := s.details.Update(ctx, detail); err != nil {
			return err
		}

		run.TotalNetPay = run.TotalNetPay.Add(adj.Signed())
		run.UpdatedAt = now
		if err := s.runs.Update(ctx, run); err != nil {
			return err
		}

		if pastSubmission {
			amount := adj.Signed()
			if err := s.appendAudit(ctx, audit.CycleAdjustment{
				ActionType:    audit.ActionManualEdit,
				PayrollRunID:  run.ID,
				PayslipID:     &payslip.ID,
				Justification: *req.Reason,
				FromStatus:    string(run.Status),
				ToStatus:      string(run.Status),
				Amount:        &amount,
				ActorID:       actor.UserID,
				ActorRole:     string(actor.Role),
			}); err != nil {
				return err
			}
		}

		adjustments, err = s.payslips.ListAdjustments(ctx, payslip.ID)
		return err
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slog.Info("Payslip adjusted", "payslip_id", payslip.ID, "type", req.Type, "amount", req.Amount.String(), "net_pay", payslip.NetPay.String(), "actor", actor.UserID)
	return payroll.ToPayslipResponse(payslip, adjustments), nil
}
