package payroll

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

// ========== RUNS ==========

func (s *PayrollServiceImpl) Initiate(ctx context.Context, req payroll.InitiateRunRequest) (payroll.PayrollRunResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollInitiate)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	period, err := req.Resolve()
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	now := s.now()
	run, err := s.runs.Create(ctx, payroll.PayrollRun{
		ID:           newID(),
		Period:       period,
		Status:       payroll.RunStatusDraft,
		SpecialistID: actor.UserID,
		TotalNetPay:  decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	slog.Info("Payroll run initiated", "run_id", run.ID, "period", period.String(), "actor", actor.UserID, "scheduled", actor.IsSystem())
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) GetRun(ctx context.Context, id string) (payroll.PayrollRunResponse, error) {
	if _, err := s.authorize(ctx, user.PermissionPayrollView); err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, filter payroll.RunFilter) (payroll.ListPayrollRunResponse, error) {
	if _, err := s.authorize(ctx, user.PermissionPayrollView); err != nil {
		return payroll.ListPayrollRunResponse{}, err
	}

	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollRunResponse{}, err
	}
	filter.Normalize()
	runs, total, err := s.runs.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollRunResponse{}, err
	}

	data := make([]payroll.PayrollRunResponse, 0, len(runs))
	for _, r := range runs {
		data = append(data, payroll.ToRunResponse(r))
	}
	return payroll.ListPayrollRunResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ========== APPROVAL CHAIN ==========

func (s *PayrollServiceImpl) Submit(ctx context.Context, runID string) (payroll.PayrollRunResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollSubmit)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	run, err := s.transitionRun(ctx, runID, payroll.ActionSubmit, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		if run.CalculatedAt == nil {
			return payroll.ErrRunNotCalculated
		}
		now := s.now()
		run.SubmittedAt = &now
		run.ManagerID, run.ManagerComment, run.ManagerReviewedAt = nil, nil, nil
		run.FinanceID, run.FinanceComment, run.FinanceReviewedAt = nil, nil, nil
		return nil
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	slog.Info("Payroll run submitted for approval", "run_id", run.ID, "actor", actor.UserID)
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) ManagerReview(ctx context.Context, req payroll.ReviewDecisionRequest) (payroll.PayrollRunResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollManagerReview)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	action := payroll.ActionManagerApprove
	if req.Status == payroll.DecisionRejected {
		action = payroll.ActionManagerReject
	}

	run, err := s.transitionRun(ctx, req.RunID, action, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		now := s.now()
		run.ManagerID = &actor.UserID
		run.ManagerComment = req.Comment
		run.ManagerReviewedAt = &now
		if action == payroll.ActionManagerReject {
			return s.auditRejection(ctx, actor, *run, from, *req.Comment)
		}
		return nil
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	if action == payroll.ActionManagerReject {
		s.raiseRunRejected(ctx, run, "Rejected by payroll manager: "+*req.Comment)
	}
	slog.Info("Payroll run reviewed by manager", "run_id", run.ID, "decision", req.Status, "actor", actor.UserID)
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) FinanceReview(ctx context.Context, req payroll.ReviewDecisionRequest) (payroll.PayrollRunResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollFinanceReview)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	action := payroll.ActionFinanceApprove
	if req.Status == payroll.DecisionRejected {
		action = payroll.ActionFinanceReject
	}

	run, err := s.transitionRun(ctx, req.RunID, action, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		now := s.now()
		run.FinanceID = &actor.UserID
		run.FinanceComment = req.Comment
		run.FinanceReviewedAt = &now
		if action == payroll.ActionFinanceReject {
			return s.auditRejection(ctx, actor, *run, from, *req.Comment)
		}
		return nil
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	if action == payroll.ActionFinanceReject {
		s.raiseRunRejected(ctx, run, "Rejected by finance: "+*req.Comment)
	}
	slog.Info("Payroll run reviewed by finance", "run_id", run.ID, "decision", req.Status, "actor", actor.UserID)
	return payroll.ToRunResponse(run), nil
}

// ========== LOCK / UNFREEZE ==========

func (s *PayrollServiceImpl) Lock(ctx context.Context, runID string) (payroll.PayrollRunResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollLock)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	run, err := s.transitionRun(ctx, runID, payroll.ActionLock, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		now := s.now()
		run.Locked = true
		run.LockedAt = &now
		return s.payslips.SetPaymentStatusByRun(ctx, run.ID, payroll.PaymentStatusApproved)
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	slog.Info("Payroll run locked", "run_id", run.ID, "total_net_pay", run.TotalNetPay.String(), "actor", actor.UserID)
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) Unfreeze(ctx context.Context, req payroll.UnfreezeRunRequest) (payroll.PayrollRunResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollUnfreeze)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}
	if err := req.Validate(s.cfg.UnfreezeMinJustification); err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	run, err := s.transitionRun(ctx, req.RunID, payroll.ActionUnfreeze, func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error {
		run.Locked = false
		run.LockedAt = nil
		if err := s.payslips.SetPaymentStatusByRun(ctx, run.ID, payroll.PaymentStatusPending); err != nil {
			return err
		}
		return s.appendAudit(ctx, audit.CycleAdjustment{
			ActionType:    audit.ActionUnfreeze,
			PayrollRunID:  run.ID,
			Justification: req.Justification,
			FromStatus:    string(from),
			ToStatus:      string(run.Status),
			ActorID:       actor.UserID,
			ActorRole:     string(actor.Role),
		})
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	slog.Warn("Payroll run unfrozen", "run_id", run.ID, "actor", actor.UserID)
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) ListAuditTrail(ctx context.Context, runID string) ([]audit.CycleAdjustmentResponse, error) {
	if _, err := s.authorize(ctx, user.PermissionPayrollView); err != nil {
		return nil, err
	}
	if _, err := s.runs.GetByID(ctx, runID); err != nil {
		return nil, err
	}

	entries, err := s.audit.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := make([]audit.CycleAdjustmentResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, audit.ToResponse(e))
	}
	return result, nil
}

func (s *PayrollServiceImpl) auditRejection(ctx context.Context, actor user.Actor, run payroll.PayrollRun, from payroll.RunStatus, reason string) error {
	return s.appendAudit(ctx, audit.CycleAdjustment{
		ActionType:    audit.ActionRunRejection,
		PayrollRunID:  run.ID,
		Justification: reason,
		FromStatus:    string(from),
		ToStatus:      string(run.Status),
		ActorID:       actor.UserID,
		ActorRole:     string(actor.Role),
	})
}
