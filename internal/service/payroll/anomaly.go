package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
)

func (s *PayrollServiceImpl) ListAnomalies(ctx context.Context, runID string, includeResolved bool) ([]payroll.AnomalyResponse, error) {
	if _, err := s.authorize(ctx, user.PermissionPayrollView); err != nil {
		return nil, err
	}
	if _, err := s.runs.GetByID(ctx, runID); err != nil {
		return nil, err
	}

	anomalies, err := s.anomalies.ListByRun(ctx, runID, includeResolved)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.AnomalyResponse, 0, len(anomalies))
	for _, a := range anomalies {
		result = append(result, payroll.ToAnomalyResponse(a))
	}
	return result, nil
}

func (s *PayrollServiceImpl) ResolveAnomalies(ctx context.Context, req payroll.ResolveAnomaliesRequest) ([]payroll.AnomalyResponse, error) {
	actor, err := s.authorize(ctx, user.PermissionPayrollResolveAnomaly)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resolved []payroll.Anomaly
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		run, err := s.runs.GetByIDForUpdate(ctx, req.RunID)
		if err != nil {
			return err
		}
		if run.Locked {
			return payroll.ErrRunLocked
		}

		for _, res := range req.Resolutions {
			anomaly, err := s.anomalies.GetByID(ctx, res.AnomalyID)
			if err != nil {
				return err
			}
			if anomaly.RunID != run.ID {
				return payroll.ErrAnomalyNotFound
			}
			if anomaly.Resolved {
				resolved = append(resolved, anomaly)
				continue
			}

			anomaly, err = s.anomalies.Resolve(ctx, anomaly.ID, actor.UserID, res.Notes, s.now())
			if err != nil {
				return err
			}
			resolved = append(resolved, anomaly)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]payroll.AnomalyResponse, 0, len(resolved))
	for _, a := range resolved {
		result = append(result, payroll.ToAnomalyResponse(a))
	}
	return result, nil
}

// raiseRunRejected records a run-level anomaly after a rejection has committed.
// Failure is logged and does not undo the rejection or its audit entry.
func (s *PayrollServiceImpl) raiseRunRejected(ctx context.Context, run payroll.PayrollRun, description string) {
	_, err := s.anomalies.Create(ctx, payroll.Anomaly{
		ID:          newID(),
		RunID:       run.ID,
		Type:        payroll.AnomalyTypeRunRejected,
		Description: description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		slog.Error("Failed to record run rejection anomaly", "run_id", run.ID, "error", err)
	}
}

// flagEmployee records an employee-level anomaly once per (run, employee, type).
// It runs inside the transaction that writes the employee's figures.
func (s *PayrollServiceImpl) flagEmployee(ctx context.Context, runID, employeeID string, kind payroll.AnomalyType, description string) (bool, error) {
	_, created, err := s.anomalies.CreateIfAbsent(ctx, payroll.Anomaly{
		ID:          newID(),
		RunID:       runID,
		EmployeeID:  &employeeID,
		Type:        kind,
		Description: description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to record %s anomaly: %w", kind, err)
	}
	return created, nil
}
