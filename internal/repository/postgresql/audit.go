package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
)

type cycleAdjustmentRepository struct {
	db *database.DB
}

func NewCycleAdjustmentRepository(db *database.DB) audit.CycleAdjustmentRepository {
	return &cycleAdjustmentRepository{db: db}
}

func (r *cycleAdjustmentRepository) Append(ctx context.Context, entry audit.CycleAdjustment) (audit.CycleAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_cycle_adjustments (
			id, action_type, payroll_run_id, payslip_id, justification,
			from_status, to_status, amount, actor_id, actor_role, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		entry.ID, entry.ActionType, entry.PayrollRunID, entry.PayslipID, entry.Justification,
		entry.FromStatus, entry.ToStatus, entry.Amount, entry.ActorID, entry.ActorRole, entry.CreatedAt,
	)
	if err != nil {
		return audit.CycleAdjustment{}, fmt.Errorf("failed to append cycle adjustment: %w", err)
	}
	return entry, nil
}

func (r *cycleAdjustmentRepository) ListByRun(ctx context.Context, runID string) ([]audit.CycleAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, action_type, payroll_run_id, payslip_id, justification,
			   from_status, to_status, amount, actor_id, actor_role, created_at
		FROM payroll_cycle_adjustments
		WHERE payroll_run_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycle adjustments: %w", err)
	}
	defer rows.Close()

	entries := []audit.CycleAdjustment{}
	for rows.Next() {
		var e audit.CycleAdjustment
		if err := rows.Scan(
			&e.ID, &e.ActionType, &e.PayrollRunID, &e.PayslipID, &e.Justification,
			&e.FromStatus, &e.ToStatus, &e.Amount, &e.ActorID, &e.ActorRole, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cycle adjustment: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
