package audit

import "context"

// CycleAdjustmentRepository is append-only: entries are never updated or deleted.
type CycleAdjustmentRepository interface {
	Append(ctx context.Context, entry CycleAdjustment) (CycleAdjustment, error)
	ListByRun(ctx context.Context, runID string) ([]CycleAdjustment, error)
}
