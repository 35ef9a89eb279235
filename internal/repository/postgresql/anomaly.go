package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type anomalyRepository struct {
	db *database.DB
}

func NewAnomalyRepository(db *database.DB) payroll.AnomalyRepository {
	return &anomalyRepository{db: db}
}

const anomalyColumns = `
	id, payroll_run_id, employee_id, type, description, resolved,
	resolved_by, resolution_notes, resolved_at, created_at`

func scanAnomaly(row pgx.Row) (payroll.Anomaly, error) {
	var a payroll.Anomaly
	err := row.Scan(
		&a.ID, &a.RunID, &a.EmployeeID, &a.Type, &a.Description, &a.Resolved,
		&a.ResolvedBy, &a.ResolutionNotes, &a.ResolvedAt, &a.CreatedAt,
	)
	return a, err
}

func (r *anomalyRepository) Create(ctx context.Context, anomaly payroll.Anomaly) (payroll.Anomaly, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_anomalies (id, payroll_run_id, employee_id, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING` + anomalyColumns

	a, err := scanAnomaly(q.QueryRow(ctx, query,
		anomaly.ID, anomaly.RunID, anomaly.EmployeeID, anomaly.Type, anomaly.Description, anomaly.CreatedAt,
	))
	if err != nil {
		return payroll.Anomaly{}, fmt.Errorf("failed to create anomaly: %w", err)
	}
	return a, nil
}

// CreateIfAbsent relies on the partial unique index over open anomalies, so a
// resolved problem that comes back is raised again.
func (r *anomalyRepository) CreateIfAbsent(ctx context.Context, anomaly payroll.Anomaly) (payroll.Anomaly, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_anomalies (id, payroll_run_id, employee_id, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
		RETURNING` + anomalyColumns

	a, err := scanAnomaly(q.QueryRow(ctx, query,
		anomaly.ID, anomaly.RunID, anomaly.EmployeeID, anomaly.Type, anomaly.Description, anomaly.CreatedAt,
	))
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payroll.Anomaly{}, false, fmt.Errorf("failed to create anomaly: %w", err)
	}

	existing, err := scanAnomaly(q.QueryRow(ctx, `
		SELECT`+anomalyColumns+`
		FROM payroll_anomalies
		WHERE payroll_run_id = $1 AND employee_id IS NOT DISTINCT FROM $2 AND type = $3 AND resolved = FALSE
	`, anomaly.RunID, anomaly.EmployeeID, anomaly.Type))
	if err != nil {
		return payroll.Anomaly{}, false, fmt.Errorf("failed to get existing anomaly: %w", err)
	}
	return existing, false, nil
}

func (r *anomalyRepository) GetByID(ctx context.Context, id string) (payroll.Anomaly, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAnomaly(q.QueryRow(ctx, `SELECT`+anomalyColumns+` FROM payroll_anomalies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Anomaly{}, payroll.ErrAnomalyNotFound
		}
		return payroll.Anomaly{}, fmt.Errorf("failed to get anomaly: %w", err)
	}
	return a, nil
}

func (r *anomalyRepository) ListByRun(ctx context.Context, runID string, includeResolved bool) ([]payroll.Anomaly, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + anomalyColumns + ` FROM payroll_anomalies WHERE payroll_run_id = $1`
	if !includeResolved {
		query += ` AND resolved = FALSE`
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	anomalies := []payroll.Anomaly{}
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

func (r *anomalyRepository) Resolve(ctx context.Context, id string, resolvedBy string, notes string, at time.Time) (payroll.Anomaly, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_anomalies
		SET resolved = TRUE, resolved_by = $2, resolution_notes = $3, resolved_at = $4
		WHERE id = $1 AND resolved = FALSE
		RETURNING` + anomalyColumns

	a, err := scanAnomaly(q.QueryRow(ctx, query, id, resolvedBy, notes, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either missing or already resolved
			return r.GetByID(ctx, id)
		}
		return payroll.Anomaly{}, fmt.Errorf("failed to resolve anomaly: %w", err)
	}
	return a, nil
}
