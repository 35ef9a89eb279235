package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type payrollRunRepository struct {
	db *database.DB
}

func NewPayrollRunRepository(db *database.DB) payroll.RunRepository {
	return &payrollRunRepository{db: db}
}

const runColumns = `
	id, period_month, period_year, status, specialist_id, manager_id, finance_id,
	total_net_pay, employee_count, exception_count, locked, locked_at, calculation_id,
	calculated_at, submitted_at, manager_reviewed_at, finance_reviewed_at,
	rejection_reason, manager_comment, finance_comment, created_at, updated_at`

func scanRun(row pgx.Row) (payroll.PayrollRun, error) {
	var r payroll.PayrollRun
	err := row.Scan(
		&r.ID, &r.Period.Month, &r.Period.Year, &r.Status, &r.SpecialistID, &r.ManagerID, &r.FinanceID,
		&r.TotalNetPay, &r.EmployeeCount, &r.ExceptionCount, &r.Locked, &r.LockedAt, &r.CalculationID,
		&r.CalculatedAt, &r.SubmittedAt, &r.ManagerReviewedAt, &r.FinanceReviewedAt,
		&r.RejectionReason, &r.ManagerComment, &r.FinanceComment, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (r *payrollRunRepository) Create(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (id, period_month, period_year, status, specialist_id, total_net_pay, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query,
		run.ID, run.Period.Month, run.Period.Year, run.Status, run.SpecialistID, run.TotalNetPay, run.CreatedAt, run.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return payroll.PayrollRun{}, payroll.ErrRunAlreadyExists
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", err)
	}

	return created, nil
}

func (r *payrollRunRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRun, error) {
	return r.getOne(ctx, `SELECT`+runColumns+` FROM payroll_runs WHERE id = $1`, id)
}

func (r *payrollRunRepository) GetByIDForUpdate(ctx context.Context, id string) (payroll.PayrollRun, error) {
	return r.getOne(ctx, `SELECT`+runColumns+` FROM payroll_runs WHERE id = $1 FOR UPDATE`, id)
}

func (r *payrollRunRepository) GetByPeriod(ctx context.Context, period payroll.Period) (payroll.PayrollRun, error) {
	return r.getOne(ctx, `SELECT`+runColumns+` FROM payroll_runs WHERE period_month = $1 AND period_year = $2`, period.Month, period.Year)
}

func (r *payrollRunRepository) getOne(ctx context.Context, query string, args ...any) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	run, err := scanRun(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRun{}, payroll.ErrRunNotFound
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return run, nil
}

func (r *payrollRunRepository) List(ctx context.Context, filter payroll.RunFilter) ([]payroll.PayrollRun, int64, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []any
	)
	argIdx := 1
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.PeriodYear != nil {
		conditions = append(conditions, fmt.Sprintf("period_year = $%d", argIdx))
		args = append(args, *filter.PeriodYear)
		argIdx++
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payroll_runs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll runs: %w", err)
	}

	query := fmt.Sprintf(`SELECT%s FROM payroll_runs%s ORDER BY period_year DESC, period_month DESC LIMIT $%d OFFSET $%d`,
		runColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll runs: %w", err)
	}

	return runs, total, nil
}

func (r *payrollRunRepository) Update(ctx context.Context, run payroll.PayrollRun) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs SET
			status = $2, manager_id = $3, finance_id = $4, total_net_pay = $5,
			employee_count = $6, exception_count = $7, locked = $8, locked_at = $9,
			calculated_at = $10, submitted_at = $11, manager_reviewed_at = $12, finance_reviewed_at = $13,
			rejection_reason = $14, manager_comment = $15, finance_comment = $16, updated_at = $17,
			calculation_id = $18
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		run.ID, run.Status, run.ManagerID, run.FinanceID, run.TotalNetPay,
		run.EmployeeCount, run.ExceptionCount, run.Locked, run.LockedAt,
		run.CalculatedAt, run.SubmittedAt, run.ManagerReviewedAt, run.FinanceReviewedAt,
		run.RejectionReason, run.ManagerComment, run.FinanceComment, run.UpdatedAt,
		run.CalculationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}

	return nil
}
