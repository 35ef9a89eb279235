package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type benefitRepository struct {
	db *database.DB
}

func NewBenefitRepository(db *database.DB) benefit.BenefitRepository {
	return &benefitRepository{db: db}
}

const benefitColumns = `
	id, employee_id, kind, amount, original_amount, period_month, period_year,
	description, status, created_by, reviewed_by, review_note, reviewed_at, created_at, updated_at`

func scanBenefit(row pgx.Row) (benefit.Benefit, error) {
	var b benefit.Benefit
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.Kind, &b.Amount, &b.OriginalAmount, &b.PeriodMonth, &b.PeriodYear,
		&b.Description, &b.Status, &b.CreatedBy, &b.ReviewedBy, &b.ReviewNote, &b.ReviewedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *benefitRepository) Create(ctx context.Context, b benefit.Benefit) (benefit.Benefit, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employee_benefits (
			id, employee_id, kind, amount, period_month, period_year,
			description, status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING` + benefitColumns

	created, err := scanBenefit(q.QueryRow(ctx, query,
		b.ID, b.EmployeeID, b.Kind, b.Amount, b.PeriodMonth, b.PeriodYear,
		b.Description, b.Status, b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	))
	if err != nil {
		return benefit.Benefit{}, fmt.Errorf("failed to create benefit: %w", err)
	}
	return created, nil
}

func (r *benefitRepository) GetByID(ctx context.Context, id string) (benefit.Benefit, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanBenefit(q.QueryRow(ctx, `SELECT`+benefitColumns+` FROM employee_benefits WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return benefit.Benefit{}, benefit.ErrBenefitNotFound
		}
		return benefit.Benefit{}, fmt.Errorf("failed to get benefit: %w", err)
	}
	return b, nil
}

func (r *benefitRepository) List(ctx context.Context, filter benefit.BenefitFilter) ([]benefit.Benefit, int64, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []any
	)
	argIdx := 1
	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, *filter.Kind)
		argIdx++
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM employee_benefits"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count benefits: %w", err)
	}

	query := fmt.Sprintf(`SELECT%s FROM employee_benefits%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		benefitColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list benefits: %w", err)
	}
	defer rows.Close()

	var benefits []benefit.Benefit
	for rows.Next() {
		b, err := scanBenefit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan benefit: %w", err)
		}
		benefits = append(benefits, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return benefits, total, nil
}

func (r *benefitRepository) ListByEmployee(ctx context.Context, employeeID string, status benefit.Status) ([]benefit.Benefit, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT`+benefitColumns+` FROM employee_benefits WHERE employee_id = $1 AND status = $2 ORDER BY created_at, id`,
		employeeID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee benefits: %w", err)
	}
	defer rows.Close()

	var benefits []benefit.Benefit
	for rows.Next() {
		b, err := scanBenefit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan benefit: %w", err)
		}
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}

func (r *benefitRepository) Decide(ctx context.Context, b benefit.Benefit) (benefit.Benefit, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employee_benefits SET
			status = $2, amount = $3, original_amount = $4, reviewed_by = $5,
			review_note = $6, reviewed_at = $7, updated_at = $8
		WHERE id = $1 AND status = 'pending'
		RETURNING` + benefitColumns

	decided, err := scanBenefit(q.QueryRow(ctx, query,
		b.ID, b.Status, b.Amount, b.OriginalAmount, b.ReviewedBy, b.ReviewNote, b.ReviewedAt, b.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, b.ID); getErr != nil {
				return benefit.Benefit{}, getErr
			}
			return benefit.Benefit{}, benefit.ErrBenefitAlreadyDecided
		}
		return benefit.Benefit{}, fmt.Errorf("failed to decide benefit: %w", err)
	}
	return decided, nil
}

type penaltyRepository struct {
	db *database.DB
}

func NewPenaltyRepository(db *database.DB) benefit.PenaltyRepository {
	return &penaltyRepository{db: db}
}

func (r *penaltyRepository) ListByEmployeePeriod(ctx context.Context, employeeID string, month, year int) ([]benefit.Penalty, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, period_month, period_year, amount, reason, created_at
		FROM penalties
		WHERE employee_id = $1 AND period_month = $2 AND period_year = $3
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, employeeID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list penalties: %w", err)
	}
	defer rows.Close()

	var penalties []benefit.Penalty
	for rows.Next() {
		var p benefit.Penalty
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.PeriodMonth, &p.PeriodYear, &p.Amount, &p.Reason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan penalty: %w", err)
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}
