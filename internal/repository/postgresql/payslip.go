package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payslipRepository struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payroll.PayslipRepository {
	return &payslipRepository{db: db}
}

const payslipColumns = `
	id, payroll_run_id, detail_id, employee_id, earnings, deductions, net_pay,
	payment_status, manager_override, override_reason, created_at, updated_at`

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var (
		p                    payroll.Payslip
		earnings, deductions []byte
	)
	err := row.Scan(
		&p.ID, &p.RunID, &p.DetailID, &p.EmployeeID, &earnings, &deductions, &p.NetPay,
		&p.PaymentStatus, &p.ManagerOverride, &p.OverrideReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if err := json.Unmarshal(earnings, &p.Earnings); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode payslip earnings: %w", err)
	}
	if err := json.Unmarshal(deductions, &p.Deductions); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode payslip deductions: %w", err)
	}
	return p, nil
}

func encodeBreakdown(p payroll.Payslip) ([]byte, []byte, error) {
	earnings, err := json.Marshal(p.Earnings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode payslip earnings: %w", err)
	}
	deductions, err := json.Marshal(p.Deductions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode payslip deductions: %w", err)
	}
	return earnings, deductions, nil
}

func (r *payslipRepository) CreateIfAbsent(ctx context.Context, payslip payroll.Payslip) (payroll.Payslip, bool, error) {
	q := GetQuerier(ctx, r.db)

	earnings, deductions, err := encodeBreakdown(payslip)
	if err != nil {
		return payroll.Payslip{}, false, err
	}

	query := `
		INSERT INTO payslips (
			id, payroll_run_id, detail_id, employee_id, earnings, deductions, net_pay,
			payment_status, manager_override, override_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (detail_id) DO NOTHING
		RETURNING` + payslipColumns

	created, err := scanPayslip(q.QueryRow(ctx, query,
		payslip.ID, payslip.RunID, payslip.DetailID, payslip.EmployeeID, earnings, deductions, payslip.NetPay,
		payslip.PaymentStatus, payslip.ManagerOverride, payslip.OverrideReason, payslip.CreatedAt, payslip.UpdatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payroll.Payslip{}, false, fmt.Errorf("failed to create payslip: %w", err)
	}

	existing, err := r.GetByDetailID(ctx, payslip.DetailID)
	if err != nil {
		return payroll.Payslip{}, false, err
	}
	return existing, false, nil
}

func (r *payslipRepository) GetByID(ctx context.Context, id string) (payroll.Payslip, error) {
	return r.getOne(ctx, `SELECT`+payslipColumns+` FROM payslips WHERE id = $1`, id)
}

func (r *payslipRepository) GetByDetailID(ctx context.Context, detailID string) (payroll.Payslip, error) {
	return r.getOne(ctx, `SELECT`+payslipColumns+` FROM payslips WHERE detail_id = $1`, detailID)
}

func (r *payslipRepository) getOne(ctx context.Context, query string, args ...any) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayslip(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	return p, nil
}

func (r *payslipRepository) ListByRun(ctx context.Context, runID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT`+payslipColumns+` FROM payslips WHERE payroll_run_id = $1 ORDER BY created_at, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	payslips := []payroll.Payslip{}
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}
	return payslips, rows.Err()
}

func (r *payslipRepository) Update(ctx context.Context, payslip payroll.Payslip) error {
	q := GetQuerier(ctx, r.db)

	earnings, deductions, err := encodeBreakdown(payslip)
	if err != nil {
		return err
	}

	query := `
		UPDATE payslips SET
			earnings = $2, deductions = $3, net_pay = $4, payment_status = $5,
			manager_override = $6, override_reason = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		payslip.ID, earnings, deductions, payslip.NetPay, payslip.PaymentStatus,
		payslip.ManagerOverride, payslip.OverrideReason, payslip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayslipNotFound
	}
	return nil
}

func (r *payslipRepository) SetPaymentStatusByRun(ctx context.Context, runID string, status payroll.PaymentStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips SET payment_status = $2, updated_at = NOW()
		WHERE payroll_run_id = $1 AND payment_status <> $3
	`

	if _, err := q.Exec(ctx, query, runID, status, payroll.PaymentStatusSkipped); err != nil {
		return fmt.Errorf("failed to update payslip payment status: %w", err)
	}
	return nil
}

func (r *payslipRepository) CreateAdjustment(ctx context.Context, adj payroll.PayslipAdjustment) (payroll.PayslipAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslip_adjustments (id, payslip_id, payroll_run_id, type, amount, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, payslip_id, payroll_run_id, type, amount, reason, actor_id, created_at
	`

	var a payroll.PayslipAdjustment
	err := q.QueryRow(ctx, query,
		adj.ID, adj.PayslipID, adj.RunID, adj.Type, adj.Amount, adj.Reason, adj.ActorID, adj.CreatedAt,
	).Scan(&a.ID, &a.PayslipID, &a.RunID, &a.Type, &a.Amount, &a.Reason, &a.ActorID, &a.CreatedAt)
	if err != nil {
		return payroll.PayslipAdjustment{}, fmt.Errorf("failed to create payslip adjustment: %w", err)
	}
	return a, nil
}

func (r *payslipRepository) ListAdjustments(ctx context.Context, payslipID string) ([]payroll.PayslipAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, payslip_id, payroll_run_id, type, amount, reason, actor_id, created_at
		FROM payslip_adjustments
		WHERE payslip_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, payslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslip adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := []payroll.PayslipAdjustment{}
	for rows.Next() {
		var a payroll.PayslipAdjustment
		if err := rows.Scan(&a.ID, &a.PayslipID, &a.RunID, &a.Type, &a.Amount, &a.Reason, &a.ActorID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payslip adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}
