package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollDetailRepository struct {
	db *database.DB
}

func NewPayrollDetailRepository(db *database.DB) payroll.DetailRepository {
	return &payrollDetailRepository{db: db}
}

const detailColumns = `
	id, payroll_run_id, employee_id, employee_code, employee_name,
	base_salary, prorated_salary, allowances, gross_salary, overtime_pay,
	tax_amount, insurance_employee, insurance_employer, bonus_amount, benefit_amount,
	penalty_amount, unpaid_leave_deduction, net_pay, final_net_pay, manual_adjustment,
	minimum_wage_applied, bank_status, exceptions, skipped, skip_reason,
	calculated_at, created_at, updated_at`

func scanDetail(row pgx.Row) (payroll.EmployeePayrollDetail, error) {
	var d payroll.EmployeePayrollDetail
	err := row.Scan(
		&d.ID, &d.RunID, &d.EmployeeID, &d.EmployeeCode, &d.EmployeeName,
		&d.BaseSalary, &d.ProratedSalary, &d.Allowances, &d.GrossSalary, &d.OvertimePay,
		&d.TaxAmount, &d.InsuranceEmployee, &d.InsuranceEmployer, &d.BonusAmount, &d.BenefitAmount,
		&d.PenaltyAmount, &d.UnpaidLeaveDeduction, &d.NetPay, &d.FinalNetPay, &d.ManualAdjustment,
		&d.MinimumWageApplied, &d.BankStatus, &d.Exceptions, &d.Skipped, &d.SkipReason,
		&d.CalculatedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func (r *payrollDetailRepository) CreateIfAbsent(ctx context.Context, detail payroll.EmployeePayrollDetail) (payroll.EmployeePayrollDetail, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employee_payroll_details (
			id, payroll_run_id, employee_id, employee_code, employee_name,
			base_salary, bank_status, exceptions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (payroll_run_id, employee_id) DO NOTHING
		RETURNING` + detailColumns

	exceptions := detail.Exceptions
	if exceptions == nil {
		exceptions = []string{}
	}
	created, err := scanDetail(q.QueryRow(ctx, query,
		detail.ID, detail.RunID, detail.EmployeeID, detail.EmployeeCode, detail.EmployeeName,
		detail.BaseSalary, detail.BankStatus, exceptions, detail.CreatedAt, detail.UpdatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payroll.EmployeePayrollDetail{}, false, fmt.Errorf("failed to create payroll detail: %w", err)
	}

	existing, err := scanDetail(q.QueryRow(ctx,
		`SELECT`+detailColumns+` FROM employee_payroll_details WHERE payroll_run_id = $1 AND employee_id = $2`,
		detail.RunID, detail.EmployeeID,
	))
	if err != nil {
		return payroll.EmployeePayrollDetail{}, false, fmt.Errorf("failed to get existing payroll detail: %w", err)
	}
	return existing, false, nil
}

func (r *payrollDetailRepository) GetByID(ctx context.Context, id string) (payroll.EmployeePayrollDetail, error) {
	q := GetQuerier(ctx, r.db)

	d, err := scanDetail(q.QueryRow(ctx, `SELECT`+detailColumns+` FROM employee_payroll_details WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.EmployeePayrollDetail{}, payroll.ErrDetailNotFound
		}
		return payroll.EmployeePayrollDetail{}, fmt.Errorf("failed to get payroll detail: %w", err)
	}
	return d, nil
}

func (r *payrollDetailRepository) ListByRun(ctx context.Context, runID string) ([]payroll.EmployeePayrollDetail, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT`+detailColumns+` FROM employee_payroll_details WHERE payroll_run_id = $1 ORDER BY created_at, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll details: %w", err)
	}
	defer rows.Close()

	details := []payroll.EmployeePayrollDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *payrollDetailRepository) Update(ctx context.Context, detail payroll.EmployeePayrollDetail) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employee_payroll_details SET
			employee_code = $2, employee_name = $3, base_salary = $4, prorated_salary = $5,
			allowances = $6, gross_salary = $7, overtime_pay = $8, tax_amount = $9,
			insurance_employee = $10, insurance_employer = $11, bonus_amount = $12, benefit_amount = $13,
			penalty_amount = $14, unpaid_leave_deduction = $15, net_pay = $16, final_net_pay = $17,
			manual_adjustment = $18, minimum_wage_applied = $19, bank_status = $20, exceptions = $21,
			skipped = $22, skip_reason = $23, calculated_at = $24, updated_at = $25
		WHERE id = $1
	`

	exceptions := detail.Exceptions
	if exceptions == nil {
		exceptions = []string{}
	}
	tag, err := q.Exec(ctx, query,
		detail.ID, detail.EmployeeCode, detail.EmployeeName, detail.BaseSalary, detail.ProratedSalary,
		detail.Allowances, detail.GrossSalary, detail.OvertimePay, detail.TaxAmount,
		detail.InsuranceEmployee, detail.InsuranceEmployer, detail.BonusAmount, detail.BenefitAmount,
		detail.PenaltyAmount, detail.UnpaidLeaveDeduction, detail.NetPay, detail.FinalNetPay,
		detail.ManualAdjustment, detail.MinimumWageApplied, detail.BankStatus, exceptions,
		detail.Skipped, detail.SkipReason, detail.CalculatedAt, detail.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll detail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrDetailNotFound
	}
	return nil
}
