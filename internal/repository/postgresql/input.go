package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type inputRepository struct {
	db *database.DB
}

func NewInputRepository(db *database.DB) payroll.InputRepository {
	return &inputRepository{db: db}
}

// GetAttendanceSummary returns a zero summary for employees with no attendance row.
func (r *inputRepository) GetAttendanceSummary(ctx context.Context, period payroll.Period, employeeIDs []string) (map[string]payroll.AttendanceSummary, error) {
	q := GetQuerier(ctx, r.db)

	summaries := make(map[string]payroll.AttendanceSummary, len(employeeIDs))
	for _, id := range employeeIDs {
		summaries[id] = payroll.AttendanceSummary{EmployeeID: id, OvertimeHours: decimal.Zero, UnpaidLeaveDays: decimal.Zero}
	}
	if len(employeeIDs) == 0 {
		return summaries, nil
	}

	query := `
		SELECT employee_id, overtime_hours, unpaid_leave_days
		FROM attendance_summaries
		WHERE period_month = $1 AND period_year = $2 AND employee_id::text = ANY($3)
	`

	rows, err := q.Query(ctx, query, period.Month, period.Year, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s payroll.AttendanceSummary
		if err := rows.Scan(&s.EmployeeID, &s.OvertimeHours, &s.UnpaidLeaveDays); err != nil {
			return nil, fmt.Errorf("failed to scan attendance summary: %w", err)
		}
		summaries[s.EmployeeID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance summary: %w", err)
	}

	return summaries, nil
}

func (r *inputRepository) GetEmployeeComponents(ctx context.Context, employeeID string, period payroll.Period) ([]payroll.EmployeePayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, component_name, component_type, amount, effective_date, end_date
		FROM employee_payroll_components
		WHERE employee_id = $1
		  AND effective_date <= $3
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY component_name
	`

	rows, err := q.Query(ctx, query, employeeID, period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("failed to get employee components: %w", err)
	}
	defer rows.Close()

	var components []payroll.EmployeePayrollComponent
	for rows.Next() {
		var c payroll.EmployeePayrollComponent
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.ComponentName, &c.ComponentType, &c.Amount, &c.EffectiveDate, &c.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan employee component: %w", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}
