package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
)

type ruleRepository struct {
	db *database.DB
}

func NewRuleRepository(db *database.DB) rule.RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) ListTaxBrackets(ctx context.Context) ([]rule.TaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, lower_bound, upper_bound, rate, created_at
		FROM tax_brackets
		ORDER BY lower_bound
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax brackets: %w", err)
	}
	defer rows.Close()

	var brackets []rule.TaxBracket
	for rows.Next() {
		var b rule.TaxBracket
		if err := rows.Scan(&b.ID, &b.Name, &b.LowerBound, &b.UpperBound, &b.Rate, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tax bracket: %w", err)
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}

func (r *ruleRepository) ListInsuranceBrackets(ctx context.Context) ([]rule.InsuranceBracket, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, min_salary, max_salary, employee_rate, employer_rate, max_insurable_salary, created_at
		FROM insurance_brackets
		ORDER BY min_salary
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list insurance brackets: %w", err)
	}
	defer rows.Close()

	var brackets []rule.InsuranceBracket
	for rows.Next() {
		var b rule.InsuranceBracket
		if err := rows.Scan(
			&b.ID, &b.Name, &b.MinSalary, &b.MaxSalary, &b.EmployeeRate, &b.EmployerRate, &b.MaxInsurableSalary, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan insurance bracket: %w", err)
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}
