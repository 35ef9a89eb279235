package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
	"github.com/shopspring/decimal"
)

type employeeRepository struct{ s *Store }

func (r employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r employeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.employeesErr != nil {
		return nil, r.s.employeesErr
	}
	var active []employee.Employee
	for _, e := range r.s.employees {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	slices.SortFunc(active, func(a, b employee.Employee) int {
		return cmp.Compare(a.EmployeeCode, b.EmployeeCode)
	})
	return active, nil
}

type ruleRepository struct{ s *Store }

func (r ruleRepository) ListTaxBrackets(ctx context.Context) ([]rule.TaxBracket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.tax), nil
}

func (r ruleRepository) ListInsuranceBrackets(ctx context.Context) ([]rule.InsuranceBracket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.insurance), nil
}

type inputRepository struct{ s *Store }

func (r inputRepository) GetAttendanceSummary(ctx context.Context, period payroll.Period, employeeIDs []string) (map[string]payroll.AttendanceSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	summaries := make(map[string]payroll.AttendanceSummary, len(employeeIDs))
	for _, id := range employeeIDs {
		summary, ok := r.s.attendance[attendanceKey(period, id)]
		if !ok {
			summary = payroll.AttendanceSummary{EmployeeID: id, OvertimeHours: decimal.Zero, UnpaidLeaveDays: decimal.Zero}
		}
		summaries[id] = summary
	}
	return summaries, nil
}

func (r inputRepository) GetEmployeeComponents(ctx context.Context, employeeID string, period payroll.Period) ([]payroll.EmployeePayrollComponent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var components []payroll.EmployeePayrollComponent
	for _, c := range r.s.components {
		if c.EmployeeID == employeeID && c.ActiveDuring(period.Start(), period.End()) {
			components = append(components, c)
		}
	}
	return components, nil
}

type benefitRepository struct{ s *Store }

func (r benefitRepository) Create(ctx context.Context, b benefit.Benefit) (benefit.Benefit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.benefits[b.ID] = b
	return b, nil
}

func (r benefitRepository) GetByID(ctx context.Context, id string) (benefit.Benefit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.data.benefits[id]
	if !ok {
		return benefit.Benefit{}, benefit.ErrBenefitNotFound
	}
	return b, nil
}

func (r benefitRepository) List(ctx context.Context, filter benefit.BenefitFilter) ([]benefit.Benefit, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []benefit.Benefit
	for _, b := range r.s.data.benefits {
		if filter.EmployeeID != nil && b.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(b.Status) != *filter.Status {
			continue
		}
		if filter.Kind != nil && string(b.Kind) != *filter.Kind {
			continue
		}
		matched = append(matched, b)
	}
	slices.SortFunc(matched, func(a, b benefit.Benefit) int {
		return byCreated(b.CreatedAt, a.CreatedAt, b.ID, a.ID)
	})
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r benefitRepository) ListByEmployee(ctx context.Context, employeeID string, status benefit.Status) ([]benefit.Benefit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var benefits []benefit.Benefit
	for _, b := range r.s.data.benefits {
		if b.EmployeeID == employeeID && b.Status == status {
			benefits = append(benefits, b)
		}
	}
	slices.SortFunc(benefits, func(a, b benefit.Benefit) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return benefits, nil
}

func (r benefitRepository) Decide(ctx context.Context, b benefit.Benefit) (benefit.Benefit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.data.benefits[b.ID]
	if !ok {
		return benefit.Benefit{}, benefit.ErrBenefitNotFound
	}
	if current.IsDecided() {
		return benefit.Benefit{}, benefit.ErrBenefitAlreadyDecided
	}
	r.s.data.benefits[b.ID] = b
	return b, nil
}

type penaltyRepository struct{ s *Store }

func (r penaltyRepository) ListByEmployeePeriod(ctx context.Context, employeeID string, month, year int) ([]benefit.Penalty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var penalties []benefit.Penalty
	for _, p := range r.s.penalties {
		if p.EmployeeID == employeeID && p.PeriodMonth == month && p.PeriodYear == year {
			penalties = append(penalties, p)
		}
	}
	return penalties, nil
}

type auditRepository struct{ s *Store }

func (r auditRepository) Append(ctx context.Context, entry audit.CycleAdjustment) (audit.CycleAdjustment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.auditTrail = append(r.s.data.auditTrail, entry)
	return entry, nil
}

func (r auditRepository) ListByRun(ctx context.Context, runID string) ([]audit.CycleAdjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := []audit.CycleAdjustment{}
	for _, e := range r.s.data.auditTrail {
		if e.PayrollRunID == runID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
