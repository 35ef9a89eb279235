// Package memory keeps every payroll table in process memory. It backs the
// "memory" APP_STORE mode and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
)

type txKey struct{}

type tables struct {
	runs        map[string]payroll.PayrollRun
	details     map[string]payroll.EmployeePayrollDetail
	payslips    map[string]payroll.Payslip
	adjustments map[string]payroll.PayslipAdjustment
	anomalies   map[string]payroll.Anomaly
	auditTrail  []audit.CycleAdjustment
	benefits    map[string]benefit.Benefit
}

func (t tables) clone() tables {
	return tables{
		runs:        maps.Clone(t.runs),
		details:     maps.Clone(t.details),
		payslips:    maps.Clone(t.payslips),
		adjustments: maps.Clone(t.adjustments),
		anomalies:   maps.Clone(t.anomalies),
		auditTrail:  slices.Clone(t.auditTrail),
		benefits:    maps.Clone(t.benefits),
	}
}

// Store is safe for concurrent use. Transactions are serialized and a failed
// transaction restores the tables it started from.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data tables

	employees  map[string]employee.Employee
	penalties  []benefit.Penalty
	components []payroll.EmployeePayrollComponent
	attendance map[string]payroll.AttendanceSummary
	tax        []rule.TaxBracket
	insurance  []rule.InsuranceBracket

	employeesErr error
}

func NewStore() *Store {
	return &Store{
		data: tables{
			runs:        map[string]payroll.PayrollRun{},
			details:     map[string]payroll.EmployeePayrollDetail{},
			payslips:    map[string]payroll.Payslip{},
			adjustments: map[string]payroll.PayslipAdjustment{},
			anomalies:   map[string]payroll.Anomaly{},
			benefits:    map[string]benefit.Benefit{},
		},
		employees:  map[string]employee.Employee{},
		attendance: map[string]payroll.AttendanceSummary{},
	}
}

// WithinTx implements payroll.Transactor. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Runs() payroll.RunRepository { return runRepository{s} }
func (s *Store) Details() payroll.DetailRepository { return detailRepository{s} }
func (s *Store) Payslips() payroll.PayslipRepository { return payslipRepository{s} }
func (s *Store) Anomalies() payroll.AnomalyRepository { return anomalyRepository{s} }
func (s *Store) Inputs() payroll.InputRepository { return inputRepository{s} }
func (s *Store) Audit() audit.CycleAdjustmentRepository { return auditRepository{s} }
func (s *Store) Employees() employee.EmployeeRepository { return employeeRepository{s} }
func (s *Store) Benefits() benefit.BenefitRepository { return benefitRepository{s} }
func (s *Store) Penalties() benefit.PenaltyRepository { return penaltyRepository{s} }
func (s *Store) Rules() rule.RuleRepository { return ruleRepository{s} }

// ==================== SEEDING ====================

func (s *Store) PutEmployee(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

// FailEmployeeListing makes ListActive return err until called again with nil.
func (s *Store) FailEmployeeListing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employeesErr = err
}

func (s *Store) AddPenalty(p benefit.Penalty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.penalties = append(s.penalties, p)
}

func (s *Store) AddComponent(c payroll.EmployeePayrollComponent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, c)
}

func (s *Store) SetAttendance(period payroll.Period, summary payroll.AttendanceSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[attendanceKey(period, summary.EmployeeID)] = summary
}

func (s *Store) SetTaxBrackets(brackets []rule.TaxBracket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tax = slices.Clone(brackets)
}

func (s *Store) SetInsuranceBrackets(brackets []rule.InsuranceBracket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insurance = slices.Clone(brackets)
}

func attendanceKey(period payroll.Period, employeeID string) string {
	return period.String() + "/" + employeeID
}
