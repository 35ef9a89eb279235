package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds the tunables of the calculation engine and the lifecycle.
type Config struct {
	MinimumWage              decimal.Decimal
	WorkingDaysPerMonth      int
	HoursPerDay              int
	OvertimeMultiplier       decimal.Decimal
	WorkingDaysMode          string
	CalculationWorkers       int
	UnfreezeMinJustification int
}

func DefaultConfig() Config {
	return Config{
		MinimumWage:              decimal.NewFromInt(2000),
		WorkingDaysPerMonth:      22,
		HoursPerDay:              8,
		OvertimeMultiplier:       decimal.RequireFromString("1.5"),
		WorkingDaysMode:          WorkingDaysModeRatio,
		CalculationWorkers:       4,
		UnfreezeMinJustification: 20,
	}
}

// Repositories groups the stores the payroll service reads and writes.
type Repositories struct {
	Runs      payroll.RunRepository
	Details   payroll.DetailRepository
	Payslips  payroll.PayslipRepository
	Anomalies payroll.AnomalyRepository
	Inputs    payroll.InputRepository
	Audit     audit.CycleAdjustmentRepository
	Employees employee.EmployeeRepository
	Benefits  benefit.BenefitRepository
	Penalties benefit.PenaltyRepository
	Rules     rule.RuleRepository
}

type PayrollServiceImpl struct {
	tx          payroll.Transactor
	runs        payroll.RunRepository
	details     payroll.DetailRepository
	payslips    payroll.PayslipRepository
	anomalies   payroll.AnomalyRepository
	inputs      payroll.InputRepository
	audit       audit.CycleAdjustmentRepository
	employees   employee.EmployeeRepository
	benefits    benefit.BenefitRepository
	penalties   benefit.PenaltyRepository
	rules       rule.RuleRepository
	fileStorage storage.FileStorage
	calculator  *Calculator
	cfg         Config
	now         func() time.Time
}

func NewPayrollService(
	tx payroll.Transactor,
	repos Repositories,
	fileStorage storage.FileStorage,
	cfg Config,
) payroll.PayrollService {
	if cfg.CalculationWorkers < 1 {
		cfg.CalculationWorkers = 1
	}
	return &PayrollServiceImpl{
		tx:          tx,
		runs:        repos.Runs,
		details:     repos.Details,
		payslips:    repos.Payslips,
		anomalies:   repos.Anomalies,
		inputs:      repos.Inputs,
		audit:       repos.Audit,
		employees:   repos.Employees,
		benefits:    repos.Benefits,
		penalties:   repos.Penalties,
		rules:       repos.Rules,
		fileStorage: fileStorage,
		calculator:  NewCalculator(cfg),
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// authorize resolves the actor from ctx and applies the role policy.
func (s *PayrollServiceImpl) authorize(ctx context.Context, permission user.Permission) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if err := user.Authorize(actor, permission); err != nil {
		return user.Actor{}, err
	}
	return actor, nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// transitionRun locks the run, applies action and persists it. mutate runs in
// the same transaction, after the status has changed, and is where audit
// entries are written so that a failed audit write rolls the transition back.
func (s *PayrollServiceImpl) transitionRun(
	ctx context.Context,
	runID string,
	action payroll.Action,
	mutate func(ctx context.Context, run *payroll.PayrollRun, from payroll.RunStatus) error,
) (payroll.PayrollRun, error) {
	var result payroll.PayrollRun
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		run, err := s.runs.GetByIDForUpdate(ctx, runID)
		if err != nil {
			return err
		}

		next, err := run.Transition(action)
		if err != nil {
			return err
		}

		from := run.Status
		run.Status = next
		run.UpdatedAt = s.now()

		if mutate != nil {
			if err := mutate(ctx, &run, from); err != nil {
				return err
			}
		}

		if err := s.runs.Update(ctx, run); err != nil {
			return err
		}
		result = run
		return nil
	})
	if err != nil {
		return payroll.PayrollRun{}, err
	}
	return result, nil
}

// appendAudit writes a cycle adjustment. Callers run it inside the transaction
// of the action it documents.
func (s *PayrollServiceImpl) appendAudit(ctx context.Context, entry audit.CycleAdjustment) error {
	entry.ID = newID()
	entry.CreatedAt = s.now()
	if err := entry.Validate(); err != nil {
		return err
	}
	if _, err := s.audit.Append(ctx, entry); err != nil {
		return err
	}
	return nil
}
