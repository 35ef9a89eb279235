package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
)

// PayrollJobs opens the monthly payroll run on behalf of the system actor.
type PayrollJobs struct {
	payrollService payroll.PayrollService
	initiateDay    int
	interval       time.Duration
	now            func() time.Time
}

func NewPayrollJobs(payrollService payroll.PayrollService, initiateDay int) *PayrollJobs {
	if initiateDay < 1 {
		initiateDay = 1
	}
	return &PayrollJobs{
		payrollService: payrollService,
		initiateDay:    initiateDay,
		interval:       1 * time.Hour,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("initiate_monthly_payroll_run", j.interval, j.InitiateMonthlyRun)
}

// InitiateMonthlyRun creates the draft run for the current month once the
// configured day is reached. An existing run for the month is not an error.
func (j *PayrollJobs) InitiateMonthlyRun(ctx context.Context) error {
	now := j.now()
	if now.Day() < j.initiateDay {
		return nil
	}

	period := payroll.PeriodOf(now)
	ctx = user.NewContext(ctx, user.SystemActor())

	run, err := j.payrollService.Initiate(ctx, payroll.InitiateRunRequest{
		PeriodMonth: period.Month,
		PeriodYear:  period.Year,
	})
	if err != nil {
		if errors.Is(err, payroll.ErrRunAlreadyExists) {
			slog.Debug("Cron: payroll run already exists", "period", period.String())
			return nil
		}
		return fmt.Errorf("failed to initiate payroll run for %s: %w", period, err)
	}

	slog.Info("Cron: payroll run initiated", "run_id", run.ID, "period", period.String())
	return nil
}
