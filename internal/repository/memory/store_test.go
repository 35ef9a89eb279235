package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun(id string, month int) payroll.PayrollRun {
	return payroll.PayrollRun{
		ID:     id,
		Period: payroll.Period{Month: month, Year: 2026},
		Status: payroll.RunStatusDraft,
	}
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Runs().Create(ctx, newRun("run-1", 9))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(ctx context.Context) error {
		run, err := s.Runs().GetByIDForUpdate(ctx, "run-1")
		require.NoError(t, err)
		run.Status = payroll.RunStatusUnderReview
		require.NoError(t, s.Runs().Update(ctx, run))

		_, err = s.Runs().Create(ctx, newRun("run-2", 10))
		require.NoError(t, err)
		_, err = s.Audit().Append(ctx, audit.CycleAdjustment{ID: "a-1", PayrollRunID: "run-1"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	run, err := s.Runs().GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusDraft, run.Status)

	_, err = s.Runs().GetByID(ctx, "run-2")
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)

	entries, err := s.Audit().ListByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_NestedTxJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		err := s.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.Runs().Create(ctx, newRun("run-1", 9))
			return err
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Runs().GetByID(ctx, "run-1")
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)
}

func TestRunRepository_OnePerPeriod(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Runs().Create(ctx, newRun("run-1", 10))
	require.NoError(t, err)
	_, err = s.Runs().Create(ctx, newRun("run-2", 10))
	assert.ErrorIs(t, err, payroll.ErrRunAlreadyExists)

	_, err = s.Runs().Create(ctx, newRun("run-3", 11))
	require.NoError(t, err)

	runs, total, err := s.Runs().List(ctx, payroll.RunFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
}

func TestAnomalyRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	emp := "emp-1"
	anomaly := payroll.Anomaly{ID: "an-1", RunID: "run-1", EmployeeID: &emp, Type: payroll.AnomalyTypeNegativePay}

	_, created, err := s.Anomalies().CreateIfAbsent(ctx, anomaly)
	require.NoError(t, err)
	assert.True(t, created)

	dup := anomaly
	dup.ID = "an-2"
	existing, created, err := s.Anomalies().CreateIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "an-1", existing.ID)

	_, err = s.Anomalies().Resolve(ctx, "an-1", "user-1", "paid manually", time.Now())
	require.NoError(t, err)

	_, created, err = s.Anomalies().CreateIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.True(t, created)

	open, err := s.Anomalies().ListByRun(ctx, "run-1", false)
	require.NoError(t, err)
	assert.Len(t, open, 1)
	all, err := s.Anomalies().ListByRun(ctx, "run-1", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBenefitRepository_DecideOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	b := benefit.Benefit{ID: "b-1", EmployeeID: "emp-1", Kind: benefit.KindSigningBonus, Amount: decimal.NewFromInt(100), Status: benefit.StatusPending}
	_, err := s.Benefits().Create(ctx, b)
	require.NoError(t, err)

	b.Status = benefit.StatusApproved
	_, err = s.Benefits().Decide(ctx, b)
	require.NoError(t, err)

	b.Status = benefit.StatusRejected
	_, err = s.Benefits().Decide(ctx, b)
	assert.ErrorIs(t, err, benefit.ErrBenefitAlreadyDecided)

	approved, err := s.Benefits().ListByEmployee(ctx, "emp-1", benefit.StatusApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}
