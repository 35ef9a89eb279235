package payroll

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayrollRun_Transition(t *testing.T) {
	tests := []struct {
		name    string
		from    RunStatus
		action  Action
		want    RunStatus
		wantErr bool
	}{
		{"approve draft period", RunStatusDraft, ActionApprovePeriod, RunStatusUnderReview, false},
		{"re-approve rejected period", RunStatusRejected, ActionApprovePeriod, RunStatusUnderReview, false},
		{"reject draft period", RunStatusDraft, ActionRejectPeriod, RunStatusRejected, false},
		{"calculate before period approval", RunStatusDraft, ActionStartCalculation, RunStatusDraft, true},
		{"recalculate", RunStatusCalculated, ActionStartCalculation, RunStatusCalculating, false},
		{"calculate after unfreeze", RunStatusUnfrozen, ActionStartCalculation, RunStatusCalculating, false},
		{"finish calculating", RunStatusCalculating, ActionEndCalculation, RunStatusCalculated, false},
		{"submit uncalculated", RunStatusUnderReview, ActionSubmit, RunStatusUnderReview, true},
		{"submit reworked", RunStatusNeedsRework, ActionSubmit, RunStatusSubmittedForApproval, false},
		{"manager approve", RunStatusSubmittedForApproval, ActionManagerApprove, RunStatusManagerApproved, false},
		{"manager reject", RunStatusSubmittedForApproval, ActionManagerReject, RunStatusNeedsRework, false},
		{"finance before manager", RunStatusSubmittedForApproval, ActionFinanceApprove, RunStatusSubmittedForApproval, true},
		{"finance reject", RunStatusManagerApproved, ActionFinanceReject, RunStatusNeedsRework, false},
		{"lock without finance", RunStatusManagerApproved, ActionLock, RunStatusManagerApproved, true},
		{"lock", RunStatusFinanceApproved, ActionLock, RunStatusLocked, false},
		{"recalculate locked", RunStatusLocked, ActionStartCalculation, RunStatusLocked, true},
		{"unfreeze", RunStatusLocked, ActionUnfreeze, RunStatusUnfrozen, false},
		{"unfreeze unlocked", RunStatusUnfrozen, ActionUnfreeze, RunStatusUnfrozen, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := PayrollRun{ID: "run-1", Status: tt.from}
			got, err := run.Transition(tt.action)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransitionError(t *testing.T) {
	run := PayrollRun{ID: "run-1", Status: RunStatusDraft}
	_, err := run.Transition(ActionLock)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, RunStatusDraft, te.Current)
	assert.Equal(t, []RunStatus{RunStatusFinanceApproved}, te.Required)
	assert.Equal(t, "cannot lock payroll run run-1: status is 'draft', requires one of [finance_approved]", err.Error())
	assert.False(t, errors.Is(err, ErrRunLocked))
}

func TestPayrollRun_CheckAdjustable(t *testing.T) {
	assert.NoError(t, PayrollRun{Status: RunStatusCalculated}.CheckAdjustable())
	assert.NoError(t, PayrollRun{Status: RunStatusManagerApproved}.CheckAdjustable())
	assert.ErrorIs(t, PayrollRun{Status: RunStatusLocked, Locked: true}.CheckAdjustable(), ErrRunLocked)
	assert.ErrorIs(t, PayrollRun{Status: RunStatusDraft}.CheckAdjustable(), ErrInvalidTransition)
	assert.ErrorIs(t, PayrollRun{Status: RunStatusCalculating}.CheckAdjustable(), ErrInvalidTransition)
}

func TestPayrollRun_IsPastSubmission(t *testing.T) {
	assert.True(t, PayrollRun{Status: RunStatusSubmittedForApproval}.IsPastSubmission())
	assert.True(t, PayrollRun{Status: RunStatusFinanceApproved}.IsPastSubmission())
	assert.False(t, PayrollRun{Status: RunStatusCalculated}.IsPastSubmission())
	assert.False(t, PayrollRun{Status: RunStatusNeedsRework}.IsPastSubmission())
}

func TestPayrollRun_CheckCalculationOwner(t *testing.T) {
	owner := "calc-2"
	run := PayrollRun{ID: "run-1", Status: RunStatusCalculating, CalculationID: &owner}

	assert.NoError(t, run.CheckCalculationOwner("calc-2"))
	assert.ErrorIs(t, run.CheckCalculationOwner("calc-1"), ErrCalculationSuperseded)
	assert.ErrorIs(t, PayrollRun{Status: RunStatusCalculating}.CheckCalculationOwner("calc-1"), ErrCalculationSuperseded)

	run.Status = RunStatusCalculated
	err := run.CheckCalculationOwner("calc-2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "cannot finish calculating payroll run run-1: status is 'calculated', requires one of [calculating]", err.Error())
}
