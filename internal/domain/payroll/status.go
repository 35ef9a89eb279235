package payroll

// Action is a lifecycle operation that moves a run between statuses.
type Action string

const (
	ActionApprovePeriod    Action = "approve period of"
	ActionRejectPeriod     Action = "reject period of"
	ActionStartCalculation Action = "calculate"
	ActionEndCalculation   Action = "finish calculating"
	ActionSubmit           Action = "submit"
	ActionManagerApprove   Action = "manager-approve"
	ActionManagerReject    Action = "manager-reject"
	ActionFinanceApprove   Action = "finance-approve"
	ActionFinanceReject    Action = "finance-reject"
	ActionLock             Action = "lock"
	ActionUnfreeze         Action = "unfreeze"
	ActionAdjust           Action = "adjust payslips of"
)

type transition struct {
	from []RunStatus
	to   RunStatus
}

// transitions is the complete lifecycle table. Anything not listed is rejected.
var transitions = map[Action]transition{
	ActionApprovePeriod: {
		from: []RunStatus{RunStatusDraft, RunStatusRejected, RunStatusUnderReview},
		to:   RunStatusUnderReview,
	},
	ActionRejectPeriod: {
		from: []RunStatus{RunStatusDraft, RunStatusUnderReview},
		to:   RunStatusRejected,
	},
	ActionStartCalculation: {
		from: []RunStatus{RunStatusUnderReview, RunStatusCalculating, RunStatusCalculated, RunStatusNeedsRework, RunStatusUnfrozen},
		to:   RunStatusCalculating,
	},
	ActionEndCalculation: {
		from: []RunStatus{RunStatusCalculating},
		to:   RunStatusCalculated,
	},
	ActionSubmit: {
		from: []RunStatus{RunStatusCalculated, RunStatusNeedsRework, RunStatusUnfrozen},
		to:   RunStatusSubmittedForApproval,
	},
	ActionManagerApprove: {
		from: []RunStatus{RunStatusSubmittedForApproval},
		to:   RunStatusManagerApproved,
	},
	ActionManagerReject: {
		from: []RunStatus{RunStatusSubmittedForApproval},
		to:   RunStatusNeedsRework,
	},
	ActionFinanceApprove: {
		from: []RunStatus{RunStatusManagerApproved},
		to:   RunStatusFinanceApproved,
	},
	ActionFinanceReject: {
		from: []RunStatus{RunStatusManagerApproved},
		to:   RunStatusNeedsRework,
	},
	ActionLock: {
		from: []RunStatus{RunStatusFinanceApproved},
		to:   RunStatusLocked,
	},
	ActionUnfreeze: {
		from: []RunStatus{RunStatusLocked},
		to:   RunStatusUnfrozen,
	},
}

// Transition returns the status a run moves to when action is applied to it,
// or a *TransitionError naming the statuses the action requires.
func (r PayrollRun) Transition(action Action) (RunStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return r.Status, &TransitionError{RunID: r.ID, Action: action, Current: r.Status}
	}
	for _, s := range t.from {
		if s == r.Status {
			return t.to, nil
		}
	}
	return r.Status, &TransitionError{RunID: r.ID, Action: action, Current: r.Status, Required: t.from}
}

// CheckCalculationOwner reports whether the pass identified by calculationID
// may still write results. A newer pass takes the run over, and once the run
// leaves calculating no pass may write.
func (r PayrollRun) CheckCalculationOwner(calculationID string) error {
	if r.Status != RunStatusCalculating {
		return &TransitionError{RunID: r.ID, Action: ActionEndCalculation, Current: r.Status, Required: []RunStatus{RunStatusCalculating}}
	}
	if r.CalculationID == nil || *r.CalculationID != calculationID {
		return ErrCalculationSuperseded
	}
	return nil
}

var adjustableStatuses = []RunStatus{
	RunStatusUnderReview,
	RunStatusCalculated,
	RunStatusSubmittedForApproval,
	RunStatusManagerApproved,
	RunStatusFinanceApproved,
	RunStatusNeedsRework,
	RunStatusUnfrozen,
}

// CheckAdjustable returns ErrRunLocked for a locked run and a *TransitionError
// when payslips of the run cannot be edited by hand in its current status.
func (r PayrollRun) CheckAdjustable() error {
	if r.Locked || r.Status == RunStatusLocked {
		return ErrRunLocked
	}
	for _, s := range adjustableStatuses {
		if s == r.Status {
			return nil
		}
	}
	return &TransitionError{RunID: r.ID, Action: ActionAdjust, Current: r.Status, Required: adjustableStatuses}
}
