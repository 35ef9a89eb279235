package payroll

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRunNotFound            = errors.New("payroll run not found")
	ErrRunAlreadyExists       = errors.New("payroll run already exists for this period")
	ErrInvalidTransition      = errors.New("invalid payroll run status transition")
	ErrRunLocked              = errors.New("payroll run is locked")
	ErrRunNotSnapshotted      = errors.New("payroll run has no eligible employees yet")
	ErrRunNotCalculated       = errors.New("payroll run has not been calculated")
	ErrDetailNotFound         = errors.New("employee payroll detail not found")
	ErrPayslipNotFound        = errors.New("payslip not found")
	ErrAnomalyNotFound        = errors.New("payroll anomaly not found")
	ErrDeductionExceedsNetPay = errors.New("deduction exceeds current net pay")
	ErrJustificationTooShort  = errors.New("justification is too short")
	ErrCalculationSuperseded  = errors.New("payroll calculation was superseded by a newer pass")
)

// TransitionError reports a lifecycle action attempted from a status that does not allow it.
type TransitionError struct {
	RunID    string
	Action   Action
	Current  RunStatus
	Required []RunStatus
}

func (e *TransitionError) Error() string {
	required := make([]string, 0, len(e.Required))
	for _, s := range e.Required {
		required = append(required, string(s))
	}
	return fmt.Sprintf("cannot %s payroll run %s: status is '%s', requires one of [%s]",
		e.Action, e.RunID, e.Current, strings.Join(required, ", "))
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
