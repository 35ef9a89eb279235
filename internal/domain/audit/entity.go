package audit

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ActionType string

const (
	ActionRunRejection ActionType = "run_rejection"
	ActionManualEdit   ActionType = "manual_edit"
	ActionUnfreeze     ActionType = "unfreeze"
)

// CycleAdjustment is an append-only record of a lock-affecting action on a payroll run.
type CycleAdjustment struct {
	ID            string
	ActionType    ActionType
	PayrollRunID  string
	PayslipID     *string
	Justification string
	FromStatus    string
	ToStatus      string
	Amount        *decimal.Decimal
	ActorID       string
	ActorRole     string
	CreatedAt     time.Time
}

func (c CycleAdjustment) Validate() error {
	if strings.TrimSpace(c.PayrollRunID) == "" {
		return ErrRunIDRequired
	}
	if strings.TrimSpace(c.Justification) == "" {
		return ErrJustificationRequired
	}
	if strings.TrimSpace(c.ActorID) == "" {
		return ErrActorRequired
	}
	switch c.ActionType {
	case ActionRunRejection, ActionManualEdit, ActionUnfreeze:
		return nil
	default:
		return ErrInvalidActionType
	}
}
