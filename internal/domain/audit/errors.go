package audit

import "errors"

var (
	ErrRunIDRequired         = errors.New("audit entry must reference a payroll run")
	ErrJustificationRequired = errors.New("audit entry requires a justification")
	ErrActorRequired         = errors.New("audit entry requires an actor")
	ErrInvalidActionType     = errors.New("invalid audit action type")
)
