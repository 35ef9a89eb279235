package benefit

import "errors"

var (
	ErrBenefitNotFound       = errors.New("benefit not found")
	ErrBenefitAlreadyDecided = errors.New("cannot change a decided benefit")
	ErrInvalidKind           = errors.New("invalid benefit kind")
	ErrInvalidStatus         = errors.New("invalid benefit status")
)
