package benefit

import "context"

type BenefitRepository interface {
	Create(ctx context.Context, b Benefit) (Benefit, error)
	GetByID(ctx context.Context, id string) (Benefit, error)
	List(ctx context.Context, filter BenefitFilter) ([]Benefit, int64, error)
	ListByEmployee(ctx context.Context, employeeID string, status Status) ([]Benefit, error)
	// Decide records the review outcome. It only succeeds while the benefit is
	// still pending and returns ErrBenefitAlreadyDecided otherwise.
	Decide(ctx context.Context, b Benefit) (Benefit, error)
}

type PenaltyRepository interface {
	ListByEmployeePeriod(ctx context.Context, employeeID string, month, year int) ([]Penalty, error)
}
