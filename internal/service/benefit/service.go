package benefit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/google/uuid"
)

type BenefitServiceImpl struct {
	benefitRepo  benefit.BenefitRepository
	employeeRepo employee.EmployeeRepository
	now          func() time.Time
}

func NewBenefitService(benefitRepo benefit.BenefitRepository, employeeRepo employee.EmployeeRepository) benefit.BenefitService {
	return &BenefitServiceImpl{
		benefitRepo:  benefitRepo,
		employeeRepo: employeeRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func authorize(ctx context.Context, permission user.Permission) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if err := user.Authorize(actor, permission); err != nil {
		return user.Actor{}, err
	}
	return actor, nil
}

func (s *BenefitServiceImpl) Create(ctx context.Context, req benefit.CreateBenefitRequest) (benefit.BenefitResponse, error) {
	actor, err := authorize(ctx, user.PermissionBenefitManage)
	if err != nil {
		return benefit.BenefitResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return benefit.BenefitResponse{}, err
	}

	// Employee must exist
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return benefit.BenefitResponse{}, err
	}

	var description *string
	if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
		d := strings.TrimSpace(*req.Description)
		description = &d
	}

	now := s.now()
	created, err := s.benefitRepo.Create(ctx, benefit.Benefit{
		ID:          uuid.Must(uuid.NewV7()).String(),
		EmployeeID:  req.EmployeeID,
		Kind:        benefit.Kind(req.Kind),
		Amount:      req.Amount,
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		Description: description,
		Status:      benefit.StatusPending,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return benefit.BenefitResponse{}, err
	}

	slog.Info("Benefit created", "benefit_id", created.ID, "employee_id", created.EmployeeID, "kind", created.Kind, "amount", created.Amount.String())
	return benefit.ToResponse(created), nil
}

func (s *BenefitServiceImpl) Get(ctx context.Context, id string) (benefit.BenefitResponse, error) {
	if _, err := authorize(ctx, user.PermissionBenefitView); err != nil {
		return benefit.BenefitResponse{}, err
	}
	b, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return benefit.BenefitResponse{}, err
	}
	return benefit.ToResponse(b), nil
}

func (s *BenefitServiceImpl) List(ctx context.Context, filter benefit.BenefitFilter) (benefit.ListBenefitResponse, error) {
	if _, err := authorize(ctx, user.PermissionBenefitView); err != nil {
		return benefit.ListBenefitResponse{}, err
	}
	filter.Normalize()

	items, total, err := s.benefitRepo.List(ctx, filter)
	if err != nil {
		return benefit.ListBenefitResponse{}, err
	}

	data := make([]benefit.BenefitResponse, 0, len(items))
	for _, b := range items {
		data = append(data, benefit.ToResponse(b))
	}
	return benefit.ListBenefitResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// Review approves or rejects a pending benefit. An approved amount may be
// amended, in which case the requested amount is kept as the original.
func (s *BenefitServiceImpl) Review(ctx context.Context, req benefit.ReviewBenefitRequest) (benefit.BenefitResponse, error) {
	actor, err := authorize(ctx, user.PermissionBenefitReview)
	if err != nil {
		return benefit.BenefitResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return benefit.BenefitResponse{}, err
	}

	b, err := s.benefitRepo.GetByID(ctx, req.ID)
	if err != nil {
		return benefit.BenefitResponse{}, err
	}
	if b.IsDecided() {
		return benefit.BenefitResponse{}, benefit.ErrBenefitAlreadyDecided
	}

	now := s.now()
	b.Status = benefit.Status(req.Status)
	b.ReviewedBy = &actor.UserID
	b.ReviewNote = req.Note
	b.ReviewedAt = &now
	b.UpdatedAt = now
	if req.Amount != nil && !req.Amount.Equal(b.Amount) {
		original := b.Amount
		b.OriginalAmount = &original
		b.Amount = *req.Amount
	}

	// Decide re-checks the pending status so concurrent reviews cannot both win.
	decided, err := s.benefitRepo.Decide(ctx, b)
	if err != nil {
		return benefit.BenefitResponse{}, err
	}

	slog.Info("Benefit reviewed", "benefit_id", decided.ID, "status", decided.Status, "reviewer", actor.UserID)
	return benefit.ToResponse(decided), nil
}
