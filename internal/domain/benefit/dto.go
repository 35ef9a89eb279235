package benefit

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateBenefitRequest struct {
	EmployeeID  string          `json:"employee_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodMonth int             `json:"period_month"`
	PeriodYear  int             `json:"period_year"`
	Description *string         `json:"description,omitempty"`
}

func (r *CreateBenefitRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	} else if !validator.IsUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if Kind(r.Kind) != KindSigningBonus && Kind(r.Kind) != KindTerminationBenefit {
		errs = append(errs, validator.ValidationError{Field: "kind", Message: "must be 'signing_bonus' or 'termination_benefit'"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	}
	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if r.PeriodYear < 2020 || r.PeriodYear > 2100 {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: "must be between 2020 and 2100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReviewBenefitRequest struct {
	ID     string           `json:"-"`
	Status string           `json:"status"` // "approved" or "rejected"
	Note   *string          `json:"note,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

func (r *ReviewBenefitRequest) Validate() error {
	var errs validator.ValidationErrors

	if Status(r.Status) != StatusApproved && Status(r.Status) != StatusRejected {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'approved' or 'rejected'"})
	}
	if r.Amount != nil {
		if !r.Amount.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
		}
		if Status(r.Status) == StatusRejected {
			errs = append(errs, validator.ValidationError{Field: "amount", Message: "cannot amend the amount of a rejected benefit"})
		}
		if r.Note == nil || validator.IsEmpty(*r.Note) {
			errs = append(errs, validator.ValidationError{Field: "note", Message: "is required when amending the amount"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BenefitFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	Kind       *string `json:"kind,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *BenefitFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type BenefitResponse struct {
	ID             string           `json:"id"`
	EmployeeID     string           `json:"employee_id"`
	Kind           string           `json:"kind"`
	Amount         decimal.Decimal  `json:"amount"`
	OriginalAmount *decimal.Decimal `json:"original_amount,omitempty"`
	PeriodMonth    int              `json:"period_month"`
	PeriodYear     int              `json:"period_year"`
	Description    *string          `json:"description,omitempty"`
	Status         string           `json:"status"`
	CreatedBy      string           `json:"created_by"`
	ReviewedBy     *string          `json:"reviewed_by,omitempty"`
	ReviewNote     *string          `json:"review_note,omitempty"`
	ReviewedAt     *string          `json:"reviewed_at,omitempty"`
	CreatedAt      string           `json:"created_at"`
}

type ListBenefitResponse struct {
	Data       []BenefitResponse `json:"data"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

func ToResponse(b Benefit) BenefitResponse {
	resp := BenefitResponse{
		ID:             b.ID,
		EmployeeID:     b.EmployeeID,
		Kind:           string(b.Kind),
		Amount:         b.Amount,
		OriginalAmount: b.OriginalAmount,
		PeriodMonth:    b.PeriodMonth,
		PeriodYear:     b.PeriodYear,
		Description:    b.Description,
		Status:         string(b.Status),
		CreatedBy:      b.CreatedBy,
		ReviewedBy:     b.ReviewedBy,
		ReviewNote:     b.ReviewNote,
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
	if b.ReviewedAt != nil {
		s := b.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}
