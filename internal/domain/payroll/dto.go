package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RUN DTOs ==========

type InitiateRunRequest struct {
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	Period      string `json:"period,omitempty"` // "Mar-2025", takes precedence over month/year
}

// Resolve validates the request and returns the requested period.
func (r *InitiateRunRequest) Resolve() (Period, error) {
	if !validator.IsEmpty(r.Period) {
		return ParsePeriod(r.Period)
	}
	return NewPeriod(r.PeriodMonth, r.PeriodYear)
}

func (r *InitiateRunRequest) Validate() error {
	_, err := r.Resolve()
	return err
}

const (
	PeriodReviewApprove = "approve"
	PeriodReviewReject  = "reject"
)

type ReviewPeriodRequest struct {
	RunID           string  `json:"-"`
	Action          string  `json:"action"` // "approve" or "reject"
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

func (r *ReviewPeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Action != PeriodReviewApprove && r.Action != PeriodReviewReject {
		errs = append(errs, validator.ValidationError{Field: "action", Message: "must be 'approve' or 'reject'"})
	}
	if r.Action == PeriodReviewReject && (r.RejectionReason == nil || validator.IsEmpty(*r.RejectionReason)) {
		errs = append(errs, validator.ValidationError{Field: "rejection_reason", Message: "is required when rejecting"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

type ReviewDecisionRequest struct {
	RunID   string  `json:"-"`
	Status  string  `json:"status"` // "approved" or "rejected"
	Comment *string `json:"comment,omitempty"`
}

func (r *ReviewDecisionRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != DecisionApproved && r.Status != DecisionRejected {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'approved' or 'rejected'"})
	}
	if r.Status == DecisionRejected && (r.Comment == nil || validator.IsEmpty(*r.Comment)) {
		errs = append(errs, validator.ValidationError{Field: "comment", Message: "is required when rejecting"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UnfreezeRunRequest struct {
	RunID         string `json:"-"`
	Justification string `json:"justification"`
}

func (r *UnfreezeRunRequest) Validate(minLength int) error {
	if validator.TrimmedLength(r.Justification) < minLength {
		return validator.ValidationErrors{{
			Field:   "justification",
			Message: ErrJustificationTooShort.Error() + ": at least " + validator.Itoa(minLength) + " characters are required",
		}}
	}
	return nil
}

type RunFilter struct {
	Status     *string `json:"status,omitempty"`
	PeriodYear *int    `json:"period_year,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

var runStatuses = []string{
	string(RunStatusDraft),
	string(RunStatusRejected),
	string(RunStatusUnderReview),
	string(RunStatusCalculating),
	string(RunStatusCalculated),
	string(RunStatusSubmittedForApproval),
	string(RunStatusManagerApproved),
	string(RunStatusFinanceApproved),
	string(RunStatusNeedsRework),
	string(RunStatusLocked),
	string(RunStatusUnfrozen),
}

func (f *RunFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !validator.IsInSlice(*f.Status, runStatuses) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "is not a payroll run status"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (f *RunFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type PayrollRunResponse struct {
	ID                string          `json:"id"`
	Period            string          `json:"period"`
	PeriodMonth       int             `json:"period_month"`
	PeriodYear        int             `json:"period_year"`
	Status            string          `json:"status"`
	SpecialistID      string          `json:"specialist_id"`
	ManagerID         *string         `json:"manager_id,omitempty"`
	FinanceID         *string         `json:"finance_id,omitempty"`
	TotalNetPay       decimal.Decimal `json:"total_net_pay"`
	EmployeeCount     int             `json:"employee_count"`
	ExceptionCount    int             `json:"exception_count"`
	Locked            bool            `json:"locked"`
	LockedAt          *string         `json:"locked_at,omitempty"`
	CalculatedAt      *string         `json:"calculated_at,omitempty"`
	SubmittedAt       *string         `json:"submitted_at,omitempty"`
	ManagerReviewedAt *string         `json:"manager_reviewed_at,omitempty"`
	FinanceReviewedAt *string         `json:"finance_reviewed_at,omitempty"`
	RejectionReason   *string         `json:"rejection_reason,omitempty"`
	ManagerComment    *string         `json:"manager_comment,omitempty"`
	FinanceComment    *string         `json:"finance_comment,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

type ListPayrollRunResponse struct {
	Data       []PayrollRunResponse `json:"data"`
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
}

// ========== SNAPSHOT DTOs ==========

type SnapshotSummary struct {
	RunID            string  `json:"run_id"`
	Processed        int     `json:"processed"`
	Created          int     `json:"created"`
	MissingBankCount int     `json:"missing_bank_count"`
	FetchError       *string `json:"fetch_error,omitempty"`
}

const (
	ReviewResultRun      = "run"
	ReviewResultSnapshot = "snapshot"
)

// ReviewPeriodResult is either the updated run (reject) or the snapshot summary (approve).
type ReviewPeriodResult struct {
	Kind     string              `json:"kind"`
	Run      *PayrollRunResponse `json:"run,omitempty"`
	Snapshot *SnapshotSummary    `json:"snapshot,omitempty"`
}

type EmployeePayrollDetailResponse struct {
	ID                   string          `json:"id"`
	RunID                string          `json:"run_id"`
	EmployeeID           string          `json:"employee_id"`
	EmployeeCode         string          `json:"employee_code"`
	EmployeeName         string          `json:"employee_name"`
	BaseSalary           decimal.Decimal `json:"base_salary"`
	ProratedSalary       decimal.Decimal `json:"prorated_salary"`
	Allowances           decimal.Decimal `json:"allowances"`
	GrossSalary          decimal.Decimal `json:"gross_salary"`
	OvertimePay          decimal.Decimal `json:"overtime_pay"`
	TaxAmount            decimal.Decimal `json:"tax_amount"`
	InsuranceEmployee    decimal.Decimal `json:"insurance_employee"`
	InsuranceEmployer    decimal.Decimal `json:"insurance_employer"`
	BonusAmount          decimal.Decimal `json:"bonus_amount"`
	BenefitAmount        decimal.Decimal `json:"benefit_amount"`
	PenaltyAmount        decimal.Decimal `json:"penalty_amount"`
	UnpaidLeaveDeduction decimal.Decimal `json:"unpaid_leave_deduction"`
	NetPay               decimal.Decimal `json:"net_pay"`
	FinalNetPay          decimal.Decimal `json:"final_net_pay"`
	ManualAdjustment     decimal.Decimal `json:"manual_adjustment"`
	MinimumWageApplied   bool            `json:"minimum_wage_applied"`
	BankStatus           string          `json:"bank_status"`
	Exceptions           []string        `json:"exceptions"`
	Skipped              bool            `json:"skipped"`
	SkipReason           *string         `json:"skip_reason,omitempty"`
	CalculatedAt         *string         `json:"calculated_at,omitempty"`
}

type PayslipAdjustmentResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    *string         `json:"reason,omitempty"`
	ActorID   string          `json:"actor_id"`
	CreatedAt string          `json:"created_at"`
}

type PayslipResponse struct {
	ID              string                      `json:"id"`
	RunID           string                      `json:"run_id"`
	DetailID        string                      `json:"detail_id"`
	EmployeeID      string                      `json:"employee_id"`
	Earnings        Earnings                    `json:"earnings"`
	Deductions      Deductions                  `json:"deductions"`
	GrossPay        decimal.Decimal             `json:"gross_pay"`
	TotalDeductions decimal.Decimal             `json:"total_deductions"`
	NetPay          decimal.Decimal             `json:"net_pay"`
	PaymentStatus   string                      `json:"payment_status"`
	ManagerOverride bool                        `json:"manager_override"`
	OverrideReason  *string                     `json:"override_reason,omitempty"`
	Adjustments     []PayslipAdjustmentResponse `json:"adjustments,omitempty"`
}

type EligibleEmployeesResponse struct {
	RunID    string                          `json:"run_id"`
	Details  []EmployeePayrollDetailResponse `json:"details"`
	Payslips []PayslipResponse               `json:"payslips"`
}

// ========== CALCULATION DTOs ==========

type SkippedEmployee struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type EmployeeError struct {
	EmployeeID string `json:"employee_id"`
	Message    string `json:"message"`
}

// CalculationSummary reports a batch run. Skips and per-employee errors are
// part of a successful result, not a failure of the batch.
type CalculationSummary struct {
	RunID            string            `json:"run_id"`
	Status           string            `json:"status"`
	Processed        int               `json:"processed"`
	TotalPayout      decimal.Decimal   `json:"total_payout"`
	Skipped          []SkippedEmployee `json:"skipped"`
	Errors           []EmployeeError   `json:"errors"`
	AnomaliesCreated int               `json:"anomalies_created"`
}

// ========== ADJUSTMENT DTOs ==========

type AdjustPayslipRequest struct {
	PayslipID string          `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type"` // "bonus" or "deduction"
	Reason    *string         `json:"reason,omitempty"`
}

func (r *AdjustPayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	}
	if !validator.IsInSlice(r.Type, []string{string(AdjustmentTypeBonus), string(AdjustmentTypeDeduction)}) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be 'bonus' or 'deduction'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayslipDocument struct {
	PayslipID string `json:"payslip_id"`
	FileName  string `json:"file_name"`
	Path      string `json:"path"`
	URL       string `json:"url"`
	Content   []byte `json:"-"`
}

// ========== ANOMALY DTOs ==========

type AnomalyResolution struct {
	AnomalyID string `json:"anomaly_id"`
	Notes     string `json:"notes"`
}

type ResolveAnomaliesRequest struct {
	RunID       string              `json:"-"`
	Resolutions []AnomalyResolution `json:"resolutions"`
}

func (r *ResolveAnomaliesRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Resolutions) == 0 {
		errs = append(errs, validator.ValidationError{Field: "resolutions", Message: "at least one resolution is required"})
	}
	for i, res := range r.Resolutions {
		if validator.IsEmpty(res.AnomalyID) {
			errs = append(errs, validator.ValidationError{Field: "resolutions[" + validator.Itoa(i) + "].anomaly_id", Message: "is required"})
		}
		if validator.IsEmpty(res.Notes) {
			errs = append(errs, validator.ValidationError{Field: "resolutions[" + validator.Itoa(i) + "].notes", Message: "is required"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AnomalyResponse struct {
	ID              string  `json:"id"`
	RunID           string  `json:"run_id"`
	EmployeeID      *string `json:"employee_id,omitempty"`
	Type            string  `json:"type"`
	Description     string  `json:"description"`
	Resolved        bool    `json:"resolved"`
	ResolvedBy      *string `json:"resolved_by,omitempty"`
	ResolutionNotes *string `json:"resolution_notes,omitempty"`
	ResolvedAt      *string `json:"resolved_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// ========== MAPPERS ==========

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func ToRunResponse(r PayrollRun) PayrollRunResponse {
	return PayrollRunResponse{
		ID:                r.ID,
		Period:            r.Period.String(),
		PeriodMonth:       r.Period.Month,
		PeriodYear:        r.Period.Year,
		Status:            string(r.Status),
		SpecialistID:      r.SpecialistID,
		ManagerID:         r.ManagerID,
		FinanceID:         r.FinanceID,
		TotalNetPay:       r.TotalNetPay,
		EmployeeCount:     r.EmployeeCount,
		ExceptionCount:    r.ExceptionCount,
		Locked:            r.Locked,
		LockedAt:          formatTime(r.LockedAt),
		CalculatedAt:      formatTime(r.CalculatedAt),
		SubmittedAt:       formatTime(r.SubmittedAt),
		ManagerReviewedAt: formatTime(r.ManagerReviewedAt),
		FinanceReviewedAt: formatTime(r.FinanceReviewedAt),
		RejectionReason:   r.RejectionReason,
		ManagerComment:    r.ManagerComment,
		FinanceComment:    r.FinanceComment,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
}

func ToDetailResponse(d EmployeePayrollDetail) EmployeePayrollDetailResponse {
	exceptions := d.Exceptions
	if exceptions == nil {
		exceptions = []string{}
	}
	return EmployeePayrollDetailResponse{
		ID:                   d.ID,
		RunID:                d.RunID,
		EmployeeID:           d.EmployeeID,
		EmployeeCode:         d.EmployeeCode,
		EmployeeName:         d.EmployeeName,
		BaseSalary:           d.BaseSalary,
		ProratedSalary:       d.ProratedSalary,
		Allowances:           d.Allowances,
		GrossSalary:          d.GrossSalary,
		OvertimePay:          d.OvertimePay,
		TaxAmount:            d.TaxAmount,
		InsuranceEmployee:    d.InsuranceEmployee,
		InsuranceEmployer:    d.InsuranceEmployer,
		BonusAmount:          d.BonusAmount,
		BenefitAmount:        d.BenefitAmount,
		PenaltyAmount:        d.PenaltyAmount,
		UnpaidLeaveDeduction: d.UnpaidLeaveDeduction,
		NetPay:               d.NetPay,
		FinalNetPay:          d.FinalNetPay,
		ManualAdjustment:     d.ManualAdjustment,
		MinimumWageApplied:   d.MinimumWageApplied,
		BankStatus:           string(d.BankStatus),
		Exceptions:           exceptions,
		Skipped:              d.Skipped,
		SkipReason:           d.SkipReason,
		CalculatedAt:         formatTime(d.CalculatedAt),
	}
}

func ToPayslipResponse(p Payslip, adjustments []PayslipAdjustment) PayslipResponse {
	resp := PayslipResponse{
		ID:              p.ID,
		RunID:           p.RunID,
		DetailID:        p.DetailID,
		EmployeeID:      p.EmployeeID,
		Earnings:        p.Earnings,
		Deductions:      p.Deductions,
		GrossPay:        p.Earnings.Total(),
		TotalDeductions: p.Deductions.Total(),
		NetPay:          p.NetPay,
		PaymentStatus:   string(p.PaymentStatus),
		ManagerOverride: p.ManagerOverride,
		OverrideReason:  p.OverrideReason,
	}
	for _, a := range adjustments {
		resp.Adjustments = append(resp.Adjustments, PayslipAdjustmentResponse{
			ID:        a.ID,
			Type:      string(a.Type),
			Amount:    a.Amount,
			Reason:    a.Reason,
			ActorID:   a.ActorID,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func ToAnomalyResponse(a Anomaly) AnomalyResponse {
	return AnomalyResponse{
		ID:              a.ID,
		RunID:           a.RunID,
		EmployeeID:      a.EmployeeID,
		Type:            string(a.Type),
		Description:     a.Description,
		Resolved:        a.Resolved,
		ResolvedBy:      a.ResolvedBy,
		ResolutionNotes: a.ResolutionNotes,
		ResolvedAt:      formatTime(a.ResolvedAt),
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
}
