package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Lifecycle errors carry the current and required statuses
	var transitionErr *payroll.TransitionError
	if errors.As(err, &transitionErr) {
		Conflict(w, transitionErr.Error())
		return
	}

	switch {
	// Access
	case errors.Is(err, user.ErrActorRequired):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrDetailNotFound):
		NotFound(w, "Employee payroll detail not found")
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrAnomalyNotFound):
		NotFound(w, "Payroll anomaly not found")
	case errors.Is(err, payroll.ErrRunAlreadyExists):
		Conflict(w, "A payroll run already exists for this period")
	case errors.Is(err, payroll.ErrRunLocked):
		Conflict(w, "Payroll run is locked")
	case errors.Is(err, payroll.ErrRunNotCalculated):
		Conflict(w, "Payroll run has not been calculated")
	case errors.Is(err, payroll.ErrCalculationSuperseded):
		Conflict(w, "Payroll run is being recalculated by a newer request")
	case errors.Is(err, payroll.ErrRunNotSnapshotted):
		Conflict(w, "Payroll run has no eligible employees yet")
	case errors.Is(err, payroll.ErrDeductionExceedsNetPay):
		ValidationError(w, map[string]string{"amount": err.Error()})
	case errors.Is(err, payroll.ErrJustificationTooShort):
		ValidationError(w, map[string]string{"justification": err.Error()})

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrInvalidEmployeeID):
		BadRequest(w, "Malformed employee identifier", nil)
	case errors.Is(err, employee.ErrNoBaseSalary):
		ValidationError(w, map[string]string{"base_salary": err.Error()})

	// Benefit domain errors
	case errors.Is(err, benefit.ErrBenefitNotFound):
		NotFound(w, "Benefit not found")
	case errors.Is(err, benefit.ErrBenefitAlreadyDecided):
		ValidationError(w, map[string]string{"status": err.Error()})

	// Audit trail
	case errors.Is(err, audit.ErrJustificationRequired):
		ValidationError(w, map[string]string{"justification": err.Error()})

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
