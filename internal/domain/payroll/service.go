package payroll

import (
	"context"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
)

type PayrollService interface {
	// Run lifecycle
	Initiate(ctx context.Context, req InitiateRunRequest) (PayrollRunResponse, error)
	GetRun(ctx context.Context, id string) (PayrollRunResponse, error)
	ListRuns(ctx context.Context, filter RunFilter) (ListPayrollRunResponse, error)
	ReviewPeriod(ctx context.Context, req ReviewPeriodRequest) (ReviewPeriodResult, error)
	EligibleEmployees(ctx context.Context, runID string) (EligibleEmployeesResponse, error)
	Calculate(ctx context.Context, runID string) (CalculationSummary, error)

	// Approval chain
	Submit(ctx context.Context, runID string) (PayrollRunResponse, error)
	ManagerReview(ctx context.Context, req ReviewDecisionRequest) (PayrollRunResponse, error)
	FinanceReview(ctx context.Context, req ReviewDecisionRequest) (PayrollRunResponse, error)
	Lock(ctx context.Context, runID string) (PayrollRunResponse, error)
	Unfreeze(ctx context.Context, req UnfreezeRunRequest) (PayrollRunResponse, error)
	ListAuditTrail(ctx context.Context, runID string) ([]audit.CycleAdjustmentResponse, error)

	// Payslips
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	AdjustPayslip(ctx context.Context, req AdjustPayslipRequest) (PayslipResponse, error)
	RenderPayslipPDF(ctx context.Context, id string) (PayslipDocument, error)

	// Anomalies
	ListAnomalies(ctx context.Context, runID string, includeResolved bool) ([]AnomalyResponse, error)
	ResolveAnomalies(ctx context.Context, req ResolveAnomaliesRequest) ([]AnomalyResponse, error)
}
