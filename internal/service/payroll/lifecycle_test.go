package payroll

import (
	"context"
	"strings"
	"testing"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayrollService_Initiate_Success(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{Period: "Oct-2026"})
	require.NoError(t, err)

	assert.Equal(t, string(payroll.RunStatusDraft), run.Status)
	assert.Equal(t, 10, run.PeriodMonth)
	assert.Equal(t, 2026, run.PeriodYear)
	assert.Equal(t, "user-payroll_specialist", run.SpecialistID)
	assert.True(t, run.TotalNetPay.IsZero())
}

func TestPayrollService_Initiate_DuplicatePeriod(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	require.NoError(t, err)

	_, err = env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	assert.ErrorIs(t, err, payroll.ErrRunAlreadyExists)
}

func TestPayrollService_Initiate_InvalidPeriod(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 13, PeriodYear: 2026})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestPayrollService_Initiate_Forbidden(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Initiate(financeCtx, payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = env.svc.Initiate(context.Background(), payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	assert.ErrorIs(t, err, user.ErrActorRequired)
}

func TestPayrollService_ReviewPeriod_SnapshotIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "5000")
	env.addEmployee("EMP002", "4000", func(e *employee.Employee) { e.BankAccountNumber = "" })

	run, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	require.NoError(t, err)

	first, err := env.svc.ReviewPeriod(specialistCtx, payroll.ReviewPeriodRequest{RunID: run.ID, Action: payroll.PeriodReviewApprove})
	require.NoError(t, err)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, 2, first.Snapshot.Processed)
	assert.Equal(t, 2, first.Snapshot.Created)
	assert.Equal(t, 1, first.Snapshot.MissingBankCount)

	second, err := env.svc.ReviewPeriod(specialistCtx, payroll.ReviewPeriodRequest{RunID: run.ID, Action: payroll.PeriodReviewApprove})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Snapshot.Created)

	eligible, err := env.svc.EligibleEmployees(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.Len(t, eligible.Details, 2)
	assert.Len(t, eligible.Payslips, 2)

	got, err := env.svc.GetRun(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusUnderReview), got.Status)
	assert.Equal(t, 2, got.EmployeeCount)
	assert.Equal(t, 1, got.ExceptionCount)
}

func TestPayrollService_ReviewPeriod_EmployeeFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "5000")
	env.store.FailEmployeeListing(assert.AnError)

	run, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	require.NoError(t, err)

	result, err := env.svc.ReviewPeriod(specialistCtx, payroll.ReviewPeriodRequest{RunID: run.ID, Action: payroll.PeriodReviewApprove})
	require.NoError(t, err)
	require.NotNil(t, result.Snapshot.FetchError)
	assert.Equal(t, 0, result.Snapshot.Processed)

	got, err := env.svc.GetRun(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusUnderReview), got.Status)
}

func TestPayrollService_ReviewPeriod_Reject(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	require.NoError(t, err)

	_, err = env.svc.ReviewPeriod(specialistCtx, payroll.ReviewPeriodRequest{RunID: run.ID, Action: payroll.PeriodReviewReject})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("rejection_reason"))

	result, err := env.svc.ReviewPeriod(specialistCtx, payroll.ReviewPeriodRequest{
		RunID:           run.ID,
		Action:          payroll.PeriodReviewReject,
		RejectionReason: strPtr("attendance data incomplete"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Run)
	assert.Equal(t, string(payroll.RunStatusRejected), result.Run.Status)

	trail, err := env.svc.ListAuditTrail(specialistCtx, run.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, string(audit.ActionRunRejection), trail[0].ActionType)

	anomalies, err := env.svc.ListAnomalies(specialistCtx, run.ID, false)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, string(payroll.AnomalyTypeRunRejected), anomalies[0].Type)

	// A rejected period can be approved again
	_, err = env.svc.ReviewPeriod(specialistCtx, payroll.ReviewPeriodRequest{RunID: run.ID, Action: payroll.PeriodReviewApprove})
	assert.NoError(t, err)
}

func TestPayrollService_Calculate_RequiresApprovedPeriod(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 10, PeriodYear: 2026})
	require.NoError(t, err)

	_, err = env.svc.Calculate(specialistCtx, run.ID)
	var terr *payroll.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, payroll.RunStatusDraft, terr.Current)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestPayrollService_ApprovalChain_LockOnlyAfterBothApprovals(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "5000")
	run, _ := env.calculatedRun(t)

	_, err := env.svc.Lock(financeCtx, run.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	_, err = env.svc.Submit(specialistCtx, run.ID)
	require.NoError(t, err)

	_, err = env.svc.Lock(financeCtx, run.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	// Finance cannot approve before the manager
	_, err = env.svc.FinanceReview(financeCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionApproved})
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	_, err = env.svc.ManagerReview(managerCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionApproved})
	require.NoError(t, err)

	_, err = env.svc.Lock(financeCtx, run.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	_, err = env.svc.FinanceReview(financeCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionApproved})
	require.NoError(t, err)

	locked, err := env.svc.Lock(financeCtx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusLocked), locked.Status)
	assert.True(t, locked.Locked)
	assert.Equal(t, "user-payroll_manager", *locked.ManagerID)
	assert.Equal(t, "user-finance_officer", *locked.FinanceID)

	eligible, err := env.svc.EligibleEmployees(financeCtx, run.ID)
	require.NoError(t, err)
	for _, p := range eligible.Payslips {
		assert.Equal(t, string(payroll.PaymentStatusApproved), p.PaymentStatus)
	}
}

func TestPayrollService_ApprovalChain_RejectSendsBackForRework(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "5000")
	run, _ := env.calculatedRun(t)

	_, err := env.svc.Submit(specialistCtx, run.ID)
	require.NoError(t, err)

	_, err = env.svc.ManagerReview(managerCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionRejected})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("comment"))

	rejected, err := env.svc.ManagerReview(managerCtx, payroll.ReviewDecisionRequest{
		RunID:   run.ID,
		Status:  payroll.DecisionRejected,
		Comment: strPtr("overtime for EMP001 looks wrong"),
	})
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusNeedsRework), rejected.Status)

	trail, err := env.svc.ListAuditTrail(managerCtx, run.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, string(payroll.RunStatusSubmittedForApproval), trail[0].FromStatus)
	assert.Equal(t, string(payroll.RunStatusNeedsRework), trail[0].ToStatus)

	// Rework can be recalculated and resubmitted, which clears the old decisions
	_, err = env.svc.Calculate(specialistCtx, run.ID)
	require.NoError(t, err)
	resubmitted, err := env.svc.Submit(specialistCtx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, resubmitted.ManagerID)
	assert.Equal(t, string(payroll.RunStatusSubmittedForApproval), resubmitted.Status)
}

func TestPayrollService_ReviewRoles(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "5000")
	run, _ := env.calculatedRun(t)

	_, err := env.svc.Submit(specialistCtx, run.ID)
	require.NoError(t, err)

	_, err = env.svc.ManagerReview(financeCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionApproved})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = env.svc.FinanceReview(managerCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionApproved})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func lockedRun(t *testing.T, env *testEnv) payroll.PayrollRunResponse {
	t.Helper()
	run, _ := env.calculatedRun(t)
	_, err := env.svc.Submit(specialistCtx, run.ID)
	require.NoError(t, err)
	_, err = env.svc.ManagerReview(managerCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionApproved})
	require.NoError(t, err)
	_, err = env.svc.FinanceReview(financeCtx, payroll.ReviewDecisionRequest{RunID: run.ID, Status: payroll.DecisionApproved})
	require.NoError(t, err)
	_, err = env.svc.Lock(financeCtx, run.ID)
	require.NoError(t, err)
	return run
}

func TestPayrollService_Unfreeze(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee("EMP001", "5000")
	run := lockedRun(t, env)

	_, err := env.svc.Unfreeze(ownerCtx, payroll.UnfreezeRunRequest{RunID: run.ID, Justification: "typo"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("justification"))

	_, err = env.svc.Unfreeze(specialistCtx, payroll.UnfreezeRunRequest{RunID: run.ID, Justification: strings.Repeat("x", 30)})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	trail, err := env.svc.ListAuditTrail(ownerCtx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, trail)

	justification := "bank rejected transfer for EMP001, account number corrected"
	unfrozen, err := env.svc.Unfreeze(ownerCtx, payroll.UnfreezeRunRequest{RunID: run.ID, Justification: justification})
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusUnfrozen), unfrozen.Status)
	assert.False(t, unfrozen.Locked)

	trail, err = env.svc.ListAuditTrail(ownerCtx, run.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, string(audit.ActionUnfreeze), trail[0].ActionType)
	assert.Equal(t, justification, trail[0].Justification)
	assert.Equal(t, string(payroll.RunStatusLocked), trail[0].FromStatus)
	assert.Equal(t, string(payroll.RunStatusUnfrozen), trail[0].ToStatus)
	assert.Equal(t, "user-owner", trail[0].ActorID)

	// Unfreezing twice is a conflict and writes nothing
	_, err = env.svc.Unfreeze(ownerCtx, payroll.UnfreezeRunRequest{RunID: run.ID, Justification: justification})
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
	trail, err = env.svc.ListAuditTrail(ownerCtx, run.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestPayrollService_ListRuns(t *testing.T) {
	env := newTestEnv(t)
	for month := 1; month <= 3; month++ {
		_, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: month, PeriodYear: 2026})
		require.NoError(t, err)
	}
	_, err := env.svc.Initiate(specialistCtx, payroll.InitiateRunRequest{PeriodMonth: 12, PeriodYear: 2025})
	require.NoError(t, err)

	year := 2026
	result, err := env.svc.ListRuns(financeCtx, payroll.RunFilter{PeriodYear: &year, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.Len(t, result.Data, 2)
}

func TestPayrollService_ListRuns_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	status := "paid"
	_, err := env.svc.ListRuns(financeCtx, payroll.RunFilter{Status: &status})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("status"))

	status = string(payroll.RunStatusDraft)
	_, err = env.svc.ListRuns(financeCtx, payroll.RunFilter{Status: &status})
	assert.NoError(t, err)
}

func TestPayrollService_GetRun_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetRun(specialistCtx, "missing")
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)
}
