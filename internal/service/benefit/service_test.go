package benefit

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (benefit.BenefitService, string) {
	t.Helper()
	store := memory.NewStore()
	empID := uuid.NewString()
	base := decimal.NewFromInt(5000)
	store.PutEmployee(employee.Employee{
		ID:               empID,
		EmployeeCode:     "EMP001",
		FullName:         "Dewi Lestari",
		HireDate:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: employee.EmploymentStatusActive,
		BaseSalary:       &base,
	})
	return NewBenefitService(store.Benefits(), store.Employees()), empID
}

func ctxAs(role user.Role) context.Context {
	return user.NewContext(context.Background(), user.Actor{UserID: "user-" + string(role), Role: role})
}

func TestBenefitService_Create(t *testing.T) {
	svc, empID := setup(t)
	specialist := ctxAs(user.RolePayrollSpecialist)

	t.Run("success", func(t *testing.T) {
		desc := "  Joining bonus  "
		resp, err := svc.Create(specialist, benefit.CreateBenefitRequest{
			EmployeeID:  empID,
			Kind:        string(benefit.KindSigningBonus),
			Amount:      decimal.NewFromInt(700),
			PeriodMonth: 10,
			PeriodYear:  2026,
			Description: &desc,
		})
		require.NoError(t, err)
		assert.Equal(t, string(benefit.StatusPending), resp.Status)
		assert.Equal(t, "user-payroll_specialist", resp.CreatedBy)
		require.NotNil(t, resp.Description)
		assert.Equal(t, "Joining bonus", *resp.Description)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(specialist, benefit.CreateBenefitRequest{
			EmployeeID:  "not-a-uuid",
			Kind:        "gift",
			Amount:      decimal.Zero,
			PeriodMonth: 13,
			PeriodYear:  2026,
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has("employee_id"))
		assert.True(t, verrs.Has("kind"))
		assert.True(t, verrs.Has("amount"))
		assert.True(t, verrs.Has("period_month"))
	})

	t.Run("unknown employee", func(t *testing.T) {
		_, err := svc.Create(specialist, benefit.CreateBenefitRequest{
			EmployeeID:  uuid.NewString(),
			Kind:        string(benefit.KindTerminationBenefit),
			Amount:      decimal.NewFromInt(100),
			PeriodMonth: 10,
			PeriodYear:  2026,
		})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("finance cannot create", func(t *testing.T) {
		_, err := svc.Create(ctxAs(user.RoleFinanceOfficer), benefit.CreateBenefitRequest{})
		assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
	})
}

func TestBenefitService_Review(t *testing.T) {
	svc, empID := setup(t)
	specialist := ctxAs(user.RolePayrollSpecialist)
	manager := ctxAs(user.RolePayrollManager)

	created, err := svc.Create(specialist, benefit.CreateBenefitRequest{
		EmployeeID:  empID,
		Kind:        string(benefit.KindSigningBonus),
		Amount:      decimal.NewFromInt(700),
		PeriodMonth: 10,
		PeriodYear:  2026,
	})
	require.NoError(t, err)

	t.Run("amendment needs a note", func(t *testing.T) {
		amount := decimal.NewFromInt(500)
		_, err := svc.Review(manager, benefit.ReviewBenefitRequest{ID: created.ID, Status: string(benefit.StatusApproved), Amount: &amount})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has("note"))
	})

	t.Run("approve with amended amount", func(t *testing.T) {
		amount := decimal.NewFromInt(500)
		note := "Capped by policy"
		resp, err := svc.Review(manager, benefit.ReviewBenefitRequest{ID: created.ID, Status: string(benefit.StatusApproved), Amount: &amount, Note: &note})
		require.NoError(t, err)
		assert.Equal(t, string(benefit.StatusApproved), resp.Status)
		assert.True(t, resp.Amount.Equal(amount))
		require.NotNil(t, resp.OriginalAmount)
		assert.True(t, resp.OriginalAmount.Equal(decimal.NewFromInt(700)))
		require.NotNil(t, resp.ReviewedBy)
		assert.Equal(t, "user-payroll_manager", *resp.ReviewedBy)
		assert.NotNil(t, resp.ReviewedAt)
	})

	t.Run("decided benefits are final", func(t *testing.T) {
		_, err := svc.Review(manager, benefit.ReviewBenefitRequest{ID: created.ID, Status: string(benefit.StatusRejected)})
		assert.ErrorIs(t, err, benefit.ErrBenefitAlreadyDecided)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Review(manager, benefit.ReviewBenefitRequest{ID: "missing", Status: string(benefit.StatusRejected)})
		assert.ErrorIs(t, err, benefit.ErrBenefitNotFound)
	})
}

func TestBenefitService_List(t *testing.T) {
	svc, empID := setup(t)
	specialist := ctxAs(user.RolePayrollSpecialist)

	for _, kind := range []benefit.Kind{benefit.KindSigningBonus, benefit.KindTerminationBenefit} {
		_, err := svc.Create(specialist, benefit.CreateBenefitRequest{
			EmployeeID:  empID,
			Kind:        string(kind),
			Amount:      decimal.NewFromInt(100),
			PeriodMonth: 10,
			PeriodYear:  2026,
		})
		require.NoError(t, err)
	}

	kind := string(benefit.KindTerminationBenefit)
	resp, err := svc.List(ctxAs(user.RoleFinanceOfficer), benefit.BenefitFilter{Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)

	_, err = svc.List(ctxAs(user.RoleEmployee), benefit.BenefitFilter{})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}
