package user

import "fmt"

type Permission string

const (
	// Payroll runs
	PermissionPayrollView           Permission = "payroll.view"
	PermissionPayrollInitiate       Permission = "payroll.initiate"
	PermissionPayrollReviewPeriod   Permission = "payroll.review_period"
	PermissionPayrollCalculate      Permission = "payroll.calculate"
	PermissionPayrollAdjust         Permission = "payroll.adjust"
	PermissionPayrollSubmit         Permission = "payroll.submit"
	PermissionPayrollManagerReview  Permission = "payroll.manager_review"
	PermissionPayrollFinanceReview  Permission = "payroll.finance_review"
	PermissionPayrollLock           Permission = "payroll.lock"
	PermissionPayrollUnfreeze       Permission = "payroll.unfreeze"
	PermissionPayrollResolveAnomaly Permission = "payroll.resolve_anomaly"

	// Benefits
	PermissionBenefitView   Permission = "benefit.view"
	PermissionBenefitManage Permission = "benefit.manage"
	PermissionBenefitReview Permission = "benefit.review"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionPayrollView,
		PermissionPayrollInitiate,
		PermissionPayrollReviewPeriod,
		PermissionPayrollCalculate,
		PermissionPayrollAdjust,
		PermissionPayrollSubmit,
		PermissionPayrollManagerReview,
		PermissionPayrollFinanceReview,
		PermissionPayrollLock,
		PermissionPayrollUnfreeze,
		PermissionPayrollResolveAnomaly,
		PermissionBenefitView,
		PermissionBenefitManage,
		PermissionBenefitReview,
	},
	RolePayrollSpecialist: {
		PermissionPayrollView,
		PermissionPayrollInitiate,
		PermissionPayrollReviewPeriod,
		PermissionPayrollCalculate,
		PermissionPayrollAdjust,
		PermissionPayrollSubmit,
		PermissionPayrollResolveAnomaly,
		PermissionBenefitView,
		PermissionBenefitManage,
		PermissionBenefitReview,
	},
	RolePayrollManager: {
		PermissionPayrollView,
		PermissionPayrollAdjust,
		PermissionPayrollManagerReview,
		PermissionPayrollResolveAnomaly,
		PermissionBenefitView,
		PermissionBenefitReview,
	},
	RoleFinanceOfficer: {
		PermissionPayrollView,
		PermissionPayrollFinanceReview,
		PermissionPayrollLock,
		PermissionBenefitView,
	},
	RoleEmployee: {},
	RoleSystem: {
		PermissionPayrollView,
		PermissionPayrollInitiate,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Authorize is the single policy check every payroll operation goes through.
func Authorize(actor Actor, permission Permission) error {
	if actor.UserID == "" {
		return ErrActorRequired
	}
	if !HasPermission(actor.Role, permission) {
		return fmt.Errorf("%w: role '%s' lacks '%s'", ErrInsufficientPermissions, actor.Role, permission)
	}
	return nil
}
