package user

type Role string

const (
	RoleOwner             Role = "owner"              // Full access, including unfreeze
	RolePayrollSpecialist Role = "payroll_specialist" // Prepares and calculates runs
	RolePayrollManager    Role = "payroll_manager"    // First approval step
	RoleFinanceOfficer    Role = "finance_officer"    // Second approval step and lock
	RoleEmployee          Role = "employee"           // No payroll access
	RoleSystem            Role = "system"             // Scheduler and background jobs
)

// Actor is the authenticated principal performing a payroll action.
type Actor struct {
	UserID     string
	EmployeeID *string
	Role       Role
}

const systemActorID = "system"

// SystemActor is used by background jobs that act without a user session.
func SystemActor() Actor {
	return Actor{UserID: systemActorID, Role: RoleSystem}
}

// IsSystem reports whether the actor is the scheduler rather than a person.
func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

func IsValidRole(role Role) bool {
	_, ok := RolePermissions[role]
	return ok
}
