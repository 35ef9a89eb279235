package employee

import "context"

// EmployeeRepository is the read-only view of the employee master data.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}
