package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrInvalidEmployeeID = errors.New("malformed employee identifier")
	ErrNoBaseSalary      = errors.New("employee has no base salary configured")
)
