package fixtures

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/rule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

// ==========================================
// SEEDER
// ==========================================

// Seeder is the write side of an in-memory store.
type Seeder interface {
	PutEmployee(e employee.Employee)
	AddComponent(c payroll.EmployeePayrollComponent)
	SetTaxBrackets(brackets []rule.TaxBracket)
	SetInsuranceBrackets(brackets []rule.InsuranceBracket)
}

// SeededDataIDs holds employee IDs by employee code
type SeededDataIDs struct {
	EmployeeIDs map[string]string // e.g., "EMP001" -> "uuid"
}

// SeedDemo loads a small workforce with tax and insurance rules so a
// payroll run can be calculated end to end without a database.
func SeedDemo(s Seeder, now time.Time) *SeededDataIDs {
	ids := &SeededDataIDs{EmployeeIDs: make(map[string]string)}

	s.SetTaxBrackets(DefaultTaxBrackets(now))
	s.SetInsuranceBrackets(DefaultInsuranceBrackets(now))

	for _, e := range DefaultEmployees(now) {
		s.PutEmployee(e)
		ids.EmployeeIDs[e.EmployeeCode] = e.ID
	}

	for _, c := range defaultComponents {
		id, ok := ids.EmployeeIDs[c.employeeCode]
		if !ok {
			continue
		}
		s.AddComponent(payroll.EmployeePayrollComponent{
			ID:            uuid.NewString(),
			EmployeeID:    id,
			ComponentName: c.name,
			ComponentType: c.componentType,
			Amount:        decimal.RequireFromString(c.amount),
			EffectiveDate: time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	return ids
}

// ==========================================
// TAX & INSURANCE
// ==========================================

func DefaultTaxBrackets(now time.Time) []rule.TaxBracket {
	return []rule.TaxBracket{
		{ID: uuid.NewString(), Name: "Band 1", LowerBound: decimal.Zero, UpperBound: decPtr("5000"), Rate: decimal.RequireFromString("0.05"), CreatedAt: now},
		{ID: uuid.NewString(), Name: "Band 2", LowerBound: decimal.NewFromInt(5000), UpperBound: decPtr("15000"), Rate: decimal.RequireFromString("0.15"), CreatedAt: now},
		{ID: uuid.NewString(), Name: "Band 3", LowerBound: decimal.NewFromInt(15000), Rate: decimal.RequireFromString("0.25"), CreatedAt: now},
	}
}

func DefaultInsuranceBrackets(now time.Time) []rule.InsuranceBracket {
	return []rule.InsuranceBracket{
		{
			ID:                 uuid.NewString(),
			Name:               "Standard",
			MinSalary:          decimal.Zero,
			EmployeeRate:       decimal.RequireFromString("0.04"),
			EmployerRate:       decimal.RequireFromString("0.08"),
			MaxInsurableSalary: decPtr("12000"),
			CreatedAt:          now,
		},
	}
}

// ==========================================
// EMPLOYEES
// ==========================================

func DefaultEmployees(now time.Time) []employee.Employee {
	hired := time.Date(now.Year()-2, time.March, 1, 0, 0, 0, 0, time.UTC)
	contractEnd := time.Date(now.Year(), now.Month(), 10, 0, 0, 0, 0, time.UTC)

	return []employee.Employee{
		{
			ID:                    uuid.NewString(),
			EmployeeCode:          "EMP001",
			FullName:              "Nadia Putri",
			Email:                 strPtr("nadia@example.com"),
			HireDate:              hired,
			EmploymentType:        employee.EmploymentTypePermanent,
			EmploymentStatus:      employee.EmploymentStatusActive,
			BankName:              "BCA",
			BankAccountHolderName: strPtr("Nadia Putri"),
			BankAccountNumber:     "1234567890",
			BaseSalary:            decPtr("9000"),
			CreatedAt:             now,
			UpdatedAt:             now,
		},
		{
			ID:                    uuid.NewString(),
			EmployeeCode:          "EMP002",
			FullName:              "Bima Santoso",
			HireDate:              hired,
			EmploymentType:        employee.EmploymentTypePermanent,
			EmploymentStatus:      employee.EmploymentStatusActive,
			BankName:              "Mandiri",
			BankAccountHolderName: strPtr("Bima Santoso"),
			BankAccountNumber:     "9876543210",
			BaseSalary:            decPtr("4200"),
			CreatedAt:             now,
			UpdatedAt:             now,
		},
		{
			ID:               uuid.NewString(),
			EmployeeCode:     "EMP003",
			FullName:         "Sari Wulandari",
			HireDate:         time.Date(now.Year(), time.January, 15, 0, 0, 0, 0, time.UTC),
			ContractEndDate:  timePtr(contractEnd),
			EmploymentType:   employee.EmploymentTypeContract,
			EmploymentStatus: employee.EmploymentStatusActive,
			BaseSalary:       decPtr("3000"),
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:                uuid.NewString(),
			EmployeeCode:      "EMP004",
			FullName:          "Rudi Hartono",
			HireDate:          hired,
			EmploymentType:    employee.EmploymentTypePermanent,
			EmploymentStatus:  employee.EmploymentStatusResigned,
			BankName:          "BNI",
			BankAccountNumber: "5555000011",
			BaseSalary:        decPtr("6000"),
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
}

// ==========================================
// PAYROLL COMPONENTS
// ==========================================

type componentSeed struct {
	employeeCode  string
	name          string
	componentType payroll.ComponentType
	amount        string
}

var defaultComponents = []componentSeed{
	{"EMP001", "Transport Allowance", payroll.ComponentTypeAllowance, "500"},
	{"EMP001", "Meal Allowance", payroll.ComponentTypeAllowance, "300"},
	{"EMP002", "Transport Allowance", payroll.ComponentTypeAllowance, "500"},
	{"EMP002", "Cooperative Dues", payroll.ComponentTypeDeduction, "100"},
}
