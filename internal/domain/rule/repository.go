package rule

import "context"

// RuleRepository exposes the tax and insurance tables maintained by the
// configuration subsystem. Payroll never writes them.
type RuleRepository interface {
	ListTaxBrackets(ctx context.Context) ([]TaxBracket, error)
	ListInsuranceBrackets(ctx context.Context) ([]InsuranceBracket, error)
}
