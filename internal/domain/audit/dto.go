package audit

import (
	"time"

	"github.com/shopspring/decimal"
)

type CycleAdjustmentResponse struct {
	ID            string           `json:"id"`
	ActionType    string           `json:"action_type"`
	PayrollRunID  string           `json:"payroll_run_id"`
	PayslipID     *string          `json:"payslip_id,omitempty"`
	Justification string           `json:"justification"`
	FromStatus    string           `json:"from_status"`
	ToStatus      string           `json:"to_status"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	ActorID       string           `json:"actor_id"`
	ActorRole     string           `json:"actor_role"`
	CreatedAt     string           `json:"created_at"`
}

func ToResponse(c CycleAdjustment) CycleAdjustmentResponse {
	return CycleAdjustmentResponse{
		ID:            c.ID,
		ActionType:    string(c.ActionType),
		PayrollRunID:  c.PayrollRunID,
		PayslipID:     c.PayslipID,
		Justification: c.Justification,
		FromStatus:    c.FromStatus,
		ToStatus:      c.ToStatus,
		Amount:        c.Amount,
		ActorID:       c.ActorID,
		ActorRole:     c.ActorRole,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
}
