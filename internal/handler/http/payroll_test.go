package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/config"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/fixtures"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/memory"
	benefitService "github.com/cmlabs-hris/payroll-engine-go/internal/service/benefit"
	payrollService "github.com/cmlabs-hris/payroll-engine-go/internal/service/payroll"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type testAPI struct {
	router *chi.Mux
	jwt    jwt.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	fixtures.SeedDemo(store, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC))

	payrollSvc := payrollService.NewPayrollService(store, payrollService.Repositories{
		Runs:      store.Runs(),
		Details:   store.Details(),
		Payslips:  store.Payslips(),
		Anomalies: store.Anomalies(),
		Inputs:    store.Inputs(),
		Audit:     store.Audit(),
		Employees: store.Employees(),
		Benefits:  store.Benefits(),
		Penalties: store.Penalties(),
		Rules:     store.Rules(),
	}, nil, payrollService.DefaultConfig())
	benefitSvc := benefitService.NewBenefitService(store.Benefits(), store.Employees())

	cfg := &config.Config{
		App:     config.AppConfig{Name: "payroll-engine", Env: "test"},
		Storage: config.StorageConfig{Type: "none"},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")

	return &testAPI{
		router: NewRouter(cfg, jwtService, NewPayrollHandler(payrollSvc), NewBenefitHandler(benefitSvc)),
		jwt:    jwtService,
	}
}

func (a *testAPI) do(t *testing.T, role user.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, _, err := a.jwt.GenerateAccessToken("user-"+string(role), nil, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.True(t, envelope.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Error.Code
}

func TestRouter_Authentication(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "", http.MethodGet, "/api/v1/payroll/runs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/payroll/runs", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

func TestRouter_InitiateRun(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, user.RoleFinanceOfficer, http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "Oct-2026"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "oct-2026"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var run payroll.PayrollRunResponse
	decodeData(t, rec, &run)
	assert.Equal(t, "Oct-2026", run.Period)
	assert.Equal(t, string(payroll.RunStatusDraft), run.Status)

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodPost, "/api/v1/payroll/runs", map[string]int{"period_month": 10, "period_year": 2026})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodPost, "/api/v1/payroll/runs", map[string]int{"period_month": 13, "period_year": 2026})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodGet, "/api/v1/payroll/runs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodGet, "/api/v1/payroll/runs/"+uuid.Must(uuid.NewV7()).String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodGet, "/api/v1/payroll/payslips/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodGet, "/api/v1/payroll/runs?status=paid", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_FullLifecycle(t *testing.T) {
	api := newTestAPI(t)
	specialist, manager, finance := user.RolePayrollSpecialist, user.RolePayrollManager, user.RoleFinanceOfficer

	rec := api.do(t, specialist, http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "Oct-2026"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var run payroll.PayrollRunResponse
	decodeData(t, rec, &run)
	base := "/api/v1/payroll/runs/" + run.ID

	// Lock straight from draft is a lifecycle conflict
	rec = api.do(t, finance, http.MethodPatch, base+"/lock", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, specialist, http.MethodPost, base+"/calculate", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, specialist, http.MethodPatch, base+"/review", map[string]string{"action": "approve"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, specialist, http.MethodPost, base+"/calculate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary payroll.CalculationSummary
	decodeData(t, rec, &summary)
	assert.Equal(t, string(payroll.RunStatusCalculated), summary.Status)
	assert.Equal(t, 3, summary.Processed)
	assert.True(t, summary.TotalPayout.IsPositive())

	rec = api.do(t, specialist, http.MethodGet, base+"/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var eligible payroll.EligibleEmployeesResponse
	decodeData(t, rec, &eligible)
	require.NotEmpty(t, eligible.Payslips)
	payslipID := eligible.Payslips[0].ID

	rec = api.do(t, specialist, http.MethodPatch, "/api/v1/payroll/payslips/"+payslipID+"/adjust", map[string]string{"type": "bonus", "amount": "-5"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, specialist, http.MethodPatch, "/api/v1/payroll/payslips/"+payslipID+"/adjust", map[string]string{"type": "bonus", "amount": "100"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, specialist, http.MethodPatch, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Specialist cannot approve their own run
	rec = api.do(t, specialist, http.MethodPatch, base+"/manager-review", map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, manager, http.MethodPatch, base+"/manager-review", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, finance, http.MethodPatch, base+"/finance-review", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, finance, http.MethodPatch, base+"/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &run)
	assert.True(t, run.Locked)

	rec = api.do(t, manager, http.MethodPatch, "/api/v1/payroll/payslips/"+payslipID+"/adjust", map[string]string{"type": "bonus", "amount": "10", "reason": "late claim"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, finance, http.MethodGet, "/api/v1/payroll/payslips/"+payslipID+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-oct-2026-")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = api.do(t, user.RoleOwner, http.MethodPatch, base+"/unfreeze", map[string]string{"justification": "too short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, user.RoleOwner, http.MethodPatch, base+"/unfreeze", map[string]string{"justification": "Bank returned two transfers for correction"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, finance, http.MethodGet, base+"/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		ActionType string `json:"action_type"`
	}
	decodeData(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "unfreeze", entries[0].ActionType)
}

func TestRouter_Benefits(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, user.RolePayrollManager, http.MethodPost, "/api/v1/benefits", map[string]any{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, user.RolePayrollSpecialist, http.MethodPost, "/api/v1/benefits", map[string]any{"kind": "gift"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, user.RoleFinanceOfficer, http.MethodGet, "/api/v1/benefits", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
