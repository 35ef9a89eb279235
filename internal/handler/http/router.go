package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/payroll-engine-go/internal/config"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	cfg *config.Config,
	JWTService jwt.Service,
	payrollHandler PayrollHandler,
	benefitHandler BenefitHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.Storage.Type == "local" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.BasePath)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/runs", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.ListRuns)
					r.With(middleware.RequirePermission(user.PermissionPayrollInitiate)).Post("/", payrollHandler.InitiateRun)

					r.Route("/{id}", func(r chi.Router) {
						r.Group(func(r chi.Router) {
							r.Use(middleware.RequirePermission(user.PermissionPayrollView))
							r.Get("/", payrollHandler.GetRun)
							r.Get("/employees", payrollHandler.EligibleEmployees)
							r.Get("/anomalies", payrollHandler.ListAnomalies)
							r.Get("/audit", payrollHandler.AuditTrail)
						})

						r.With(middleware.RequirePermission(user.PermissionPayrollReviewPeriod)).Patch("/review", payrollHandler.ReviewPeriod)
						r.With(middleware.RequirePermission(user.PermissionPayrollCalculate)).Post("/calculate", payrollHandler.Calculate)
						r.With(middleware.RequirePermission(user.PermissionPayrollSubmit)).Patch("/submit", payrollHandler.Submit)
						r.With(middleware.RequirePermission(user.PermissionPayrollManagerReview)).Patch("/manager-review", payrollHandler.ManagerReview)
						r.With(middleware.RequirePermission(user.PermissionPayrollFinanceReview)).Patch("/finance-review", payrollHandler.FinanceReview)
						r.With(middleware.RequirePermission(user.PermissionPayrollLock)).Patch("/lock", payrollHandler.Lock)
						r.With(middleware.RequirePermission(user.PermissionPayrollUnfreeze)).Patch("/unfreeze", payrollHandler.Unfreeze)
						r.With(middleware.RequirePermission(user.PermissionPayrollResolveAnomaly)).Patch("/anomalies/resolve", payrollHandler.ResolveAnomalies)
					})
				})

				r.Route("/payslips/{id}", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.GetPayslip)
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/pdf", payrollHandler.DownloadPayslip)
					r.With(middleware.RequirePermission(user.PermissionPayrollAdjust)).Patch("/adjust", payrollHandler.AdjustPayslip)
				})
			})

			r.Route("/benefits", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionBenefitView)).Get("/", benefitHandler.List)
				r.With(middleware.RequirePermission(user.PermissionBenefitManage)).Post("/", benefitHandler.Create)
				r.With(middleware.RequirePermission(user.PermissionBenefitView)).Get("/{id}", benefitHandler.Get)
				r.With(middleware.RequirePermission(user.PermissionBenefitReview)).Patch("/{id}/review", benefitHandler.Review)
			})
		})
	})

	return r
}
