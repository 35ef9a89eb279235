package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/config"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/payroll-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/storage"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	benefitService "github.com/cmlabs-hris/payroll-engine-go/internal/service/benefit"
	payrollService "github.com/cmlabs-hris/payroll-engine-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tx, repos, benefitRepos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize store: ", err)
	}
	defer closeStore()

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	case "none":
		// payslip PDFs are streamed only
	default:
		log.Fatal("Unsupported storage types: ", cfg.Storage.Type)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	payrollSvc := payrollService.NewPayrollService(tx, repos, fileStorage, payrollService.Config{
		MinimumWage:              cfg.Payroll.MinimumWage,
		WorkingDaysPerMonth:      cfg.Payroll.WorkingDaysPerMonth,
		HoursPerDay:              cfg.Payroll.HoursPerDay,
		OvertimeMultiplier:       cfg.Payroll.OvertimeMultiplier,
		WorkingDaysMode:          cfg.Payroll.WorkingDaysMode,
		CalculationWorkers:       cfg.Payroll.CalculationWorkers,
		UnfreezeMinJustification: cfg.Payroll.UnfreezeMinJustification,
	})
	benefitSvc := benefitService.NewBenefitService(benefitRepos, repos.Employees)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)
	benefitHandler := appHTTP.NewBenefitHandler(benefitSvc)

	router := appHTTP.NewRouter(
		cfg,
		JWTService,
		payrollHandler,
		benefitHandler,
	)

	scheduler := cron.NewScheduler(ctx)
	if cfg.Payroll.AutoInitiateEnabled {
		cron.NewPayrollJobs(payrollSvc, cfg.Payroll.AutoInitiateDay).RegisterJobs(scheduler)
	}
	scheduler.Start()

	if cfg.App.Store == config.StoreMemory && cfg.App.Env == "development" {
		printDevTokens(JWTService)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", "http://localhost"+server.Addr, "store", cfg.App.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
}

func openStore(ctx context.Context, cfg *config.Config) (payroll.Transactor, payrollService.Repositories, benefit.BenefitRepository, func(), error) {
	if cfg.App.Store == config.StoreMemory {
		store := memory.NewStore()
		seeded := fixtures.SeedDemo(store, time.Now().UTC())
		slog.Info("Using in-memory store with demo data", "employees", len(seeded.EmployeeIDs))

		return store, payrollService.Repositories{
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
		}, store.Benefits(), func() {}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return nil, payrollService.Repositories{}, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	benefitRepo := postgresql.NewBenefitRepository(db)
	return postgresql.NewTransactor(db), payrollService.Repositories{
		Runs:      postgresql.NewPayrollRunRepository(db),
		Details:   postgresql.NewPayrollDetailRepository(db),
		Payslips:  postgresql.NewPayslipRepository(db),
		Anomalies: postgresql.NewAnomalyRepository(db),
		Inputs:    postgresql.NewInputRepository(db),
		Audit:     postgresql.NewCycleAdjustmentRepository(db),
		Employees: postgresql.NewEmployeeRepository(db),
		Benefits:  benefitRepo,
		Penalties: postgresql.NewPenaltyRepository(db),
		Rules:     postgresql.NewRuleRepository(db),
	}, benefitRepo, db.Close, nil
}

// printDevTokens logs one access token per role for local testing.
func printDevTokens(JWTService jwt.Service) {
	roles := []user.Role{
		user.RolePayrollSpecialist,
		user.RolePayrollManager,
		user.RoleFinanceOfficer,
		user.RoleOwner,
	}
	for _, role := range roles {
		token, _, err := JWTService.GenerateAccessToken("dev-"+string(role), nil, role)
		if err != nil {
			slog.Error("Failed to generate dev token", "role", role, "error", err)
			continue
		}
		slog.Info("Dev access token", "role", role, "token", token)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
