package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Storage  StorageConfig
	Payroll  PayrollConfig
	CORS     CORSConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string
	Port     int
	Env      string
	LogLevel string
	Store    string // "postgres" or "memory"
}

type StorageConfig struct {
	Type     string
	BasePath string
	BaseURL  string
}

// PayrollConfig holds calculation constants and scheduler settings
type PayrollConfig struct {
	MinimumWage              decimal.Decimal
	WorkingDaysPerMonth      int
	HoursPerDay              int
	OvertimeMultiplier       decimal.Decimal
	WorkingDaysMode          string
	CalculationWorkers       int
	UnfreezeMinJustification int
	AutoInitiateEnabled      bool
	AutoInitiateDay          int
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	dbMinConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: dbMaxConns,
		MinConns: dbMinConns,
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Name:     getEnv("APP_NAME", "payroll-engine"),
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Store:    getEnv("APP_STORE", StorePostgres),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Storage configuration
	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	// Payroll configuration
	config.Payroll, err = loadPayrollConfig()
	if err != nil {
		return nil, err
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadPayrollConfig() (PayrollConfig, error) {
	minimumWage, err := getEnvDecimal("PAYROLL_MINIMUM_WAGE", "2000")
	if err != nil {
		return PayrollConfig{}, err
	}
	overtime, err := getEnvDecimal("PAYROLL_OVERTIME_MULTIPLIER", "1.5")
	if err != nil {
		return PayrollConfig{}, err
	}
	workingDays, err := getEnvInt("PAYROLL_WORKING_DAYS_PER_MONTH", 22)
	if err != nil {
		return PayrollConfig{}, err
	}
	hoursPerDay, err := getEnvInt("PAYROLL_HOURS_PER_DAY", 8)
	if err != nil {
		return PayrollConfig{}, err
	}
	workers, err := getEnvInt("PAYROLL_CALCULATION_WORKERS", 4)
	if err != nil {
		return PayrollConfig{}, err
	}
	minJustification, err := getEnvInt("PAYROLL_UNFREEZE_MIN_JUSTIFICATION", 20)
	if err != nil {
		return PayrollConfig{}, err
	}
	autoDay, err := getEnvInt("PAYROLL_AUTO_INITIATE_DAY", 1)
	if err != nil {
		return PayrollConfig{}, err
	}
	autoEnabled, err := strconv.ParseBool(getEnv("PAYROLL_AUTO_INITIATE_ENABLED", "true"))
	if err != nil {
		return PayrollConfig{}, fmt.Errorf("invalid PAYROLL_AUTO_INITIATE_ENABLED: %w", err)
	}

	return PayrollConfig{
		MinimumWage:              minimumWage,
		WorkingDaysPerMonth:      workingDays,
		HoursPerDay:              hoursPerDay,
		OvertimeMultiplier:       overtime,
		WorkingDaysMode:          getEnv("PAYROLL_WORKING_DAYS_MODE", "ratio"),
		CalculationWorkers:       workers,
		UnfreezeMinJustification: minJustification,
		AutoInitiateEnabled:      autoEnabled,
		AutoInitiateDay:          autoDay,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Store != StorePostgres && c.App.Store != StoreMemory {
		return fmt.Errorf("APP_STORE must be '%s' or '%s'", StorePostgres, StoreMemory)
	}
	if c.App.Store == StorePostgres && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.WorkingDaysMode != "ratio" && c.Payroll.WorkingDaysMode != "calendar" {
		return fmt.Errorf("PAYROLL_WORKING_DAYS_MODE must be 'ratio' or 'calendar'")
	}
	if c.Payroll.WorkingDaysPerMonth < 1 || c.Payroll.HoursPerDay < 1 {
		return fmt.Errorf("PAYROLL_WORKING_DAYS_PER_MONTH and PAYROLL_HOURS_PER_DAY must be positive")
	}
	if c.Payroll.MinimumWage.IsNegative() {
		return fmt.Errorf("PAYROLL_MINIMUM_WAGE must not be negative")
	}
	if c.Payroll.AutoInitiateDay < 1 || c.Payroll.AutoInitiateDay > 28 {
		return fmt.Errorf("PAYROLL_AUTO_INITIATE_DAY must be between 1 and 28")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
