package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// Config describes the database connection.
type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LoadConfig reads DB_* variables. The port defaults to the driver's standard port.
func LoadConfig() Config {
	driver := env.GetEnv("DB_DRIVER", DriverMySQL)
	defaultPort := "3306"
	if driver == DriverPostgres {
		defaultPort = "5432"
	}
	return Config{
		Driver:   driver,
		Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
		Port:     env.GetEnv("DB_PORT", defaultPort),
		User:     env.GetEnv("DB_USER", "agendamento"),
		Password: env.GetEnv("DB_PASSWORD", ""),
		Name:     env.GetEnv("DB_NAME", "agendamento"),
		SSLMode:  env.GetEnv("DB_SSLMODE", "disable"),
	}
}

// Dialector builds the GORM dialector for the configured driver.
func (c Config) Dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.Name)
		return mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), nil
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
}

// MigrateURL is the golang-migrate connection string for the configured driver.
func (c Config) MigrateURL() (string, error) {
	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
			c.User, c.Password, c.Host, c.Port, c.Name), nil
	case DriverPostgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
}

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&models.Plan{},
		&models.Tenant{},
		&models.TenantSubscription{},
		&models.TenantIntegration{},
		&models.Service{},
		&models.Appointment{},
		&models.Feedback{},
		&models.Device{},
		&models.PushToken{},
		&models.ChatMessage{},
		&models.ValidationCode{},
		&models.SMSLog{},
		&models.PendingPayment{},
		&models.BillingWebhookEvent{},
	}
}

// SetupDatabase connects with retries, migrates the schema and seeds the plan catalog.
func SetupDatabase() error {
	cfg := LoadConfig()
	dialector, err := cfg.Dialector()
	if err != nil {
		return err
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if env.IsDev() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		logger.L().Warn("failed to connect to database",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	if err := DB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := models.SeedPlans(DB); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}

	logger.L().Info("database ready", zap.String("driver", cfg.Driver), zap.String("host", cfg.Host))
	return nil
}

// GetDB returns the shared connection.
func GetDB() *gorm.DB {
	return DB
}

// SetDB replaces the shared connection. Used by tests and tools.
func SetDB(db *gorm.DB) {
	DB = db
}
