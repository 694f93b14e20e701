package backend

import (
	"fmt"
	"time"

	"budgetwise/internal/config"
)

// Role selects which binary the object graph is built for.
type Role string

const (
	RoleServer     Role = "server"
	RoleWorker     Role = "worker"
	RoleTrendWatch Role = "trendwatch"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleServer, RoleWorker, RoleTrendWatch:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to wire services.
type Config struct {
	Role Role

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GeminiAPIKey string
	GeminiModel  string

	TrendWindowDays int
	TrendCacheTTL   time.Duration
	TrendCacheSize  int

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config, role Role) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	if !role.IsValid() {
		return Config{}, fmt.Errorf("invalid role: %s", role)
	}

	return Config{
		Role: role,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GeminiAPIKey: appConfig.GeminiAPIKey,
		GeminiModel:  appConfig.GeminiModel,

		TrendWindowDays: appConfig.TrendWindowDays,
		TrendCacheTTL:   appConfig.TrendCacheTTL,
		TrendCacheSize:  500,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", c.Role)
	}
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	// The worker only exists to drain the broker queue.
	if c.Role == RoleWorker && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required for the %s role", c.Role)
	}
	if c.GeminiAPIKey != "" && c.GeminiModel == "" {
		return fmt.Errorf("Gemini model is required when an API key is set")
	}
	return nil
}
