package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Engine tuning (fee defaults, retries, breaker)
// lives in the file named by EngineConfigPath; see LoadEngineConfig.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBDriver         string // "mysql" or "sqlite"
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	SQLitePath       string // database file when DBDriver is "sqlite"
	JWTSecret        string // secret used to verify JWTs
	AccessTTLMin     int    // lifetime of development tokens in minutes
	LogLevel         string // debug, info, warn, error
	LogFormat        string // json or text
	EngineConfigPath string // optional YAML file for the engine
	RabbitURL        string // AMQP broker URL; empty disables activity messages
	ActivityLogDir   string // directory of the activity log written by the consumer
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  MySQL credentials
// are only required when DB_DRIVER is mysql.
func Load() Config {
	cfg := Config{
		Env:              must("APP_ENV"),                        // environment (dev/test/prod)
		Port:             must("APP_PORT"),                       // port to bind the HTTP server
		DBDriver:         envStr("DB_DRIVER", "mysql"),           // storage dialect
		DBPass:           os.Getenv("DB_PASS"),                   // database password (empty allowed)
		SQLitePath:       envStr("SQLITE_PATH", "data/venue.db"), // local database file
		JWTSecret:        must("JWT_SECRET"),                     // secret used for verifying JWTs
		AccessTTLMin:     envInt("ACCESS_TOKEN_TTL_MIN", 60),     // dev token TTL in minutes
		LogLevel:         envStr("LOG_LEVEL", "info"),            // log verbosity
		LogFormat:        envStr("LOG_FORMAT", "json"),           // log encoding
		EngineConfigPath: os.Getenv("ENGINE_CONFIG"),             // engine YAML (optional)
		RabbitURL:        rabbitURL(),                            // broker URL
		ActivityLogDir:   envStr("ACTIVITY_LOG_DIR", "logs"),     // consumer output directory
	}
	switch cfg.DBDriver {
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case "sqlite":
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	return cfg
}

func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
