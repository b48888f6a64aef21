package config // package config loads application configuration from environment variables

import (
    "errors"  // errors joins every missing variable into one report
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"

    "github.com/joho/godotenv" // godotenv loads a local .env file when present

    "github.com/iliyamo/cinema-reconciler/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env  string // application environment (e.g. "dev", "prod")
    Port string // HTTP port to listen on

    DBDriver string // mysql (default) or sqlite3
    DBUser   string // database username
    DBPass   string // database password (optional)
    DBHost   string // database host address
    DBPort   string // database port number
    DBName   string // database name
    DBPath   string // sqlite file, ":memory:" when empty

    JWTSecret string // secret used to verify admin JWTs

    AMQPURL          string // broker URL; the item consumer is disabled when empty
    ItemQueue        string // queue crawlers publish items to
    ConsumerPrefetch int    // unacked deliveries per consumer

    ResetOnStart   string // reinit target applied at startup ("" keeps old data)
    AliasTablePath string // optional JSON file replacing the built-in screen alias table

    LogLevel  string // debug, info, warn, error
    LogFormat string // json or console
}

// DefaultItemQueue is the queue name used when ITEM_QUEUE is unset.
const DefaultItemQueue = "jcss.items"

// Load reads a .env file if one exists, then the environment.  Every
// missing required variable is reported in the returned error.
func Load() (Config, error) {
    _ = godotenv.Load() // a missing .env is normal outside local development

    var missing []error
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || v == "" {
            missing = append(missing, errors.New("missing required env var: "+key))
        }
        return v
    }

    cfg := Config{
        Env:              getenv("APP_ENV", "dev"),
        Port:             getenv("APP_PORT", "8080"),
        DBDriver:         strings.ToLower(getenv("DB_DRIVER", database.DriverMySQL)),
        DBPass:           os.Getenv("DB_PASS"),
        DBPath:           os.Getenv("DB_PATH"),
        JWTSecret:        must("JWT_SECRET"),
        AMQPURL:          firstEnv("RABBITMQ_URL", "AMQP_URL"),
        ItemQueue:        getenv("ITEM_QUEUE", DefaultItemQueue),
        ConsumerPrefetch: envInt("CONSUMER_PREFETCH", 1),
        ResetOnStart:     os.Getenv("RESET_ON_START"),
        AliasTablePath:   os.Getenv("ALIAS_TABLE_PATH"),
        LogLevel:         getenv("LOG_LEVEL", "info"),
        LogFormat:        getenv("LOG_FORMAT", "json"),
    }
    if cfg.DBDriver == database.DriverMySQL {
        cfg.DBUser = must("DB_USER")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    if cfg.ResetOnStart != "" && !database.ValidTarget(cfg.ResetOnStart) {
        missing = append(missing, errors.New("invalid RESET_ON_START: "+strconv.Quote(cfg.ResetOnStart)))
    }
    if cfg.ConsumerPrefetch < 1 {
        cfg.ConsumerPrefetch = 1
    }
    return cfg, errors.Join(missing...)
}

// DBOptions converts the database settings for database.Open.
func (c Config) DBOptions() database.Options {
    return database.Options{
        Driver: c.DBDriver,
        User:   c.DBUser,
        Pass:   c.DBPass,
        Host:   c.DBHost,
        Port:   c.DBPort,
        Name:   c.DBName,
        Path:   c.DBPath,
    }
}

func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := os.Getenv(k); v != "" {
            return v
        }
    }
    return ""
}
