package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite3"
	StorePostgres = "postgres"
	StoreNeo4j    = "neo4j"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all configuration for our application
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Persona  PersonaConfig  `mapstructure:"persona"`
	Mastery  MasteryConfig  `mapstructure:"mastery"`
	Pathway  PathwayConfig  `mapstructure:"pathway"`
	Log      LogConfig      `mapstructure:"log"`
}

// StoreConfig selects the graph backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds relational database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the SQLite database file.
	Path     string `mapstructure:"path"`
	LogSQL   bool   `mapstructure:"log_sql"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// Neo4jConfig holds graph database configuration
type Neo4jConfig struct {
	URI            string `mapstructure:"uri"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxPoolSize    int    `mapstructure:"max_pool_size"`
}

// CacheConfig holds derived-result cache configuration
type CacheConfig struct {
	Driver    string        `mapstructure:"driver"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	Password  string        `mapstructure:"redis_password"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// PersonaConfig points at an optional YAML persona catalog
type PersonaConfig struct {
	File string `mapstructure:"file"`
}

type MasteryConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type PathwayConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. A file passed with
// --config replaces the .env lookup.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if ext := strings.TrimPrefix(filepath.Ext(file), "."); ext != "" {
			viper.SetConfigType(ext)
		}
	}

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("store.driver", StoreSQLite)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "conceptgraph")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.path", "conceptgraph.db")
	viper.SetDefault("database.log_sql", false)
	viper.SetDefault("database.max_conns", 10)

	viper.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	viper.SetDefault("neo4j.user", "neo4j")
	viper.SetDefault("neo4j.password", "")
	viper.SetDefault("neo4j.database", "neo4j")
	viper.SetDefault("neo4j.timeout_seconds", 10)
	viper.SetDefault("neo4j.max_pool_size", 50)

	viper.SetDefault("cache.driver", CacheMemory)
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.redis_db", 0)
	viper.SetDefault("cache.prefix", "conceptgraph:")
	viper.SetDefault("cache.ttl", 10*time.Minute)

	viper.SetDefault("persona.file", "")
	viper.SetDefault("mastery.threshold", 0.8)
	viper.SetDefault("pathway.parallelism", 8)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// DatabaseDriver returns the SQL driver name for the configured store.
func (c *Config) DatabaseDriver() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Store.Driver)) {
	case "sqlite", StoreSQLite:
		return StoreSQLite, nil
	case "postgresql", StorePostgres:
		return StorePostgres, nil
	default:
		return "", fmt.Errorf("store driver %q is not backed by a SQL database", c.Store.Driver)
	}
}

// DatabaseURL returns the DSN for the configured SQL driver.
func (c *Config) DatabaseURL() (string, error) {
	driver, err := c.DatabaseDriver()
	if err != nil {
		return "", err
	}
	if driver == StoreSQLite {
		path := strings.TrimSpace(c.Database.Path)
		if path == "" {
			return "", fmt.Errorf("database.path is required for sqlite3")
		}
		return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000", nil
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String(), nil
}
