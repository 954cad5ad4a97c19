package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for a postgres database
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration creates a configuration from environment variables.
// A .env file in the working directory is loaded first if present.
// Required: LOREKEEPER_DB_HOST, LOREKEEPER_DB_PORT, LOREKEEPER_DB_DATABASE,
// LOREKEEPER_DB_USERNAME, LOREKEEPER_DB_PASSWORD.
// Optional: LOREKEEPER_DB_SCHEMA (default "public"), LOREKEEPER_DB_SSLMODE (default "disable").
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	// Ignore a missing .env file, real envs may already be set
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("LOREKEEPER_DB_HOST"),
		Port:     os.Getenv("LOREKEEPER_DB_PORT"),
		Database: os.Getenv("LOREKEEPER_DB_DATABASE"),
		Username: os.Getenv("LOREKEEPER_DB_USERNAME"),
		Password: os.Getenv("LOREKEEPER_DB_PASSWORD"),
		Schema:   os.Getenv("LOREKEEPER_DB_SCHEMA"),
		SSLMode:  os.Getenv("LOREKEEPER_DB_SSLMODE"),
	}

	if config.Host == "" || config.Port == "" || config.Database == "" || config.Username == "" || config.Password == "" {
		return nil, NewError("database configuration", fmt.Errorf("missing required LOREKEEPER_DB_* environment variables"))
	}

	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

// ConnectionString returns the lib/pq connection string for the configuration
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.Schema, c.SSLMode,
	)
}

// Database wraps the sql.DB instance together with the logger used by all handlers
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a postgres connection and pings it.
// It panics on connection failure as nothing can run without the database.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		log.Panicf("error opening database connection: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = db.Ping()
	if err != nil {
		log.Panicf("error pinging database: %v", err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase opens a database connection with a quiet logger for tests
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := NewPrettyLogger(os.Stdout, slog.LevelError)
	return NewDatabase("test", config, logger)
}
