package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/accountd/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultAccessTTL    = 30 * time.Minute
	defaultRefreshTTL   = 30 * 24 * time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the accountd service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Database for the refresh token blacklist
	// Uses DatabaseDSN when empty
	BlacklistDSN string

	// Secret key used to sign JWT tokens (symmetric)
	SecretKey string

	// Access and refresh token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Origins allowed for cross-origin requests, "*" allows all
	CORSOrigins []string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		AccessTTL:   defaultAccessTTL,
		RefreshTTL:  defaultRefreshTTL,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setStrings := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = strings.Split(value, ",")
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"BLACKLIST_URI":          setString(&c.BlacklistDSN),
		"SECRET_KEY":             setString(&c.SecretKey),
		"ACCESS_TOKEN_LIFETIME":  setDuration(&c.AccessTTL),
		"REFRESH_TOKEN_LIFETIME": setDuration(&c.RefreshTTL),
		"CORS_ALLOWED_ORIGINS":   setStrings(&c.CORSOrigins),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("accountd", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.BlacklistDSN, "blacklist", "b", c.BlacklistDSN, "Blacklist store connection string (defaults to database)")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.DurationVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "Allowed CORS origins")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
