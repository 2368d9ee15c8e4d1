package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig shapes the weekly grid and scheduling rules.
type TimetableConfig struct {
	// PeriodsPerDay bounds the period axis of the grid; slots outside it are rejected.
	PeriodsPerDay int
	// WorkingDayDivisor estimates a teacher's daily quota from PeriodsPerWeek.
	// The legacy UI hardcoded 6; kept configurable since institutes with
	// shorter weeks would otherwise over-report daily load.
	WorkingDayDivisor int
	// FirstPeriodStart and PeriodLength map period numbers onto clock times for
	// time-range exam blocks.
	FirstPeriodStart  string
	PeriodLength      time.Duration
	ReferenceCacheTTL time.Duration
}

// ExportConfig tunes timetable grid exports and the background export
// pipeline writing them to disk.
type ExportConfig struct {
	InstituteName string
	Dir           string
	Workers       int
	FileTTL       time.Duration
	URLTTL        time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		PeriodsPerDay:     v.GetInt("TIMETABLE_PERIODS_PER_DAY"),
		WorkingDayDivisor: v.GetInt("TIMETABLE_WORKING_DAY_DIVISOR"),
		FirstPeriodStart:  v.GetString("TIMETABLE_FIRST_PERIOD_START"),
		PeriodLength:      parseDuration(v.GetString("TIMETABLE_PERIOD_LENGTH"), 45*time.Minute),
		ReferenceCacheTTL: parseDuration(v.GetString("TIMETABLE_REFERENCE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Export = ExportConfig{
		InstituteName: v.GetString("EXPORT_INSTITUTE_NAME"),
		Dir:           v.GetString("EXPORT_DIR"),
		Workers:       v.GetInt("EXPORT_WORKERS"),
		FileTTL:       parseDuration(v.GetString("EXPORT_FILE_TTL"), 24*time.Hour),
		URLTTL:        parseDuration(v.GetString("EXPORT_URL_TTL"), time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Timetable.PeriodsPerDay < 1 {
		return fmt.Errorf("TIMETABLE_PERIODS_PER_DAY must be at least 1, got %d", c.Timetable.PeriodsPerDay)
	}
	if c.Timetable.WorkingDayDivisor < 1 {
		return fmt.Errorf("TIMETABLE_WORKING_DAY_DIVISOR must be at least 1, got %d", c.Timetable.WorkingDayDivisor)
	}
	if _, err := time.Parse("15:04", c.Timetable.FirstPeriodStart); err != nil {
		return fmt.Errorf("TIMETABLE_FIRST_PERIOD_START must be HH:MM: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "institute_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "timetable-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMETABLE_PERIODS_PER_DAY", 8)
	v.SetDefault("TIMETABLE_WORKING_DAY_DIVISOR", 6)
	v.SetDefault("TIMETABLE_FIRST_PERIOD_START", "08:00")
	v.SetDefault("TIMETABLE_PERIOD_LENGTH", "45m")
	v.SetDefault("TIMETABLE_REFERENCE_CACHE_TTL", "10m")

	v.SetDefault("EXPORT_INSTITUTE_NAME", "Institute")
	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_WORKERS", 2)
	v.SetDefault("EXPORT_FILE_TTL", "24h")
	v.SetDefault("EXPORT_URL_TTL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
