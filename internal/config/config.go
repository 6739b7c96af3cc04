package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/nexdrive/scheduler/internal/service"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"env" validate:"oneof=development production test"`
	HTTPAddr    string `yaml:"http_addr" validate:"required"`
	DBDSN       string `yaml:"db_dsn" validate:"required"`
	JWTSecret   string `yaml:"jwt_secret" validate:"required"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Timezone               string `yaml:"timezone" validate:"required"`
	BookingHorizonDays     int    `yaml:"booking_horizon_days" validate:"min=1"`
	DefaultSlotMinutes     int    `yaml:"default_slot_minutes" validate:"min=5,max=480"`
	CancellationNoticeHour int    `yaml:"cancellation_notice_hours" validate:"min=1"`
	RejectOverlappingRules bool   `yaml:"reject_overlapping_rules"`

	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db" validate:"min=0"`
	SlotHoldSeconds int    `yaml:"slot_hold_seconds" validate:"min=1"`

	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaAuditTopic string   `yaml:"kafka_audit_topic" validate:"required_with=KafkaBrokers"`

	TelegramToken string `yaml:"telegram_token"`

	Location *time.Location `yaml:"-" validate:"-"`
}

func defaults() *Config {
	return &Config{
		Environment:            "development",
		HTTPAddr:               ":8080",
		LogLevel:               "info",
		Timezone:               "Australia/Canberra",
		BookingHorizonDays:     56,
		DefaultSlotMinutes:     60,
		CancellationNoticeHour: 24,
		RejectOverlappingRules: true,
		SlotHoldSeconds:        30,
		KafkaAuditTopic:        "scheduler.audit",
	}
}

// Load собирает конфиг: дефолты, YAML из CONFIG_PATH, .env и переменные окружения поверх
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load(".env")

	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENV")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.DBDSN, "DB_DSN")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.KafkaAuditTopic, "KAFKA_AUDIT_TOPIC")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")

	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		cfg.KafkaBrokers = nil
		for _, broker := range strings.Split(raw, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	var errs []error
	errs = append(errs,
		setInt(&cfg.BookingHorizonDays, "BOOKING_HORIZON_DAYS"),
		setInt(&cfg.DefaultSlotMinutes, "DEFAULT_SLOT_MINUTES"),
		setInt(&cfg.CancellationNoticeHour, "CANCELLATION_NOTICE_HOURS"),
		setInt(&cfg.RedisDB, "REDIS_DB"),
		setInt(&cfg.SlotHoldSeconds, "SLOT_HOLD_SECONDS"),
		setBool(&cfg.RejectOverlappingRules, "REJECT_OVERLAPPING_RULES"),
	)
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}

// SchedulerSettings параметры движка расписания
func (c *Config) SchedulerSettings() service.Settings {
	return service.Settings{
		Location:               c.Location,
		HorizonDays:            c.BookingHorizonDays,
		DefaultSlotMinutes:     c.DefaultSlotMinutes,
		CancellationNotice:     time.Duration(c.CancellationNoticeHour) * time.Hour,
		RejectOverlappingRules: c.RejectOverlappingRules,
		SlotHoldTTL:            time.Duration(c.SlotHoldSeconds) * time.Second,
	}
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
