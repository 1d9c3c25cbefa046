// Package config loads the bot configuration from an optional .env file and
// the environment using Viper.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

const devRegistrationSecret = "dev-secret-change"

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	HTTPAddr        string        `mapstructure:"LABORBOT_HTTP_ADDR"`
	MaxRequestBytes int64         `mapstructure:"LABORBOT_MAX_REQUEST_BYTES"`
	HTTPTimeout     time.Duration `mapstructure:"LABORBOT_HTTP_TIMEOUT"`
	TimeZone        string        `mapstructure:"LABORBOT_TIMEZONE"`

	StoreBackend string `mapstructure:"LABORBOT_STORE_BACKEND"`
	DatabaseDSN  string `mapstructure:"LABORBOT_DB_DSN"`
	DynamoTable  string `mapstructure:"LABORBOT_DYNAMODB_TABLE"`

	AWSRegion     string `mapstructure:"AWS_REGION"`
	AWSEndpoint   string `mapstructure:"AWS_ENDPOINT_URL"`
	ArchiveBucket string `mapstructure:"LABORBOT_ARCHIVE_BUCKET"`

	ChannelAccessToken string `mapstructure:"CHANNEL_ACCESS_TOKEN"`
	LINEAPIBaseURL     string `mapstructure:"LINE_API_BASE_URL"`
	LINEDataBaseURL    string `mapstructure:"LINE_DATA_BASE_URL"`
	RichMenuAttendance string `mapstructure:"RICH_MENU_ATTENDANCE_ID"`
	RichMenuOnDuty     string `mapstructure:"RICH_MENU_ON_DUTY_ID"`
	RichMenuOffDuty    string `mapstructure:"RICH_MENU_OFF_DUTY_ID"`

	OCRAPIURL string `mapstructure:"OCR_API_URL"`
	OCRAPIKey string `mapstructure:"OCR_API_KEY"`

	FreeeHRBaseURL         string `mapstructure:"FREEE_HR_API_URL"`
	FreeeAccountingBaseURL string `mapstructure:"FREEE_API_URL"`
	CompanyID              int64  `mapstructure:"FREEE_COMPANY_ID"`

	// TokenKeyB64 is the base64 AES-256 key sealing stored bearer tokens.
	TokenKeyB64        string `mapstructure:"LABORBOT_TOKEN_KEY"`
	RegistrationSecret string `mapstructure:"LABORBOT_REGISTRATION_SECRET"`
	RegistrationURL    string `mapstructure:"LABORBOT_REGISTRATION_URL"`

	TokenKey []byte         `mapstructure:"-"`
	Location *time.Location `mapstructure:"-"`
}

var defaults = map[string]any{
	"LABORBOT_HTTP_ADDR":           ":8080",
	"LABORBOT_MAX_REQUEST_BYTES":   1 << 20,
	"LABORBOT_HTTP_TIMEOUT":        "15s",
	"LABORBOT_TIMEZONE":            "Asia/Tokyo",
	"LABORBOT_STORE_BACKEND":       BackendSQLite,
	"LABORBOT_DB_DSN":              "file:laborbot.db?cache=shared&mode=rwc",
	"LABORBOT_DYNAMODB_TABLE":      "",
	"AWS_REGION":                   "ap-northeast-1",
	"AWS_ENDPOINT_URL":             "",
	"LABORBOT_ARCHIVE_BUCKET":      "",
	"CHANNEL_ACCESS_TOKEN":         "",
	"LINE_API_BASE_URL":            "https://api.line.me",
	"LINE_DATA_BASE_URL":           "https://api-data.line.me",
	"RICH_MENU_ATTENDANCE_ID":      "",
	"RICH_MENU_ON_DUTY_ID":         "",
	"RICH_MENU_OFF_DUTY_ID":        "",
	"OCR_API_URL":                  "",
	"OCR_API_KEY":                  "",
	"FREEE_HR_API_URL":             "https://api.freee.co.jp/hr/api/v1",
	"FREEE_API_URL":                "https://api.freee.co.jp/api/1",
	"FREEE_COMPANY_ID":             0,
	"LABORBOT_TOKEN_KEY":           "",
	"LABORBOT_REGISTRATION_SECRET": devRegistrationSecret,
	"LABORBOT_REGISTRATION_URL":    "http://localhost:8080/register",
}

// Load reads .env (if present) and the environment. Env vars override .env.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DatabaseDSN == "" {
			return errors.New("config: LABORBOT_DB_DSN must be set for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoTable == "" {
			return errors.New("config: LABORBOT_DYNAMODB_TABLE must be set for the dynamodb backend")
		}
	default:
		return fmt.Errorf("config: unknown LABORBOT_STORE_BACKEND %q", c.StoreBackend)
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("config: LABORBOT_TIMEZONE: %w", err)
	}
	c.Location = loc

	if c.TokenKeyB64 != "" {
		key, err := base64.StdEncoding.DecodeString(c.TokenKeyB64)
		if err != nil || len(key) != 32 {
			return errors.New("config: LABORBOT_TOKEN_KEY must be 32 bytes, base64 encoded")
		}
		c.TokenKey = key
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return nil
}

// Warnings lists settings that load fine but are unsafe outside development.
func (c Config) Warnings() []string {
	var w []string
	if c.RegistrationSecret == devRegistrationSecret {
		w = append(w, "using development registration secret; set LABORBOT_REGISTRATION_SECRET")
	}
	if len(c.TokenKey) == 0 {
		w = append(w, "LABORBOT_TOKEN_KEY not set; bearer tokens are stored unsealed")
	}
	return w
}

// TenantID is the key of the company's bearer token record.
func (c Config) TenantID() string {
	return strconv.FormatInt(c.CompanyID, 10)
}
