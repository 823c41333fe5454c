package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Delivery modes.
const (
	DeliveryInline = "inline"
	DeliveryUpload = "upload"
)

// Data sources.
const (
	SourceSheets   = "sheets"
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Uploaders used when DeliveryMode is "upload".
const (
	UploaderImageHost = "imagehost"
	UploaderDrive     = "drive"
)

type Config struct {
	Port         string        `mapstructure:"PORT"`
	Env          string        `mapstructure:"ENV"`
	DeliveryMode string        `mapstructure:"DELIVERY_MODE"`
	Source       string        `mapstructure:"SOURCE"`
	SettleDelay  time.Duration `mapstructure:"SETTLE_DELAY"`

	// Google Sheets source.
	SheetID            string `mapstructure:"SHEET_ID"`
	PatientSheet       string `mapstructure:"PATIENT_SHEET"`
	MaleCentileSheet   string `mapstructure:"MALE_CENTILE_SHEET"`
	FemaleCentileSheet string `mapstructure:"FEMALE_CENTILE_SHEET"`
	GoogleCreds        string `mapstructure:"GOOGLE_CREDS"`
	GoogleCredsFile    string `mapstructure:"GOOGLE_CREDS_FILE"`

	// CSV source.
	CSVDir string `mapstructure:"CSV_DIR"`

	// Postgres source.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// Column names in the patient and centile tables.
	SexColumn         string `mapstructure:"SEX_COLUMN"`
	BirthweightColumn string `mapstructure:"BIRTHWEIGHT_COLUMN"`
	GestationColumn   string `mapstructure:"GESTATION_COLUMN"`
	AxisColumn        string `mapstructure:"AXIS_COLUMN"`

	// Upload delivery.
	Uploader      string `mapstructure:"UPLOADER"`
	ImageHostURL  string `mapstructure:"IMAGEHOST_URL"`
	ImageHostKey  string `mapstructure:"IMAGEHOST_KEY"`
	DriveFolderID string `mapstructure:"DRIVE_FOLDER_ID"`
	DrivePublic   bool   `mapstructure:"DRIVE_PUBLIC"`
	UploadTempDir string `mapstructure:"UPLOAD_TEMP_DIR"`

	ChartWidth  int `mapstructure:"CHART_WIDTH"`
	ChartHeight int `mapstructure:"CHART_HEIGHT"`

	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
}

var keys = []string{
	"PORT", "ENV", "DELIVERY_MODE", "SOURCE", "SETTLE_DELAY",
	"SHEET_ID", "PATIENT_SHEET", "MALE_CENTILE_SHEET", "FEMALE_CENTILE_SHEET",
	"GOOGLE_CREDS", "GOOGLE_CREDS_FILE",
	"CSV_DIR",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"SEX_COLUMN", "BIRTHWEIGHT_COLUMN", "GESTATION_COLUMN", "AXIS_COLUMN",
	"UPLOADER", "IMAGEHOST_URL", "IMAGEHOST_KEY", "DRIVE_FOLDER_ID", "DRIVE_PUBLIC", "UPLOAD_TEMP_DIR",
	"CHART_WIDTH", "CHART_HEIGHT",
	"REQUEST_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT", "CORS_ORIGINS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "production")
	v.SetDefault("DELIVERY_MODE", DeliveryInline)
	v.SetDefault("SOURCE", SourceSheets)
	v.SetDefault("SETTLE_DELAY", "1s")
	v.SetDefault("PATIENT_SHEET", "Calculator")
	v.SetDefault("MALE_CENTILE_SHEET", "Boy's Centile")
	v.SetDefault("FEMALE_CENTILE_SHEET", "Girl's Centile")
	v.SetDefault("CSV_DIR", "./data")
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("SEX_COLUMN", "Fetal Sex (Male, Female or Unknown)")
	v.SetDefault("BIRTHWEIGHT_COLUMN", "Birthweight (grams)")
	v.SetDefault("GESTATION_COLUMN", "Gestation (days)")
	v.SetDefault("AXIS_COLUMN", "Gestational Age")
	v.SetDefault("UPLOADER", UploaderImageHost)
	v.SetDefault("IMAGEHOST_URL", "https://api.imgbb.com/1/upload")
	v.SetDefault("CHART_WIDTH", 1000)
	v.SetDefault("CHART_HEIGHT", 600)
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("CORS_ORIGINS", "*")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks cross-field rules: each data source and delivery mode
// needs its own settings, and nothing else is inferred.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceSheets:
		if c.SheetID == "" {
			return fmt.Errorf("SHEET_ID is required when SOURCE is %q", SourceSheets)
		}
		if c.GoogleCreds == "" && c.GoogleCredsFile == "" {
			return fmt.Errorf("GOOGLE_CREDS or GOOGLE_CREDS_FILE is required when SOURCE is %q", SourceSheets)
		}
	case SourceCSV:
		if c.CSVDir == "" {
			return fmt.Errorf("CSV_DIR is required when SOURCE is %q", SourceCSV)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SOURCE is %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("SOURCE must be %q, %q or %q, got %q", SourceSheets, SourceCSV, SourcePostgres, c.Source)
	}

	switch c.DeliveryMode {
	case DeliveryInline:
	case DeliveryUpload:
		switch c.Uploader {
		case UploaderImageHost:
			if c.ImageHostKey == "" {
				return fmt.Errorf("IMAGEHOST_KEY is required when UPLOADER is %q", UploaderImageHost)
			}
		case UploaderDrive:
			if c.GoogleCreds == "" && c.GoogleCredsFile == "" {
				return fmt.Errorf("GOOGLE_CREDS or GOOGLE_CREDS_FILE is required when UPLOADER is %q", UploaderDrive)
			}
		default:
			return fmt.Errorf("UPLOADER must be %q or %q, got %q", UploaderImageHost, UploaderDrive, c.Uploader)
		}
	default:
		return fmt.Errorf("DELIVERY_MODE must be %q or %q, got %q", DeliveryInline, DeliveryUpload, c.DeliveryMode)
	}

	if c.SettleDelay < 0 {
		return fmt.Errorf("SETTLE_DELAY must not be negative, got %s", c.SettleDelay)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("CHART_WIDTH and CHART_HEIGHT must be positive, got %dx%d", c.ChartWidth, c.ChartHeight)
	}
	return nil
}

// GoogleCredentials returns the service account JSON, reading
// GOOGLE_CREDS_FILE when GOOGLE_CREDS is not set inline.
func (c *Config) GoogleCredentials() ([]byte, error) {
	if c.GoogleCreds != "" {
		return []byte(c.GoogleCreds), nil
	}
	if c.GoogleCredsFile == "" {
		return nil, fmt.Errorf("no google credentials configured")
	}
	data, err := os.ReadFile(c.GoogleCredsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	return data, nil
}
