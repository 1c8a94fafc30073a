package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Reader   ReaderConfig   `yaml:"reader"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// PathsConfig holds filesystem locations
type PathsConfig struct {
	InputDir         string `yaml:"input_dir"`
	OutputDir        string `yaml:"output_dir"`
	RunLog           string `yaml:"run_log"`
	SiteRegistry     string `yaml:"site_registry"`
	SiteAddresses    string `yaml:"site_addresses"`
	GoldMetadata     string `yaml:"gold_metadata"`
	PromptsDir       string `yaml:"prompts_dir"`
	ReviewExport     string `yaml:"review_export"`
	RequireAddresses bool   `yaml:"require_addresses"`
}

// PipelineConfig holds retry bounds and thresholds
type PipelineConfig struct {
	MaxPages             int     `yaml:"max_pages"`
	MinTokens            int     `yaml:"min_tokens"`
	PromptCharBudget     int     `yaml:"prompt_char_budget"`
	KeyRetries           int     `yaml:"key_retries"`
	TitleRetries         int     `yaml:"title_retries"`
	FieldRetries         int     `yaml:"field_retries"`
	SiteIDRetries        int     `yaml:"site_id_retries"`
	TitleMaxTokens       int     `yaml:"title_max_tokens"`
	PartyMaxTokens       int     `yaml:"party_max_tokens"`
	ContainmentThreshold float64 `yaml:"containment_threshold"`
	FuzzyThreshold       float64 `yaml:"fuzzy_threshold"`
	ClassifierMode       string  `yaml:"classifier_mode"`
	ASCIIFold            bool    `yaml:"ascii_fold"`
}

// ReaderConfig holds PDF text extraction configuration
type ReaderConfig struct {
	Backend       string `yaml:"backend"`
	Pdftotext     string `yaml:"pdftotext"`
	Tesseract     string `yaml:"tesseract"`
	TesseractLang string `yaml:"tesseract_lang"`
	DPI           int    `yaml:"dpi"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// DatabaseConfig holds audit store configuration; an empty DSN disables it.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds the watch-mode health endpoint
type ServerConfig struct {
	HealthAddr string `yaml:"health_addr"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			InputDir:      "./input",
			OutputDir:     "./output",
			RunLog:        "./output/run_log.csv",
			SiteRegistry:  "./lookups/site_registry.xlsx",
			SiteAddresses: "./lookups/site_addresses.csv",
			GoldMetadata:  "./lookups/gold_metadata.csv",
			ReviewExport:  "./output/review.xlsx",
		},
		Pipeline: PipelineConfig{
			MaxPages:             8,
			MinTokens:            50,
			PromptCharBudget:     3000,
			KeyRetries:           10,
			TitleRetries:         5,
			FieldRetries:         5,
			SiteIDRetries:        5,
			TitleMaxTokens:       25,
			PartyMaxTokens:       17,
			ContainmentThreshold: 0.75,
			FuzzyThreshold:       78,
			ClassifierMode:       "regex",
		},
		Reader: ReaderConfig{
			Backend:       "pdf",
			Pdftotext:     "pdftotext",
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			DPI:           300,
		},
		LLM: LLMConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama2",
			Temperature: 0,
			Timeout:     120 * time.Second,
			MaxRetries:  2,
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HealthAddr: ":8081",
		},
		Tracing: TracingConfig{
			ServiceName: "site-records",
			Version:     "dev",
		},
	}
}

// LoadConfig layers defaults, an optional YAML file, a .env file and the environment.
// The environment always wins.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, NewAppError("CONFIG_ERROR", "load .env", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read config %s", path), err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse config %s", path), err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Paths.InputDir = getEnv("INPUT_DIR", c.Paths.InputDir)
	c.Paths.OutputDir = getEnv("OUTPUT_DIR", c.Paths.OutputDir)
	c.Paths.RunLog = getEnv("RUN_LOG", c.Paths.RunLog)
	c.Paths.SiteRegistry = getEnv("SITE_REGISTRY", c.Paths.SiteRegistry)
	c.Paths.SiteAddresses = getEnv("SITE_ADDRESSES", c.Paths.SiteAddresses)
	c.Paths.GoldMetadata = getEnv("GOLD_METADATA", c.Paths.GoldMetadata)
	c.Paths.PromptsDir = getEnv("PROMPTS_DIR", c.Paths.PromptsDir)
	c.Paths.ReviewExport = getEnv("REVIEW_EXPORT", c.Paths.ReviewExport)
	c.Paths.RequireAddresses = getEnvAsBool("REQUIRE_ADDRESSES", c.Paths.RequireAddresses)

	c.Pipeline.MaxPages = getEnvAsInt("MAX_PAGES", c.Pipeline.MaxPages)
	c.Pipeline.MinTokens = getEnvAsInt("MIN_TOKENS", c.Pipeline.MinTokens)
	c.Pipeline.PromptCharBudget = getEnvAsInt("PROMPT_CHAR_BUDGET", c.Pipeline.PromptCharBudget)
	c.Pipeline.KeyRetries = getEnvAsInt("KEY_RETRIES", c.Pipeline.KeyRetries)
	c.Pipeline.TitleRetries = getEnvAsInt("TITLE_RETRIES", c.Pipeline.TitleRetries)
	c.Pipeline.FieldRetries = getEnvAsInt("FIELD_RETRIES", c.Pipeline.FieldRetries)
	c.Pipeline.SiteIDRetries = getEnvAsInt("SITE_ID_RETRIES", c.Pipeline.SiteIDRetries)
	c.Pipeline.ContainmentThreshold = getEnvAsFloat64("CONTAINMENT_THRESHOLD", c.Pipeline.ContainmentThreshold)
	c.Pipeline.FuzzyThreshold = getEnvAsFloat64("FUZZY_THRESHOLD", c.Pipeline.FuzzyThreshold)
	c.Pipeline.ClassifierMode = getEnv("CLASSIFIER_MODE", c.Pipeline.ClassifierMode)
	c.Pipeline.ASCIIFold = getEnvAsBool("ASCII_FOLD", c.Pipeline.ASCIIFold)

	c.Reader.Backend = getEnv("READER_BACKEND", c.Reader.Backend)
	c.Reader.Pdftotext = getEnv("PDFTOTEXT", c.Reader.Pdftotext)
	c.Reader.Tesseract = getEnv("TESSERACT", c.Reader.Tesseract)
	c.Reader.TesseractLang = getEnv("TESSERACT_LANG", c.Reader.TesseractLang)
	c.Reader.DPI = getEnvAsInt("OCR_DPI", c.Reader.DPI)

	c.LLM.BaseURL = getEnv("OLLAMA_HOST", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OLLAMA_MODEL", c.LLM.Model)
	c.LLM.Temperature = float32(getEnvAsFloat64("OLLAMA_TEMPERATURE", float64(c.LLM.Temperature)))
	c.LLM.Timeout = getEnvAsDuration("OLLAMA_TIMEOUT", c.LLM.Timeout)
	c.LLM.MaxRetries = getEnvAsInt("OLLAMA_MAX_RETRIES", c.LLM.MaxRetries)

	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.HealthAddr = getEnv("HEALTH_ADDR", c.Server.HealthAddr)

	c.Tracing.Enabled = getEnvAsBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Tracing.ServiceName)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("paths.input_dir", c.Paths.InputDir, Required).
		Field("paths.output_dir", c.Paths.OutputDir, Required).
		Field("paths.run_log", c.Paths.RunLog, Required).
		Field("paths.site_registry", c.Paths.SiteRegistry, Required).
		Field("pipeline.max_pages", c.Pipeline.MaxPages, Positive).
		Field("pipeline.min_tokens", c.Pipeline.MinTokens, Positive).
		Field("pipeline.prompt_char_budget", c.Pipeline.PromptCharBudget, Positive).
		Field("pipeline.key_retries", c.Pipeline.KeyRetries, Positive).
		Field("pipeline.title_max_tokens", c.Pipeline.TitleMaxTokens, Positive).
		Field("pipeline.party_max_tokens", c.Pipeline.PartyMaxTokens, Positive).
		Field("pipeline.containment_threshold", c.Pipeline.ContainmentThreshold, Between(0, 1)).
		Field("pipeline.fuzzy_threshold", c.Pipeline.FuzzyThreshold, Between(0, 100)).
		Field("pipeline.classifier_mode", c.Pipeline.ClassifierMode, OneOf("regex", "ml")).
		Field("reader.backend", c.Reader.Backend, OneOf("pdf", "mupdf", "pdftotext", "tesseract")).
		Field("llm.base_url", c.LLM.BaseURL, Required).
		Field("llm.model", c.LLM.Model, Required)
	return ValidateAndReturnError(v)
}
