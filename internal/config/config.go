// Package config loads Scout's settings from the environment, an optional
// .env file and an optional scout.yaml.
//
// Precedence: environment > .env > scout.yaml > defaults. Every setting has
// the same name as its environment variable; scout.yaml uses the lowercase
// form (openai_api_key, smtp_port, ...).
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/mail"
	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/newsletter"
	"github.com/HendryAvila/scout/internal/search"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	SearchTavily     = "tavily"
	SearchDuckDuckGo = "duckduckgo"
)

// DefaultOpenRouterBaseURL is the OpenAI-compatible OpenRouter endpoint.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

const sqlitePrefix = "sqlite:///"

// Config is the full set of runtime settings.
type Config struct {
	OpenAIAPIKey      string  `mapstructure:"openai_api_key" env:"OPENAI_API_KEY" validate:"required_unless=LLMProvider openrouter"`
	LLMModel          string  `mapstructure:"llm_model" env:"LLM_MODEL" validate:"required"`
	LLMTemperature    float64 `mapstructure:"llm_temperature" env:"LLM_TEMPERATURE" validate:"gte=0,lte=2"`
	LLMProvider       string  `mapstructure:"llm_provider" env:"LLM_PROVIDER" validate:"oneof=openai openrouter"`
	OpenRouterAPIKey  string  `mapstructure:"openrouter_api_key" env:"OPENROUTER_API_KEY" validate:"required_if=LLMProvider openrouter"`
	OpenRouterBaseURL string  `mapstructure:"openrouter_base_url" env:"OPENROUTER_BASE_URL" validate:"omitempty,url"`

	TavilyAPIKey    string  `mapstructure:"tavily_api_key" env:"TAVILY_API_KEY" validate:"required_if=SearchProvider tavily"`
	SearchProvider  string  `mapstructure:"search_provider" env:"SEARCH_PROVIDER" validate:"oneof=tavily duckduckgo"`
	SearchRateLimit float64 `mapstructure:"search_rate_limit" env:"SEARCH_RATE_LIMIT" validate:"gte=0"`

	SMTPHost      string `mapstructure:"smtp_host" env:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"smtp_port" env:"SMTP_PORT" validate:"gte=1,lte=65535"`
	SMTPUsername  string `mapstructure:"smtp_username" env:"SMTP_USERNAME"`
	SMTPPassword  string `mapstructure:"smtp_password" env:"SMTP_PASSWORD"`
	SMTPFromEmail string `mapstructure:"smtp_from_email" env:"SMTP_FROM_EMAIL" validate:"omitempty,email"`
	SMTPToEmail   string `mapstructure:"smtp_to_email" env:"SMTP_TO_EMAIL" validate:"omitempty,email"`
	SMTPUseTLS    bool   `mapstructure:"smtp_use_tls" env:"SMTP_USE_TLS"`

	DatabaseURL string `mapstructure:"database_url" env:"DATABASE_URL" validate:"required"`

	MaxToolCalls  int    `mapstructure:"max_tool_calls" env:"MAX_TOOL_CALLS" validate:"gte=1"`
	ResearchMode  string `mapstructure:"research_mode" env:"RESEARCH_MODE"`
	ResearchTopic string `mapstructure:"research_topic" env:"RESEARCH_TOPIC"`

	NewsletterFormat  string `mapstructure:"newsletter_format" env:"NEWSLETTER_FORMAT" validate:"oneof=html markdown text"`
	NewsletterSubject string `mapstructure:"newsletter_subject" env:"NEWSLETTER_SUBJECT"`

	LogLevel    string `mapstructure:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFile     string `mapstructure:"log_file" env:"LOG_FILE"`
	MetricsAddr string `mapstructure:"metrics_addr" env:"METRICS_ADDR"`
}

// MissingError lists required variables that are not set.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("Missing required environment variables: %s\nPlease check your .env file or environment settings.",
		strings.Join(e.Vars, ", "))
}

// Options controls where Load looks for files.
type Options struct {
	// EnvFile is the dotenv file. A missing file is ignored.
	EnvFile string
	// ConfigFile is an explicit YAML file. When empty, scout.yaml is looked
	// up in ConfigDirs and a missing file is ignored.
	ConfigFile string
	ConfigDirs []string
}

// DefaultOptions returns the lookup used by the scout binary.
func DefaultOptions() Options {
	return Options{EnvFile: ".env", ConfigDirs: []string{"."}}
}

func defaults() map[string]any {
	return map[string]any{
		"openai_api_key":      "",
		"llm_model":           "gpt-4o-mini",
		"llm_temperature":     0.7,
		"llm_provider":        ProviderOpenAI,
		"openrouter_api_key":  "",
		"openrouter_base_url": DefaultOpenRouterBaseURL,
		"tavily_api_key":      "",
		"search_provider":     SearchTavily,
		"search_rate_limit":   0.0,
		"smtp_host":           "smtp.gmail.com",
		"smtp_port":           587,
		"smtp_username":       "",
		"smtp_password":       "",
		"smtp_from_email":     "",
		"smtp_to_email":       "",
		"smtp_use_tls":        true,
		"database_url":        sqlitePrefix + "./research_assistant.db",
		"max_tool_calls":      10,
		"research_mode":       "autonomous",
		"research_topic":      "",
		"newsletter_format":   string(newsletter.FormatHTML),
		"newsletter_subject":  "",
		"log_level":           "info",
		"log_file":            "",
		"metrics_addr":        "",
	}
}

// Load reads the configuration. It does not validate; call Validate.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	for key, def := range defaults() {
		v.SetDefault(key, def)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	if err := readFile(v, opts); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func readFile(v *viper.Viper, opts Options) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", opts.ConfigFile, err)
		}
		return nil
	}
	if len(opts.ConfigDirs) == 0 {
		return nil
	}
	v.SetConfigName("scout")
	v.SetConfigType("yaml")
	for _, dir := range opts.ConfigDirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: reading scout.yaml: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.SearchProvider = strings.ToLower(strings.TrimSpace(c.SearchProvider))
	if c.SearchProvider == "ddg" {
		c.SearchProvider = SearchDuckDuckGo
	}
	if f, err := newsletter.ParseFormat(c.NewsletterFormat); err == nil {
		c.NewsletterFormat = string(f)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.ResearchTopic = strings.TrimSpace(c.ResearchTopic)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

// Validate checks required variables and value ranges. Missing required
// variables are reported together as a *MissingError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if", "required_unless":
			missing = append(missing, fe.Field())
		default:
			invalid = append(invalid, describe(fe))
		}
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	return fmt.Errorf("config: invalid settings: %s", strings.Join(invalid, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ─── Derived settings ────────────────────────────────────────────────────────

// LLM returns the chat completion settings for the selected provider.
func (c *Config) LLM() llm.Config {
	out := llm.Config{
		APIKey:      c.OpenAIAPIKey,
		Model:       c.LLMModel,
		Temperature: c.LLMTemperature,
		Timeout:     60 * time.Second,
		MaxRetries:  -1,
	}
	if c.LLMProvider == ProviderOpenRouter {
		out.APIKey = c.OpenRouterAPIKey
		out.BaseURL = c.OpenRouterBaseURL
		if out.BaseURL == "" {
			out.BaseURL = DefaultOpenRouterBaseURL
		}
	}
	return out
}

// Search returns the search provider settings.
func (c *Config) Search() search.Config {
	return search.Config{
		Provider:     c.SearchProvider,
		TavilyAPIKey: c.TavilyAPIKey,
		RateLimit:    c.SearchRateLimit,
	}
}

// Mail returns the SMTP settings.
func (c *Config) Mail() mail.Config {
	return mail.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFromEmail,
		To:       c.SMTPToEmail,
		UseTLS:   c.SMTPUseTLS,
	}
}

// Memory returns the store settings. DATABASE_URL accepts a sqlite:/// URL
// or a plain file path.
func (c *Config) Memory() memory.Config {
	path := strings.TrimPrefix(c.DatabaseURL, sqlitePrefix)
	if path == "" {
		path = memory.DefaultConfig().Path
	}
	return memory.Config{Path: path}
}

// Newsletter returns the newsletter format and subject template.
func (c *Config) Newsletter() (newsletter.Format, string) {
	f, err := newsletter.ParseFormat(c.NewsletterFormat)
	if err != nil {
		f = newsletter.FormatHTML
	}
	return f, c.NewsletterSubject
}
