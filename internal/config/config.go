// In file: internal/config/config.go

// Package config loads the weather agent's settings: secrets and addresses
// from the environment (optionally via a .env file) and tunables from
// config.yaml.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/usage"
	"github.com/dileep-u-k/weather-agent/internal/weather"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Endpoints overrides provider URLs. Empty values keep the defaults.
type Endpoints struct {
	LLM       string `yaml:"llm"`
	Weather   string `yaml:"weather"`
	Geocoding string `yaml:"geocoding"`
	IPLookup  string `yaml:"ip_lookup"`
}

// Timeouts bounds each outbound call.
type Timeouts struct {
	LLM     time.Duration `yaml:"llm"`
	Weather time.Duration `yaml:"weather"`
}

// Config holds all configuration for the agent binaries.
type Config struct {
	Provider     string           `yaml:"provider"`
	Model        string           `yaml:"model"`
	MaxTokens    int              `yaml:"max_tokens"`
	Temperature  *float32         `yaml:"temperature"`
	SystemPrompt string           `yaml:"system_prompt"`
	Endpoints    Endpoints        `yaml:"endpoints"`
	Timeouts     Timeouts         `yaml:"timeouts"`
	Pricing      usage.PriceTable `yaml:"pricing"`
	SessionTTL   time.Duration    `yaml:"session_ttl"`
	GeoCacheTTL  time.Duration    `yaml:"geocache_ttl"`

	// From the environment only.
	LLMAPIKey     string `yaml:"-"`
	WeatherAPIKey string `yaml:"-"`
	RedisAddr     string `yaml:"-"`
	Port          string `yaml:"-"`
}

// providerKeys maps each provider to the variable holding its API key.
var providerKeys = map[string]string{
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
	llm.ProviderGemini:    "GEMINI_API_KEY",
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
	llm.ProviderMistral:   "MISTRAL_API_KEY",
}

// Default returns the configuration used when config.yaml sets nothing.
func Default() *Config {
	return &Config{
		Provider:     llm.ProviderAnthropic,
		Model:        agent.DefaultModel,
		MaxTokens:    agent.DefaultMaxTokens,
		SystemPrompt: agent.DefaultSystemPrompt,
		Timeouts: Timeouts{
			LLM:     llm.DefaultTimeout,
			Weather: weather.DefaultTimeout,
		},
		SessionTTL:  time.Hour,
		GeoCacheTTL: weather.DefaultGeoCacheTTL,
		Port:        "8080",
	}
}

// Load reads .env (outside release mode), the YAML file at path and the
// environment, then validates the result. A missing YAML file is not an
// error.
func Load(path string) (*Config, error) {
	// In Docker (GIN_MODE=release) configuration is provided directly as
	// environment variables.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("WARNING: %s not found, using defaults.", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	c.RedisAddr = os.Getenv("REDIS_ADDR")
	c.WeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	if name, ok := providerKeys[c.Provider]; ok {
		c.LLMAPIKey = os.Getenv(name)
	}
}

// Validate reports the first missing or invalid setting.
func (c *Config) Validate() error {
	name, ok := providerKeys[c.Provider]
	if !ok {
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("%s environment variable is not set", name)
	}
	if c.WeatherAPIKey == "" {
		return errors.New("OPENWEATHER_API_KEY environment variable is not set")
	}
	if c.Model == "" {
		return errors.New("model is not set")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// AgentConfig returns the agent settings.
func (c *Config) AgentConfig() agent.Config {
	return agent.Config{
		Model:        c.Model,
		SystemPrompt: c.SystemPrompt,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
	}
}

// LLMOptions returns the client options for the configured provider.
func (c *Config) LLMOptions() []llm.ClientOption {
	opts := []llm.ClientOption{llm.WithTimeout(c.Timeouts.LLM)}
	if c.Endpoints.LLM != "" {
		opts = append(opts, llm.WithBaseURL(c.Endpoints.LLM))
	}
	return opts
}

// WeatherOptions returns the weather client options. Extra options, such
// as a geocoding cache, are appended.
func (c *Config) WeatherOptions(extra ...weather.Option) []weather.Option {
	opts := []weather.Option{weather.WithTimeout(c.Timeouts.Weather)}
	if c.Endpoints.Weather != "" {
		opts = append(opts, weather.WithWeatherURL(c.Endpoints.Weather))
	}
	if c.Endpoints.Geocoding != "" {
		opts = append(opts, weather.WithGeocodingURL(c.Endpoints.Geocoding))
	}
	if c.Endpoints.IPLookup != "" {
		opts = append(opts, weather.WithIPLookupURL(c.Endpoints.IPLookup))
	}
	return append(opts, extra...)
}

// ModelPricing returns the price of the configured model.
func (c *Config) ModelPricing() usage.Pricing {
	return c.Pricing.Lookup(c.Model)
}
