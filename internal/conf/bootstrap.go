// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Bootstrap is the root configuration of the ModelLane service.
type Bootstrap struct {
	Server    *Server
	Data      *Data
	Providers *Providers
	Breaker   *Breaker
	Dispatch  *Dispatch
	Admin     *Admin
	Log       *Log
}

// Server holds transport configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP holds the HTTP listener configuration.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds data-layer configuration.
type Data struct {
	Redis *Data_Redis
}

// Data_Redis holds the Redis connection configuration for the shared quota
// store. An empty Addr disables the store and the service degrades to
// process-local quota counters.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Provider holds the configuration of one upstream provider.
type Provider struct {
	ApiKey   string
	Enabled  bool
	Model    string
	BaseUrl  string
	ProxyUrl string
	// Static quota ceilings, defaulted to the vendor's free tier.
	DailyTokenLimit   int64
	RequestsPerMinute int32
	TokensPerMinute   int64
}

// Providers holds per-provider configuration and the capability-specific
// fallback chains.
type Providers struct {
	Gemini     *Provider
	Claude     *Provider
	Openrouter *Provider
	Tavily     *Provider
	// Orders maps a capability label (lowercase) to its ordered provider
	// fallback chain.
	Orders map[string][]string
}

// Get returns the configuration of the named provider, or nil for an
// unknown name.
func (p *Providers) Get(name string) *Provider {
	if p == nil {
		return nil
	}
	switch strings.ToLower(name) {
	case "gemini":
		return p.Gemini
	case "claude":
		return p.Claude
	case "openrouter":
		return p.Openrouter
	case "tavily":
		return p.Tavily
	}
	return nil
}

// Breaker holds the shared circuit breaker configuration applied to every
// upstream.
type Breaker struct {
	FailureThreshold int
	SuccessThreshold int
	OpenDuration     *durationpb.Duration
	Timeout          *durationpb.Duration
}

// Dispatch holds the retry-loop configuration.
type Dispatch struct {
	MaxRetries     int
	RetryBaseDelay *durationpb.Duration
}

// Admin holds the administrative API configuration.
type Admin struct {
	// Token guards mutating operational endpoints. Empty disables the guard.
	Token string
}

// Log holds logging configuration.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies
// defaults, and allows overrides from environment variables prefixed with
// MODELLANE_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Provider credentials are read from the vendor-conventional environment
// variables (GEMINI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY,
// TAVILY_API_KEY) when not present in the config file. A provider without a
// key simply reports as unavailable; none are hard-required.
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable support with MODELLANE_ prefix
	v.SetEnvPrefix("MODELLANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names for provider credentials
	_ = v.BindEnv("providers.gemini.api_key", "GEMINI_API_KEY", "MODELLANE_PROVIDERS_GEMINI_API_KEY")
	_ = v.BindEnv("providers.claude.api_key", "ANTHROPIC_API_KEY", "MODELLANE_PROVIDERS_CLAUDE_API_KEY")
	_ = v.BindEnv("providers.openrouter.api_key", "OPENROUTER_API_KEY", "MODELLANE_PROVIDERS_OPENROUTER_API_KEY")
	_ = v.BindEnv("providers.tavily.api_key", "TAVILY_API_KEY", "MODELLANE_PROVIDERS_TAVILY_API_KEY")
	_ = v.BindEnv("data.redis.addr", "MODELLANE_DATA_REDIS_ADDR")
	_ = v.BindEnv("admin.token", "ADMIN_TOKEN", "MODELLANE_ADMIN_TOKEN")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Providers: &Providers{
			Gemini:     providerFromViper(v, "gemini"),
			Claude:     providerFromViper(v, "claude"),
			Openrouter: providerFromViper(v, "openrouter"),
			Tavily:     providerFromViper(v, "tavily"),
			Orders:     ordersFromViper(v),
		},
		Breaker: &Breaker{
			FailureThreshold: v.GetInt("breaker.failure_threshold"),
			SuccessThreshold: v.GetInt("breaker.success_threshold"),
			OpenDuration:     durationpb.New(v.GetDuration("breaker.open_duration")),
			Timeout:          durationpb.New(v.GetDuration("breaker.timeout")),
		},
		Dispatch: &Dispatch{
			MaxRetries:     v.GetInt("dispatch.max_retries"),
			RetryBaseDelay: durationpb.New(v.GetDuration("dispatch.retry_base_delay")),
		},
		Admin: &Admin{
			Token: v.GetString("admin.token"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// providerFromViper reads one provider block.
func providerFromViper(v *viper.Viper, name string) *Provider {
	prefix := "providers." + name + "."
	return &Provider{
		ApiKey:            v.GetString(prefix + "api_key"),
		Enabled:           v.GetBool(prefix + "enabled"),
		Model:             v.GetString(prefix + "model"),
		BaseUrl:           v.GetString(prefix + "base_url"),
		ProxyUrl:          v.GetString(prefix + "proxy_url"),
		DailyTokenLimit:   v.GetInt64(prefix + "daily_token_limit"),
		RequestsPerMinute: int32(v.GetInt(prefix + "requests_per_minute")), // #nosec G115 -- config values are small
		TokensPerMinute:   v.GetInt64(prefix + "tokens_per_minute"),
	}
}

// ordersFromViper reads the capability fallback chains.
func ordersFromViper(v *viper.Viper) map[string][]string {
	orders := make(map[string][]string)
	for capability, providers := range v.GetStringMapStringSlice("routing.orders") {
		orders[strings.ToLower(capability)] = providers
	}
	return orders
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 5*time.Minute)

	// Data defaults; empty redis addr means "run without a shared store"
	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// Provider defaults: free-tier quota ceilings per vendor
	v.SetDefault("providers.gemini.enabled", true)
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("providers.gemini.daily_token_limit", 1_000_000)
	v.SetDefault("providers.gemini.requests_per_minute", 15)
	v.SetDefault("providers.gemini.tokens_per_minute", 250_000)

	v.SetDefault("providers.claude.enabled", true)
	v.SetDefault("providers.claude.model", "claude-3-5-haiku-latest")
	v.SetDefault("providers.claude.daily_token_limit", 300_000)
	v.SetDefault("providers.claude.requests_per_minute", 50)
	v.SetDefault("providers.claude.tokens_per_minute", 80_000)

	v.SetDefault("providers.openrouter.enabled", true)
	v.SetDefault("providers.openrouter.model", "meta-llama/llama-3.3-70b-instruct:free")
	v.SetDefault("providers.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("providers.openrouter.daily_token_limit", 200_000)
	v.SetDefault("providers.openrouter.requests_per_minute", 20)
	v.SetDefault("providers.openrouter.tokens_per_minute", 60_000)

	// Web search vendor: credits counted as tokens
	v.SetDefault("providers.tavily.enabled", true)
	v.SetDefault("providers.tavily.daily_token_limit", 1_000)
	v.SetDefault("providers.tavily.requests_per_minute", 100)
	v.SetDefault("providers.tavily.tokens_per_minute", 1_000)

	// Capability fallback chains
	v.SetDefault("routing.orders", map[string][]string{
		"supervisor": {"gemini", "claude", "openrouter"},
		"advisor":    {"claude", "gemini", "openrouter"},
		"stream":     {"gemini", "openrouter", "claude"},
	})

	// Breaker defaults
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.success_threshold", 2)
	v.SetDefault("breaker.open_duration", 30*time.Second)
	v.SetDefault("breaker.timeout", 60*time.Second)

	// Dispatch defaults
	v.SetDefault("dispatch.max_retries", 2)
	v.SetDefault("dispatch.retry_base_delay", 500*time.Millisecond)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that the loaded configuration is internally consistent.
func Validate(bc *Bootstrap) error {
	var problems []string

	if bc.Breaker != nil {
		if bc.Breaker.FailureThreshold <= 0 {
			problems = append(problems, "breaker.failure_threshold must be positive")
		}
		if bc.Breaker.SuccessThreshold <= 0 {
			problems = append(problems, "breaker.success_threshold must be positive")
		}
	}

	if bc.Dispatch != nil && bc.Dispatch.MaxRetries < 0 {
		problems = append(problems, "dispatch.max_retries must not be negative")
	}

	// Every provider referenced by a fallback chain must be a known one.
	if bc.Providers != nil {
		for capability, order := range bc.Providers.Orders {
			for _, name := range order {
				if bc.Providers.Get(name) == nil {
					problems = append(problems, fmt.Sprintf("routing.orders.%s references unknown provider %q", capability, name))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}
