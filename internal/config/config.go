package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type SupabaseConfig struct {
	URL             string `mapstructure:"url"`
	AnonKey         string `mapstructure:"anon_key"`
	AuthRedirectURL string `mapstructure:"auth_redirect_url"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type Config struct {
	DatabaseURL           string         `mapstructure:"database_url"`
	ServerPort            string         `mapstructure:"server_port"`
	JWTSecret             string         `mapstructure:"jwt_secret"`
	AllowedOrigins        []string       `mapstructure:"allowed_origins"`
	CallbackRedirectDelay time.Duration  `mapstructure:"callback_redirect_delay"`
	Supabase              SupabaseConfig `mapstructure:"supabase"`
	Redis                 RedisConfig    `mapstructure:"redis"`
}

// environment variables consulted besides the config file
var envBindings = map[string][]string{
	"database_url":               {"DATABASE_URL"},
	"server_port":                {"SERVER_PORT", "PORT"},
	"jwt_secret":                 {"JWT_SECRET"},
	"allowed_origins":            {"ALLOWED_ORIGINS"},
	"callback_redirect_delay":    {"CALLBACK_REDIRECT_DELAY"},
	"supabase.url":               {"SUPABASE_URL", "VITE_SUPABASE_URL"},
	"supabase.anon_key":          {"SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"},
	"supabase.auth_redirect_url": {"AUTH_ENDPOINT", "VITE_AUTH_ENDPOINT"},
	"redis.url":                  {"REDIS_URL"},
	"redis.channel":              {"REDIS_CHANNEL"},
}

// Load reads .env, an optional config.yaml, and the environment, and exits when
// a required setting is missing.
func Load() *Config {
	for _, path := range []string{".env", "config/.env"} {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Error reading config file: %v", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// FromViper binds the environment onto v, unmarshals it, applies defaults and
// validates the result.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetDefault("server_port", "8080")
	v.SetDefault("callback_redirect_delay", 3*time.Second)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("redis.channel", "console:notifications")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// env values arrive as one comma separated string
	config.AllowedOrigins = splitList(strings.Join(config.AllowedOrigins, ","))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Supabase.URL) == "" {
		missing = append(missing, "supabase.url")
	}
	if strings.TrimSpace(c.Supabase.AnonKey) == "" {
		missing = append(missing, "supabase.anon_key")
	}
	if strings.TrimSpace(c.Supabase.AuthRedirectURL) == "" {
		missing = append(missing, "supabase.auth_redirect_url")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		missing = append(missing, "jwt_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.CallbackRedirectDelay < 0 {
		return fmt.Errorf("callback_redirect_delay must not be negative")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
