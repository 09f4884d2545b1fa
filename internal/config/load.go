package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. IMAGINE_SERVER_PORT or IMAGINE_BROWSER_COOKIE_FILE.
const EnvPrefix = "IMAGINE"

// setDefaults registers the default value of every configuration key.
// Keys must be registered for viper's AutomaticEnv to pick them up during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("queue.max_retries", 2)
	v.SetDefault("queue.retry_delay", 30*time.Second)
	v.SetDefault("queue.default_prompt", "beautiful cat portrait")

	v.SetDefault("browser.target_url", "https://unitool.ai/en/midjourney")
	v.SetDefault("browser.input_selector",
		`textarea[placeholder*="prompt"], textarea[data-testid="chat-input"], .prompt-input`)
	v.SetDefault("browser.submit_selector",
		`button[type="submit"], [data-testid="send-message"], .send-btn`)
	v.SetDefault("browser.result_selector",
		`.generated-image, [data-testid="job-completed"], img[src*="cloudflarestorage"]`)
	v.SetDefault("browser.prompt_suffix", "--ar 16:9 --v 7 --stylize 750 --q 2")
	v.SetDefault("browser.image_host_markers", []string{"cloudflarestorage.com", "r2"})
	v.SetDefault("browser.max_images", 4)
	v.SetDefault("browser.navigation_timeout", 60*time.Second)
	v.SetDefault("browser.selector_timeout", 15*time.Second)
	v.SetDefault("browser.generation_timeout", 180*time.Second)
	v.SetDefault("browser.settle_delay", 5*time.Second)
	v.SetDefault("browser.validate_timeout", 10*time.Second)
	v.SetDefault("browser.cookie_file", "cookies.json")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.exec_path", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("history.retention", 7*24*time.Hour)
	v.SetDefault("history.prune_schedule", "@hourly")
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT is what most hosting platforms inject.
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
