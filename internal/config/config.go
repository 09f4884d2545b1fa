package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Browser  BrowserConfig  `mapstructure:"browser"  validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	History  HistoryConfig  `mapstructure:"history"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// QueueConfig controls the serial job queue and the retry policy applied to
// every job it dispatches.
type QueueConfig struct {
	MaxRetries    int           `mapstructure:"max_retries"    validate:"gte=0,lte=10"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"    validate:"gte=0"`
	DefaultPrompt string        `mapstructure:"default_prompt" validate:"required"`
}

// BrowserConfig describes the headless browser and the page it drives.
// Selectors and timings track the upstream site's markup; they are expected to
// change without notice.
type BrowserConfig struct {
	TargetURL         string        `mapstructure:"target_url"         validate:"required,url"`
	InputSelector     string        `mapstructure:"input_selector"     validate:"required"`
	SubmitSelector    string        `mapstructure:"submit_selector"    validate:"required"`
	ResultSelector    string        `mapstructure:"result_selector"    validate:"required"`
	PromptSuffix      string        `mapstructure:"prompt_suffix"`
	ImageHostMarkers  []string      `mapstructure:"image_host_markers" validate:"required,min=1,dive,required"`
	MaxImages         int           `mapstructure:"max_images"         validate:"gt=0"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" validate:"gt=0"`
	SelectorTimeout   time.Duration `mapstructure:"selector_timeout"   validate:"gt=0"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout" validate:"gt=0"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"       validate:"gte=0"`
	ValidateTimeout   time.Duration `mapstructure:"validate_timeout"   validate:"gt=0"`
	CookieFile        string        `mapstructure:"cookie_file"`
	Headless          bool          `mapstructure:"headless"`
	UserAgent         string        `mapstructure:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width"       validate:"gt=0"`
	WindowHeight      int           `mapstructure:"window_height"      validate:"gt=0"`
	ExecPath          string        `mapstructure:"exec_path"`
}

// DatabaseConfig contains the optional job history database settings.
// An empty URL keeps history in memory.
type DatabaseConfig struct {
	URL         string `mapstructure:"url"          validate:"omitempty,url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// HistoryConfig controls how long finished job records are kept.
type HistoryConfig struct {
	Retention     time.Duration `mapstructure:"retention"      validate:"gt=0"`
	PruneSchedule string        `mapstructure:"prune_schedule" validate:"required"`
}
