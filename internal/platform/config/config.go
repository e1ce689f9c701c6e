// Package config loads service configuration from a YAML file and
// environment variables. Priority: ENV > YAML > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Platform    PlatformConfig    `yaml:"platform"`
	Attribution AttributionConfig `yaml:"attribution"`
	Topology    TopologyConfig    `yaml:"topology"`
	Storage     StorageConfig     `yaml:"storage"`
	Ops         OpsConfig         `yaml:"ops"`
	Log         LogConfig         `yaml:"log"`
}

// PlatformConfig identifies the two guilds and how to reach the platform.
type PlatformConfig struct {
	Token          string `yaml:"token"            env:"CORD_TOKEN"`
	APIBaseURL     string `yaml:"api_base_url"     env:"CORD_API_BASE_URL" env-default:"https://chat.example.com/api/v10"`
	TargetGuildID  string `yaml:"target_guild_id"  env:"CORD_TARGET_GUILD_ID"`
	LoggingGuildID string `yaml:"logging_guild_id" env:"CORD_LOGGING_GUILD_ID"`
}

// AttributionConfig tunes the audit-trail correlation heuristics. The
// defaults mirror what the platform's eventual consistency makes workable:
// settle delays in the hundreds of milliseconds, a match window of a few
// seconds.
type AttributionConfig struct {
	MessageDeleteDelay time.Duration `yaml:"message_delete_delay" env:"CORD_MESSAGE_DELETE_DELAY" env-default:"1s"`
	VoiceMoveDelay     time.Duration `yaml:"voice_move_delay"     env:"CORD_VOICE_MOVE_DELAY"     env-default:"800ms"`
	ModerationDelay    time.Duration `yaml:"moderation_delay"     env:"CORD_MODERATION_DELAY"     env-default:"500ms"`
	MatchWindow        time.Duration `yaml:"match_window"         env:"CORD_MATCH_WINDOW"         env-default:"5s"`
	CacheTTL           time.Duration `yaml:"cache_ttl"            env:"CORD_CACHE_TTL"            env-default:"5s"`
	AuditPageSize      int           `yaml:"audit_page_size"      env:"CORD_AUDIT_PAGE_SIZE"      env-default:"5"`
	YoungAccountAge    time.Duration `yaml:"young_account_age"    env:"CORD_YOUNG_ACCOUNT_AGE"    env-default:"168h"`
}

// TopologyConfig names the provisioned category. Channel keys, names, and
// topics are fixed in the topology package's layout table.
type TopologyConfig struct {
	CategoryName string `yaml:"category_name" env:"CORD_CATEGORY_NAME" env-default:"c0rd"`
}

// StorageConfig locates the durable topology record.
type StorageConfig struct {
	Path string `yaml:"path" env:"CORD_STORAGE_PATH" env-default:"./data/topology.db"`
}

// OpsConfig holds the operational HTTP endpoint settings.
type OpsConfig struct {
	Addr            string        `yaml:"addr"             env:"CORD_OPS_ADDR"             env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CORD_OPS_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logger settings. DryRun swaps the platform notifier for a
// log-only one; nothing is posted to the logging guild.
type LogConfig struct {
	Level  string `yaml:"level"   env:"CORD_LOG_LEVEL" env-default:"info"`
	DryRun bool   `yaml:"dry_run" env:"CORD_DRY_RUN"   env-default:"false"`
}

// Load reads configuration from a YAML file and environment variables.
// The YAML file path comes from CONFIG_PATH (fallback "./config.yaml"). If
// the file does not exist and CONFIG_PATH was not set explicitly,
// configuration is loaded from ENV + defaults only.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		// No file, load from ENV + defaults only.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate aggregates every missing required field into one error so a
// misconfigured deployment fails with the complete list, not one field at a
// time.
func (c *Config) Validate() error {
	var missing []string
	if c.Platform.Token == "" {
		missing = append(missing, "CORD_TOKEN")
	}
	if c.Platform.TargetGuildID == "" {
		missing = append(missing, "CORD_TARGET_GUILD_ID")
	}
	if c.Platform.LoggingGuildID == "" {
		missing = append(missing, "CORD_LOGGING_GUILD_ID")
	}
	if len(missing) > 0 {
		return errors.New("missing required settings: " + strings.Join(missing, ", "))
	}

	if c.Attribution.AuditPageSize <= 0 {
		return errors.New("audit_page_size must be positive")
	}
	if c.Attribution.MatchWindow <= 0 {
		return errors.New("match_window must be positive")
	}
	if c.Attribution.CacheTTL <= 0 {
		return errors.New("cache_ttl must be positive")
	}
	if c.Topology.CategoryName == "" {
		return errors.New("category_name must not be empty")
	}
	return nil
}
