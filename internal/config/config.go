package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration for both surfaces.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Audio   AudioConfig   `yaml:"audio"`
	Rules   RulesConfig   `yaml:"rules"`
	Session SessionConfig `yaml:"session"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`

	// File is the config file that was read, empty when none was found.
	File string `yaml:"-"`
}

type BackendConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	AuthEnabled bool          `yaml:"auth_enabled"`
	TokenSkew   time.Duration `yaml:"token_skew"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
}

type RulesConfig struct {
	Path           string `yaml:"path"`
	IterationLimit int    `yaml:"iteration_limit"`
	Watch          bool   `yaml:"watch"`
}

type SessionConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// SettleDelay keeps the transcript on screen before editing starts; zero disables it.
	SettleDelay   time.Duration `yaml:"settle_delay"`
	MaxAudioBytes int           `yaml:"max_audio_bytes"`
}

type WebConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults(home string) Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:   "http://localhost:6001",
			TokenSkew: 30 * time.Second,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      48000,
			Channels:        1,
		},
		Rules: RulesConfig{
			Path:           filepath.Join(home, ".config", "vocabtalk", "transcript.rules"),
			IterationLimit: 30,
			Watch:          true,
		},
		Session: SessionConfig{
			ChunkSize:     4096,
			SettleDelay:   1500 * time.Millisecond,
			MaxAudioBytes: 10 << 20,
		},
		Web: WebConfig{
			Addr:           "127.0.0.1:3003",
			AllowedOrigins: []string{"http://localhost:3003"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load resolves configuration from defaults, an optional YAML file and
// environment variables, in that order. VOCABTALK_CONFIG names the file;
// otherwise ~/.config/vocabtalk/config.yaml is used when it exists.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := Defaults(home)

	path := strings.TrimSpace(os.Getenv("VOCABTALK_CONFIG"))
	required := path != ""
	if !required {
		path = filepath.Join(home, ".config", "vocabtalk", "config.yaml")
	}
	if err := readFile(path, required, &cfg); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	normalize(&cfg, Defaults(home))
	return cfg, nil
}

func readFile(path string, required bool, cfg *Config) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	cfg.File = path
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Backend.BaseURL = envOrDefault("VOCABTALK_API_BASE_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = envOrDefaultMillis("VOCABTALK_API_TIMEOUT_MS", cfg.Backend.Timeout)
	cfg.Backend.AuthEnabled = envOrDefaultBool("VOCABTALK_AUTH_ENABLED", cfg.Backend.AuthEnabled)
	cfg.Backend.TokenSkew = envOrDefaultMillis("VOCABTALK_TOKEN_SKEW_MS", cfg.Backend.TokenSkew)

	cfg.Audio.RecorderCommand = envOrDefault("VOCABTALK_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("VOCABTALK_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(
		os.Getenv("VOCABTALK_AUDIO_INPUT_DEVICE"),
		os.Getenv("PULSE_SOURCE"),
		cfg.Audio.InputDevice,
	)
	cfg.Audio.SampleRate = envOrDefaultInt("VOCABTALK_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("VOCABTALK_CHANNELS", cfg.Audio.Channels)

	cfg.Rules.Path = envOrDefault("VOCABTALK_RULES_FILE", cfg.Rules.Path)
	cfg.Rules.IterationLimit = envOrDefaultInt("VOCABTALK_RULE_ITERATION_LIMIT", cfg.Rules.IterationLimit)
	cfg.Rules.Watch = envOrDefaultBool("VOCABTALK_RULES_WATCH", cfg.Rules.Watch)

	cfg.Session.ChunkSize = envOrDefaultInt("VOCABTALK_AUDIO_CHUNK_SIZE", cfg.Session.ChunkSize)
	cfg.Session.SettleDelay = envOrDefaultMillis("VOCABTALK_SETTLE_DELAY_MS", cfg.Session.SettleDelay)
	cfg.Session.MaxAudioBytes = envOrDefaultInt("VOCABTALK_MAX_AUDIO_BYTES", cfg.Session.MaxAudioBytes)

	cfg.Web.Addr = envOrDefault("VOCABTALK_WEB_ADDR", cfg.Web.Addr)
	if origins := splitList(os.Getenv("VOCABTALK_WEB_ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.Web.AllowedOrigins = origins
	}

	cfg.Log.Level = envOrDefault("VOCABTALK_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Development = envOrDefaultBool("VOCABTALK_LOG_DEVELOPMENT", cfg.Log.Development)
}

func normalize(cfg *Config, defaults Config) {
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if cfg.Backend.Timeout < 0 {
		cfg.Backend.Timeout = 0
	}
	if cfg.Backend.TokenSkew < 0 {
		cfg.Backend.TokenSkew = defaults.Backend.TokenSkew
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = defaults.Audio.Channels
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = defaults.Rules.IterationLimit
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = defaults.Session.ChunkSize
	}
	if cfg.Session.SettleDelay < 0 {
		cfg.Session.SettleDelay = defaults.Session.SettleDelay
	}
	if cfg.Session.MaxAudioBytes <= 0 {
		cfg.Session.MaxAudioBytes = defaults.Session.MaxAudioBytes
	}
	if strings.TrimSpace(cfg.Web.Addr) == "" {
		cfg.Web.Addr = defaults.Web.Addr
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultMillis(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
