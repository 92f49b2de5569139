// Package config loads and validates the security core's runtime
// configuration. Defaults come from the struct below; environment
// variables prefixed SCRIPTGATE_ override them, with underscores
// mapping to nesting (SCRIPTGATE_RATELIMIT_DEFAULT_CAPACITY).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the environment variable prefix for overrides.
const EnvPrefix = "SCRIPTGATE_"

// Config is the full runtime configuration.
type Config struct {
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Validator ValidatorConfig `koanf:"validator" validate:"required"`
	RateLimit RateLimitConfig `koanf:"ratelimit" validate:"required"`
	Secrets   SecretsConfig   `koanf:"secrets"   validate:"required"`
	Audit     AuditConfig     `koanf:"audit"     validate:"required"`
	Threat    ThreatConfig    `koanf:"threat"    validate:"required"`
	Fetch     FetchConfig     `koanf:"fetch"     validate:"required"`
	Storage   StorageConfig   `koanf:"storage"   validate:"required"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json logfmt"`
}

// ValidatorConfig bounds guest payload sizes.
type ValidatorConfig struct {
	MaxScriptSize int `koanf:"max_script_size" validate:"gt=0"`
	MaxFieldSize  int `koanf:"max_field_size"  validate:"gt=0"`
}

// RateLimitConfig controls token bucket admission.
type RateLimitConfig struct {
	DefaultRefillPerSecond float64       `koanf:"default_refill_per_second" validate:"gt=0"`
	DefaultCapacity        int           `koanf:"default_capacity"          validate:"gt=0"`
	CleanupInterval        time.Duration `koanf:"cleanup_interval"          validate:"gt=0"`
	BucketExpiry           time.Duration `koanf:"bucket_expiry"             validate:"gt=0"`
}

// SecretsConfig controls the secrets store.
type SecretsConfig struct {
	// EnvPrefix selects which process environment variables seed the
	// store (e.g. "SECRET_").
	EnvPrefix string `koanf:"env_prefix" validate:"required"`
}

// AuditConfig controls audit retention and forwarding.
type AuditConfig struct {
	RingSize      int `koanf:"ring_size"      validate:"gt=0"`
	ForwardBuffer int `koanf:"forward_buffer" validate:"gt=0"`
}

// ThreatConfig controls threat detection thresholds.
type ThreatConfig struct {
	Window              time.Duration `koanf:"window"                validate:"gt=0"`
	AuthFailures        int           `koanf:"auth_failures"         validate:"gt=0"`
	CapabilityDenials   int           `koanf:"capability_denials"    validate:"gt=0"`
	RateLimitViolations int           `koanf:"ratelimit_violations"  validate:"gt=0"`
	DangerousPatterns   int           `koanf:"dangerous_patterns"    validate:"gt=0"`
	DistinctSources     int           `koanf:"distinct_sources"      validate:"gt=0"`
	MaxPrincipals       int           `koanf:"max_principals"        validate:"gt=0"`
}

// FetchConfig controls mediated outbound HTTP.
type FetchConfig struct {
	DelegateTimeout time.Duration `koanf:"delegate_timeout"  validate:"gt=0"`
	MaxResponseSize int           `koanf:"max_response_size" validate:"gt=0"`
	AllowPrivate    bool          `koanf:"allow_private"`
}

// StorageConfig roots the file-backed repositories.
type StorageConfig struct {
	ScriptsDir string `koanf:"scripts_dir" validate:"required"`
	AssetsDir  string `koanf:"assets_dir"  validate:"required"`
	TablesDir  string `koanf:"tables_dir"  validate:"required"`
	RolesPath  string `koanf:"roles_path"  validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Validator: ValidatorConfig{
			MaxScriptSize: 1 * 1024 * 1024,
			MaxFieldSize:  64 * 1024,
		},
		RateLimit: RateLimitConfig{
			DefaultRefillPerSecond: 10,
			DefaultCapacity:        20,
			CleanupInterval:        time.Hour,
			BucketExpiry:           24 * time.Hour,
		},
		Secrets: SecretsConfig{
			EnvPrefix: "SECRET_",
		},
		Audit: AuditConfig{
			RingSize:      4096,
			ForwardBuffer: 1024,
		},
		Threat: ThreatConfig{
			Window:              5 * time.Minute,
			AuthFailures:        5,
			CapabilityDenials:   10,
			RateLimitViolations: 20,
			DangerousPatterns:   3,
			DistinctSources:     4,
			MaxPrincipals:       8192,
		},
		Fetch: FetchConfig{
			DelegateTimeout: 30 * time.Second,
			MaxResponseSize: 10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			ScriptsDir: "data/scripts",
			AssetsDir:  "data/assets",
			TablesDir:  "data/tables",
			RolesPath:  "data/roles.yaml",
		},
	}
}

// Load builds the configuration from defaults and environment
// overrides, then validates it. Invalid configuration fails loading;
// the enforcement pipeline never starts on a half-checked config.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks structural constraints on an assembled Config.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// transformEnvKey maps RATELIMIT_DEFAULT_CAPACITY to
// ratelimit.default_capacity: first segment is the section, the rest
// is the field name.
func transformEnvKey(s string) string {
	s = strings.ToLower(s)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' })
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}
