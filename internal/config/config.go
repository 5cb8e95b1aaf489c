package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

// Values written by init-config that must be edited before the feeder runs.
const (
	PlaceholderMMSI = "00000"
	PlaceholderURL  = "https://erddap.example.com/erddap/tabledap/data_set"
	PlaceholderKey  = "username_password"
)

const (
	appDir      = "erddap-feeder"
	defaultFile = "default-config.toml"
)

var (
	ErrNotFound          = errors.New("configuration file not found")
	ErrNoStations        = errors.New("no [[mmsi_lookup]] entries defined")
	ErrPlaceholderMMSI   = errors.New("mmsi_lookup still contains the placeholder MMSI")
	ErrPlaceholderURL    = errors.New("erddap_url is still the placeholder URL")
	ErrPlaceholderKey    = errors.New("erddap_key is still the placeholder key")
	ErrInvalidRenamePair = errors.New("rename_fields entries need both from and to")
	ErrReservedRename    = errors.New("rename_fields target is a station or author query key")
)

// Config holds all service settings, read from a TOML file with environment
// overrides.
type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr" validate:"required"`
	LogLevel        string        `mapstructure:"log_level" validate:"required|in:debug,info,warn,error"`
	LogFormat       string        `mapstructure:"log_format" validate:"required|in:json,text"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DumpAllPackets  bool          `mapstructure:"dump_all_packets"`

	ERDDAPURL string       `mapstructure:"erddap_url" validate:"required|fullUrl"`
	ERDDAPKey string       `mapstructure:"erddap_key" validate:"required"`
	ERDDAP    ERDDAPConfig `mapstructure:"erddap"`
	Kafka     KafkaConfig  `mapstructure:"kafka_mirror"`

	// IgnoreMMSI is excluded under every acceptance rule.
	IgnoreMMSI    []uint64      `mapstructure:"ignore_mmsi"`
	PublishFields []string      `mapstructure:"publish_fields"`
	RenameFields  []RenamePair  `mapstructure:"rename_fields"`
	MMSILookup    []MMSILookup  `mapstructure:"mmsi_lookup"`
	Accept        []AcceptEntry `mapstructure:"accept"`

	// Path is the file the configuration was read from.
	Path string `mapstructure:"-"`
}

// ERDDAPConfig tunes the outbound client.
type ERDDAPConfig struct {
	// Timeout bounds one insert request; 0 leaves it unbounded.
	Timeout            time.Duration `mapstructure:"timeout"`
	RateLimit          float64       `mapstructure:"rate_limit"`
	RateBurst          int           `mapstructure:"rate_burst"`
	BreakerEnabled     bool          `mapstructure:"breaker_enabled"`
	BreakerFailures    uint32        `mapstructure:"breaker_failures"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout"`
}

// KafkaConfig controls the optional observation mirror.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// RenamePair maps a weather field name to its published name.
type RenamePair struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// MMSILookup names the station broadcasting from an MMSI.
type MMSILookup struct {
	MMSI      string `mapstructure:"mmsi"`
	StationID string `mapstructure:"station_id"`
}

// AcceptEntry is one acceptance rule. DAC and FID are omitted for rules that
// match on type alone.
type AcceptEntry struct {
	Type       uint64   `mapstructure:"type"`
	DAC        *uint64  `mapstructure:"dac"`
	FID        *uint64  `mapstructure:"fid"`
	IgnoreMMSI []uint64 `mapstructure:"ignore_mmsi"`
}

// DefaultPath returns <user config dir>/erddap-feeder/default-config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, appDir, defaultFile), nil
}

// Load reads the TOML file at path, applies environment overrides and
// defaults, and validates the result. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", "0.0.0.0:22022")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("dump_all_packets", false)

	v.SetDefault("erddap.timeout", "30s")
	v.SetDefault("erddap.rate_limit", 0)
	v.SetDefault("erddap.rate_burst", 1)
	v.SetDefault("erddap.breaker_enabled", false)
	v.SetDefault("erddap.breaker_failures", 5)
	v.SetDefault("erddap.breaker_open_timeout", "30s")

	v.SetDefault("kafka_mirror.enabled", false)
	v.SetDefault("kafka_mirror.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka_mirror.topic", "ais-weather-observations")
}

func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("http_addr", "HTTP_ADDR")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_format", "LOG_FORMAT")
	_ = v.BindEnv("shutdown_timeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("dump_all_packets", "DUMP_ALL_PACKETS")

	_ = v.BindEnv("erddap_url", "ERDDAP_URL")
	_ = v.BindEnv("erddap_key", "ERDDAP_KEY")
	_ = v.BindEnv("erddap.timeout", "ERDDAP_TIMEOUT")
	_ = v.BindEnv("erddap.rate_limit", "ERDDAP_RATE_LIMIT")
	_ = v.BindEnv("erddap.breaker_enabled", "ERDDAP_BREAKER_ENABLED")

	_ = v.BindEnv("kafka_mirror.enabled", "KAFKA_MIRROR_ENABLED")
	_ = v.BindEnv("kafka_mirror.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("kafka_mirror.topic", "KAFKA_MIRROR_TOPIC")
}

// Validate runs struct-tag validation, then the semantic checks that refuse
// an unedited template.
func (c *Config) Validate() error {
	sv := validate.Struct(c)
	if !sv.Validate() {
		return sv.Errors
	}

	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	if c.ERDDAP.Timeout < 0 {
		return errors.New("erddap.timeout must not be negative")
	}
	if c.ERDDAP.RateLimit < 0 {
		return errors.New("erddap.rate_limit must not be negative")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Brokers[0] == "" {
			return errors.New("kafka_mirror.brokers is required when the mirror is enabled")
		}
		if c.Kafka.Topic == "" {
			return errors.New("kafka_mirror.topic is required when the mirror is enabled")
		}
	}
	for _, r := range c.RenameFields {
		if r.From == "" || r.To == "" {
			return fmt.Errorf("%w: %+v", ErrInvalidRenamePair, r)
		}
		if domain.IsReservedKey(r.To) {
			return fmt.Errorf("%w: %s -> %s", ErrReservedRename, r.From, r.To)
		}
	}

	if len(c.MMSILookup) == 0 {
		return ErrNoStations
	}
	for _, l := range c.MMSILookup {
		if l.MMSI == PlaceholderMMSI {
			return ErrPlaceholderMMSI
		}
	}
	if c.ERDDAPURL == PlaceholderURL {
		return ErrPlaceholderURL
	}
	if c.ERDDAPKey == PlaceholderKey {
		return ErrPlaceholderKey
	}
	return nil
}

// AcceptanceTable builds the rule table. With no [[accept]] entries the
// single IMO 289 meteorological rule (type 8, DAC 1, FID 31) is used. The
// returned identifiers were defined more than once; the last definition won.
func (c *Config) AcceptanceTable() (*domain.AcceptanceTable, []domain.MessageIdentifier) {
	entries := c.Accept
	if len(entries) == 0 {
		dac, fid := uint64(1), uint64(31)
		entries = []AcceptEntry{{Type: 8, DAC: &dac, FID: &fid}}
	}

	rules := make([]domain.AcceptanceRule, 0, len(entries))
	for _, e := range entries {
		ignore := append(append([]uint64(nil), c.IgnoreMMSI...), e.IgnoreMMSI...)
		rules = append(rules, domain.NewAcceptanceRule(domain.NewIdentifier(e.Type, e.DAC, e.FID), ignore...))
	}
	return domain.NewAcceptanceTable(rules)
}

// PublishConfig builds the allow-list and rename map.
func (c *Config) PublishConfig() domain.PublishConfig {
	pairs := make([][2]string, 0, len(c.RenameFields))
	for _, r := range c.RenameFields {
		pairs = append(pairs, [2]string{r.From, r.To})
	}
	return domain.NewPublishConfig(c.PublishFields, pairs)
}

// StationNames builds the MMSI to station name table.
func (c *Config) StationNames() domain.StationNameTable {
	names := make(domain.StationNameTable, len(c.MMSILookup))
	for _, l := range c.MMSILookup {
		names[strings.TrimSpace(l.MMSI)] = l.StationID
	}
	return names
}
