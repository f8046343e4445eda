package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Ebay     EbayConfig     `yaml:"ebay" mapstructure:"ebay"`
	Oracles  OraclesConfig  `yaml:"oracles" mapstructure:"oracles"`
	Rules    RulesConfig    `yaml:"rules" mapstructure:"rules"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// EbayConfig holds Trading API credentials and tuning.
type EbayConfig struct {
	ClientID       string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret   string `yaml:"client_secret" mapstructure:"client_secret"`
	RefreshToken   string `yaml:"refresh_token" mapstructure:"refresh_token"`
	TradingURL     string `yaml:"trading_url" mapstructure:"trading_url"`
	EntriesPerPage int    `yaml:"entries_per_page" mapstructure:"entries_per_page"`
}

// OraclesConfig holds the classification providers. A provider with no
// key is left out of the panel.
type OraclesConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Anthropic   Oracle `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI      Oracle `yaml:"openai" mapstructure:"openai"`
	Gemini      Oracle `yaml:"gemini" mapstructure:"gemini"`
}

// Oracle holds one provider's key and model.
type Oracle struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RulesConfig locates the pricing rule source and the item/event catalog.
type RulesConfig struct {
	SourcePath  string `yaml:"source_path" mapstructure:"source_path"`
	SourceURL   string `yaml:"source_url" mapstructure:"source_url"`
	SheetName   string `yaml:"sheet_name" mapstructure:"sheet_name"`
	SkipRows    int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// CalendarConfig holds Google Calendar reminder settings.
type CalendarConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	RefreshToken string `yaml:"refresh_token" mapstructure:"refresh_token"`
	CalendarID   string `yaml:"calendar_id" mapstructure:"calendar_id"`
	LeadDays     int    `yaml:"lead_days" mapstructure:"lead_days"`
}

// ServerConfig configures the control API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// ScheduleConfig configures the recurring repricing run.
type ScheduleConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
	Live bool   `yaml:"live" mapstructure:"live"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DATERADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "pricing.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("ebay.trading_url", "https://api.ebay.com/ws/api.dll")
	v.SetDefault("ebay.entries_per_page", 100)
	v.SetDefault("oracles.timeout_secs", 30)
	v.SetDefault("oracles.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("oracles.openai.model", "gpt-4o-mini")
	v.SetDefault("oracles.gemini.model", "gemini-2.0-flash")
	v.SetDefault("rules.sheet_name", "PRICING_RULES")
	v.SetDefault("rules.skip_rows", 1)
	v.SetDefault("rules.catalog_path", "catalog.yaml")
	v.SetDefault("calendar.calendar_id", "primary")
	v.SetDefault("calendar.lead_days", 7)
	v.SetDefault("schedule.cron", "0 6 * * *")
	v.SetDefault("schedule.live", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields a command depends on are present.
// Mode names match the commands that call it.
func (c *Config) Validate(mode string) error {
	var missing []string

	requireEbay := func() {
		if c.Ebay.ClientID == "" {
			missing = append(missing, "ebay.client_id is required")
		}
		if c.Ebay.ClientSecret == "" {
			missing = append(missing, "ebay.client_secret is required")
		}
		if c.Ebay.RefreshToken == "" {
			missing = append(missing, "ebay.refresh_token is required")
		}
	}
	requireStore := func() {
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.Path == "" {
				missing = append(missing, "store.path is required")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url is required")
			}
		default:
			missing = append(missing, "store.driver must be sqlite or postgres")
		}
	}

	switch mode {
	case "reprice", "revert", "adjust":
		requireEbay()
		requireStore()
	case "rules-list":
		requireStore()
	case "classify", "rules-gen":
		requireStore()
		if c.Oracles.Anthropic.Key == "" && c.Oracles.OpenAI.Key == "" && c.Oracles.Gemini.Key == "" {
			zap.L().Warn("config: no oracle keys set, classification will use the fallback tier")
		}
	case "calsync":
		if c.Calendar.ClientID == "" || c.Calendar.ClientSecret == "" || c.Calendar.RefreshToken == "" {
			missing = append(missing, "calendar.client_id, calendar.client_secret and calendar.refresh_token are required")
		}
	case "serve":
		requireStore()
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	case "schedule":
		requireEbay()
		requireStore()
		if c.Schedule.Cron == "" {
			missing = append(missing, "schedule.cron is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
