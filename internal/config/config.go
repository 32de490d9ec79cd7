// Package config loads process settings and the named-environment map.
//
// Settings come from defaults, an optional config file and environment
// variables prefixed SPRINTSYNC_. The environment map comes from
// NOTION_CONFIGS_JSON, or from the environments section of the config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/foospace/sprintsync/internal/logging"
	"github.com/foospace/sprintsync/internal/notion"
	"github.com/foospace/sprintsync/internal/telemetry"
	"github.com/foospace/sprintsync/internal/warehouse"
	"github.com/foospace/sprintsync/internal/warehouse/factory"
)

// EnvPrefix is prepended to every settings environment variable.
const EnvPrefix = "SPRINTSYNC"

// ConfigsEnvVar holds the JSON environment map.
const ConfigsEnvVar = "NOTION_CONFIGS_JSON"

// Settings are the process-wide knobs.
type Settings struct {
	Source           string            `mapstructure:"source" yaml:"source"`
	NotionAPIVersion string            `mapstructure:"notion_api_version" yaml:"notion_api_version"`
	NotionBaseURL    string            `mapstructure:"notion_base_url" yaml:"notion_base_url,omitempty"`
	Dataset          string            `mapstructure:"dataset" yaml:"dataset,omitempty"`
	Tables           warehouse.Tables  `mapstructure:"tables" yaml:"tables"`
	Warehouse        factory.Config    `mapstructure:"warehouse" yaml:"warehouse"`
	Log              logging.Options   `mapstructure:"log" yaml:"-"`
	Server           ServerSettings    `mapstructure:"server" yaml:"server"`
	TitleConcurrency int               `mapstructure:"title_concurrency" yaml:"title_concurrency"`
	Telemetry        telemetry.Options `mapstructure:"telemetry" yaml:"telemetry"`
}

// ServerSettings configure the HTTP trigger.
type ServerSettings struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// Addr is the listen address.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// QualifiedTables prefixes each table with the dataset when one is set.
func (s Settings) QualifiedTables() warehouse.Tables {
	if s.Dataset == "" {
		return s.Tables
	}
	q := func(t string) string {
		if strings.Contains(t, ".") {
			return t
		}
		return s.Dataset + "." + t
	}
	return warehouse.Tables{AllTasks: q(s.Tables.AllTasks), CompletedTasks: q(s.Tables.CompletedTasks)}
}

// Config is the loaded configuration. Environments may be reloaded while
// the process runs; settings are fixed after Load.
type Config struct {
	Settings

	v         *viper.Viper
	lookupEnv func(string) (string, bool)

	mu   sync.RWMutex
	envs environments
}

// Options tune Load.
type Options struct {
	// File is an explicit config file. Empty searches for sprintsync.yaml
	// in the working directory and $HOME/.config/sprintsync.
	File string
	// LookupEnv replaces os.LookupEnv for secrets and NOTION_CONFIGS_JSON.
	LookupEnv func(string) (string, bool)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", notion.SourceName)
	v.SetDefault("notion_api_version", notion.DefaultAPIVersion)
	v.SetDefault("tables.all_tasks_table", "all_tasks")
	v.SetDefault("tables.completed_tasks_table", "completed_tasks")
	v.SetDefault("warehouse.driver", factory.BackendDolt)
	v.SetDefault("warehouse.host", "127.0.0.1")
	v.SetDefault("warehouse.port", 3307)
	v.SetDefault("warehouse.user", "root")
	v.SetDefault("warehouse.database", "sprintsync")
	v.SetDefault("warehouse.connect_timeout", 30*time.Second)
	v.SetDefault("log.format", "text")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("title_concurrency", 4)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.stdout", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.metric_interval", 30*time.Second)
}

// legacyEnv maps settings keys to the variable names older deployments use.
var legacyEnv = map[string]string{
	"dataset":                      "BQ_DATASET_ID",
	"tables.all_tasks_table":       "BQ_ALL_TASKS_TABLE_ID",
	"tables.completed_tasks_table": "BQ_COMPLETED_TASKS_TABLE_ID",
	"notion_api_version":           "NOTION_API_VERSION",
	"server.port":                  "PORT",
	"telemetry.endpoint":           "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load reads settings and the environment map.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for key, name := range legacyEnv {
		// Prefixed names win over the legacy ones.
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("sprintsync")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sprintsync")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{v: v, lookupEnv: opts.LookupEnv}
	if cfg.lookupEnv == nil {
		cfg.lookupEnv = osLookupEnv
	}
	if err := v.Unmarshal(&cfg.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	cfg.envs = cfg.loadEnvironments()
	return cfg, nil
}

// ConfigFile returns the file settings were read from, or "".
func (c *Config) ConfigFile() string {
	return c.v.ConfigFileUsed()
}
