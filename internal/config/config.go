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
	Scratch     ScratchConfig     `yaml:"scratch" mapstructure:"scratch"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Suitability SuitabilityConfig `yaml:"suitability" mapstructure:"suitability"`
	Zonal       ZonalConfig       `yaml:"zonal" mapstructure:"zonal"`
	Similarity  SimilarityConfig  `yaml:"similarity" mapstructure:"similarity"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ScratchConfig configures the per-run temporary workspace.
type ScratchConfig struct {
	Dir               string `yaml:"dir" mapstructure:"dir"`
	KeepIntermediates bool   `yaml:"keep_intermediates" mapstructure:"keep_intermediates"`
}

// StoreConfig configures the run-history registry.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SuitabilityConfig configures the suitability pipeline.
type SuitabilityConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ZonalConfig configures the zonal statistics tool.
type ZonalConfig struct {
	Classes       int    `yaml:"classes" mapstructure:"classes"`
	Stats         string `yaml:"stats" mapstructure:"stats"`
	IncludeNoData bool   `yaml:"include_nodata" mapstructure:"include_nodata"`
	ZoneIDField   string `yaml:"zone_id_field" mapstructure:"zone_id_field"`
	ZoneNameField string `yaml:"zone_name_field" mapstructure:"zone_name_field"`
}

// SimilarityConfig configures the similarity analyzer's statistics
// backend: "gonum" runs in-process, "exec" shells out to ExecCommand.
type SimilarityConfig struct {
	Backend     string   `yaml:"backend" mapstructure:"backend"`
	ExecCommand []string `yaml:"exec_command" mapstructure:"exec_command"`
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
	v.SetEnvPrefix("SUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scratch.dir", "")
	v.SetDefault("scratch.keep_intermediates", false)
	v.SetDefault("store.path", "suitability_runs.db")
	v.SetDefault("suitability.workers", 4)
	v.SetDefault("zonal.classes", 5)
	v.SetDefault("zonal.stats", "mean,min,max,count")
	v.SetDefault("zonal.include_nodata", false)
	v.SetDefault("zonal.zone_id_field", "")
	v.SetDefault("zonal.zone_name_field", "")
	v.SetDefault("similarity.backend", "gonum")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	switch c.Similarity.Backend {
	case "gonum", "exec":
	default:
		return eris.Errorf("config: similarity.backend %q (want gonum or exec)", c.Similarity.Backend)
	}
	if c.Similarity.Backend == "exec" && len(c.Similarity.ExecCommand) == 0 {
		return eris.New("config: similarity.exec_command required for the exec backend")
	}
	if c.Suitability.Workers < 1 {
		return eris.Errorf("config: suitability.workers %d must be >= 1", c.Suitability.Workers)
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
