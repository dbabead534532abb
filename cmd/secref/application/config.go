package application

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/anchore/go-logger"

	"github.com/itsmeakapa/secref/cmd/secref/cli/options"
	"github.com/itsmeakapa/secref/internal/utils"
)

var ErrApplicationConfigNotFound = errors.New("application config not found")

// ConfigSearchLocations are tried in order when no explicit config path is given.
var ConfigSearchLocations = []string{
	"." + Name + ".yaml",
	Name + ".yaml",
	"." + Name + "/config.yaml",
	"~/." + Name + ".yaml",
	"~/" + Name + ".yaml",
	filepath.Join(xdg.ConfigHome, Name, "config.yaml"),
}

type Config struct {
	ConfigPath string      `yaml:"-" json:"-" mapstructure:"-"`
	Log        Log         `yaml:"log" json:"log" mapstructure:"log"`
	Dev        Development `yaml:"dev" json:"dev" mapstructure:"dev"`
	DryRun     bool        `yaml:"-" json:"-" mapstructure:"dry-run"`

	// DisableLoadFromDisk skips the config file search (used when rendering example configuration).
	DisableLoadFromDisk bool `yaml:"-" json:"-" mapstructure:"-"`
}

type Log struct {
	Quiet        bool         `yaml:"quiet" json:"quiet" mapstructure:"quiet"`
	Verbosity    int          `yaml:"-" json:"-" mapstructure:"verbosity"`
	Level        logger.Level `yaml:"level" json:"level" mapstructure:"level"`
	FileLocation string       `yaml:"file" json:"file-location" mapstructure:"file"`
}

type Development struct {
	ProfileCPU bool `yaml:"profile-cpu" json:"profile-cpu" mapstructure:"profile-cpu"`
	ProfileMem bool `yaml:"profile-mem" json:"profile-mem" mapstructure:"profile-mem"`
}

func (cfg *Config) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	if err := options.Bind(v, "log.quiet", flags.Lookup("quiet")); err != nil {
		return err
	}
	if err := options.Bind(v, "log.verbosity", flags.Lookup("verbose")); err != nil {
		return err
	}
	return options.Bind(v, "dry-run", flags.Lookup("dry-run"))
}

func (cfg *Config) Load(v *viper.Viper) error {
	// set default values for config items not attached to flags
	v.SetDefault("log.level", string(logger.InfoLevel))
	v.SetDefault("log.file", "")
	v.SetDefault("dev.profile-cpu", false)
	v.SetDefault("dev.profile-mem", false)

	if !cfg.DisableLoadFromDisk {
		if err := readConfig(v, cfg.ConfigPath); err != nil && !errors.Is(err, ErrApplicationConfigNotFound) {
			return err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to parse application config: %w", err)
	}

	cfg.Log.FileLocation = utils.ExpandFilePath(cfg.Log.FileLocation)

	return cfg.parseLogLevelOption()
}

func (cfg *Config) parseLogLevelOption() error {
	switch {
	case cfg.Log.Quiet:
		cfg.Log.Level = logger.DisabledLevel
	case cfg.Log.Verbosity == 1:
		cfg.Log.Level = logger.DebugLevel
	case cfg.Log.Verbosity >= 2:
		cfg.Log.Level = logger.TraceLevel
	default:
		if cfg.Log.Level == "" {
			cfg.Log.Level = logger.InfoLevel
		}
		lvl, err := logger.LevelFromString(string(cfg.Log.Level))
		if err != nil {
			return fmt.Errorf("bad log level value %q: %w", cfg.Log.Level, err)
		}
		cfg.Log.Level = lvl
	}
	return nil
}

func (cfg Config) String() string {
	by, err := yaml.Marshal(&cfg)
	if err != nil {
		type plainConfig Config
		return fmt.Sprintf("%+v", plainConfig(cfg))
	}
	return string(by)
}

func readConfig(v *viper.Viper, configPath string) error {
	v.SetConfigType("yaml")

	// an explicitly provided config must exist
	if configPath != "" {
		v.SetConfigFile(utils.ExpandFilePath(configPath))
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read application config %q: %w", configPath, err)
		}
		return nil
	}

	for _, location := range ConfigSearchLocations {
		expanded := utils.ExpandFilePath(location)
		if _, err := os.Stat(expanded); err != nil {
			continue
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read application config %q: %w", expanded, err)
		}
		return nil
	}

	return ErrApplicationConfigNotFound
}
