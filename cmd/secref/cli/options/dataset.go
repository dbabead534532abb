package options

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/itsmeakapa/secref/internal/utils"
)

var _ Interface = &Dataset{}

type Dataset struct {
	// bound options
	DataDir string `yaml:"data-dir" json:"data-dir" mapstructure:"data-dir"`
	LogDir  string `yaml:"log-dir" json:"log-dir" mapstructure:"log-dir"`

	// unbound options
	ArchiveExtension string `yaml:"archive-extension" json:"archive-extension" mapstructure:"archive-extension"`
}

func DefaultDataset() Dataset {
	return Dataset{
		DataDir:          "./data",
		LogDir:           "./logs",
		ArchiveExtension: "tar.gz",
	}
}

func (o *Dataset) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.DataDir,
		"data-dir", "d", o.DataDir,
		"directory holding the published artifacts and transient per-run files",
	)
	flags.StringVarP(
		&o.LogDir,
		"log-dir", "", o.LogDir,
		"directory holding the per-run log files",
	)
}

func (o *Dataset) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	// set default values for bound struct items
	if err := Bind(v, "dataset.data-dir", flags.Lookup("data-dir")); err != nil {
		return err
	}
	if err := Bind(v, "dataset.log-dir", flags.Lookup("log-dir")); err != nil {
		return err
	}

	// set default values for non-bound struct items
	v.SetDefault("dataset.archive-extension", o.ArchiveExtension)

	return nil
}

// Expand resolves any ~ references in the configured directories.
func (o Dataset) Expand() Dataset {
	o.DataDir = utils.ExpandFilePath(o.DataDir)
	o.LogDir = utils.ExpandFilePath(o.LogDir)
	return o
}
