package options

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/provider/nvdapi"
)

var _ Interface = &CPEs{}

type CPEs struct {
	// bound options
	TestMode bool `yaml:"test-mode" json:"test-mode" mapstructure:"test-mode"`

	// unbound options
	APIURL   string `yaml:"api-url" json:"api-url" mapstructure:"api-url"`
	APIKey   string `yaml:"api-key" json:"-" mapstructure:"api-key"`
	PageSize int    `yaml:"page-size" json:"page-size" mapstructure:"page-size"`
}

func (o CPEs) Redact() {
	if o.APIKey != "" {
		log.Redact(o.APIKey)
	}
}

func DefaultCPEs() CPEs {
	return CPEs{
		APIURL:   nvdapi.DefaultURL,
		PageSize: nvdapi.DefaultPageSize,
	}
}

func (o *CPEs) AddFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(
		&o.TestMode,
		"test-mode", "t", o.TestMode,
		"fetch only the first few dictionary pages (reduced-scope run against the live API)",
	)
}

func (o *CPEs) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	// set default values for bound struct items
	if err := Bind(v, "cpes.test-mode", flags.Lookup("test-mode")); err != nil {
		return err
	}

	// set default values for non-bound struct items
	v.SetDefault("cpes.api-url", o.APIURL)
	v.SetDefault("cpes.api-key", o.APIKey)
	v.SetDefault("cpes.page-size", o.PageSize)

	return nil
}
