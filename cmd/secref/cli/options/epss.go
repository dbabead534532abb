package options

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/itsmeakapa/secref/pkg/provider/epss"
)

var _ Interface = &EPSS{}

type EPSS struct {
	// bound options
	Date string `yaml:"date" json:"date" mapstructure:"date"`

	// unbound options
	BaseURL string `yaml:"base-url" json:"base-url" mapstructure:"base-url"`
}

func DefaultEPSS() EPSS {
	return EPSS{
		BaseURL: epss.DefaultBaseURL,
	}
}

func (o *EPSS) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.Date,
		"date", "", o.Date,
		"score file date to fetch (accepts most common date formats; default: yesterday)",
	)
}

func (o *EPSS) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	// set default values for bound struct items
	if err := Bind(v, "epss.date", flags.Lookup("date")); err != nil {
		return err
	}

	// set default values for non-bound struct items
	v.SetDefault("epss.base-url", o.BaseURL)

	return nil
}

// ParseDate resolves the configured date string; the zero time means "use the default date".
func (o EPSS) ParseDate() (time.Time, error) {
	if o.Date == "" {
		return time.Time{}, nil
	}
	date, err := dateparse.ParseAny(o.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date %q: %w", o.Date, err)
	}
	return date, nil
}
