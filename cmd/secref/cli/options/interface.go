package options

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Interface interface {
	AddFlags(flags *pflag.FlagSet)
	BindFlags(flags *pflag.FlagSet, v *viper.Viper) error
}

func AddAllFlags(flags *pflag.FlagSet, objects ...Interface) {
	for _, o := range objects {
		o.AddFlags(flags)
	}
}

func BindAllFlags(flags *pflag.FlagSet, v *viper.Viper, objects ...Interface) error {
	for _, o := range objects {
		if err := o.BindFlags(flags, v); err != nil {
			return err
		}
	}
	return nil
}

// Bind attaches a viper key to a previously registered flag, so config file, environment, and CLI
// values resolve through the same key.
func Bind(v *viper.Viper, key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("unable to bind %q: flag not registered", key)
	}
	return v.BindPFlag(key, flag)
}

// Summarize renders a configuration object the way it would appear in an application config file.
func Summarize(cfg any, _ any) string {
	by, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(by)
}
