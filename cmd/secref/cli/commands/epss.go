package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/itsmeakapa/secref/cmd/secref/application"
	"github.com/itsmeakapa/secref/cmd/secref/cli/options"
	"github.com/itsmeakapa/secref/pkg/pipeline"
)

var _ options.Interface = &epssConfig{}

type epssConfig struct {
	options.Dataset `yaml:"dataset" json:"dataset" mapstructure:"dataset"`
	options.EPSS    `yaml:"epss" json:"epss" mapstructure:"epss"`
}

func (o *epssConfig) AddFlags(flags *pflag.FlagSet) {
	options.AddAllFlags(flags, &o.Dataset, &o.EPSS)
}

func (o *epssConfig) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	return options.BindAllFlags(flags, v, &o.Dataset, &o.EPSS)
}

func EPSS(app *application.Application) *cobra.Command {
	cfg := epssConfig{
		Dataset: options.DefaultDataset(),
		EPSS:    options.DefaultEPSS(),
	}

	cmd := &cobra.Command{
		Use:     "epss",
		Short:   "refresh the exploit-probability score table from the EPSS daily feed",
		Args:    cobra.NoArgs,
		PreRunE: app.Setup(&cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), async(func() error {
				return runEPSS(cmd.Context(), app, cfg)
			}))
		},
	}

	commonConfiguration(cmd, &cfg)

	return cmd
}

func runEPSS(ctx context.Context, app *application.Application, cfg epssConfig) error {
	date, err := cfg.ParseDate()
	if err != nil {
		return err
	}

	pcfg := pipeline.DefaultEPSSConfig(pipelineCommon(app, cfg.Dataset))
	if cfg.BaseURL != "" {
		pcfg.BaseURL = cfg.BaseURL
	}
	pcfg.Date = date

	return pipeline.EPSS(ctx, pcfg)
}
