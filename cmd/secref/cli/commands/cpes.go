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

var _ options.Interface = &cpesConfig{}

type cpesConfig struct {
	options.Dataset `yaml:"dataset" json:"dataset" mapstructure:"dataset"`
	options.CPEs    `yaml:"cpes" json:"cpes" mapstructure:"cpes"`
}

func (o *cpesConfig) AddFlags(flags *pflag.FlagSet) {
	options.AddAllFlags(flags, &o.Dataset, &o.CPEs)
}

func (o *cpesConfig) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	return options.BindAllFlags(flags, v, &o.Dataset, &o.CPEs)
}

func CPEs(app *application.Application) *cobra.Command {
	cfg := cpesConfig{
		Dataset: options.DefaultDataset(),
		CPEs:    options.DefaultCPEs(),
	}

	cmd := &cobra.Command{
		Use:     "cpes",
		Short:   "refresh the software identifier dictionary from the NVD products API",
		Args:    cobra.NoArgs,
		PreRunE: app.Setup(&cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), async(func() error {
				return runCPEs(cmd.Context(), app, cfg)
			}))
		},
	}

	commonConfiguration(cmd, &cfg)

	return cmd
}

func runCPEs(ctx context.Context, app *application.Application, cfg cpesConfig) error {
	pcfg := pipeline.DefaultCPEsConfig(pipelineCommon(app, cfg.Dataset))
	if cfg.APIURL != "" {
		pcfg.APIURL = cfg.APIURL
	}
	pcfg.APIKey = cfg.APIKey
	pcfg.PageSize = cfg.PageSize
	pcfg.TestMode = cfg.TestMode

	return pipeline.CPEs(ctx, pcfg)
}
