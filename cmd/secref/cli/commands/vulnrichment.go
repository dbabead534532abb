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

var _ options.Interface = &vulnrichmentConfig{}

type vulnrichmentConfig struct {
	options.Dataset      `yaml:"dataset" json:"dataset" mapstructure:"dataset"`
	options.Vulnrichment `yaml:"vulnrichment" json:"vulnrichment" mapstructure:"vulnrichment"`
}

func (o *vulnrichmentConfig) AddFlags(flags *pflag.FlagSet) {
	options.AddAllFlags(flags, &o.Dataset, &o.Vulnrichment)
}

func (o *vulnrichmentConfig) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	return options.BindAllFlags(flags, v, &o.Dataset, &o.Vulnrichment)
}

func Vulnrichment(app *application.Application) *cobra.Command {
	cfg := vulnrichmentConfig{
		Dataset:      options.DefaultDataset(),
		Vulnrichment: options.DefaultVulnrichment(),
	}

	cmd := &cobra.Command{
		Use:     "vulnrichment",
		Short:   "refresh the CVE enrichment table from the CISA advisory repository",
		Args:    cobra.NoArgs,
		PreRunE: app.Setup(&cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), async(func() error {
				return runVulnrichment(cmd.Context(), app, cfg)
			}))
		},
	}

	commonConfiguration(cmd, &cfg)

	return cmd
}

func runVulnrichment(ctx context.Context, app *application.Application, cfg vulnrichmentConfig) error {
	pcfg := pipeline.DefaultVulnrichmentConfig(pipelineCommon(app, cfg.Dataset))
	if cfg.RepoURL != "" {
		pcfg.RepoURL = cfg.RepoURL
	}
	if cfg.Branch != "" {
		pcfg.Branch = cfg.Branch
	}
	pcfg.CloneDepth = cfg.CloneDepth

	return pipeline.Vulnrichment(ctx, pcfg)
}
