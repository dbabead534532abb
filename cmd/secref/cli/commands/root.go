package commands

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/itsmeakapa/secref/cmd/secref/application"
	"github.com/itsmeakapa/secref/cmd/secref/cli/options"
	"github.com/itsmeakapa/secref/internal/utils"
)

var _ options.Interface = &rootConfig{}

type rootConfig struct {
	options.Dataset      `yaml:"dataset" json:"dataset" mapstructure:"dataset"`
	options.Vulnrichment `yaml:"vulnrichment" json:"vulnrichment" mapstructure:"vulnrichment"`
	options.CPEs         `yaml:"cpes" json:"cpes" mapstructure:"cpes"`
	options.EPSS         `yaml:"epss" json:"epss" mapstructure:"epss"`
}

func (o *rootConfig) AddFlags(flags *pflag.FlagSet) {
	options.AddAllFlags(flags, &o.Dataset, &o.Vulnrichment, &o.CPEs, &o.EPSS)
}

func (o *rootConfig) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	return options.BindAllFlags(flags, v, &o.Dataset, &o.Vulnrichment, &o.CPEs, &o.EPSS)
}

func Root(app *application.Application) *cobra.Command {
	cfg := rootConfig{
		Dataset:      options.DefaultDataset(),
		Vulnrichment: options.DefaultVulnrichment(),
		CPEs:         options.DefaultCPEs(),
		EPSS:         options.DefaultEPSS(),
	}
	appCfg := app.Config

	cmd := &cobra.Command{
		Use:     "",
		Short:   "refresh all three security reference datasets and publish their tables",
		Version: application.ReadBuildInfo().Version,
		PreRunE: app.Setup(&cfg),
		Example: formatRootExamples(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), async(func() error {
				// one dataset failing must not block the others from refreshing
				var errs error
				if err := runVulnrichment(cmd.Context(), app, vulnrichmentConfig{
					Dataset:      cfg.Dataset,
					Vulnrichment: cfg.Vulnrichment,
				}); err != nil {
					errs = multierror.Append(errs, err)
				}

				if err := runCPEs(cmd.Context(), app, cpesConfig{
					Dataset: cfg.Dataset,
					CPEs:    cfg.CPEs,
				}); err != nil {
					errs = multierror.Append(errs, err)
				}

				if err := runEPSS(cmd.Context(), app, epssConfig{
					Dataset: cfg.Dataset,
					EPSS:    cfg.EPSS,
				}); err != nil {
					errs = multierror.Append(errs, err)
				}

				return errs
			}))
		},
	}

	commonConfiguration(cmd, &cfg)

	cmd.SetVersionTemplate(fmt.Sprintf("%s {{.Version}}\n", application.Name))

	flags := cmd.PersistentFlags()

	flags.StringVarP(&appCfg.ConfigPath, "config", "c", "", "path to the application config")
	flags.BoolVarP(&appCfg.DryRun, "dry-run", "", false, "parse the application config, CLI flags, and exit.")
	flags.CountVarP(&appCfg.Log.Verbosity, "verbose", "v", "increase verbosity (-v = debug, -vv = trace)")
	flags.BoolVarP(&appCfg.Log.Quiet, "quiet", "q", false, "suppress all logging output")

	return cmd
}

func formatRootExamples() string {
	cfg := application.Config{
		DisableLoadFromDisk: true,
	}
	// best effort to load current or default values
	// intentionally don't read from the environment
	_ = cfg.Load(viper.New())

	cfgString := utils.Indent(options.Summarize(cfg, nil), "  ")
	return fmt.Sprintf(`Application Config:
 (search locations: %+v)
%s`, strings.Join(application.ConfigSearchLocations, ", "), strings.TrimSuffix(cfgString, "\n"))
}
