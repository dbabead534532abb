package options

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/itsmeakapa/secref/pkg/pipeline"
)

var _ Interface = &Vulnrichment{}

type Vulnrichment struct {
	// bound options
	// (none)

	// unbound options
	RepoURL    string `yaml:"repo-url" json:"repo-url" mapstructure:"repo-url"`
	Branch     string `yaml:"branch" json:"branch" mapstructure:"branch"`
	CloneDepth int    `yaml:"clone-depth" json:"clone-depth" mapstructure:"clone-depth"`
}

func DefaultVulnrichment() Vulnrichment {
	return Vulnrichment{
		RepoURL:    pipeline.DefaultVulnrichmentRepoURL,
		Branch:     pipeline.DefaultVulnrichmentBranch,
		CloneDepth: 1,
	}
}

func (o *Vulnrichment) AddFlags(flags *pflag.FlagSet) {
}

func (o *Vulnrichment) BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	// set default values for bound struct items
	// (none)

	// set default values for non-bound struct items
	v.SetDefault("vulnrichment.repo-url", o.RepoURL)
	v.SetDefault("vulnrichment.branch", o.Branch)
	v.SetDefault("vulnrichment.clone-depth", o.CloneDepth)

	return nil
}
