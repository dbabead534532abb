package cli

import (
	"github.com/spf13/cobra"

	"github.com/itsmeakapa/secref/cmd/secref/application"
	"github.com/itsmeakapa/secref/cmd/secref/cli/commands"
)

type config struct {
	app *application.Application
}

type Option func(*config)

func WithApplication(app *application.Application) Option {
	return func(config *config) {
		config.app = app
	}
}

func New(opts ...Option) *cobra.Command {
	cfg := &config{
		app: application.New(),
	}
	for _, fn := range opts {
		fn(cfg)
	}

	app := cfg.app

	root := commands.Root(app)
	root.AddCommand(commands.Version(app))
	root.AddCommand(commands.Vulnrichment(app))
	root.AddCommand(commands.CPEs(app))
	root.AddCommand(commands.EPSS(app))

	return root
}
