// Command apiforge scaffolds REST services into a module from the command
// line.
//
// Usage:
//
//	apiforge --module BarConf --path ./module/BarConf create Foo
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tailbits/apiforge"
	"github.com/tailbits/apiforge/configstore"
)

// app holds the models built from the resolved settings.
type app struct {
	settings settings
	logger   *log.Logger
	module   *apiforge.ModuleEntity
	services *apiforge.RestServiceModel
	versions *apiforge.VersioningModel
}

func newApp(ctx context.Context, s settings, cmd *cobra.Command) (*app, error) {
	level := log.InfoLevel
	if s.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "apiforge",
		Level:  level,
	})

	store := configstore.NewFileStore(configstore.Format(s.Format))
	module := apiforge.NewModuleEntity(s.Module, s.Path)
	opts := []apiforge.Option{apiforge.WithLogger(logger)}

	versions := apiforge.NewVersioningModel(module, store, opts...)
	known, err := versions.Versions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read module configuration: %w", err)
	}
	module.Versions = known

	return &app{
		settings: s,
		logger:   logger,
		module:   module,
		services: apiforge.NewRestServiceModel(module, store, append(opts, apiforge.WithVersionChecker(versions))...),
		versions: versions,
	}, nil
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		a          *app
	)

	root := &cobra.Command{
		Use:           "apiforge",
		Short:         "Scaffold REST services into a module",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, configFile)
			if err != nil {
				return err
			}
			a, err = newApp(cmd.Context(), s, cmd)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ./apiforge.yaml)")
	flags.StringP("module", "m", "", "module name, e.g. BarConf")
	flags.StringP("path", "p", ".", "module root directory")
	flags.String("format", "yaml", "module configuration format: yaml or json")
	flags.StringP("output", "o", "yaml", "output format: yaml or json")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	current := func() *app { return a }
	root.AddCommand(
		newCreateCmd(current),
		newFetchCmd(current),
		newListCmd(current),
		newUpdateCmd(current),
		newDeleteCmd(current),
		newVersionCmd(current),
		newDocsCmd(current),
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}
