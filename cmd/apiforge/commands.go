package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tailbits/apiforge"
	"github.com/tailbits/apiforge/openapi"
)

func newCreateCmd(current func() *app) *cobra.Command {
	var (
		file       string
		routeMatch string
		identifier string
	)

	cmd := &cobra.Command{
		Use:   "create [service-name]",
		Short: "Create a REST service",
		Long: `Create a REST service from a JSON payload (--file) or from a service
name with default settings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()

			var spec apiforge.NewRestServiceSpec
			switch {
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()

				if spec, err = apiforge.DecodeSpec(f); err != nil {
					return fmt.Errorf("invalid payload %s: %w", file, err)
				}
			case len(args) == 1:
				spec = apiforge.NewRestServiceSpec{
					ServiceName:         args[0],
					RouteMatch:          routeMatch,
					RouteIdentifierName: identifier,
				}
			default:
				return fmt.Errorf("either a service name or --file is required")
			}

			created, err := a.services.CreateService(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.settings.Output, created)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON payload describing the service")
	cmd.Flags().StringVar(&routeMatch, "route", "", "route literal, e.g. /api/foo")
	cmd.Flags().StringVar(&identifier, "identifier", "", "route identifier name")
	return cmd
}

func newFetchCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <controller-service-name>",
		Short: "Show a REST service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()

			d, err := a.services.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.settings.Output, d)
		},
	}
}

func newListCmd(current func() *app) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the REST services of the module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()

			services, err := a.services.FetchAll(cmd.Context(), version)
			if err != nil {
				return err
			}
			if services == nil {
				services = []*apiforge.RestServiceDescriptor{}
			}
			return render(cmd.OutOrStdout(), a.settings.Output, services)
		},
	}

	cmd.Flags().IntVar(&version, "api-version", 0, "only list services of this API version")
	return cmd
}

func newUpdateCmd(current func() *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update --file patch.json",
		Short: "Update a REST service",
		Long: `Update a REST service from a JSON patch. The patch names the service by
controller_service_name; keys it leaves out keep their values and an empty
list clears the stored list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			patch, err := apiforge.DecodePatch(f)
			if err != nil {
				return fmt.Errorf("invalid patch %s: %w", file, err)
			}

			updated, err := a.services.UpdateService(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.settings.Output, updated)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON patch")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDeleteCmd(current func() *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "delete <controller-service-name>",
		Short: "Delete a REST service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()

			if _, err := a.services.DeleteService(cmd.Context(), args[0], recursive); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "also delete nested source directories of the service")
	return cmd
}

func newVersionCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Manage API versions of the module",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List API versions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := current()

				versions, err := a.versions.Versions(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.settings.Output, versions)
			},
		},
		&cobra.Command{
			Use:   "create <version>",
			Short: "Copy the latest API version to a new one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := current()

				version, err := strconv.Atoi(args[0])
				if err != nil || version < 1 {
					return fmt.Errorf("version must be a positive integer, got %q", args[0])
				}
				if _, err := a.versions.CreateVersion(cmd.Context(), version); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created version %d\n", version)
				return nil
			},
		},
	)
	return cmd
}

func newDocsCmd(current func() *app) *cobra.Command {
	var (
		version int
		lint    bool
		title   string
		server  string
	)

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Render an OpenAPI document of the module's services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()

			v := version
			if v == 0 {
				v = a.module.LatestVersion()
			}
			services, err := a.services.FetchAll(cmd.Context(), v)
			if err != nil {
				return err
			}

			t := title
			if t == "" {
				t = a.module.Name + " API"
			}
			doc, err := openapi.New(services,
				openapi.Info(t, strconv.Itoa(v), ""),
				openapi.Server(server),
				openapi.Lint(lint),
			)
			if err != nil {
				return err
			}

			a.logger.Debug("rendered OpenAPI document", "version", v, "services", len(services))
			_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		},
	}

	cmd.Flags().IntVar(&version, "api-version", 0, "API version to document (default latest)")
	cmd.Flags().BoolVar(&lint, "lint", false, "lint the document with the recommended ruleset")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&server, "server", "", "server URL")
	return cmd
}
