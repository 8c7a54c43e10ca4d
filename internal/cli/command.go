package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viant/monoflux"
	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/service/reporter"
	"github.com/viant/monoflux/service/task"
)

func (a *app) buildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build every service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, model.TaskBuild, func(ctx context.Context, srv *monoflux.Service) *monoflux.Result {
				return srv.Build(ctx)
			})
		},
	}
}

func (a *app) testCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test every service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, model.TaskTest, func(ctx context.Context, srv *monoflux.Service) *monoflux.Result {
				return srv.Test(ctx)
			})
		},
	}
}

func (a *app) cleanCommand() *cobra.Command {
	options := monoflux.CleanOptions{}
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build outputs, optionally dependencies and caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, model.TaskClean, func(ctx context.Context, srv *monoflux.Service) *monoflux.Result {
				return srv.Clean(ctx, options)
			})
		},
	}
	cmd.Flags().BoolVar(&options.All, "all", false, "also remove dependencies and caches")
	cmd.Flags().BoolVar(&options.Deps, "deps", false, "also remove dependencies")
	cmd.Flags().BoolVar(&options.DryRun, "dry-run", false, "report what would be removed")
	return cmd
}

func (a *app) releaseCommand() *cobra.Command {
	options := monoflux.ReleaseOptions{}
	cmd := &cobra.Command{
		Use:       "release <patch|minor|major|prerelease>",
		Short:     "Bump versions, build and publish every publishable service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(task.ReleasePatch), string(task.ReleaseMinor), string(task.ReleaseMajor), string(task.ReleasePrerelease)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := task.ParseReleaseType(args[0])
			if err != nil {
				return err
			}
			options.Type = kind
			return a.execute(cmd, model.TaskRelease, func(ctx context.Context, srv *monoflux.Service) *monoflux.Result {
				return srv.Release(ctx, options)
			})
		},
	}
	cmd.Flags().BoolVar(&options.DryRun, "dry-run", false, "compute versions without writing or publishing")
	cmd.Flags().BoolVar(&options.SkipTests, "skip-tests", false, "do not run tests before publishing")
	return cmd
}

func (a *app) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of result artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := reporter.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, string(data))
			return err
		},
	}
}
