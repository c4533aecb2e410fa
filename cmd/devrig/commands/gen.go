package commands

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/devrig/pkg/genconfig"
	"gitlab.com/tozd/go/errors"
)

// NewGenCmd creates the gen command group
func NewGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate runner configs and test sandboxes",
	}
	cmd.AddCommand(newGenTestCmd(), newGenTaskCmd(), newGenSandboxCmd())
	return cmd
}

func newGenTestCmd() *cobra.Command {
	var (
		out      string
		timeout  string
		parallel int
		include  []string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Generate the test runner configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := NewUserLogger(cmd.Context())
			cfg := genconfig.TestRunnerConfig{
				Timeout:  timeout,
				Parallel: parallel,
				Include:  include,
			}
			if err := genconfig.WriteTestRunnerConfig(out, cfg); err != nil {
				return errors.Errorf("generating test runner config: %w", err)
			}
			ui.LogValidation(true, "Wrote "+out, nil)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "test-runner.yaml", "output path")
	cmd.Flags().StringVar(&timeout, "timeout", "5m", "per-test timeout")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "number of parallel workers")
	cmd.Flags().StringSliceVar(&include, "include", []string{"**/*_test.*"}, "test file globs")
	return cmd
}

func newGenTaskCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Generate the task runner configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := NewUserLogger(cmd.Context())
			cfg := genconfig.TaskRunnerConfig{
				Tasks: map[string]genconfig.Task{
					"build": {Desc: "Build all packages", Cmd: "go build ./..."},
					"test":  {Desc: "Run all tests", Cmd: "go test ./...", Deps: []string{"build"}},
					"lint":  {Desc: "Run linters", Cmd: "golangci-lint run"},
				},
			}
			if err := genconfig.WriteTaskRunnerConfig(out, cfg); err != nil {
				return errors.Errorf("generating task runner config: %w", err)
			}
			ui.LogValidation(true, "Wrote "+out, nil)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "Taskfile.yaml", "output path")
	return cmd
}

func newGenSandboxCmd() *cobra.Command {
	var (
		template string
		dest     string
		vars     []string
	)

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Materialize a test sandbox from a template directory",
		Long: `Sandbox copies a template tree into the destination and rewrites each
file in place, substituting __KEY__ placeholders with the values given
via --var KEY=VALUE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "gen sandbox").Logger().WithContext(ctx)
			ui := NewUserLogger(ctx)

			values := map[string]string{}
			for _, v := range vars {
				key, value, ok := strings.Cut(v, "=")
				if !ok {
					return errors.Errorf("malformed --var %q, want KEY=VALUE", v)
				}
				values[key] = value
			}

			if err := genconfig.MaterializeSandbox(ctx, template, dest, values); err != nil {
				return errors.Errorf("materializing sandbox: %w", err)
			}
			ui.LogValidation(true, "Sandbox ready at "+dest, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "template directory")
	cmd.Flags().StringVar(&dest, "dest", "", "destination directory")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "KEY=VALUE placeholder substitution")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}
