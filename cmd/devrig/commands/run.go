package commands

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/devrig/pkg/config"
	"github.com/walteh/devrig/pkg/proc"
	"github.com/walteh/devrig/pkg/watch"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates a new run command
func NewRunCmd(configFile *string) *cobra.Command {
	var (
		waitFor string
		timeout time.Duration
		noWait  bool
	)

	cmd := &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Spawn a process and optionally wait for it to print a pattern",
		Long: `Run spawns the command with merged, normalized stdout/stderr. With
--wait-for, run blocks until the process prints the given text (or the
timeout expires), then keeps streaming until the process exits.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "run").Logger().WithContext(ctx)
			ui := NewUserLogger(ctx)

			// Config may override the default watch timeout.
			if !cmd.Flags().Changed("timeout") {
				if cfg, err := config.Load(ctx, *configFile); err == nil {
					if d, derr := cfg.WatchTimeout(); derr == nil && d != 0 {
						timeout = d
					}
				}
			}

			p, err := proc.Spawn(ctx, proc.Options{Name: args[0], Args: args[1:]})
			if err != nil {
				return err
			}

			if waitFor != "" && !noWait {
				if err := watch.WaitFor(ctx, p.Output(), waitFor, timeout); err != nil {
					stopErr := p.Stop()
					if stopErr != nil {
						zerolog.Ctx(ctx).Debug().Err(stopErr).Msg("stopping process after failed watch")
					}
					return err
				}
				ui.LogValidation(true, "Process printed: "+waitFor, nil)
			}

			code, err := p.Wait(ctx)
			if err != nil {
				return err
			}
			if code != 0 {
				return errors.Errorf("process exited with code %d", code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&waitFor, "wait-for", "", "text the process must print")
	cmd.Flags().DurationVar(&timeout, "timeout", watch.DefaultTimeout, "how long to wait for the pattern")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "spawn without watching output")
	return cmd
}
