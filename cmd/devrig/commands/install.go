package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/devrig/pkg/config"
	"github.com/walteh/devrig/pkg/install"
	"gitlab.com/tozd/go/errors"
)

// NewInstallCmd creates a new install command
func NewInstallCmd(configFile *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "install [packages...]",
		Short: "Install packages for integration-test sandboxes",
		Long: `Install detects the directory's package manager from its lockfile and
installs the given packages (or the configured set when none are given).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "install").Logger().WithContext(ctx)
			ui := NewUserLogger(ctx)

			pkgs := args
			if len(pkgs) == 0 || dir == "" {
				if cfg, err := config.Load(ctx, *configFile); err == nil && cfg.Install != nil {
					if len(pkgs) == 0 {
						pkgs = cfg.Install.Packages
					}
					if dir == "" {
						dir = cfg.Install.Dir
					}
				}
			}
			if dir == "" {
				dir = "."
			}

			ui.LogProgress("Installing packages into " + dir)
			if err := install.Install(ctx, dir, pkgs...); err != nil {
				return errors.Errorf("installing packages: %w", err)
			}
			ui.LogValidation(true, "Packages installed", nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to install into")
	return cmd
}
