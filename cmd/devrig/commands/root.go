package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/devrig/pkg/repo"
	"gitlab.com/tozd/go/errors"
)

// NewRootCmd creates the repository-root discovery command
func NewRootCmd() *cobra.Command {
	var relTo string

	cmd := &cobra.Command{
		Use:   "root",
		Short: "Print the repository root directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := os.Getwd()
			if err != nil {
				return errors.Errorf("getting working directory: %w", err)
			}
			root, err := repo.FindRoot(start)
			if err != nil {
				return err
			}
			if relTo != "" {
				abs, err := filepath.Abs(relTo)
				if err != nil {
					return errors.Errorf("resolving path: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), repo.Rel(root, abs))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), root)
			return nil
		},
	}

	cmd.Flags().StringVar(&relTo, "rel", "", "print this path relative to the root instead")
	return cmd
}
