// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/devrig/cmd/devrig/commands"
)

var (
	// Flags
	configFile string
	debug      bool
)

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".devrig.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "devrig",
		Short: "Developer tooling helpers for a multi-package repository",
		Long: `devrig bundles the glue a multi-package repository needs: in-place text
rewriting across globbed files, watching spawned process output for a
pattern, test/task runner config generation, repository root discovery,
and package installation for integration-test sandboxes.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewRewriteCmd(&configFile),
		commands.NewRunCmd(&configFile),
		commands.NewGenCmd(),
		commands.NewInstallCmd(&configFile),
		commands.NewRootCmd(),
	)

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := log.WithContext(context.Background())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		commands.NewUserLogger(ctx).LogValidation(false, "Command failed", err)
		os.Exit(1)
	}
}
