package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/devrig/pkg/config"
	"github.com/walteh/devrig/pkg/log"
	"github.com/walteh/devrig/pkg/rewrite"
	"gitlab.com/tozd/go/errors"
)

// NewRewriteCmd creates a new rewrite command
func NewRewriteCmd(configFile *string) *cobra.Command {
	var jobName string

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Run the configured in-place rewrite jobs",
		Long: `Rewrite streams every file matched by each job's glob patterns through
the job's filter rules, writing replacements back into the same file.
All files of a job are processed concurrently; the command reports
failures only after every file has been attempted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "rewrite").Logger().WithContext(ctx)

			cfg, err := config.Load(ctx, *configFile)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			if len(cfg.Rewrites) == 0 {
				return errors.New("no rewrite jobs configured")
			}

			clog := log.New(os.Stdout, zerolog.InfoLevel)
			clog.Header("rewriting repository files")

			for _, job := range cfg.Rewrites {
				if jobName != "" && job.Name != jobName {
					continue
				}
				if err := runJob(ctx, clog, job); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jobName, "job", "", "run only the named job")
	return cmd
}

func runJob(ctx context.Context, clog *log.Logger, job config.RewriteJob) error {
	spec, err := job.CompileSpec()
	if err != nil {
		return errors.Errorf("compiling job %q: %w", job.Name, err)
	}

	clog.StartJob(ctx, log.JobOperation{
		Name:  job.Name,
		Globs: len(job.Globs),
		Rules: len(job.Rules),
	})
	defer clog.EndJob(ctx)

	rw, err := rewrite.New(spec, func(res rewrite.FileResult) {
		op := log.FileOperation{Path: res.Path, Matches: res.Matches}
		switch {
		case res.Err != nil:
			op.Failed = true
			op.ErrorMsg = res.Err.Error()
		case res.Matches == 0:
			op.Skipped = true
		}
		clog.LogFileOperation(ctx, op)
	})
	if err != nil {
		return err
	}

	if err := rw.Run(ctx, job.Globs...); err != nil {
		return errors.Errorf("job %q: %w", job.Name, err)
	}
	return nil
}
