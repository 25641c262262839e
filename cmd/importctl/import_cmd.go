package main

import (
	"time"

	"github.com/spf13/cobra"
)

type runOutput struct {
	Command    string `json:"command"`
	DurationMS int64  `json:"duration_ms"`
	Result     any    `json:"result"`
}

func newPreviewCmd(root *rootOptions) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Normalize, resolve and validate a file without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build()
			if err != nil {
				return err
			}
			e, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			start := time.Now()
			res, err := e.svcs.Imports.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(runOutput{Command: "preview", DurationMS: time.Since(start).Milliseconds(), Result: res})
		},
	}
	flags.register(cmd)
	return cmd
}

func newCommitCmd(root *rootOptions) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Create shipments from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build()
			if err != nil {
				return err
			}
			e, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			start := time.Now()
			run, err := e.svcs.Imports.Commit(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(runOutput{Command: "commit", DurationMS: time.Since(start).Milliseconds(), Result: run})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func newRetryCmd(root *rootOptions) *cobra.Command {
	var (
		runID      string
		duplicates bool
	)
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Retry the failed rows of a run, or force its skipped duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			retry, name := e.svcs.Imports.RetryFailed, "retry-failed"
			if duplicates {
				retry, name = e.svcs.Imports.RetryDuplicates, "retry-duplicates"
			}
			start := time.Now()
			run, err := retry(cmd.Context(), runID)
			if err != nil {
				return err
			}
			return writeJSON(runOutput{Command: name, DurationMS: time.Since(start).Milliseconds(), Result: run})
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	cmd.Flags().BoolVar(&duplicates, "duplicates", false, "Force the run's skipped duplicates instead of retrying failures")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}
