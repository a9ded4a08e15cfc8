package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/pipeline"
	"github.com/paveg/reviewrisk/internal/validation"
	"github.com/paveg/reviewrisk/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// newRunner builds a runner whose stage hook advances a progress bar of
// steps ticks.
func (a *app) newRunner(cmd *cobra.Command, steps int) (*pipeline.Runner, func(), error) {
	opts := []pipeline.Option{pipeline.WithLogger(a.log)}
	finish := func() {}

	if a.cfg.Logging.Level == "debug" {
		a.mem = memory.NewCheckedAllocator(memory.NewGoAllocator())
		opts = append(opts, pipeline.WithAllocator(a.mem))
	}

	if a.progress && steps > 0 {
		bar := progressbar.NewOptions(steps,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription(cmd.Name()),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(cmd.ErrOrStderr())
			}),
		)
		opts = append(opts, pipeline.WithStageHook(func(stage string, _ int) {
			bar.Describe(stage)
			_ = bar.Add(1)
		}))
		finish = func() { _ = bar.Finish() }
	}

	r, err := pipeline.NewRunner(a.cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return r, finish, nil
}

func (a *app) cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [entity...]",
		Short: "Clean raw tables into the processed directory",
		Long: fmt.Sprintf(`Clean one or more entities, all of them when none are named.
Entities: %v`, pipeline.Entities()),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := len(args)
			if steps == 0 {
				steps = len(pipeline.Entities())
			}
			r, finish, err := a.newRunner(cmd, steps)
			if err != nil {
				return err
			}
			rows, err := r.Clean(cmd.Context(), args...)
			finish()
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
}

func (a *app) assembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble",
		Short: "Join the processed tables into the order-level master tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, err := a.newRunner(cmd, 0)
			if err != nil {
				return err
			}
			rows, err := r.Assemble(cmd.Context())
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
}

func (a *app) featuresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Split the master table and build the modeling matrices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, err := a.newRunner(cmd, 0)
			if err != nil {
				return err
			}
			rows, err := r.Features(cmd.Context())
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every artifact against the data-quality suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, err := a.newRunner(cmd, 0)
			if err != nil {
				return err
			}
			results, err := r.Validate(cmd.Context())
			if err != nil {
				return err
			}
			if err := printResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			return a.checkStrict(failedCount(results))
		},
	}
	cmd.Flags().BoolVar(&a.strict, "strict", false, "exit non-zero when any check fails")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Copy the artifacts into the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.SQLitePath == "" {
				return fmt.Errorf("export needs --sqlite or sqlite_path")
			}
			r, _, err := a.newRunner(cmd, 0)
			if err != nil {
				return err
			}
			rows, err := r.Export(cmd.Context())
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage and write the run manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// one tick per cleaner, then assemble, features and validate
			steps := len(pipeline.Entities()) + 3
			if a.cfg.SQLitePath != "" {
				steps++
			}
			r, finish, err := a.newRunner(cmd, steps)
			if err != nil {
				return err
			}
			m, err := r.Run(cmd.Context())
			finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printRows(out, m.Artifacts); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d failed checks, finished in %s\n",
				len(m.Failed), m.FinishedAt.Sub(m.StartedAt).Round(time.Millisecond))
			return a.checkStrict(len(m.Failed))
		},
	}
	cmd.Flags().BoolVar(&a.strict, "strict", false, "exit non-zero when any check fails")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), version.Info().String())
			return err
		},
	}
}

func (a *app) checkStrict(failed int) error {
	if a.strict && failed > 0 {
		return fmt.Errorf("%d data-quality checks failed", failed)
	}
	return nil
}

func failedCount(results []validation.Result) int {
	n := 0
	for _, res := range results {
		if res.Failed() {
			n++
		}
	}
	return n
}

func printRows(w io.Writer, rows map[string]int) error {
	names := make([]string, 0, len(rows))
	for name := range rows {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARTIFACT\tROWS")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%d\n", name, rows[name])
	}
	return tw.Flush()
}

func printResults(w io.Writer, results []validation.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCHECK\tROWS\tVIOLATIONS\tSTATUS")
	for _, res := range results {
		status := "ok"
		switch {
		case res.Err != nil:
			status = "error: " + res.Err.Error()
		case res.Violations > 0:
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", res.Table, res.Check, res.Rows, res.Violations, status)
	}
	return tw.Flush()
}
