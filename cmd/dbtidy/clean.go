package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"dbtidy/internal/cleanup"
	"dbtidy/internal/render"
)

type cleanFlags struct {
	dryRun            bool
	report            bool
	format            string
	out               string
	verbose           bool
	preserveStrategic bool
	maxIdentLen       int
	include           []string
	exclude           []string
	failOnConflicts   bool
}

func newCleanCmd() *cobra.Command {
	f := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean <project-root>",
		Short: "Analyze and clean storage-identifier overrides under a project root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.dryRun, "dry-run", false, "Analyze and validate but do not modify files")
	flags.BoolVar(&f.report, "report", false, "Produce a cleanup report instead of applying changes")
	flags.StringVar(&f.format, "format", "md", "Report output format: json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr")
	flags.BoolVar(&f.preserveStrategic, "preserve-strategic", true, "Keep overrides with strategic value")
	flags.IntVar(&f.maxIdentLen, "max-ident-len", 63, "Maximum physical identifier length")
	flags.StringSliceVar(&f.include, "include", nil, "Extra glob patterns to treat as schema files")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "Glob patterns to skip")
	flags.BoolVar(&f.failOnConflicts, "fail-on-conflicts", false, "Exit non-zero when conflicts are detected")

	return cmd
}

func runClean(root string, f *cleanFlags) error {
	if f.format != "json" && f.format != "md" {
		return exitError(3, "unknown format: %s", f.format)
	}

	logger := log.New(os.Stderr, "", 0)
	opts := cleanup.Options{
		DryRun:              f.dryRun || f.report,
		Verbose:             f.verbose,
		PreserveStrategic:   f.preserveStrategic,
		MaxIdentifierLength: f.maxIdentLen,
		IncludePatterns:     f.include,
		ExcludePatterns:     f.exclude,
		Logf:                logger.Printf,
	}
	runner := cleanup.NewRunner(opts)
	ctx := context.Background()

	switch {
	case f.report:
		rep, err := runner.BuildReport(ctx, root)
		if err != nil {
			return exitError(1, "report failed: %v", err)
		}
		if err := writeOutput(formatReport(rep, f.format), f.out); err != nil {
			return err
		}
		if f.failOnConflicts && rep.Summary.ConflictsFound > 0 {
			return exitError(2, "%d conflicts detected", rep.Summary.ConflictsFound)
		}
		return nil

	case f.dryRun:
		changes, err := runner.DryRun(ctx, root)
		if err != nil {
			return exitError(1, "dry run failed: %v", err)
		}
		data, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal changes: %w", err)
		}
		return writeOutput(string(data)+"\n", f.out)

	default:
		result, err := runner.Run(ctx, root)
		if err != nil {
			return exitError(1, "cleanup failed: %v", err)
		}
		fmt.Fprintf(os.Stderr, "processed %d files, applied %d changes\n",
			result.FilesProcessed, result.ChangesApplied)
		if f.verbose && len(result.Errors) > 0 {
			fmt.Fprint(os.Stderr, runner.Log().Report())
		}
		if f.failOnConflicts && result.Summary.ConflictsFound > 0 {
			return exitError(2, "%d conflicts detected", result.Summary.ConflictsFound)
		}
		return nil
	}
}

func formatReport(rep *cleanup.Report, format string) string {
	if format == "json" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Sprintf("{%q: %q}", "error", err.Error())
		}
		return string(data) + "\n"
	}
	return render.Markdown(rep)
}

func writeOutput(output, out string) error {
	if out == "" {
		fmt.Print(output)
		return nil
	}
	if err := os.WriteFile(out, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
