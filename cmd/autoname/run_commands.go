package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"autoname/internal/journal"
	"autoname/internal/pipeline"
)

func newDryRunCommand(ctx *commandContext) *cobra.Command {
	var recurse bool
	cmd := &cobra.Command{
		Use:   "dry-run [paths...]",
		Short: "Propose renames without touching any file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runPipeline(cmd, args, recurse, false)
		},
	}
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "descend into directories")
	return cmd
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var recurse bool
	cmd := &cobra.Command{
		Use:   "batch [paths...]",
		Short: "Rename files without prompting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runPipeline(cmd, args, recurse, true)
		},
	}
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "descend into directories")
	return cmd
}

func newInteractiveCommand(ctx *commandContext) *cobra.Command {
	var recurse bool
	cmd := &cobra.Command{
		Use:   "interactive [paths...]",
		Short: "Confirm each proposed rename",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runInteractive(cmd, args, recurse)
		},
	}
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "descend into directories")
	return cmd
}

func (c *commandContext) runPipeline(cmd *cobra.Command, args []string, recurse, commit bool) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	paths, err := collectPaths(args, recurse)
	if err != nil {
		return err
	}

	run, finish := c.openJournalRun(cmd)
	defer finish()
	var recorder pipeline.Recorder
	if run != nil {
		recorder = run
	}

	p, _, err := c.buildPipeline(recorder, true)
	if err != nil {
		return err
	}
	defer p.Close()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, err := p.Run(sigCtx, paths, commit)
	if err != nil {
		return err
	}

	if !c.quiet() {
		cmd.Println(renderOutcomes(outcomes))
	}
	return exitForOutcomes(outcomes)
}

func (c *commandContext) runInteractive(cmd *cobra.Command, args []string, recurse bool) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	paths, err := collectPaths(args, recurse)
	if err != nil {
		return err
	}

	run, finish := c.openJournalRun(cmd)
	defer finish()

	p, _, err := c.buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.Close()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := bufio.NewReader(cmd.InOrStdin())
	approveAll := false
	var outcomes []*pipeline.Outcome

	for _, path := range paths {
		if sigCtx.Err() != nil {
			break
		}
		out := p.Process(sigCtx, path)
		if out.State == pipeline.StateProposed {
			switch c.decide(cmd, reader, out, &approveAll) {
			case decisionYes:
				p.Commit(out)
			case decisionQuit:
				outcomes = append(outcomes, out)
				c.record(cmd, run, outcomes[len(outcomes)-1:])
				return exitForOutcomes(outcomes)
			default:
				out.State = pipeline.StateSkipped
				out.Reason = "declined"
			}
		}
		outcomes = append(outcomes, out)
		c.record(cmd, run, outcomes[len(outcomes)-1:])
	}
	return exitForOutcomes(outcomes)
}

type decision int

const (
	decisionNo decision = iota
	decisionYes
	decisionQuit
)

// decide prompts for one proposal. --quiet answers no to everything.
func (c *commandContext) decide(cmd *cobra.Command, reader *bufio.Reader, out *pipeline.Outcome, approveAll *bool) decision {
	if *approveAll {
		return decisionYes
	}
	if c.quiet() {
		return decisionNo
	}
	cmd.Printf("%s\n  -> %s\nRename? [y/N/a/q] ", filepath.Base(out.Path), out.Proposed)
	line, err := reader.ReadString('\n')
	if err != nil {
		return decisionQuit
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return decisionYes
	case "a", "all":
		*approveAll = true
		return decisionYes
	case "q", "quit":
		return decisionQuit
	default:
		return decisionNo
	}
}

// openJournalRun starts a run ledger entry; journal problems degrade to a
// warning because the ledger is not required to rename files.
func (c *commandContext) openJournalRun(cmd *cobra.Command) (*journal.Run, func()) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, func() {}
	}
	j, err := journal.Open(cfg.Cache.Directory)
	if err != nil {
		if !c.quiet() {
			cmd.PrintErrf("journal unavailable: %v\n", err)
		}
		return nil, func() {}
	}
	run, err := j.StartRun(cmd.Context())
	if err != nil {
		_ = j.Close()
		if !c.quiet() {
			cmd.PrintErrf("journal unavailable: %v\n", err)
		}
		return nil, func() {}
	}
	return run, func() {
		if summary, err := run.Finish(context.Background()); err == nil && !c.quiet() {
			cmd.Printf("processed %d: %d renamed, %d proposed, %d skipped, %d failed\n",
				summary.Processed, summary.Renamed, summary.Proposed, summary.Skipped, summary.Failed)
		}
		_ = j.Close()
	}
}

func (c *commandContext) record(cmd *cobra.Command, run *journal.Run, outcomes []*pipeline.Outcome) {
	if run == nil {
		return
	}
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		if err := run.RecordFile(cmd.Context(), out.Path, out.State.String(), out.Proposed, out.Reason); err != nil && !c.quiet() {
			cmd.PrintErrf("journal write failed: %v\n", err)
		}
	}
}

// collectPaths expands arguments to regular files. A directory argument
// contributes its direct children, or its whole tree with recurse.
func collectPaths(args []string, recurse bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			// Leave missing paths in; the pipeline reports them per file.
			paths = append(paths, arg)
			continue
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		if recurse {
			err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.Type().IsRegular() {
					paths = append(paths, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", arg, err)
			}
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("no files to process")
	}
	return paths, nil
}

func renderOutcomes(outcomes []*pipeline.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		detail := out.Reason
		if detail == "" && out.Rule != "" {
			detail = out.Rule
		}
		rows = append(rows, []string{
			filepath.Base(out.Path),
			out.Proposed,
			out.State.String(),
			detail,
		})
	}
	return renderTable([]string{"File", "Proposed", "Status", "Detail"}, rows, nil)
}

// exitForOutcomes maps per-file results to the process exit code: renames,
// proposals, and same-name skips are success; failures and unmatched files
// exit 1.
func exitForOutcomes(outcomes []*pipeline.Outcome) error {
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		if out.State == pipeline.StateFailed {
			return &exitError{code: 1}
		}
		if out.State == pipeline.StateSkipped && out.Reason == pipeline.ReasonNoRule {
			return &exitError{code: 1}
		}
	}
	return nil
}
