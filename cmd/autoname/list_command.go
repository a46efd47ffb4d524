package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"autoname/internal/coerce"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		field   string
		recurse bool
	)
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "Show the metadata every probe extracts for the given files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runList(cmd, args, recurse, field)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "only show values for this field leaf, e.g. title")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "descend into directories")
	return cmd
}

func (c *commandContext) runList(cmd *cobra.Command, args []string, recurse bool, field string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	paths, err := collectPaths(args, recurse)
	if err != nil {
		return err
	}

	p, _, err := c.buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.Close()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	field = strings.ToLower(strings.TrimSpace(field))
	failed := false
	for _, path := range paths {
		f, stored, err := p.Survey(sigCtx, path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed = true
			continue
		}

		rows := make([][]string, 0, len(stored))
		for _, entry := range stored {
			if field != "" && entry.Source.Leaf() != field {
				continue
			}
			rows = append(rows, []string{
				entry.Source.String(),
				coerce.Format(entry.Value),
				fmt.Sprintf("%.2f", entry.Probability),
			})
		}
		cmd.Printf("%s (%s)\n", f.Basename(), f.MIMEType())
		cmd.Println(renderTable([]string{"URI", "Value", "Weight"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}
