package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoname/internal/version"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag  string
		verboseFlag bool
		debugFlag   bool
		quietFlag   bool
		dumpConfig  bool
		dumpOptions bool
	)

	ctx := newCommandContext(&configFlag, &verboseFlag, &debugFlag, &quietFlag)

	rootCmd := &cobra.Command{
		Use:           "autoname",
		Short:         "Rename files from their own metadata",
		Long: `autoname proposes new file names built from extracted metadata:
embedded document fields, basename conventions, filesystem attributes.
Configured rules decide which name template applies to which file.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dumpConfig {
				return ctx.dumpConfig(cmd)
			}
			if dumpOptions {
				return ctx.dumpOptions(cmd)
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose log output")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "debug log output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress log output")
	rootCmd.Flags().BoolVar(&dumpConfig, "dump-config", false, "print the active configuration and exit")
	rootCmd.Flags().BoolVar(&dumpOptions, "dump-options", false, "print the resolved runtime options and exit")

	rootCmd.AddCommand(newDryRunCommand(ctx))
	rootCmd.AddCommand(newBatchCommand(ctx))
	rootCmd.AddCommand(newInteractiveCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))

	return rootCmd
}

func (c *commandContext) dumpConfig(cmd *cobra.Command) error {
	cfg, path, exists, err := c.loadConfigDetail()
	if err != nil {
		return err
	}
	_ = cfg
	if exists {
		source, readErr := readConfigFile(path)
		if readErr != nil {
			return readErr
		}
		cmd.Print(source)
		return nil
	}
	cmd.Print(sampleConfigText())
	return nil
}

func (c *commandContext) dumpOptions(cmd *cobra.Command) error {
	cfg, path, exists, err := c.loadConfigDetail()
	if err != nil {
		return err
	}

	origin := path
	if !exists {
		origin = fmt.Sprintf("%s (built-in sample)", path)
	}
	rows := [][]string{
		{"config", origin},
		{"rules", fmt.Sprintf("%d", len(cfg.Rules))},
		{"filename tag separator", fmt.Sprintf("%q", cfg.Filetags.FilenameTagSeparator)},
		{"between tag separator", fmt.Sprintf("%q", cfg.Filetags.BetweenTagSeparator)},
		{"cache enabled", yesNo(cfg.Cache.Enabled != nil && *cfg.Cache.Enabled)},
		{"cache directory", cfg.Cache.Directory},
		{"log level", cfg.Logging.Level},
		{"log format", cfg.Logging.Format},
	}
	cmd.Println(renderTable([]string{"Option", "Value"}, rows, nil))
	return nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
