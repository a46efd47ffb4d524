package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"autoname/internal/config"
	"autoname/internal/logging"
	"autoname/internal/pipeline"
	"autoname/internal/rules"
)

// fallbackTemplate is the permissive retry applied in batch and dry-run
// modes when no configured rule matches. The stem reproduces the whole
// partitioned basename, so an already conventional name is a no-op skip
// rather than a destructive rename.
const fallbackTemplate = "{stem}.{extension}"

type commandContext struct {
	configFlag  *string
	verboseFlag *bool
	debugFlag   *bool
	quietFlag   *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verboseFlag, debugFlag, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		debugFlag:   debugFlag,
		quietFlag:   quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configPath, c.configExists, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) loadConfigDetail() (*config.Config, string, bool, error) {
	cfg, err := c.ensureConfig()
	return cfg, c.configPath, c.configExists, err
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		switch {
		case c.quietFlag != nil && *c.quietFlag:
			level = "error"
		case c.debugFlag != nil && *c.debugFlag:
			level = "debug"
		case c.verboseFlag != nil && *c.verboseFlag:
			level = "debug"
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:   level,
			Format:  cfg.Logging.Format,
			Output:  os.Stderr,
			LogFile: cfg.Logging.File,
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

// buildPipeline assembles the full pipeline from the loaded configuration.
// The fallback rule is attached only when permissive is set.
func (c *commandContext) buildPipeline(recorder pipeline.Recorder, permissive bool) (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	compiled, err := cfg.CompileRules()
	if err != nil {
		return nil, nil, err
	}
	chain, err := cfg.CompileChain()
	if err != nil {
		return nil, nil, err
	}

	settings := pipeline.Settings{
		Rules:    compiled,
		Chain:    chain,
		Template: cfg.TemplateOptions(),
		Recorder: recorder,
		Logger:   logger,
	}
	if permissive {
		settings.Fallback = rules.Fallback(fallbackTemplate)
	}
	if cfg.Cache.Enabled != nil && *cfg.Cache.Enabled {
		settings.CacheDir = cfg.Cache.Directory
	}

	probes := pipeline.DefaultExtractors(cfg.Filetags.FilenameTagSeparator, cfg.Filetags.BetweenTagSeparator)
	return pipeline.New(settings, probes), cfg, nil
}

func readConfigFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sampleConfigText() string { return config.Sample() }
