package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Normalization fills defaults and expands paths; it never rejects values,
// that is Validate's job.
func (c *Config) normalize() error {
	for i := range c.Rules {
		rule := &c.Rules[i]
		if rule.Bias == nil {
			bias := 1.0
			rule.Bias = &bias
		}
		// A name_format reference resolves to the named template; an
		// unknown reference is left for Validate to reject.
		if rule.NameTemplate == "" && rule.NameFormat != "" {
			if template, ok := c.NameTemplates[rule.NameFormat]; ok {
				rule.NameTemplate = template
			}
		}
	}

	if c.Filetags.FilenameTagSeparator == "" {
		c.Filetags.FilenameTagSeparator = " -- "
	}
	if c.Filetags.BetweenTagSeparator == "" {
		c.Filetags.BetweenTagSeparator = " "
	}

	if c.PostProcessors.SanitizeFilename == nil {
		enabled := true
		c.PostProcessors.SanitizeFilename = &enabled
	}

	if c.Cache.Enabled == nil {
		enabled := true
		c.Cache.Enabled = &enabled
	}
	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		c.Cache.Directory = dir
	}
	if c.Cache.Directory == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		c.Cache.Directory = filepath.Join(base, "autoname")
	}
	expanded, err := expandPath(c.Cache.Directory)
	if err != nil {
		return err
	}
	c.Cache.Directory = expanded

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.File != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return err
		}
		c.Logging.File = expanded
	}
	return nil
}
