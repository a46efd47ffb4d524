package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sample_config.yaml
var sampleConfig string

// Rule is the on-disk shape of one renaming rule.
type Rule struct {
	Description  string            `yaml:"description"`
	ExactMatch   bool              `yaml:"exact_match"`
	Bias         *float64          `yaml:"bias"`
	NameTemplate string            `yaml:"name_template"`
	NameFormat   string            `yaml:"name_format"`
	Conditions   map[string]string `yaml:"conditions"`
	DataSources  map[string]URIs   `yaml:"data_sources"`
	Replacements []Replacement     `yaml:"replacements"`
}

// URIs accepts either a single URI string or a list.
type URIs []string

func (u *URIs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*u = URIs{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*u = URIs(many)
		return nil
	}
	return fmt.Errorf("data source must be a string or a list, got %s", node.Tag)
}

// Replacement is one regex rewrite for the post-processor chain.
type Replacement struct {
	Match   string `yaml:"match"`
	Replace string `yaml:"replace"`
}

// Filetags holds the basename-partitioning separators.
type Filetags struct {
	FilenameTagSeparator string `yaml:"filename_tag_separator"`
	BetweenTagSeparator  string `yaml:"between_tag_separator"`
}

// PostProcessors configures the shared post-processing steps.
type PostProcessors struct {
	Replacements      []Replacement `yaml:"replacements"`
	LowercaseFilename bool          `yaml:"lowercase_filename"`
	UppercaseFilename bool          `yaml:"uppercase_filename"`
	SimplifyUnicode   bool          `yaml:"simplify_unicode"`
	SanitizeFilename  *bool         `yaml:"sanitize_filename"`
	SanitizeStrict    bool          `yaml:"sanitize_strict"`
}

// Cache configures the persistent extractor cache.
type Cache struct {
	Enabled   *bool  `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// Logging configures log output.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Config is the complete parsed configuration.
type Config struct {
	Rules          []Rule            `yaml:"RULES"`
	NameTemplates  map[string]string `yaml:"NAME_TEMPLATES"`
	Filetags       Filetags          `yaml:"FILETAGS_OPTIONS"`
	PostProcessors PostProcessors    `yaml:"POST_PROCESSORS"`
	Cache          Cache             `yaml:"CACHE"`
	Logging        Logging           `yaml:"LOGGING"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autoname/autoname.yaml")
}

// Load locates, parses, normalizes, and validates a configuration file.
// A missing file yields the built-in sample configuration.
func Load(path string) (*Config, string, bool, error) {
	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	source := []byte(sampleConfig)
	if exists {
		source, err = os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := Parse(source)
	if err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// Parse decodes, normalizes, and validates raw YAML.
func Parse(source []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(source, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sample returns the embedded sample configuration text, for --dump-config
// on a fresh installation.
func Sample() string { return sampleConfig }

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
