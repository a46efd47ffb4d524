// Package config loads, normalizes, and validates the YAML configuration:
// rules, name templates, filetags separators, post-processor settings,
// cache and logging options.
package config
