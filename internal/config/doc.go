// Package config loads the terminal's configuration: a YAML file with
// defaults applied for every omitted field and PX_-prefixed environment
// overrides applied last.
package config
