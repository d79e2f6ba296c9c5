// Package config handles configuration loading, parsing, and validation.
// Settings come from defaults, an optional YAML file and BIZOPS_-prefixed
// environment variables, in increasing order of precedence.
package config
