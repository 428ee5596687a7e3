// Package cli provides the configuration and output helpers of the pcmogg
// command-line tool.
//
// This package includes:
//   - Configuration management (named encoding profiles)
//   - Output formatting (YAML, JSON, styled tables)
//   - Profile file loading (YAML/JSON)
//
// Configuration is stored in ~/.pcmogg/<app>/ directory, supporting
// multiple profiles similar to kubectl contexts.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("pcmogg")
//
//	// Profile named by --profile, or the current one
//	p, err := cfg.ResolveProfile(name)
//
//	cli.Output(summary, cli.OutputOptions{Format: cli.FormatJSON})
package cli
