package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatYAML outputs as YAML (default)
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatTable outputs a styled table for Tabular results
	FormatTable OutputFormat = "table"
)

// ParseOutputFormat validates a --output flag value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatYAML, FormatJSON, FormatTable:
		return f, nil
	case "":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (yaml, json, table)
	Format OutputFormat

	// Indent is the indentation for JSON output
	Indent string

	// Writer is the destination; nil means stdout
	Writer io.Writer

	// Styles are used by FormatTable; zero means DefaultTheme
	Styles *Styles
}

// Output writes the result to the configured destination
func Output(result any, opts OutputOptions) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, result, opts.Indent)
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatTable:
		t, ok := result.(Tabular)
		if !ok {
			return outputYAML(w, result)
		}
		styles := NewStyles(DefaultTheme)
		if opts.Styles != nil {
			styles = *opts.Styles
		}
		_, err := fmt.Fprintln(w, t.Table().Render(styles))
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Print helpers for terminal output. They write to stderr so that stdout
// stays free for encoded streams.

// PrintSuccess prints a success message with checkmark
func PrintSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}
