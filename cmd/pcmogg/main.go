// Package main provides the pcmogg CLI tool.
//
// Usage:
//
//	pcmogg [flags] <command> [args]
//
// Commands:
//
//	encode    - Encode raw PCM into Ogg Vorbis
//	serve     - Run the WebSocket encode server
//	stream    - Encode through a remote server
//	inspect   - List the pages of an Ogg stream
//	sessions  - Browse the server session journal
//	config    - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.pcmogg/pcmogg/
//	Use 'pcmogg config' commands to manage profiles.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/pcmogg/cmd/pcmogg/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
