// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigrun-stream command line.
//
// # Commands
//
//   - format: run a chat stream through the processor and print the final message
//   - sanitize: strip active content from a message
//   - check: report error wording and unterminated code blocks
//   - validate: check the shape of JSON messages
//   - version: print build information
//
// Every command accepts --json for machine-readable output and returns a
// distinct exit code per failure class (see GetExitCode).
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
package cli
