// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// maxArgs is cobra.MaximumNArgs reporting a UsageError.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return &UsageError{Message: fmt.Sprintf("%s accepts at most %d argument(s), received %d", cmd.Name(), n, len(args))}
		}
		return nil
	}
}

// openInput opens FILE, or stdin when the argument is "-" or missing.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// readInput reads all of FILE or stdin.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	rc, err := openInput(cmd, args)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// chunkedReader caps every Read at size bytes so file input arrives in
// fragments the way a network stream would.
type chunkedReader struct {
	io.ReadCloser
	size int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(p) > c.size {
		p = p[:c.size]
	}
	return c.ReadCloser.Read(p)
}
