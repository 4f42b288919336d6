// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jeranaias/rigrun-stream/internal/util"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[2K"

// livePreview draws the newest line of a streaming message on a single
// terminal line. Updates beyond maxFPS are dropped; the final text is
// printed separately once the stream completes.
type livePreview struct {
	w       io.Writer
	enabled bool
	width   int
	limiter *rate.Limiter
	shown   bool
}

func newLivePreview(w io.Writer, enabled bool, maxFPS, width int) *livePreview {
	if maxFPS <= 0 {
		maxFPS = 30
	}
	return &livePreview{
		w:       w,
		enabled: enabled,
		width:   width,
		limiter: rate.NewLimiter(rate.Limit(maxFPS), 1),
	}
}

// Update redraws the preview from the current message text.
func (p *livePreview) Update(text string) {
	if !p.enabled || !p.limiter.Allow() {
		return
	}
	line := util.TruncateWidth(previewLine(text), p.width-1)
	fmt.Fprint(p.w, clearLine+DimStyle.Render(line))
	p.shown = true
}

// Clear erases the preview line if one was drawn.
func (p *livePreview) Clear() {
	if !p.shown {
		return
	}
	fmt.Fprint(p.w, clearLine)
	p.shown = false
}

// previewLine returns the last non-blank line of text.
func previewLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimRight(lines[i], " \t"); strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
