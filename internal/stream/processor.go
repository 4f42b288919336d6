// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"

	"github.com/jeranaias/rigrun-stream/internal/formatter"
	"github.com/jeranaias/rigrun-stream/internal/util"
)

// linePreviewRunes bounds line text copied into log entries.
const linePreviewRunes = 80

// =============================================================================
// CALLBACKS
// =============================================================================

// Callbacks receive the outcome of a run. They are called from the goroutine
// that called Run, in the order lines were classified. Nil fields are no-ops.
type Callbacks struct {
	// OnUpdate receives new display text. complete is true only for a
	// crisis event, which ends the run.
	OnUpdate func(text string, complete bool)

	// OnError receives the terminal *StreamError of a failed run.
	OnError func(err error)

	// OnComplete receives the finalized text of a successful run.
	OnComplete func(finalText string)
}

func (cb Callbacks) withDefaults() Callbacks {
	if cb.OnUpdate == nil {
		cb.OnUpdate = func(string, bool) {}
	}
	if cb.OnError == nil {
		cb.OnError = func(error) {}
	}
	if cb.OnComplete == nil {
		cb.OnComplete = func(string) {}
	}
	return cb
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor drives a source to completion through a message formatter.
//
// A Processor runs one stream at a time; Cancel may be called from any
// goroutine. Use separate processors for concurrent streams.
type Processor struct {
	config     *Config
	encoding   encoding.Encoding
	classifier *Classifier
	cancelMgr  *cancelManager
}

// NewProcessor creates a processor with default configuration.
func NewProcessor() *Processor {
	p, err := NewProcessorWithConfig(DefaultConfig())
	if err != nil {
		// The default charset always resolves.
		panic(err)
	}
	return p
}

// NewProcessorWithConfig creates a processor with custom configuration.
// Zero-valued fields take their defaults.
func NewProcessorWithConfig(config *Config) (*Processor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.fillDefaults()

	enc, err := LookupCharset(cfg.Charset)
	if err != nil {
		return nil, err
	}

	return &Processor{
		config:     &cfg,
		encoding:   enc,
		classifier: NewClassifier(cfg),
		cancelMgr:  newCancelManager(),
	}, nil
}

// Config returns a copy of the processor configuration.
func (p *Processor) Config() Config {
	return *p.config
}

// Cancel aborts the run in flight, if any. The run reports a cancellation
// through OnError.
func (p *Processor) Cancel() {
	p.cancelMgr.cancel()
}

// Active reports whether a run is in flight.
func (p *Processor) Active() bool {
	return p.cancelMgr.active()
}

// Run reads src until it ends, the timeout elapses, or ctx is cancelled.
//
// Run returns ErrNoSource without calling any callback when src is nil.
// Otherwise it returns nil and reports the outcome through exactly one
// terminal callback. src is closed exactly once on every path.
func (p *Processor) Run(ctx context.Context, src io.ReadCloser, cb Callbacks) error {
	if src == nil {
		return ErrNoSource
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()
	p.cancelMgr.set(cancel)
	defer p.cancelMgr.cancel()

	r := &run{
		log:          p.config.Logger.WithField("stream_id", uuid.NewString()),
		decoder:      NewDecoder(p.encoding),
		classifier:   p.classifier,
		formatter:    formatter.New(),
		cb:           cb.withDefaults(),
		maxLineBytes: p.config.MaxLineBytes,
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := src.Close(); err != nil {
				r.log.WithError(err).Debug("closing stream source")
			}
		})
	}
	defer release()

	r.log.Debug("stream started")

	frags := make(chan fragment)
	go pump(ctx, src, p.config.ReadBufferSize, frags)

	for {
		select {
		case <-ctx.Done():
			release()
			r.fail(ctx.Err())
			return nil

		case f := <-frags:
			if len(f.data) > 0 && r.feed(f.data) {
				return nil
			}
			if f.err == nil {
				continue
			}
			if errors.Is(f.err, io.EOF) {
				r.finish()
				return nil
			}
			release()
			r.fail(f.err)
			return nil
		}
	}
}

// =============================================================================
// SOURCE PUMP
// =============================================================================

// fragment is one read from the source.
type fragment struct {
	data []byte
	err  error
}

// maxEmptyReads is how many consecutive empty reads the pump tolerates
// before giving up with io.ErrNoProgress, matching bufio.
const maxEmptyReads = 100

// pump reads src into out until a read fails or ctx is done.
func pump(ctx context.Context, src io.Reader, size int, out chan<- fragment) {
	empty := 0
	for {
		buf := make([]byte, size)
		n, err := src.Read(buf)
		if n == 0 && err == nil {
			if ctx.Err() != nil {
				return
			}
			if empty++; empty < maxEmptyReads {
				continue
			}
			err = io.ErrNoProgress
		}
		empty = 0
		select {
		case out <- fragment{data: buf[:n], err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// =============================================================================
// RUN STATE
// =============================================================================

var errLineTooLong = errors.New("unterminated line exceeds limit")

// run is the state of a single Run call. Only the Run goroutine touches it.
type run struct {
	log          logrus.FieldLogger
	decoder      *Decoder
	classifier   *Classifier
	formatter    *formatter.MessageFormatter
	cb           Callbacks
	maxLineBytes int

	// carry is the unterminated tail of the decoded text.
	carry string
	// discarding skips the rest of a line that overflowed maxLineBytes.
	discarding bool
}

// feed decodes a fragment and handles every line it completes.
// It returns true when the run reached a terminal outcome.
func (r *run) feed(data []byte) bool {
	lines := strings.Split(r.carry+r.decoder.Decode(data), "\n")
	r.carry = lines[len(lines)-1]

	for _, line := range lines[:len(lines)-1] {
		if r.discarding {
			r.discarding = false
			continue
		}
		if r.handle(line) {
			return true
		}
	}

	if len(r.carry) > r.maxLineBytes {
		r.skip(r.carry, &LineError{
			Line: r.carry,
			Err:  fmt.Errorf("%w (%d bytes)", errLineTooLong, r.maxLineBytes),
		})
		r.carry = ""
		r.discarding = true
	}
	return false
}

// finish handles the buffered tail as a best-effort last line and completes
// the message.
func (r *run) finish() {
	tail := r.carry + r.decoder.Flush()
	r.carry = ""

	for _, line := range strings.Split(tail, "\n") {
		if r.discarding {
			r.discarding = false
			continue
		}
		if line != "" && r.handle(line) {
			return
		}
	}

	final := r.formatter.Finalize()
	r.log.WithField("bytes", len(final)).Debug("stream complete")
	r.cb.OnComplete(final)
}

// handle classifies one complete line and acts on it.
// It returns true when the line ended the run.
func (r *run) handle(raw string) bool {
	line, err := r.classifier.Classify(raw)
	if err != nil {
		r.skip(raw, err)
		return false
	}

	switch l := line.(type) {
	case CrisisEvent:
		r.log.Warn("crisis event received, ending stream")
		r.cb.OnUpdate(l.Payload, true)
		return true

	case SentinelLine:
		r.log.WithField("value", l.Value).Debug("dropping sentinel line")

	case ContentLine:
		msg := r.formatter.ProcessChunk(formatter.StreamChunk{Data: l.Text + "\n"})
		if msg.NeedsUpdate {
			r.cb.OnUpdate(msg.Text, false)
		}
	}
	return false
}

// skip logs a line-level failure. The stream continues.
func (r *run) skip(raw string, err error) {
	r.log.WithError(err).
		WithField("line", util.TruncateRunes(raw, linePreviewRunes)).
		Warn("skipping malformed stream line")
}

// fail reports a terminal transport, timeout, or cancellation error.
func (r *run) fail(err error) {
	streamErr := ClassifyError(err)
	r.log.WithError(err).WithField("kind", streamErr.Kind.String()).Error("stream aborted")
	r.cb.OnError(streamErr)
}
