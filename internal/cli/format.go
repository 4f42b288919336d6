// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-stream/internal/model"
	"github.com/jeranaias/rigrun-stream/internal/stream"
	"github.com/jeranaias/rigrun-stream/internal/transport"
	"github.com/jeranaias/rigrun-stream/internal/util"
)

type formatOptions struct {
	url       string
	method    string
	body      string
	headers   map[string]string
	output    string
	chunkSize int
	sanitize  bool
	noPreview bool
}

// formatResult collects what the processor reported. Callbacks run on the
// goroutine that called Run, so no locking is needed.
type formatResult struct {
	text     string
	partial  string
	complete bool
	crisis   bool
	err      error
}

func newFormatCmd(a *app) *cobra.Command {
	opts := &formatOptions{}

	cmd := &cobra.Command{
		Use:   "format [FILE|-]",
		Short: "Process a chat stream and print the finalized message",
		Long: "Reads a chat stream from FILE, stdin (\"-\"), or --url and prints the\n" +
			"finalized markdown. With no FILE and a configured source.url, the URL is used.\n\n" +
			"Exit codes: 0 complete, 6 crisis event, 5 connection failure, 8 timeout, 130 interrupted.",
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, a, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Read the stream from an HTTP endpoint")
	cmd.Flags().StringVar(&opts.method, "method", "", "HTTP method for --url (default: source.method)")
	cmd.Flags().StringVar(&opts.body, "body", "", "Request body for POST sources")
	cmd.Flags().StringToStringVarP(&opts.headers, "header", "H", nil, "Extra request header, key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the final message to a file atomically")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "Split file input into fragments of N bytes")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "Strip scripts and inline handlers from the result")
	cmd.Flags().BoolVar(&opts.noPreview, "no-preview", false, "Disable the live preview line")

	return cmd
}

func runFormat(cmd *cobra.Command, a *app, opts *formatOptions, args []string) error {
	if opts.chunkSize < 0 {
		return &UsageError{Message: "--chunk-size must not be negative"}
	}
	if opts.url != "" && len(args) > 0 {
		return &UsageError{Message: "use either FILE or --url, not both"}
	}

	ctx := cmd.Context()
	src, err := openSource(ctx, cmd, a, opts, args)
	if err != nil {
		return err
	}

	proc, err := stream.NewProcessorWithConfig(a.cfg.ToStreamConfig(a.logger))
	if err != nil {
		src.Close()
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	previewOn := !opts.noPreview && !a.jsonOut && IsStderrTTY()
	preview := newLivePreview(cmd.ErrOrStderr(), previewOn, a.cfg.Output.MaxFPS, GetTerminalWidth(os.Stderr))

	var res formatResult
	err = proc.Run(ctx, src, stream.Callbacks{
		OnUpdate: func(text string, complete bool) {
			if complete {
				res.crisis = true
				res.text = text
				return
			}
			res.partial = text
			preview.Update(text)
		},
		OnError: func(err error) {
			res.err = err
		},
		OnComplete: func(final string) {
			res.complete = true
			res.text = final
		},
	})
	preview.Clear()
	if err != nil {
		return err
	}

	return reportFormat(cmd, a, opts, res)
}

// openSource picks the HTTP endpoint or the local input.
func openSource(ctx context.Context, cmd *cobra.Command, a *app, opts *formatOptions, args []string) (io.ReadCloser, error) {
	url := opts.url
	if url == "" && len(args) == 0 {
		url = a.cfg.Source.URL
	}

	if url != "" {
		method := opts.method
		if method == "" {
			method = a.cfg.Source.Method
		}
		headers := make(map[string]string, len(a.cfg.Source.Headers)+len(opts.headers))
		for k, v := range a.cfg.Source.Headers {
			headers[k] = v
		}
		for k, v := range opts.headers {
			headers[k] = v
		}
		client := transport.NewClientWithConfig(&transport.ClientConfig{
			URL:            url,
			Method:         method,
			Body:           []byte(opts.body),
			Headers:        headers,
			ConnectTimeout: a.cfg.ConnectTimeout(),
			Logger:         a.logger,
		})
		return client.Open(ctx)
	}

	src, err := openInput(cmd, args)
	if err != nil {
		return nil, err
	}
	if opts.chunkSize > 0 {
		return &chunkedReader{ReadCloser: src, size: opts.chunkSize}, nil
	}
	return src, nil
}

func reportFormat(cmd *cobra.Command, a *app, opts *formatOptions, res formatResult) error {
	out := cmd.OutOrStdout()

	text := res.text
	if res.err != nil {
		text = res.partial
	}
	if opts.sanitize {
		text = util.SanitizeMessage(text)
	}
	data := FormatData{Text: text, Complete: res.complete, Crisis: res.crisis}

	switch {
	case res.err != nil:
		streamErr := stream.ClassifyError(res.err)
		if !a.jsonOut {
			return streamErr
		}
		data.ErrorKind = streamErr.Kind.String()
		NewJSONErrorResponseStr("format", data, streamErr.UserMessage()).Print(out)
		return &ExitError{Code: GetExitCode(streamErr)}

	case res.crisis:
		a.logger.Warn("stream ended with a crisis event")
		if a.jsonOut {
			NewJSONResponse("format", data).Print(out)
		} else {
			fmt.Fprintln(out, RenderCrisis(text))
		}
		return &ExitError{Code: ExitCrisis}
	}

	if msg := model.NewMessage(model.RoleAssistant, text); !msg.IsEmpty() {
		data.Message = msg
	}
	if opts.output != "" {
		if err := util.AtomicWriteFile(opts.output, []byte(text), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if a.jsonOut {
		return NewJSONResponse("format", data).Print(out)
	}
	if opts.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s wrote %s\n", SuccessStyle.Render("[OK]"), opts.output)
		return nil
	}
	fmt.Fprint(out, text)
	return nil
}
