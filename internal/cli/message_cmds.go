// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-stream/internal/formatter"
	"github.com/jeranaias/rigrun-stream/internal/model"
	"github.com/jeranaias/rigrun-stream/internal/util"
)

// =============================================================================
// SANITIZE
// =============================================================================

func newSanitizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [FILE|-]",
		Short: "Strip script/iframe elements, javascript: URIs and inline handlers",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			clean := util.SanitizeMessage(string(data))
			if a.jsonOut {
				return NewJSONResponse("sanitize", map[string]any{
					"text":    clean,
					"changed": clean != string(data),
				}).Print(cmd.OutOrStdout())
			}
			fmt.Fprint(cmd.OutOrStdout(), clean)
			return nil
		},
	}
}

// =============================================================================
// CHECK
// =============================================================================

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [FILE|-]",
		Short: "Report error wording and unterminated code blocks in a message",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			report := checkMessage(string(data))
			if a.jsonOut {
				return NewJSONResponse("check", report).Print(cmd.OutOrStdout())
			}
			printCheck(cmd, report)
			return nil
		},
	}
}

func checkMessage(text string) CheckData {
	report := CheckData{
		Normalized:         util.NormalizeMessage(text),
		IsErrorResponse:    util.IsErrorResponse(text),
		IncompleteMarkdown: util.HasIncompleteMarkdown(text),
		CodeFences:         formatter.CountFences(text),
	}
	if report.IsErrorResponse {
		report.ErrorMessage = util.ExtractErrorMessage(text)
	}
	return report
}

func printCheck(cmd *cobra.Command, r CheckData) {
	out := cmd.OutOrStdout()

	if r.IsErrorResponse {
		fmt.Fprintf(out, "%s%s %s\n", RenderLabel("Error response"), RenderStatus("warn"), r.ErrorMessage)
	} else {
		fmt.Fprintf(out, "%s%s\n", RenderLabel("Error response"), RenderStatus("ok"))
	}

	if r.IncompleteMarkdown {
		fmt.Fprintf(out, "%s%s unterminated code block (%d fences)\n", RenderLabel("Markdown"), RenderStatus("warn"), r.CodeFences)
	} else {
		fmt.Fprintf(out, "%s%s %d fences\n", RenderLabel("Markdown"), RenderStatus("ok"), r.CodeFences)
	}

	fmt.Fprintln(out, TitleStyle.Render("Normalized"))
	fmt.Fprintln(out, r.Normalized)
}

// =============================================================================
// VALIDATE
// =============================================================================

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [FILE|-]",
		Short: "Validate a JSON message or array of messages",
		Long: "Each message needs a string \"text\", a string \"sender\" and a\n" +
			"\"timestamp\" that is a number or an RFC 3339 time value.",
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			values, err := model.DecodeMessages(data)
			if err != nil {
				return &ExitError{Code: ExitInvalidMessage, Err: err}
			}
			return reportValidate(cmd, a, values)
		},
	}
}

func reportValidate(cmd *cobra.Command, a *app, values []map[string]any) error {
	out := cmd.OutOrStdout()
	result := ValidateData{Total: len(values), Invalid: []int{}}

	for i, v := range values {
		ok := util.ValidateMessage(withParsedTimestamp(v))
		if ok {
			result.Valid++
		} else {
			result.Invalid = append(result.Invalid, i+1)
		}
		if !a.jsonOut {
			status := "ok"
			if !ok {
				status = "fail"
			}
			line := fmt.Sprintf("%s message %d", RenderStatus(status), i+1)
			if sender, ok := v["sender"].(string); ok && sender != "" {
				line += " (" + model.Role(sender).DisplayName() + ")"
			}
			fmt.Fprintln(out, line)
		}
	}

	if len(result.Invalid) == 0 {
		if a.jsonOut {
			return NewJSONResponse("validate", result).Print(out)
		}
		return nil
	}

	msg := fmt.Sprintf("%d of %d message(s) invalid", len(result.Invalid), result.Total)
	if a.jsonOut {
		NewJSONErrorResponseStr("validate", result, msg).Print(out)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render(msg))
	}
	return &ExitError{Code: ExitInvalidMessage}
}

// withParsedTimestamp turns an RFC 3339 timestamp string into a time value.
// JSON has no date type, so that is how serialized messages carry one.
func withParsedTimestamp(v map[string]any) map[string]any {
	s, ok := v["timestamp"].(string)
	if !ok {
		return v
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return v
	}
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	out["timestamp"] = ts
	return out
}
