package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// OutputFormatter handles three output modes: JSON, quiet, and human-readable
type OutputFormatter struct {
	JSON  bool
	Quiet bool
	Out   io.Writer
	Err   io.Writer
}

// NewFormatter reads --json and --quiet from cmd and writes to its streams.
func NewFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return &OutputFormatter{
		JSON:  jsonOutput,
		Quiet: quietMode,
		Out:   cmd.OutOrStdout(),
		Err:   cmd.ErrOrStderr(),
	}
}

// AddOutputFlags registers --json and --quiet on cmd.
func AddOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("quiet", false, "Minimal output (ID only)")
}

// Success outputs a successful result. human is printed in the default mode.
func (f *OutputFormatter) Success(data any, id int, human string) error {
	switch {
	case f.Quiet:
		_, err := fmt.Fprintf(f.Out, "%d\n", id)
		return err
	case f.JSON:
		return json.NewEncoder(f.Out).Encode(map[string]any{
			"success": true,
			"data":    data,
		})
	default:
		_, err := fmt.Fprintln(f.Out, human)
		return err
	}
}

// Error outputs error information
func (f *OutputFormatter) Error(err error) {
	f.ErrorWithSuggestion(err, "")
}

// ErrorWithSuggestion outputs error information with an optional suggestion
func (f *OutputFormatter) ErrorWithSuggestion(err error, suggestion string) {
	if f.JSON {
		errData := map[string]any{
			"code":    ErrorCode(err),
			"message": err.Error(),
		}
		if suggestion != "" {
			errData["suggestion"] = suggestion
		}
		_ = json.NewEncoder(f.Out).Encode(map[string]any{
			"success": false,
			"error":   errData,
		})
		return
	}

	// Human-readable error
	fmt.Fprintf(f.Err, "Error: %s\n", err)
	if suggestion != "" {
		fmt.Fprintf(f.Err, "Suggestion: %s\n", suggestion)
	}
}
