package cmd

import (
	"context"
	"fmt"

	"github.com/salmonumbrella/storefront-cli/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

// printResult writes data to the command's stdout in the selected format.
func printResult(ctx context.Context, data interface{}) error {
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// printStatus writes a human-facing status line unless --quiet is set or
// the output is meant for machines.
func printStatus(ctx context.Context, format string, args ...interface{}) {
	if output.SettingsFromContext(ctx).Quiet || structuredOutputRequested() {
		return
	}
	_, _ = fmt.Fprintf(stderrFromContext(ctx), format+"\n", args...)
}
