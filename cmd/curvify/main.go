// Command curvify fits expression models to columns of a CSV file.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "curvify",
		Short: "Fit expression models to data",
		Long: `curvify compiles a model such as "a * exp(b * x) + c", fits its
parameters to two columns of a CSV file by bounded Levenberg-Marquardt and
writes the fitted curve, residuals and a log.txt summary to a dated run
directory.`,
		SilenceUsage: true,
	}
	root.AddCommand(newFitCmd(), newModelsCmd(), newEvalCmd())
	return root
}

// newLogger returns a text logger at level, which is one of debug, info,
// warn or error. Unknown levels fall back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
