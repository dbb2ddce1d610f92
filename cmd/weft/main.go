package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	wefterrors "github.com/vango-dev/weft/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err to w, using the structured layout for coded errors.
func printError(w io.Writer, err error) {
	var e *wefterrors.Error
	if wefterrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\033[31mError:\033[0m %s\n", err)
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weft",
		Short: "Reactive component rendering toolkit",
		Long: `Weft renders components into a live tree and keeps it in sync
with their state through minimal mutations.

  • diff two markup files into the mutation list
  • serve a demo component behind the devtools inspector`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		diffCmd(),
		serveCmd(),
		versionCmd(),
	)
	return cmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
