// Command rootie is the terminal client for the conversation canvas:
// it drives the engine against a running backend, streaming replies and
// managing persisted graphs.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backendURL string
	verbose    bool

	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

var rootCmd = &cobra.Command{
	Use:   "rootie",
	Short: "rootie — branching conversation canvas",
	Long:  "rootie — explore a conversation as a tree: answer, branch, and follow up from any node",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "http://localhost:8000", "Backend base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(
		graphsCmd(),
		chatCmd(),
	)
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		bad.Fprintf(os.Stderr, "rootie: %v\n", err)
		os.Exit(1)
	}
}
