// Package main provides the resume_assistant command line: chat, merge, render and serve.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_assistant",
	Short: "Build a résumé by chatting with an AI coach",
	Long: `Resume Assistant helps you build a résumé: upload a PDF or Word file, chat with a
coach, merge every saved answer into one canonical JSON document and export it as a PDF.

Configuration can be loaded from a JSON or YAML file using --config. Command-line flags
override config file values; GEMINI_API_KEY and DATABASE_URL are read from the environment.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

var (
	rootConfigPath string
	rootLogLevel   string
	rootLogFormat  string
	rootVerbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
