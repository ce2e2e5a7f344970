// Package main provides the smartapplicant command line: an HTTP server, a
// one-shot generator, a PDF exporter and a terminal wizard.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smartapplicant",
	Short: "Tailored cover letters and outreach emails from a resume and a job posting",
	Long: `SmartApplicant reads a PDF resume and a job description, writes a tailored cover letter
with a match assessment, drafts a short outreach email, and lets you refine both by chat.
Letters export to a paginated A4 PDF.

Configuration is read from --config (JSON or YAML), then the environment, then flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	apiKey     string
	logLevel   string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed output")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
