package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "complytrain",
	Short: "Personalized compliance training",
	Long: `complytrain builds a short profile of you through an AI-phrased
questionnaire, then generates compliance training set in your own
workplace: an introduction, a scenario and a multiple-choice question.

Examples:
  complytrain profile build
  complytrain train --topic "Data Protection"
  complytrain serve`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		fmt.Fprintln(stderr, "Run 'complytrain --help' for usage.")
		os.Exit(1)
	}
}
