package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zara",
	Short: "Zara - travel helpdesk answer service",
	Long: `Zara is the Voyora travel helpdesk assistant. It answers customer
questions from an OpenSearch knowledge base of travel documents, synthesizing
responses with an LLM and degrading to extractive answers when the provider
is unavailable.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statusCmd)
}
