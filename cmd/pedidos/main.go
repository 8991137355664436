package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pedidos",
		Short: "Interpreta pedidos de panadería escritos en texto libre",
		Long: `pedidos turns free-text bakery orders into normalized structured records.

A language model drafts the interpretation when configured; local pattern
extractors fill the gaps and take over completely when no model answers.

Configuration comes from the environment (or a .env file):
  USE_VERTEX, LLM_PROVIDER, MODEL_NAME, GOOGLE_CLOUD_PROJECT, GEMINI_API_KEY,
  OPENAI_API_KEY, LLM_TIMEOUT, DEBUG_MODE, HTTP_ADDR, GRPC_ADDR, WEB_DIR, ...`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(interpretCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}
