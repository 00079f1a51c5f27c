package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/env"
)

var rootCmd = &cobra.Command{
	Use:   "checkoutctl",
	Short: "Operator tooling for the checkout service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		env.SetupEnvFile()
	},
}

func init() {
	rootCmd.AddCommand(newSendWebhookCmd(), newMappingsCmd(), newVerifyLinksCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
