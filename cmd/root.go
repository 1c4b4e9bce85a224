package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "entitlements-service",
	Short: "Premium subscription entitlement engine",
	Long:  "Sells time-boxed premium plans, records confirmed payments and keeps every payer's premium access consistent with its expiry.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
