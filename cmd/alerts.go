package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var alertsWithinDays int

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List premium users whose access expires soon or has already expired",
	Run: func(_ *cobra.Command, _ []string) {
		cfg := mustLoadConfig()
		app := mustBuildApplication(cfg, nil)
		defer app.close()

		alerts, err := app.service.ExpiryAlerts(context.Background(), alertsWithinDays)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to list expiry alerts")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PAYER\tNAME\tPLAN\tEXPIRES\tDAYS\tSTATUS")
		for _, alert := range alerts {
			status := "active"
			switch {
			case alert.IsExpired:
				status = "expired"
			case alert.IsExpiringSoon:
				status = "expiring_soon"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				alert.PayerID,
				alert.DisplayName,
				alert.PlanDisplayName,
				alert.ExpiresAt.In(cfg.Entitlements.Location).Format("Jan 2, 2006"),
				alert.DaysRemaining,
				status,
			)
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)

	alertsCmd.Flags().IntVar(&alertsWithinDays, "within-days", 0, "Alert window in days (defaults to EXPIRY_ALERT_WINDOW_DAYS)")
}
