package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-entitlements/app/catalog"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Print the premium plan catalog",
	Run: func(_ *cobra.Command, _ []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRICE\tDAYS\tDISCOUNT")
		for _, plan := range catalog.Default().All() {
			discount := "-"
			if plan.HasDiscount() {
				discount = fmt.Sprintf("%d%%", plan.DiscountPercent)
			}
			fmt.Fprintf(w, "%s\t%s\t%d.%02d\t%d\t%s\n",
				plan.ID,
				plan.DisplayName,
				plan.PriceMinorUnits/100,
				plan.PriceMinorUnits%100,
				plan.DurationDays,
				discount,
			)
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
}
