package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/view"
)

var watchPayerID string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep one payer's registry record reconciled and log every state change",
	Run: func(_ *cobra.Command, _ []string) {
		payerID := strings.TrimSpace(watchPayerID)
		if payerID == "" {
			logrus.Fatal("--payer is required")
		}

		cfg := mustLoadConfig()
		app := mustBuildApplication(cfg, nil)
		defer app.close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		app.startBackground(ctx)

		logger := factory.LoggerForPayer(factory.NewModuleLogger("watch"), payerID, "")
		var lastPhase string
		v, err := view.Open(ctx, "", payerID, app.reconciler, app.bus, view.Options{
			Interval: cfg.Entitlements.ReconcileInterval,
			Clock:    func() time.Time { return time.Now().In(cfg.Entitlements.Location) },
			Logger:   logger,
			OnResult: func(res *service.Result) {
				phase := string(res.State.Phase)
				if phase == lastPhase && !res.Downgraded {
					return
				}
				lastPhase = phase
				logger.WithFields(logrus.Fields{
					"phase":          phase,
					"days_remaining": res.State.DaysRemaining,
					"trigger":        res.Trigger,
				}).Info(service.StatusText(res.State))
			},
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to open view")
		}
		defer v.Close()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Watch stopped")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchPayerID, "payer", "", "Payer id to watch")
}
