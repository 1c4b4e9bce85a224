package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

var reconcileWorker bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile every registry record and downgrade expired premium users",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"reconcile",
			reconcileWorker,
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ReconcileSweepInterval },
			func(s *service.EntitlementService, ctx context.Context) error {
				summary, err := s.ReconcileAll(ctx)
				logrus.WithFields(logrus.Fields{
					"job":        "reconcile",
					"checked":    summary.Checked,
					"downgraded": summary.Downgraded,
					"failed":     summary.Failed,
				}).Info("Reconcile sweep finished")
				return err
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().BoolVar(&reconcileWorker, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	worker bool,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.EntitlementService, ctx context.Context) error,
) {
	cfg := mustLoadConfig()
	app := mustBuildApplication(cfg, nil)
	defer app.close()

	if worker {
		runWorker(name, intervalResolver(cfg), app.service, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(app.service, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	entitlementService *service.EntitlementService,
	fn func(s *service.EntitlementService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(entitlementService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(entitlementService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
