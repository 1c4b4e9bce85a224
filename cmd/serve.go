package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/controller"
	grpcserver "github.com/vibast-solutions/ms-go-entitlements/app/grpc"
	"github.com/vibast-solutions/ms-go-entitlements/app/types"
	"github.com/vibast-solutions/ms-go-entitlements/config"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

const rateLimiterExpiry = 3 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers for the entitlements service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()

	app := mustBuildApplication(cfg, prometheus.DefaultRegisterer)
	defer app.close()

	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	app.startBackground(backgroundCtx)

	grpcEntitlementServer := grpcserver.NewServer(app.service)
	entitlementController := controller.NewEntitlementController(app.service)

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()
	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
	grpcInternalAuthMiddleware := authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(cfg, entitlementController, echoInternalAuthMiddleware, cfg.App.ServiceName)
	grpcSrv, lis := setupGRPCServer(cfg, grpcEntitlementServer, grpcInternalAuthMiddleware, cfg.App.ServiceName)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	cfg *config.Config,
	entitlementController *controller.EntitlementController,
	internalAuthMiddleware *authmiddleware.EchoInternalAuthMiddleware,
	appServiceName string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string {
			return fmt.Sprintf("rest-%s", uuid.New().String())
		},
	}))
	e.Use(internalAuthMiddleware.RequireInternalAccess(appServiceName))

	paymentLimiter := newPaymentRateLimiter(cfg.RateLimit)

	e.GET("/health", entitlementController.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/plans", entitlementController.ListPlans)

	users := e.Group("/users")
	users.POST("", entitlementController.Register)
	users.GET("/:payer_id/payments", entitlementController.PaymentHistory)

	sessions := e.Group("/sessions")
	sessions.POST("", entitlementController.Login)
	sessions.DELETE("/:id", entitlementController.Logout)
	sessions.GET("/:id/entitlement", entitlementController.GetEntitlement)
	sessions.POST("/:id/checkout", entitlementController.Checkout, paymentLimiter)

	webhooks := e.Group("/webhooks")
	webhooks.POST("/payment-success", entitlementController.ConfirmPayment, paymentLimiter)

	admin := e.Group("/admin")
	admin.POST("/users/:payer_id/revoke", entitlementController.Revoke)
	admin.GET("/expiring", entitlementController.ExpiryAlerts)

	return e
}

// newPaymentRateLimiter throttles checkout and webhook calls per client IP.
func newPaymentRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	perSecond := cfg.CheckoutPerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(perSecond) + 1,
		ExpiresIn: rateLimiterExpiry,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(ctx echo.Context, identifier string, _ error) error {
			logrus.WithField("identifier", identifier).Warn("Payment rate limit exceeded")
			return ctx.JSON(http.StatusTooManyRequests, &types.ErrorResponse{Error: "too many requests"})
		},
		ErrorHandler: func(ctx echo.Context, _ error) error {
			return ctx.JSON(http.StatusForbidden, &types.ErrorResponse{Error: "unable to identify client"})
		},
	})
}

func setupGRPCServer(
	cfg *config.Config,
	entitlementServer *grpcserver.Server,
	internalAuthMiddleware *authmiddleware.GRPCInternalAuthMiddleware,
	appServiceName string,
) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoveryInterceptor(),
			grpcserver.RequestIDInterceptor(),
			grpcserver.LoggingInterceptor(),
			internalAuthMiddleware.UnaryRequireInternalAccess(appServiceName),
		),
	)
	types.RegisterEntitlementsServiceServer(grpcSrv, entitlementServer)

	return grpcSrv, lis
}
