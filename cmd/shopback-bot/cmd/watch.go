package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wdzeng/shopback-bot/internal/bot"
	"github.com/wdzeng/shopback-bot/internal/config"
	"github.com/wdzeng/shopback-bot/internal/session"
	"github.com/wdzeng/shopback-bot/internal/shopback"
	"github.com/wdzeng/shopback-bot/pkg/logger"
)

func watchCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the follow scheduler as a daemon",
		Long: "Periodically follows offers matching the configured keywords and\n" +
			"serves health and metrics endpoints.",
		Example: "  shopback-bot watch --config watch.yaml",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runWatch(cfgFile)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "watch.yaml", "config file")

	return cmd
}

func runWatch(cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	charmLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	gatewayOpts := []shopback.Option{
		shopback.WithBaseURL(cfg.Shopback.BaseURL),
		shopback.WithGraphQLURL(cfg.Shopback.GraphQLURL),
	}
	if cfg.Shopback.RateLimit.Enabled {
		gatewayOpts = append(gatewayOpts, shopback.WithRateLimiter(
			shopback.NewRateLimiter(
				cfg.Shopback.RateLimit.PerSecond,
				cfg.Shopback.RateLimit.Burst,
				cfg.Shopback.RateLimit.DailyLimit,
			),
		))
	}
	gateway := shopback.New(gatewayOpts...)

	sess := session.NewManager(
		gateway,
		session.WithCredentialFile(cfg.Shopback.CredentialFile),
	)
	b := bot.New(gateway, sess, bot.WithLogger(slogger))

	if err := sess.ValidateRegion(context.Background()); err != nil {
		return fmt.Errorf("validating login: %w", err)
	}

	sched, err := bot.NewScheduler(
		b,
		cfg.Watch.Keywords,
		cfg.Watch.Limit,
		cfg.Watch.Interval,
		slogger,
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/runs", func(c echo.Context) error {
		return c.JSON(http.StatusOK, sched.Runs())
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	charmLog.Info("starting watch daemon", "addr", addr, "keywords", cfg.Watch.Keywords)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			charmLog.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	charmLog.Info("shutting down")
	<-sched.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	charmLog.Info("watch daemon stopped")
	return nil
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
