package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/api"
	"github.com/zulandar/shopfloor/internal/logging"
	"github.com/zulandar/shopfloor/internal/notify"
	"github.com/zulandar/shopfloor/internal/tracker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan API and notification scheduler",
		Long:  "Serves the scan endpoints, dashboard summaries and live event stream, and sends heartbeats and the daily digest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides http.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.HTTP.Port = port
	}

	logger, err := logging.New(cfg.Log, cfg.Shop)
	if err != nil {
		return err
	}
	defer logger.Sync()

	hub := notify.NewHub()
	chat, closeChat, err := notify.Chat(cfg.Notify, logger)
	if err != nil {
		return err
	}
	defer closeChat()

	sinks := notify.Multi{hub, notify.LogSink{Logger: logger}}
	if chat != nil {
		sinks = append(sinks, chat)
	}
	t, err := tracker.New(tracker.Opts{DB: gormDB, Sink: sinks, Logger: logger})
	if err != nil {
		return err
	}

	sched, err := notify.NewScheduler(notify.ScheduleOpts{
		Heartbeat:   cfg.Notify.Heartbeat,
		Digest:      cfg.Notify.Digest,
		BuildDigest: t.Digest,
		Heartbeats:  hub,
		Digests:     chat,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
	}()

	logger.Info("serving",
		zap.Int("port", cfg.HTTP.Port),
		zap.Int("jobs", sched.Jobs()),
		zap.Bool("chat", chat != nil),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Start(ctx, api.StartOpts{
			Tracker:        t,
			Hub:            hub,
			Logger:         logger,
			Port:           cfg.HTTP.Port,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Out:            cmd.OutOrStdout(),
		})
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})
	return g.Wait()
}
