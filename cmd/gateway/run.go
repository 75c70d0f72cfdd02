package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuretru/quatt-gateway/internal/collector"
	"github.com/kuretru/quatt-gateway/internal/dashboard"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/kuretru/quatt-gateway/internal/publisher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gateway until interrupted",
	RunE:  runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runGateway(cmd *cobra.Command, _ []string) error {
	config, err := prepare(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.Init(ctx, config.offlineAfter())
	registry := prometheus.NewRegistry()

	collectors, err := collector.Init(ctx, config.Collectors, db, collector.NewMetrics(registry))
	if err != nil {
		return err
	}

	var publishers *publisher.Publishers
	if len(config.Publishers) > 0 {
		publishers, err = publisher.Init(ctx, config.Publishers, publisher.Dependencies{
			DB:        db,
			Commander: collectors,
			Registry:  registry,
		})
		if err != nil {
			collectors.Stop(context.Background())
			return err
		}
	}

	var server *dashboard.Server
	if config.Dashboard != nil {
		server, err = startDashboard(config.Dashboard, db)
		if err != nil {
			if publishers != nil {
				publishers.Stop(context.Background())
			}
			collectors.Stop(context.Background())
			return err
		}
	}

	<-ctx.Done()
	slog.Info("Received shutdown signal, exiting gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if server != nil {
		server.Shutdown(shutdownCtx)
	}
	if publishers != nil {
		publishers.Stop(shutdownCtx)
	}
	collectors.Stop(shutdownCtx)
	return nil
}

func startDashboard(config *DashboardConfig, db *database.Database) (*dashboard.Server, error) {
	registry := dashboard.NewRegistry()
	if err := dashboard.RegisterCards(registry); err != nil {
		return nil, err
	}
	server, err := dashboard.NewServer(registry, db, config.Cards)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	server.Start(config.Listen)
	return server, nil
}
