package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/lattice/pkg/config"
	"github.com/cuemby/lattice/pkg/lattice"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the database and serve metrics/health endpoints until stopped",
	Long: `serve opens the database and keeps its worker pool running, exposing
/metrics, /health, /ready, and /live over HTTP so the process can sit behind
a long-lived embedding (a daemon, a test harness, a sidecar).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("db")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		poolSize, _ := cmd.Flags().GetInt("pool-size")

		h, err := lattice.Open(config.Config{
			Path:        path,
			PoolSize:    poolSize,
			MetricsAddr: metricsAddr,
		})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		fmt.Printf("lattice serving %s\n", path)
		if metricsAddr != "" {
			fmt.Printf("metrics: http://%s/metrics\n", metricsAddr)
			fmt.Printf("health:  http://%s/health\n", metricsAddr)
		}
		fmt.Println("Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		if err := h.Close(); err != nil {
			return fmt.Errorf("failed to shut down cleanly: %w", err)
		}
		fmt.Println("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("metrics-addr", "", "bind address for /metrics, /health, /ready, /live (disabled when empty)")
	serveCmd.Flags().Int("pool-size", 0, "worker pool size (defaults to 2x CPU count, floored at 4)")
}
