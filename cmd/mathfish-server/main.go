// Package main provides the MathFish annotation server binary.
// The server serves one annotator's assignment: the annotation page,
// its JSON API, and the metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathfish/mathfish/internal/config"
	"github.com/mathfish/mathfish/internal/pkg/logger"
	"github.com/mathfish/mathfish/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mathfish-server",
		Short: "MathFish annotation server",
		Long: `MathFish annotation server hosts the standards annotation UI and API
for a single annotator session.

Run setup first to create the assignment plan, then start a session:

  mathfish setup --annotators alice,bob,carol
  mathfish-server --name alice
  mathfish-server --name alice --port 8001`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringP("config", "c", "", "config file path")
	rootCmd.Flags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.Flags().StringP("name", "n", "", "annotator name (required)")
	rootCmd.Flags().IntP("port", "p", 8000, "HTTP server port")
	rootCmd.Flags().String("host", "localhost", "server host")
	_ = rootCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mathfish-server %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	name, _ := cmd.Flags().GetString("name")
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		appCfg.Port = port
	}
	if cmd.Flags().Changed("host") {
		appCfg.Host = host
	}

	logLevel := appCfg.Log.Level
	if verbose {
		logLevel = "debug"
	}
	log := logger.New(logLevel, appCfg.Log.Format)

	srv, err := server.New(server.Config{
		Annotator: name,
		Host:      appCfg.Host,
		Port:      appCfg.Port,
		Version:   version,
	}, appCfg, log)
	if err != nil {
		return err
	}

	done, total := srv.Progress()
	fmt.Printf("\n  MathFish Annotator\n")
	fmt.Printf("  Annotator: %s\n", name)
	fmt.Printf("  Progress:  %d/%d problems\n", done, total)
	fmt.Printf("  Server:    http://%s\n", appCfg.Address())
	fmt.Printf("\n  Press Ctrl+C to stop.\n\n")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return err
	}

	done, total = srv.Progress()
	fmt.Printf("\nStopped. %d/%d annotations saved.\n", done, total)
	return nil
}
