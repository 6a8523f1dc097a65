// Command gebeta runs the Gebeta backend and its maintenance tasks.
//
//	gebeta serve
//	gebeta migrate
//	gebeta seed
//	gebeta queue:work --workers 8
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/gebeta-app/gebeta/database/migrations"

	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/internal/kernel"
	"github.com/gebeta-app/gebeta/pkg/cache"
	"github.com/gebeta-app/gebeta/pkg/database"
	"github.com/gebeta-app/gebeta/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "gebeta",
	Short:         "Gebeta food delivery and recipe backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, routeListCmd)
	rootCmd.AddCommand(migrateCmd, migrateRollbackCmd, migrateStatusCmd, seedCmd)
	rootCmd.AddCommand(queueWorkCmd, scheduleRunCmd, pruneNotificationsCmd)
}

// boot loads configuration, sets up logging and connects to the database
// and Redis. The returned func releases them.
func boot() (func(), error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	closeLog, err := logger.Setup()
	if err != nil {
		logger.Warn("mongo log sink disabled", "error", err)
	}

	if err := database.Connect(); err != nil && !errors.Is(err, database.ErrNoDatabase) {
		closeLog()
		return nil, err
	}
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, cache disabled", "error", err)
	}

	return func() {
		_ = cache.Close()
		_ = database.Close()
		closeLog()
	}, nil
}

// bootKernel is boot plus a wired kernel.
func bootKernel() (*kernel.Kernel, func(), error) {
	done, err := boot()
	if err != nil {
		return nil, nil, err
	}
	k, err := kernel.New()
	if err != nil {
		done()
		return nil, nil, err
	}
	return k, done, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
