package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/internal/server"
	"github.com/gebeta-app/gebeta/pkg/logger"
)

var queueWorkersFlag int

// gebeta queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Run queue workers only",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, done, err := bootKernel()
		if err != nil {
			return err
		}
		defer done()
		if config.QueueDriver() != "redis" {
			logger.Warn("queue:work with the memory driver only sees jobs from this process")
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}
		ctx, stop := signalContext()
		defer stop()
		return server.Run(ctx, k, server.Options{Workers: workers})
	},
}

// gebeta schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the task scheduler only",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, done, err := bootKernel()
		if err != nil {
			return err
		}
		defer done()

		for _, t := range k.Scheduler.List() {
			fmt.Println("  •", t)
		}
		ctx, stop := signalContext()
		defer stop()
		return server.Run(ctx, k, server.Options{Scheduler: true})
	},
}

// gebeta notifications:prune
var pruneNotificationsCmd = &cobra.Command{
	Use:   "notifications:prune",
	Short: "Delete expired notifications now",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, done, err := bootKernel()
		if err != nil {
			return err
		}
		defer done()
		defer k.Close()

		n, err := k.Notifications.Prune(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d notifications.\n", n)
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "number of concurrent workers (default QUEUE_WORKERS)")
}
