// Package server runs the long-lived processes of one instance together:
// the HTTP API, the gRPC health service, queue workers, the scheduler and the
// websocket hub. The first one to fail stops the rest.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/internal/kernel"
	grpcsvc "github.com/gebeta-app/gebeta/pkg/grpc"
	"github.com/gebeta-app/gebeta/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Options selects which processes Run starts.
type Options struct {
	HTTP      bool
	GRPC      bool
	Workers   int
	Scheduler bool
}

// Everything is the full instance started by `gebeta serve`.
func Everything() Options {
	return Options{HTTP: true, GRPC: true, Workers: config.QueueWorkers(), Scheduler: true}
}

// Run blocks until ctx is cancelled or a process fails, then shuts the rest
// down gracefully.
func Run(ctx context.Context, k *kernel.Kernel, o Options) error {
	g, ctx := errgroup.WithContext(ctx)

	if o.HTTP {
		srv := &http.Server{
			Addr:              ":" + config.AppPort(),
			Handler:           k.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("http: listening", "addr", srv.Addr, "env", config.AppEnv())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		g.Go(func() error {
			k.Hub.Run(ctx)
			return nil
		})
	}

	if o.GRPC {
		lis, err := net.Listen("tcp", ":"+config.GRPCPort())
		if err != nil {
			return fmt.Errorf("grpc: listen: %w", err)
		}
		checks := grpcsvc.Checks{}
		for name, fn := range k.Checks() {
			checks[name] = fn
		}
		srv := grpcsvc.New(checks)
		g.Go(func() error {
			logger.Info("grpc: listening", "addr", lis.Addr().String())
			if err := srv.Serve(lis); err != nil {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			stopped := make(chan struct{})
			go func() {
				srv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-time.After(shutdownTimeout):
				srv.Stop()
			}
			return nil
		})
	}

	if o.Workers > 0 {
		g.Go(func() error { return k.Queue.Work(ctx, o.Workers) })
	}
	if o.Scheduler {
		g.Go(func() error { return k.Scheduler.Start(ctx) })
	}

	err := g.Wait()
	k.Close()
	logger.Info("server: stopped")
	return err
}
