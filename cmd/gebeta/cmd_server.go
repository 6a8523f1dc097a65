package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/internal/kernel"
	"github.com/gebeta-app/gebeta/internal/server"
)

// gebeta serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP API, gRPC health service, queue workers and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, done, err := bootKernel()
		if err != nil {
			return err
		}
		defer done()

		ctx, stop := signalContext()
		defer stop()
		return server.Run(ctx, k, server.Everything())
	},
}

// gebeta route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List the registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := kernel.New(kernel.WithStore(memory.NewStore()), kernel.WithSyncEvents())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range k.Router.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
