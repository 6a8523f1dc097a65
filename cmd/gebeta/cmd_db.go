package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/database/seeders"
	"github.com/gebeta-app/gebeta/pkg/database"
	"github.com/gebeta-app/gebeta/pkg/migration"
)

// withDB runs fn against a real SQL connection.
func withDB(fn func(ctx context.Context) error) error {
	done, err := boot()
	if err != nil {
		return err
	}
	defer done()
	if database.DB == nil {
		return database.ErrNoDatabase
	}
	return fn(context.Background())
}

func printNames(verb string, names []string) {
	if len(names) == 0 {
		fmt.Printf("Nothing to %s.\n", verb)
		return
	}
	for _, n := range names {
		fmt.Printf("%s: %s\n", verb, n)
	}
}

// gebeta migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context) error {
			ran, err := migration.New(database.DB).Run(ctx)
			printNames("migrate", ran)
			return err
		})
	},
}

// gebeta migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context) error {
			rolled, err := migration.New(database.DB).Rollback(ctx)
			printNames("rollback", rolled)
			return err
		})
	},
}

// gebeta migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context) error {
			rows, err := migration.New(database.DB).Status(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
			for _, s := range rows {
				ran, batch := "no", "-"
				if s.Ran {
					ran, batch = "yes", fmt.Sprint(s.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
			}
			return w.Flush()
		})
	},
}

// gebeta seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run the database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context) error {
			if err := seeders.RunAll(ctx, repositories.NewGormStore(database.DB)); err != nil {
				return err
			}
			fmt.Printf("Seeded: %v\n", seeders.Names())
			return nil
		})
	},
}
