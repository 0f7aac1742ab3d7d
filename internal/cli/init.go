package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/sqlite"
)

func (a *app) newInitCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize macrostore storage",
		Long:  "Create the configuration and data directories and bring the database schema up to date.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				version, err := b.SchemaVersion(ctx)
				if err != nil {
					return storeError("read schema version", err)
				}
				if seed {
					if _, err := b.SeedSampleData(ctx); err != nil {
						return storeError("seed sample data", err)
					}
				}
				dataDir, _ := a.resolveDataDir()
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "config: %s\n", a.resolvedConfigDir)
				fmt.Fprintf(w, "data:   %s\n", dataDir)
				fmt.Fprintf(w, "schema: v%d\n", version)
				if seed {
					fmt.Fprintln(w, "sample data seeded")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "replace persons with sample data")
	return cmd
}

func (a *app) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace persons and their records with sample data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				data, err := b.SeedSampleData(ctx)
				if err != nil {
					return storeError("seed sample data", err)
				}
				return printJSON(cmd.OutOrStdout(), data)
			})
		},
	}
}

var errWipeNotConfirmed = errors.New("wipe deletes every record; pass --yes to confirm")

func (a *app) newWipeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every record in every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errWipeNotConfirmed
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				if err := b.Wipe(ctx); err != nil {
					return storeError("wipe", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all data deleted")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
