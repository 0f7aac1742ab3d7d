package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/backup"
	"github.com/mesh-intelligence/macrostore/internal/paths"
	"github.com/mesh-intelligence/macrostore/internal/sqlite"
)

// backupOptions selects where a snapshot is written to or read from.
type backupOptions struct {
	file string
	s3   bool
	name string
}

func (o *backupOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.file, "file", "", "snapshot file (a bare name is placed in the data directory's backups/)")
	cmd.Flags().BoolVar(&o.s3, "s3", false, "use the S3 bucket from config.yaml")
	cmd.Flags().StringVar(&o.name, "name", "", "object name in the S3 bucket")
	cmd.MarkFlagsMutuallyExclusive("file", "s3")
}

// sink returns the configured sink and the document name to use. When no
// name is given, defaultName is used; an empty defaultName makes the name
// required.
func (a *app) sink(ctx context.Context, o *backupOptions, defaultName string) (backup.Sink, string, string, error) {
	if o.s3 {
		bucket := a.cfg.GetString(cfgKeyS3Bucket)
		if bucket == "" {
			return nil, "", "", fmt.Errorf("%s is not set in config.yaml", cfgKeyS3Bucket)
		}
		name := o.name
		if name == "" {
			name = defaultName
		}
		if name == "" {
			return nil, "", "", errors.New("--name is required with --s3")
		}
		s, err := a.newS3Sink(ctx, bucket, a.cfg.GetString(cfgKeyS3Region), a.cfg.GetString(cfgKeyS3Prefix))
		if err != nil {
			return nil, "", "", sysError(fmt.Errorf("open s3 sink: %w", err))
		}
		return s, "s3", name, nil
	}

	if o.name != "" {
		return nil, "", "", errors.New("--name applies to --s3 only; use --file")
	}
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, "", "", err
	}
	name := o.file
	if name == "" {
		name = defaultName
	}
	if name == "" {
		return nil, "", "", errors.New("--file or --s3 is required")
	}
	return backup.FileSink{Dir: paths.BackupDir(dataDir)}, "file", name, nil
}

func (a *app) newExportCmd() *cobra.Command {
	var o backupOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of every collection",
		Long: `Export writes a consistent snapshot of the store as JSON to a local file or
to S3. Without --file or --name the snapshot is named after the current time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sink, kind, name, err := a.sink(ctx, &o, backup.SnapshotName(time.Now()))
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				snap, err := b.ExportSnapshot(ctx)
				if err != nil {
					return storeError("export snapshot", err)
				}
				if err := backup.WriteSnapshot(ctx, sink, name, snap); err != nil {
					return sysError(err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"sink":          kind,
					"name":          name,
					"schemaVersion": snap.SchemaVersion,
					"persons":       len(snap.Persons),
					"entries":       len(snap.Entries),
					"productsCache": len(snap.ProductsCache),
					"favorites":     len(snap.Favorites),
					"recents":       len(snap.Recents),
					"weightLogs":    len(snap.WeightLogs),
				})
			})
		},
	}
	o.bind(cmd)
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	var o backupOptions
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the store contents with a snapshot",
		Long: `Import reads a snapshot from a local file or from S3 and replaces every
collection with its contents. Invalid records are dropped and counted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sink, _, name, err := a.sink(ctx, &o, "")
			if err != nil {
				return err
			}
			snap, err := backup.ReadSnapshot(ctx, sink, name)
			if err != nil {
				return storeError("read snapshot", err)
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				summary, err := b.ImportSnapshot(ctx, snap)
				if err != nil {
					return storeError("import snapshot", err)
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	o.bind(cmd)
	return cmd
}
