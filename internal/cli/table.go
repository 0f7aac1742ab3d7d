package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

var validTableNamesStr = strings.Join(types.StandardTableNames, ", ")

// table resolves a collection by name, turning an unknown name into a usage
// error that lists the valid ones.
func table(b *sqlite.Backend, name string) (types.Table, error) {
	t, err := b.GetTable(name)
	if errors.Is(err, types.ErrTableNotFound) {
		return nil, fmt.Errorf("unknown table %q (valid: %s): %w", name, validTableNamesStr, err)
	}
	if err != nil {
		return nil, storeError("get table", err)
	}
	return t, nil
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Get a record by id",
		Long: `Get retrieves a record from the named collection.

Valid table names: ` + validTableNamesStr + `

Example:
  macrostore get persons 0190b7a2-7c1e-7a44-9c55-0d3c2f3b9a10
  macrostore get products_cache 737628064502`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				t, err := table(b, args[0])
				if err != nil {
					return err
				}
				record, err := t.Get(ctx, args[1])
				if err != nil {
					return storeError(fmt.Sprintf("get %s %s", args[0], args[1]), err)
				}
				return printJSON(cmd.OutOrStdout(), record)
			})
		},
	}
}

func (a *app) newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <table> <id> <json|->",
		Short: "Create or replace a record",
		Long: `Set stores a record in the named collection. An empty id ("") lets the
store assign one.

Example:
  macrostore set meta theme '{"key":"theme","value":"dark"}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, id := args[0], args[1]
			data, err := readPayload(args[2], cmd.InOrStdin())
			if err != nil {
				return err
			}
			record, err := parseRecordJSON(name, data)
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				t, err := table(b, name)
				if err != nil {
					return err
				}
				savedID, err := t.Set(ctx, id, record)
				if err != nil {
					return storeError("set record", err)
				}
				saved, err := t.Get(ctx, savedID)
				if err != nil {
					return storeError("get saved record", err)
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <table> [key=value...]",
		Short: "List records with an optional filter",
		Long: `List queries the named collection. Filters are key=value pairs; values are
parsed as JSON when possible and used as strings otherwise.

Filters: personId (entries, favorites, recents, weight_logs), date (entries,
weight_logs), limit (recents).

Example:
  macrostore list persons
  macrostore list entries personId=p1 date=2024-05-01
  macrostore list recents personId=p1 limit=5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilterArgs(args[1:])
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				t, err := table(b, args[0])
				if err != nil {
					return err
				}
				records, err := t.Fetch(ctx, filter)
				if err != nil {
					return storeError("list records", err)
				}
				return printJSON(cmd.OutOrStdout(), records)
			})
		},
	}
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a record by id",
		Long:  "Delete removes a record. Deleting a person also removes its entries, favorites,\nrecent foods and weight logs.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				t, err := table(b, args[0])
				if err != nil {
					return err
				}
				if err := t.Delete(ctx, args[1]); err != nil {
					return storeError("delete record", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

// parseFilterArgs turns key=value arguments into a Fetch filter.
func parseFilterArgs(args []string) (map[string]any, error) {
	filter := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", arg)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		filter[key] = parsed
	}
	return filter, nil
}

// parseRecordJSON decodes data into the record type stored by the named
// collection.
func parseRecordJSON(name string, data []byte) (any, error) {
	var record any
	switch name {
	case types.PersonsTable:
		record = &types.Person{}
	case types.EntriesTable:
		record = &types.Entry{}
	case types.ProductsTable:
		record = &types.CachedProduct{}
	case types.FavoritesTable:
		record = &types.FavoriteItem{}
	case types.RecentsTable:
		record = &types.RecentItem{}
	case types.WeightLogsTable:
		record = &types.WeightLog{}
	case types.MetaTable:
		record = &types.MetaEntry{}
	default:
		return nil, fmt.Errorf("unknown table %q (valid: %s): %w", name, validTableNamesStr, types.ErrTableNotFound)
	}
	if err := decodeStrict(data, record); err != nil {
		return nil, err
	}
	return record, nil
}
