package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

func (a *app) newPersonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage persons",
	}
	cmd.AddCommand(a.newPersonListCmd(), a.newPersonSetCmd(), a.newPersonDeleteCmd())
	return cmd
}

func (a *app) newPersonListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persons ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				persons, err := b.Persons().GetAll(ctx)
				if err != nil {
					return storeError("list persons", err)
				}
				return printJSON(cmd.OutOrStdout(), persons)
			})
		},
	}
}

func (a *app) newPersonSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <json|->",
		Short: "Create or update a person",
		Long: `Set stores a person. An empty or missing id creates a new person.

Example:
  macrostore person set '{"name":"Alex","kcalGoal":2200,"macroTargets":{"p":160,"c":240,"f":70}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPayload(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			var p types.Person
			if err := decodeStrict(data, &p); err != nil {
				return err
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				persons, err := b.GetTable(types.PersonsTable)
				if err != nil {
					return storeError("get table", err)
				}
				id, err := persons.Set(ctx, p.ID, &p)
				if err != nil {
					return storeError("set person", err)
				}
				saved, err := b.Persons().Get(ctx, id)
				if err != nil {
					return storeError("get person", err)
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
}

func (a *app) newPersonDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a person and every record that references it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				if err := b.DeletePerson(ctx, args[0]); err != nil {
					return storeError("delete person", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "person %s deleted\n", args[0])
				return nil
			})
		},
	}
}
