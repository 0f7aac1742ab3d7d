package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// productFood converts a cached product into a food item.
func productFood(p *types.CachedProduct) types.FoodItem {
	food := types.FoodItem{
		FoodID:     "barcode:" + p.Barcode,
		Label:      p.ProductName,
		Nutrition:  p.Nutrition,
		SourceType: sourceTypeCode,
		ImageURL:   p.ImageURL,
	}
	if food.Label == "" {
		food.Label = p.Barcode
	}
	return food
}

// cachedProduct returns the cached product for barcode or an ErrNotFound
// error.
func cachedProduct(ctx context.Context, b *sqlite.Backend, barcode string) (*types.CachedProduct, error) {
	prod, err := b.Products().Get(ctx, barcode)
	if err != nil {
		return nil, storeError("get product", err)
	}
	if prod == nil {
		return nil, fmt.Errorf("product %s is not cached: %w", barcode, types.ErrNotFound)
	}
	return prod, nil
}

func (a *app) newFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite",
		Short: "Manage a person's favorite foods",
	}
	cmd.AddCommand(a.newFavoriteToggleCmd(), a.newFavoriteListCmd())
	return cmd
}

func (a *app) newFavoriteToggleCmd() *cobra.Command {
	var personID, barcode, foodID, label string
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Add a food to favorites, or remove it if already there",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if personID == "" {
				return errPersonRequired
			}
			if barcode == "" && foodID == "" {
				return errors.New("--food-id or --product is required")
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				food := types.FoodItem{FoodID: foodID, Label: label, SourceType: sourceTypeCustom}
				if barcode != "" {
					prod, err := cachedProduct(ctx, b, barcode)
					if err != nil {
						return err
					}
					food = productFood(prod)
				}
				if food.Label == "" {
					food.Label = food.FoodID
				}
				added, err := b.Favorites().Toggle(ctx, personID, food)
				if err != nil {
					return storeError("toggle favorite", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":       types.FavoriteID(personID, food.FoodID),
					"favorite": added,
				})
			})
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person id (required)")
	cmd.Flags().StringVar(&barcode, "product", "", "barcode of a cached product")
	cmd.Flags().StringVar(&foodID, "food-id", "", "food id")
	cmd.Flags().StringVar(&label, "label", "", "food label (default: the food id)")
	return cmd
}

func (a *app) newFavoriteListCmd() *cobra.Command {
	var personID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a person's favorites ordered by label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if personID == "" {
				return errPersonRequired
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				favs, err := b.Favorites().ForPerson(ctx, personID)
				if err != nil {
					return storeError("list favorites", err)
				}
				return printJSON(cmd.OutOrStdout(), favs)
			})
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person id (required)")
	return cmd
}

func (a *app) newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recently used foods",
	}
	var personID string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List a person's recently used foods, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if personID == "" {
				return errPersonRequired
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				items, err := b.Recents().List(ctx, personID, limit)
				if err != nil {
					return storeError("list recents", err)
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
	list.Flags().StringVar(&personID, "person", "", "person id (required)")
	list.Flags().IntVar(&limit, "limit", types.DefaultRecentsLimit, "maximum number of foods")
	cmd.AddCommand(list)
	return cmd
}

func (a *app) newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Read and write the product cache",
	}
	cmd.AddCommand(a.newProductGetCmd(), a.newProductPutCmd())
	return cmd
}

func (a *app) newProductGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <barcode>",
		Short: "Print a cached product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				prod, err := cachedProduct(ctx, b, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), prod)
			})
		},
	}
}

func (a *app) newProductPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <json|->",
		Short: "Store a product in the cache",
		Long: `Put stores a product lookup result. Non-finite nutrition values are
stored as null and the standard micronutrient keys are always present.

Example:
  macrostore product put '{"barcode":"737628064502","productName":"Rice noodles","nutrition":{"kcal100g":364,"p100g":6,"c100g":80,"f100g":1}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPayload(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			var p types.CachedProduct
			if err := decodeStrict(data, &p); err != nil {
				return err
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				if err := b.Products().Put(ctx, &p); err != nil {
					return storeError("put product", err)
				}
				saved, err := cachedProduct(ctx, b, p.Barcode)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
}
