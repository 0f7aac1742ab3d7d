package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/insights"
	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// Entry sources and recent item source types.
const (
	sourceCustom     = "Manual (Custom)"
	sourceBarcode    = "Barcode (Open Food Facts)"
	sourceTypeCustom = "custom"
	sourceTypeCode   = "barcode"

	defaultPortionGrams = 100
)

var errPersonRequired = errors.New("--person is required")

func (a *app) newEntryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Log and list food entries",
	}
	cmd.AddCommand(a.newEntryAddCmd(), a.newEntryListCmd())
	return cmd
}

type entryAddOptions struct {
	personID string
	date     string
	clock    string
	barcode  string
	foodID   string
	name     string
	source   string
	grams    float64
	kcal     float64
	p, c, f  float64
}

func (a *app) newEntryAddCmd() *cobra.Command {
	var o entryAddOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a food entry",
		Long: `Add logs a food entry and refreshes the person's recent foods.

With --product the nutrition comes from the cached product and the amount
defaults to the last portion logged for that food. Without it the entry is a
custom food described by --name and the macro flags.

Example:
  macrostore entry add --person p1 --product 737628064502 --grams 45
  macrostore entry add --person p1 --name "Greek yogurt" --grams 170 --kcal 100 --p 17 --c 6 --f 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.personID == "" {
				return errPersonRequired
			}
			gramsSet := cmd.Flags().Changed("grams")
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				e, err := o.build(ctx, b, gramsSet)
				if err != nil {
					return err
				}
				saved, err := b.Entries().Add(ctx, e)
				if err != nil {
					return storeError("add entry", err)
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.personID, "person", "", "person id (required)")
	f.StringVar(&o.date, "date", "", "entry date YYYY-MM-DD (default: today)")
	f.StringVar(&o.clock, "time", "", "entry time HH:MM (default: now)")
	f.StringVar(&o.barcode, "product", "", "barcode of a cached product")
	f.StringVar(&o.foodID, "food-id", "", "food id (default: derived from the name)")
	f.StringVar(&o.name, "name", "", "food name")
	f.StringVar(&o.source, "source", "", "entry source label")
	f.Float64Var(&o.grams, "grams", defaultPortionGrams, "amount in grams")
	f.Float64Var(&o.kcal, "kcal", 0, "energy of the amount in kcal")
	f.Float64Var(&o.p, "p", 0, "protein of the amount in grams")
	f.Float64Var(&o.c, "c", 0, "carbohydrates of the amount in grams")
	f.Float64Var(&o.f, "f", 0, "fat of the amount in grams")
	return cmd
}

// build assembles the entry to log, resolving product nutrition and the
// remembered portion size.
func (o *entryAddOptions) build(ctx context.Context, b *sqlite.Backend, gramsSet bool) (*types.Entry, error) {
	e := &types.Entry{
		PersonID: o.personID,
		Date:     o.date,
		Time:     o.clock,
		Source:   o.source,
	}
	if e.Date == "" {
		e.Date = types.Today()
	}
	if e.Time == "" {
		e.Time = time.Now().UTC().Format("15:04")
	}

	var food types.FoodItem
	if o.barcode != "" {
		prod, err := cachedProduct(ctx, b, o.barcode)
		if err != nil {
			return nil, err
		}
		food = productFood(prod)
		if e.Source == "" {
			e.Source = sourceBarcode
		}
	} else {
		if o.name == "" {
			return nil, errors.New("--name or --product is required")
		}
		food = types.FoodItem{
			FoodID:     o.foodID,
			Label:      o.name,
			SourceType: sourceTypeCustom,
		}
		if food.FoodID == "" {
			food.FoodID = customFoodID(o.name)
		}
		if o.grams > 0 {
			food.Nutrition = types.Nutrition{
				Kcal100g: per100g(o.kcal, o.grams),
				P100g:    per100g(o.p, o.grams),
				C100g:    per100g(o.c, o.grams),
				F100g:    per100g(o.f, o.grams),
			}
		}
		if e.Source == "" {
			e.Source = sourceCustom
		}
	}

	e.FoodID = food.FoodID
	e.FoodName = food.Label
	e.LastPortionKey = types.LastPortionKey(o.personID, food.FoodID)
	e.RecentItem = &food

	e.AmountGrams = o.grams
	if !gramsSet && o.barcode != "" {
		last, err := b.Meta().LastPortion(ctx, o.personID, food.FoodID)
		if err != nil {
			return nil, storeError("get last portion", err)
		}
		if last != nil {
			e.AmountGrams = *last
		}
	}

	if o.barcode != "" {
		t := insights.PortionTotals(food.Nutrition, e.AmountGrams)
		e.Kcal, e.P, e.C, e.F = t.Kcal, t.P, t.C, t.F
		e.Micronutrients = insights.EntryMicronutrients(food.Nutrition, e.AmountGrams)
	} else {
		e.Kcal, e.P, e.C, e.F = o.kcal, o.p, o.c, o.f
	}
	return e, nil
}

// customFoodID derives a stable food id from a custom food name.
func customFoodID(name string) string {
	return "custom:" + strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func per100g(amount, grams float64) *float64 {
	v := amount / grams * 100
	return &v
}

func (a *app) newEntryListCmd() *cobra.Command {
	var personID, date, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a person's entries",
		Long: `List prints a person's entries: all of them, those of one --date, or those
between --from and --to inclusive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if personID == "" {
				return errPersonRequired
			}
			if date != "" && (from != "" || to != "") {
				return errors.New("--date cannot be combined with --from/--to")
			}
			if (from == "") != (to == "") {
				return errors.New("--from and --to must be given together")
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				var entries []types.Entry
				var err error
				switch {
				case date != "":
					entries, err = b.Entries().ForPersonDate(ctx, personID, date)
				case from != "" || to != "":
					entries, err = b.Entries().ForPersonDateRange(ctx, personID, from, to)
				default:
					entries, err = b.Entries().ForPerson(ctx, personID)
				}
				if err != nil {
					return storeError("list entries", err)
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person id (required)")
	cmd.Flags().StringVar(&date, "date", "", "only entries on this date")
	cmd.Flags().StringVar(&from, "from", "", "first date of a range")
	cmd.Flags().StringVar(&to, "to", "", "last date of a range")
	return cmd
}
