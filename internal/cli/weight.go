package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

func (a *app) newWeightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weight",
		Short: "Record and list scale weights",
	}
	cmd.AddCommand(a.newWeightLogCmd(), a.newWeightListCmd())
	return cmd
}

func (a *app) newWeightLogCmd() *cobra.Command {
	var personID, date string
	var kg float64
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a scale weight and update its trend",
		Long: `Log records the scale weight for a date, replacing any earlier value for that
date, and stores the mean of the last seven days as the trend weight.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if personID == "" {
				return errPersonRequired
			}
			if date == "" {
				date = types.Today()
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				wl, err := b.WeightLogs().Record(ctx, personID, date, kg)
				if err != nil {
					return storeError("record weight", err)
				}
				return printJSON(cmd.OutOrStdout(), wl)
			})
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person id (required)")
	cmd.Flags().StringVar(&date, "date", "", "measurement date YYYY-MM-DD (default: today)")
	cmd.Flags().Float64Var(&kg, "kg", 0, "scale weight in kg")
	_ = cmd.MarkFlagRequired("kg")
	return cmd
}

func (a *app) newWeightListCmd() *cobra.Command {
	var personID, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a person's weight logs ordered by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if personID == "" {
				return errPersonRequired
			}
			if (from == "") != (to == "") {
				return errors.New("--from and --to must be given together")
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				var logs []types.WeightLog
				var err error
				if from != "" {
					logs, err = b.WeightLogs().InRange(ctx, personID, from, to)
				} else {
					logs, err = b.WeightLogs().ForPerson(ctx, personID)
				}
				if err != nil {
					return storeError("list weight logs", err)
				}
				return printJSON(cmd.OutOrStdout(), logs)
			})
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person id (required)")
	cmd.Flags().StringVar(&from, "from", "", "first date of a range")
	cmd.Flags().StringVar(&to, "to", "", "last date of a range")
	return cmd
}
