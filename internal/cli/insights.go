package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/macrostore/internal/insights"
	"github.com/mesh-intelligence/macrostore/internal/sqlite"
	"github.com/mesh-intelligence/macrostore/pkg/types"
)

// personInsights is the report printed for one person.
type personInsights struct {
	PersonID       string                        `json:"personId"`
	EndDate        string                        `json:"endDate"`
	Week           []insights.DayPoint           `json:"week"`
	Summary        insights.Summary              `json:"summary"`
	Totals         insights.Totals               `json:"totals"`
	Micronutrients []insights.MicronutrientTotal `json:"micronutrients"`
}

func (a *app) newInsightsCmd() *cobra.Command {
	var personID, date string
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show weekly calories, weight changes and daily totals",
		Long: `Insights reports, for the seven days ending at --date, the calories and
weights of each day, the three- and seven-day changes, and the day's totals
and micronutrient intake. Without --person only the day's totals per person
are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				date = types.Today()
			}
			if _, err := types.ParseDate(date); err != nil {
				return err
			}
			return a.withBackend(cmd, func(ctx context.Context, b *sqlite.Backend) error {
				if personID == "" {
					totals, err := dayTotals(ctx, b, date)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), totals)
				}
				report, err := reportFor(ctx, b, personID, date)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person id")
	cmd.Flags().StringVar(&date, "date", "", "last day of the report YYYY-MM-DD (default: today)")
	return cmd
}

func reportFor(ctx context.Context, b *sqlite.Backend, personID, date string) (*personInsights, error) {
	week, err := insights.WeeklyPoints(ctx, b.Entries(), b.WeightLogs(), personID, date)
	if err != nil {
		return nil, storeError("weekly points", err)
	}
	day, err := b.Entries().ForPersonDate(ctx, personID, date)
	if err != nil {
		return nil, storeError("list entries", err)
	}
	return &personInsights{
		PersonID:       personID,
		EndDate:        date,
		Week:           week,
		Summary:        insights.Summarize(week, date),
		Totals:         insights.TotalsByPerson(day)[personID],
		Micronutrients: insights.AggregateMicronutrients(day),
	}, nil
}

// dayTotals sums the entries of every person on date.
func dayTotals(ctx context.Context, b *sqlite.Backend, date string) (map[string]insights.Totals, error) {
	persons, err := b.Persons().GetAll(ctx)
	if err != nil {
		return nil, storeError("list persons", err)
	}
	var day []types.Entry
	for _, p := range persons {
		entries, err := b.Entries().ForPersonDate(ctx, p.ID, date)
		if err != nil {
			return nil, storeError("list entries", err)
		}
		day = append(day, entries...)
	}
	return insights.TotalsByPerson(day), nil
}
