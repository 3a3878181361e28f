package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/stats"
)

var (
	raceFilter       stats.Filter
	ticketNames      []string
	recentRaces      int
	ticketPopularity bool
)

func init() {
	for _, cmd := range []*cobra.Command{statsCmd, calcCmd, compareCmd, rollingCmd} {
		f := cmd.Flags()
		f.StringVar(&raceFilter.Racetrack, "racetrack", "", "Only races at this racetrack")
		f.StringVar(&raceFilter.Surface, "surface", "", "Only races on this surface (芝, ダート, 障害)")
		f.StringVar(&raceFilter.Distance, "distance", "", "Only races over this distance, e.g. 1600")
		f.StringVar(&raceFilter.Going, "going", "", "Only races with this going (良, 稍重, 重, 不良)")
		f.StringVar(&raceFilter.Weather, "weather", "", "Only races in this weather")
		f.StringVar(&raceFilter.RaceName, "race-name", "", "Only races whose name contains this text")
		f.StringVar(&raceFilter.HorseName, "horse", "", "Only races with a finisher whose name contains this text")
		f.StringVar(&raceFilter.DateFrom, "from", "", "Only races on or after this date (YYYY-MM-DD)")
		f.StringVar(&raceFilter.DateTo, "to", "", "Only races on or before this date (YYYY-MM-DD)")
	}

	statsCmd.Flags().StringSliceVarP(&ticketNames, "ticket", "t", nil, "Ticket types to tabulate (default: the configured tickets)")
	calcCmd.Flags().StringSliceVarP(&ticketNames, "ticket", "t", nil, "Ticket type to query")
	compareCmd.Flags().StringSliceVarP(&ticketNames, "ticket", "t", nil, "Ticket types to compare (default: the configured tickets)")
	compareCmd.Flags().IntVarP(&recentRaces, "recent", "n", 0, "Number of most recent races to compare (default from config)")
	compareCmd.Flags().BoolVar(&ticketPopularity, "ticket-popularity", false, "Compare ticket-popularity statistics instead of patterns")
	rollingCmd.Flags().StringSliceVarP(&ticketNames, "ticket", "t", nil, "Combination ticket types to window")
	calcCmd.MarkFlagRequired("ticket")
	rollingCmd.MarkFlagRequired("ticket")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Tabulate win rates and expected values by popularity",
	RunE: func(cmd *cobra.Command, args []string) error {
		races, tickets, err := selection(cmd.Context())
		if err != nil {
			return err
		}
		tables, err := engine.ComputeAll(races, tickets)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(tables)
		}
		for _, table := range tables {
			printTable(table)
		}
		return nil
	},
}

var calcCmd = &cobra.Command{
	Use:   "calc LEG [LEG...]",
	Short: "Look up statistics for every combination of the selected popularity ranks",
	Long: `Each LEG is a comma or space separated list of popularity ranks (1-16); quote a
leg that contains spaces. Each ticket takes one leg per horse, for example
"calc -t trio 1 2,3 '2 3 4 5'".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		races, tickets, err := selection(cmd.Context())
		if err != nil {
			return err
		}
		if len(tickets) != 1 {
			return fmt.Errorf("calc takes exactly one ticket type, got %d", len(tickets))
		}
		table, err := engine.Compute(races, tickets[0])
		if err != nil {
			return err
		}
		result, err := calc.Query(table, args)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		printQuery(result)
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare recent races against the whole history",
	RunE: func(cmd *cobra.Command, args []string) error {
		races, tickets, err := selection(cmd.Context())
		if err != nil {
			return err
		}
		comparisons := make([]*stats.Comparison, 0, len(tickets))
		for _, ticket := range tickets {
			var (
				c   *stats.Comparison
				err error
			)
			if ticketPopularity {
				c, err = engine.CompareTicketPopularity(races, ticket, recentRaces)
			} else {
				c, err = engine.Compare(races, ticket, recentRaces)
			}
			if errors.Is(err, stats.ErrUnsupportedTicket) && len(ticketNames) == 0 {
				continue
			}
			if err != nil {
				return fmt.Errorf("comparing %s: %w", ticket, err)
			}
			comparisons = append(comparisons, c)
		}
		if jsonOutput {
			return printJSON(comparisons)
		}
		for _, c := range comparisons {
			printComparison(c)
		}
		return nil
	},
}

var rollingCmd = &cobra.Command{
	Use:   "rolling",
	Short: "Recompute ticket-popularity statistics over calendar windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		races, tickets, err := selection(cmd.Context())
		if err != nil {
			return err
		}
		out := make(map[models.TicketType][]stats.Window, len(tickets))
		for _, ticket := range tickets {
			windows, err := engine.Rolling(races, ticket)
			if err != nil {
				return fmt.Errorf("rolling %s: %w", ticket, err)
			}
			out[ticket] = windows
			if !jsonOutput {
				printWindows(ticket, windows)
			}
		}
		if jsonOutput {
			return printJSON(out)
		}
		return nil
	},
}

// selection loads the stored races matching the filter flags and resolves the ticket
// flags, falling back to the configured ticket list
func selection(ctx context.Context) ([]*models.Race, []models.TicketType, error) {
	races, err := datasets.AllRaces(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !raceFilter.IsZero() {
		races = raceFilter.Apply(races)
	}
	if len(races) == 0 {
		return nil, nil, fmt.Errorf("no stored races match the selection")
	}

	names := ticketNames
	if len(names) == 0 {
		names = cfg.Stats.Tickets
	}
	tickets, err := parseTickets(names)
	if err != nil {
		return nil, nil, err
	}
	return races, tickets, nil
}

func parseTickets(names []string) ([]models.TicketType, error) {
	tickets := make([]models.TicketType, 0, len(names))
	for _, name := range names {
		t, err := models.ParseTicketType(name)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
