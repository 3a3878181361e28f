package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/yourusername/keiba-stats/internal/calculator"
	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
	"github.com/yourusername/keiba-stats/internal/stats"
)

// theoreticalMark flags expected values that fell back to a 100-yen payout because none
// was recorded
const theoreticalMark = "*"

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLines(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Printf("  %s:\n", title)
	for _, l := range lines {
		fmt.Printf("    %s\n", l)
	}
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
}

// pct renders a percentage with one decimal place
func pct(v float64) string {
	return decimal.NewFromFloat(v).Round(1).StringFixed(1) + "%"
}

// yen renders a payout average as whole yen
func yen(v float64) string {
	return decimal.NewFromFloat(v).Round(0).StringFixed(0) + "円"
}

func ev(v float64, theoretical bool) string {
	s := decimal.NewFromFloat(v).Round(1).StringFixed(1)
	if theoretical {
		s += theoreticalMark
	}
	return s
}

func ticketTitle(ticket models.TicketType) string {
	d, err := models.Descriptor(ticket)
	if err != nil {
		return string(ticket)
	}
	return fmt.Sprintf("%s (%s)", d.Label, ticket)
}

func printTable(table *stats.Table) {
	fmt.Printf("\n%s - %d races\n", ticketTitle(table.Ticket), table.TotalRaces)
	switch {
	case table.Ranks != nil:
		printRanks(table.Ranks)
	case table.Patterns != nil:
		printPatterns(table.Patterns)
		if table.TicketPopularity != nil {
			fmt.Println()
			printTicketPopularity(table.TicketPopularity)
		}
	}
}

func printRanks(ranks []stats.RankStat) {
	w := newTable()
	fmt.Fprintln(w, "rank\traces\thits\twin rate\tavg payout\tEV\t")
	for _, r := range ranks {
		if r.Total == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t\n",
			rankLabel(r.Rank), r.Total, r.Hits, pct(r.WinRate), yen(r.AveragePayout), ev(r.ExpectedValue, r.Theoretical))
	}
	w.Flush()
}

func rankLabel(rank int) string {
	if g := parser.RankGlyph(rank); g != "" {
		return g
	}
	return strconv.Itoa(rank)
}

func printPatterns(table *stats.PatternTable) {
	w := newTable()
	fmt.Fprintf(w, "pattern\tcount\tshare\tavg payout\tmin\tmax\tEV\t\n")
	for _, p := range table.Patterns {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\t%s\t\n",
			p.Pattern, p.Count, pct(p.Percentage), yen(p.AveragePayout), p.MinPayout, p.MaxPayout, ev(p.ExpectedValue, p.Theoretical))
	}
	w.Flush()
	fmt.Printf("%d occurrences\n", table.Total)
}

func printTicketPopularity(table *stats.TicketPopularityTable) {
	w := newTable()
	fmt.Fprintf(w, "ticket rank\twins\twin rate\tavg payout\tEV\t\n")
	for _, s := range table.Visible() {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t\n",
			strconv.Itoa(s.Popularity)+"番人気", s.Wins, pct(s.WinRate), yen(s.AveragePayout), ev(s.ExpectedValue, s.Theoretical))
	}
	w.Flush()
	fmt.Printf("%d ranked payouts (top %d)\n", table.Total, table.Limit)
}

func printQuery(result *calculator.QueryResult) {
	fmt.Printf("\n%s - %d combinations, %d with data\n", ticketTitle(result.Ticket), result.Generated, len(result.Rows))
	printLines("warnings", result.Warnings)
	w := newTable()
	fmt.Fprintf(w, "combination\tcount\trate\tavg payout\tEV\t\n")
	for _, r := range result.Rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t\n",
			r.Label, r.PayoutCount, pct(r.Rate), yen(r.AveragePayout), ev(r.ExpectedValue, r.Theoretical))
	}
	w.Flush()
}

func printComparison(c *stats.Comparison) {
	fmt.Printf("\n%s - last %d of %d races (%s to %s)\n",
		ticketTitle(c.Ticket), c.RecentCount, c.TotalRaces, c.RecentStart, c.RecentEnd)
	w := newTable()
	fmt.Fprintf(w, "key\tall EV\trecent EV\tdelta\tdelta %%\ttrend\t\n")
	for _, r := range c.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Key, ev(r.AllPeriod.ExpectedValue, false), ev(r.Recent.ExpectedValue, false),
			ev(r.Delta, false), pct(r.DeltaPercent), r.Trend)
	}
	w.Flush()
}

func printWindows(ticket models.TicketType, windows []stats.Window) {
	fmt.Printf("\n%s - %d windows\n", ticketTitle(ticket), len(windows))
	w := newTable()
	fmt.Fprintf(w, "from\tto\traces\tbest rank\tEV\t\n")
	for _, win := range windows {
		best, ok := bestTicketRank(win.Stats)
		if !ok {
			fmt.Fprintf(w, "%s\t%s\t%d\t-\t-\t\n", win.Start, win.End, win.RaceCount)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t\n", win.Start, win.End, win.RaceCount, best.Popularity, ev(best.ExpectedValue, best.Theoretical))
	}
	w.Flush()
}

func bestTicketRank(table *stats.TicketPopularityTable) (stats.TicketPopularityStat, bool) {
	var best stats.TicketPopularityStat
	found := false
	for _, s := range table.Visible() {
		if !found || s.ExpectedValue > best.ExpectedValue {
			best, found = s, true
		}
	}
	return best, found
}
