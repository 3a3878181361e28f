package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/keiba-stats/internal/models"
)

func quinellaPayout(ticketRank *int, amount int) models.Payout {
	return models.Payout{Combination: []int{1, 2}, TicketPopularity: ticketRank, Amount: amount}
}

func TestTicketPopularityStats(t *testing.T) {
	race := newRace(testDate, placing{1, 1}, placing{2, 2}, placing{3, 3})
	for _, p := range []models.Payout{
		quinellaPayout(models.IntPtr(1), 300),
		quinellaPayout(models.IntPtr(1), 500),
		quinellaPayout(models.IntPtr(3), 2000),
		quinellaPayout(nil, 700),
		quinellaPayout(models.IntPtr(400), 90000),
	} {
		withPayout(race, models.TicketQuinella, p)
	}

	table, err := TicketPopularityStats([]*models.Race{race}, models.TicketQuinella)
	require.NoError(t, err)
	assert.Equal(t, 300, table.Limit)
	assert.Equal(t, 3, table.Total)
	require.Len(t, table.Stats, 300)

	first, ok := table.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, 2, first.Wins)
	assert.Equal(t, 3, first.Total)
	assert.InDelta(t, 200.0/3, first.WinRate, 1e-9)
	assert.InDelta(t, 400.0, first.AveragePayout, 1e-9)
	assert.InDelta(t, 800.0/3, first.ExpectedValue, 1e-9)
	assert.Equal(t, 300, first.MinPayout)
	assert.Equal(t, 500, first.MaxPayout)

	second, ok := table.Lookup(2)
	require.True(t, ok)
	assert.Zero(t, second.Wins)
	assert.True(t, second.Theoretical)

	visible := table.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, 1, visible[0].Popularity)
	assert.Equal(t, 3, visible[1].Popularity)

	_, ok = table.Lookup(301)
	assert.False(t, ok)
}

func TestTicketPopularityLimits(t *testing.T) {
	tests := []struct {
		ticket models.TicketType
		limit  int
	}{
		{models.TicketQuinella, 300},
		{models.TicketExacta, 300},
		{models.TicketQuinellaPlace, 300},
		{models.TicketTrio, 1000},
		{models.TicketTrifecta, 2000},
	}

	for _, tt := range tests {
		t.Run(string(tt.ticket), func(t *testing.T) {
			table, err := TicketPopularityStats(nil, tt.ticket)
			require.NoError(t, err)
			assert.Equal(t, tt.limit, table.Limit)
			assert.Len(t, table.Stats, tt.limit)
			assert.Empty(t, table.Visible())
		})
	}
}

func TestTicketPopularityRejectsRankTickets(t *testing.T) {
	_, err := TicketPopularityStats(nil, models.TicketPlace)
	assert.ErrorIs(t, err, ErrUnsupportedTicket)
}
