package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractors(t *testing.T) {
	tests := []struct {
		name         string
		condition    string
		trackWeather string
		surface      string
		distance     string
		going        string
		weather      string
	}{
		{name: "dirt", condition: "ダ1400", trackWeather: "良・曇", surface: SurfaceDirt, distance: "1400", going: "良", weather: "曇"},
		{name: "turf with abbreviated going", condition: "芝2000", trackWeather: "稍・晴", surface: SurfaceTurf, distance: "2000", going: "稍重", weather: "晴"},
		{name: "steeplechase", condition: "障3000", trackWeather: "不良・雨", surface: SurfaceSteeple, distance: "3000", going: "不良", weather: "雨"},
		{name: "unknown", condition: "", trackWeather: "良", surface: "", distance: "", going: "良", weather: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.surface, ExtractSurface(tt.condition))
			assert.Equal(t, tt.distance, ExtractDistance(tt.condition))
			assert.Equal(t, tt.going, ExtractGoing(tt.trackWeather))
			assert.Equal(t, tt.weather, ExtractWeather(tt.trackWeather))
		})
	}
}

func TestParseHorseInfo(t *testing.T) {
	name, rank := ParseHorseInfo("エコロシード②")
	assert.Equal(t, "エコロシード", name)
	require.NotNil(t, rank)
	assert.Equal(t, 2, *rank)

	name, rank = ParseHorseInfo("ロングショット⑯")
	assert.Equal(t, "ロングショット", name)
	require.NotNil(t, rank)
	assert.Equal(t, 16, *rank)

	name, rank = ParseHorseInfo("グリフなし")
	assert.Equal(t, "グリフなし", name)
	assert.Nil(t, rank)
}

func TestRankGlyphRoundTrip(t *testing.T) {
	for rank := 1; rank <= 16; rank++ {
		_, parsed := ParseHorseInfo("Horse" + RankGlyph(rank))
		require.NotNil(t, parsed, "rank %d", rank)
		assert.Equal(t, rank, *parsed)
	}
	assert.Empty(t, RankGlyph(17))
}
