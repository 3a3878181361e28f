package parser

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/keiba-stats/internal/models"
)

const (
	testTrack = "中山"
	testDate  = "2025-01-05"
	header    = "R\tレース名\t条件\t馬場・天候\t1着馬番\t1着\t2着馬番\t2着\t3着馬番\t3着"
	race1Line = "1R\t２歳未勝利\tダ1400\t良・曇\t7\tエコロシード②\t10\tヘリテージブルーム③\t8\tカセノアステリア⑥"
	race2Line = "2R\t３歳未勝利\t芝1600\t稍・晴\t3\tサンプルワン①\t5\tサンプルツー④\t1\tサンプルスリー⑤"
)

func fixedNow() time.Time {
	return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
}

func newTestLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func newTestRaceCardParser() *RaceCardParser {
	logger, _ := newTestLogger()
	opts := DefaultOptions()
	opts.Now = fixedNow
	return NewRaceCardParser(logger, opts)
}

func parseTestCard(t *testing.T, lines ...string) []*models.Race {
	t.Helper()
	raw := header
	for _, l := range lines {
		raw += "\n" + l
	}
	result, err := newTestRaceCardParser().Parse(raw, testTrack, testDate, nil)
	require.NoError(t, err)
	return result.Races
}
