package service

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
)

const (
	testTrack         = "中山"
	testDate          = "2025-01-05"
	expectedErrorsMsg = "expected validation errors"
	errorContainsMsg  = "expected error containing %q, got %v"
)

type placing struct {
	number, rank int
}

// newTestRace builds a race whose placings finish in the given order
func newTestRace(number string, placings ...placing) *models.Race {
	race := &models.Race{
		Racetrack: testTrack,
		Date:      testDate,
		Number:    number,
		Name:      "未勝利",
		Surface:   parser.SurfaceTurf,
		Distance:  "1600",
		Going:     "良",
		Weather:   "晴",
	}
	for i, p := range placings {
		race.Results = append(race.Results, models.Result{
			Position:   i + 1,
			Number:     p.number,
			Name:       "テストホース",
			Popularity: models.IntPtr(p.rank),
		})
	}
	return race
}

func newTestLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func assertValidationErrors(t *testing.T, errs []string, expectValid bool, shouldHave string) {
	t.Helper()
	if expectValid {
		require.Empty(t, errs, "expected no validation errors for valid input")
		return
	}

	require.NotEmpty(t, errs, expectedErrorsMsg)
	if shouldHave == "" {
		return
	}

	found := false
	for _, err := range errs {
		if strings.Contains(err, shouldHave) {
			found = true
			break
		}
	}
	require.True(t, found, errorContainsMsg, shouldHave, errs)
}
