package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/keiba-stats/internal/logger"
	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/service"
)

const (
	testTrack = "中山"
	testDate  = "2025-01-05"
)

func newTestStore(t *testing.T) (*FileStore, *logtest.Hook) {
	t.Helper()
	base, hook := logtest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	path := filepath.Join(t.TempDir(), "data", "races.json")
	s, err := NewFileStore(path, service.NewDataValidator(base), logger.NewAuditLogger(base), base)
	require.NoError(t, err)
	return s, hook
}

func testRace(track, date, number string) *models.Race {
	return &models.Race{
		Racetrack: track,
		Date:      date,
		Number:    number,
		Name:      "未勝利",
		Results: []models.Result{
			{Position: 1, Number: 7, Name: "エコロシード", Popularity: models.IntPtr(2)},
			{Position: 2, Number: 10, Name: "ヘリテージブルーム", Popularity: models.IntPtr(3)},
			{Position: 3, Number: 8, Name: "カセノアステリア", Popularity: models.IntPtr(6)},
		},
	}
}

func testDataset(track, date string, raceCount int) *models.Dataset {
	races := make([]*models.Race, 0, raceCount)
	for i := 1; i <= raceCount; i++ {
		races = append(races, testRace(track, date, fmt.Sprintf("%dR", i)))
	}
	return models.NewDataset(track, date, races)
}

func TestNewFileStoreMissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	datasets, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, datasets)

	_, err = NewFileStore("", nil, nil, logrus.New())
	assert.Error(t, err)
}

func TestUpsertCreatesAndPersists(t *testing.T) {
	ctx := context.Background()
	s, hook := newTestStore(t)
	before := testutil.ToFloat64(metrics.DatasetsStoredTotal.WithLabelValues("created"))

	ds := testDataset(testTrack, testDate, 2)
	saved, op, err := s.Upsert(ctx, ds, false)
	require.NoError(t, err)
	assert.Equal(t, OperationCreated, op)
	assert.Equal(t, ds.ID, saved.ID)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DatasetsStoredTotal.WithLabelValues("created")))
	assert.Equal(t, "Dataset saved", hook.LastEntry().Message)

	reopened, err := NewFileStore(s.Path(), nil, nil, logrus.New())
	require.NoError(t, err)
	got, err := reopened.GetByTrackAndDate(ctx, testTrack, testDate)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, got.ID)
	assert.Len(t, got.Races, 2)
	assert.Equal(t, 2, *got.Races[0].Results[0].Popularity)
}

func TestUpsertExistingMeeting(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first, _, err := s.Upsert(ctx, testDataset(testTrack, testDate, 1), false)
	require.NoError(t, err)

	_, _, err = s.Upsert(ctx, testDataset(testTrack, testDate, 3), false)
	assert.ErrorIs(t, err, models.ErrDatasetDuplicate)

	updated, op, err := s.Upsert(ctx, testDataset(testTrack, testDate, 3), true)
	require.NoError(t, err)
	assert.Equal(t, OperationUpdated, op)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.UpdatedAt)
	assert.Len(t, updated.Races, 3)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertRejectsInvalidDataset(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.Upsert(context.Background(), models.NewDataset(testTrack, testDate, nil), false)
	assert.ErrorIs(t, err, models.ErrDatasetEmpty)

	mixed := testDataset(testTrack, testDate, 1)
	mixed.Races = append(mixed.Races, testRace("東京", testDate, "2R"))
	_, _, err = s.Upsert(context.Background(), mixed, false)
	assert.ErrorIs(t, err, models.ErrInvalidDataset)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	ds := testDataset(testTrack, testDate, 1)
	_, _, err := s.Upsert(ctx, ds, false)
	require.NoError(t, err)

	ds.Races[0].Name = "changed after save"
	races, err := s.AllRaces(ctx)
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, "未勝利", races[0].Name)

	races[0].Name = "changed after read"
	again, err := s.AllRaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, "未勝利", again[0].Name)
}

func TestGetAndDelete(t *testing.T) {
	ctx := context.Background()
	s, hook := newTestStore(t)
	saved, _, err := s.Upsert(ctx, testDataset(testTrack, testDate, 1), false)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, testTrack, got.Racetrack)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetByTrackAndDate(ctx, "東京", testDate)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.Delete(ctx, saved.ID))
	assert.Equal(t, "Dataset deleted", hook.LastEntry().Message)
	assert.ErrorIs(t, s.Delete(ctx, saved.ID), models.ErrNotFound)

	races, err := s.AllRaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, races)
}

func TestReplaceRaces(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	saved, _, err := s.Upsert(ctx, testDataset(testTrack, testDate, 1), false)
	require.NoError(t, err)

	races := []*models.Race{testRace(testTrack, testDate, "11R")}
	races[0].SetPayouts(models.TicketWin, []models.Payout{{Combination: []int{7}, Pattern: []int{2}, Amount: 280}})

	updated, err := s.ReplaceRaces(ctx, testTrack, testDate, races)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	require.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.Races[0].HasPayouts())

	_, err = s.ReplaceRaces(ctx, "東京", testDate, races)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = s.Upsert(ctx, testDataset(testTrack, testDate, 1), false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCorruptStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "races.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path, nil, nil, logrus.New())
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(t)
	_, _, err := src.Upsert(ctx, testDataset(testTrack, testDate, 2), false)
	require.NoError(t, err)
	_, _, err = src.Upsert(ctx, testDataset("東京", "2025-02-01", 1), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))
	assert.Contains(t, buf.String(), `"version": "1.0"`)
	assert.Contains(t, buf.String(), `"totalRaces": 3`)
	doc := buf.String()

	dst, _ := newTestStore(t)
	result, err := dst.Import(ctx, strings.NewReader(doc), true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Zero(t, result.Skipped)

	races, err := dst.AllRaces(ctx)
	require.NoError(t, err)
	assert.Len(t, races, 3)

	// merging the same export again adds nothing
	result, err = dst.Import(ctx, strings.NewReader(doc), true)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Equal(t, 2, result.Skipped)
}

func TestImportReplace(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, err := s.Upsert(ctx, testDataset("京都", "2025-01-06", 1), false)
	require.NoError(t, err)

	doc := `[{"id":"2f1c5a4e-7d4b-4c59-9a55-0f5b8f2d1a11","racetrack":"中山","date":"2025-01-05","races":[` +
		`{"racetrack":"中山","date":"2025-01-05","number":"1R","results":[{"position":1,"number":7,"popularity":2}]}]}]`
	result, err := s.Import(ctx, strings.NewReader(doc), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uuid.MustParse("2f1c5a4e-7d4b-4c59-9a55-0f5b8f2d1a11"), all[0].ID)
}

func TestImportLegacyIDs(t *testing.T) {
	ctx := context.Background()
	doc := `{"version":"1.0","savedDataSets":[` +
		`{"id":1735974000000,"racetrack":"中山","date":"2025-01-05","races":[` +
		`{"racetrack":"中山","date":"2025-01-05","number":"1R","results":[{"position":1,"number":7,"popularity":2}]}]},` +
		`{"racetrack":"東京","date":"2025-02-01","races":[` +
		`{"racetrack":"東京","date":"2025-02-01","number":"1R","results":[{"position":1,"number":3,"popularity":1}]}]}]}`

	s, _ := newTestStore(t)
	result, err := s.Import(ctx, strings.NewReader(doc), true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)

	other, _ := newTestStore(t)
	_, err = other.Import(ctx, strings.NewReader(doc), true)
	require.NoError(t, err)

	a, err := s.GetByTrackAndDate(ctx, "中山", "2025-01-05")
	require.NoError(t, err)
	b, err := other.GetByTrackAndDate(ctx, "中山", "2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID, "numeric ids map to a stable uuid")
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestImportRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Import(ctx, strings.NewReader(`"nope"`), true)
	assert.ErrorIs(t, err, ErrInvalidExport)

	_, err = s.Import(ctx, strings.NewReader(`{"version":"1.0"}`), true)
	assert.ErrorIs(t, err, ErrInvalidExport)

	doc := `[{"id":"x","racetrack":"中山","date":"2025-01-05","races":[]}]`
	result, err := s.Import(ctx, strings.NewReader(doc), true)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0], "中山 2025-01-05")
}

func TestPing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	assert.NoError(t, s.Ping(ctx))

	_, _, err := s.Upsert(ctx, testDataset(testTrack, testDate, 1), false)
	require.NoError(t, err)
	assert.NoError(t, s.Ping(ctx))

	dir := t.TempDir()
	broken, err := NewFileStore(filepath.Join(dir, "races.json"), nil, nil, logrus.New())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "races.json"), 0o755))
	assert.Error(t, broken.Ping(ctx))
}

func TestImportLegacyPayoutLayout(t *testing.T) {
	ctx := context.Background()
	doc := `{"version":"1.0","savedDataSets":[{"id":1736038800000,"racetrack":"中山","date":"2025-01-05","races":[{
		"racetrack":"中山","date":"2025-01-05","number":"11R","name":"中山金杯",
		"results":[
			{"position":1,"number":7,"name":"エコロシード","popularity":2,"isTied":false},
			{"position":2,"number":10,"name":"ヘリテージブルーム","popularity":3,"isTied":false},
			{"position":3,"number":8,"name":"カセノアステリア","popularity":6,"isTied":false}],
		"payouts":{
			"tansho":{"horseNumber":7,"popularity":2,"payout":280},
			"fukusho":[{"horseNumber":7,"popularity":2,"payout":130},{"horseNumber":10,"popularity":null,"payout":150}],
			"umaren":[{"combination":[7,10],"popularityPattern":"2-3","ticketPopularity":4,"payout":1230}],
			"umatan":[{"combination":[10,7],"popularityPattern":"3-2","ticketPopularity":7,"payout":2910}],
			"sanrentan":[{"combination":[7,10,8],"popularityPattern":null,"ticketPopularity":null,"payout":15000}]}}]}]}`

	s, _ := newTestStore(t)
	result, err := s.Import(ctx, strings.NewReader(doc), true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)
	assert.Empty(t, result.Rejected)

	ds, err := s.GetByTrackAndDate(ctx, testTrack, testDate)
	require.NoError(t, err)
	require.Len(t, ds.Races, 1)
	payouts := ds.Races[0].Payouts

	assert.Equal(t, []models.Payout{
		{Combination: []int{7}, Pattern: []int{2}, TicketPopularity: models.IntPtr(2), Amount: 280},
	}, payouts[models.TicketWin])
	assert.Equal(t, []models.Payout{
		{Combination: []int{7}, Pattern: []int{2}, TicketPopularity: models.IntPtr(2), Amount: 130},
		{Combination: []int{10}, Pattern: []int{3}, Amount: 150},
	}, payouts[models.TicketPlace])
	assert.Equal(t, []models.Payout{
		{Combination: []int{7, 10}, Pattern: []int{2, 3}, TicketPopularity: models.IntPtr(4), Amount: 1230},
	}, payouts[models.TicketQuinella])
	assert.Equal(t, []int{3, 2}, payouts[models.TicketExacta][0].Pattern)
	assert.Equal(t, []int{2, 3, 6}, payouts[models.TicketTrifecta][0].Pattern, "missing patterns resolve from the results")
	assert.Nil(t, payouts[models.TicketTrifecta][0].TicketPopularity)

	reopened, err := NewFileStore(s.Path(), nil, nil, logrus.New())
	require.NoError(t, err)
	again, err := reopened.GetByTrackAndDate(ctx, testTrack, testDate)
	require.NoError(t, err)
	assert.Equal(t, payouts, again.Races[0].Payouts)
}

func TestImportRejectsUnknownPayoutKey(t *testing.T) {
	doc := `[{"id":"x","racetrack":"中山","date":"2025-01-05","races":[{"racetrack":"中山","date":"2025-01-05",` +
		`"number":"1R","results":[{"position":1,"number":7}],"payouts":{"quadfecta":[]}}]}]`

	s, _ := newTestStore(t)
	_, err := s.Import(context.Background(), strings.NewReader(doc), true)
	assert.ErrorIs(t, err, ErrInvalidExport)
}

func TestPopularityPatternDecoding(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "array", input: `[1,2,3]`, want: []int{1, 2, 3}},
		{name: "hyphen string", input: `"2-3"`, want: []int{2, 3}},
		{name: "ordered string", input: `"5-1-2"`, want: []int{5, 1, 2}},
		{name: "null", input: `null`, want: nil},
		{name: "empty string", input: `""`, want: nil},
		{name: "garbage", input: `"2-x"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p popularityPattern
			err := p.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, []int(p))
		})
	}
}

func TestFailedWriteLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	existing, _, err := s.Upsert(ctx, testDataset(testTrack, testDate, 1), false)
	require.NoError(t, err)

	// A directory at the store path makes the final rename fail
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.Mkdir(s.Path(), 0o755))

	doc := `[{"id":"` + uuid.NewString() + `","racetrack":"東京","date":"2025-02-01","races":[` +
		`{"racetrack":"東京","date":"2025-02-01","number":"1R","results":[{"position":1,"number":3,"popularity":1}]}]}]`

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "merge import", run: func() error {
			_, err := s.Import(ctx, strings.NewReader(doc), true)
			return err
		}},
		{name: "replace import", run: func() error {
			_, err := s.Import(ctx, strings.NewReader(doc), false)
			return err
		}},
		{name: "upsert", run: func() error {
			_, _, err := s.Upsert(ctx, testDataset("東京", "2025-02-01", 1), false)
			return err
		}},
		{name: "replace races", run: func() error {
			_, err := s.ReplaceRaces(ctx, testTrack, testDate, testDataset(testTrack, testDate, 3).Races)
			return err
		}},
		{name: "delete", run: func() error {
			return s.Delete(ctx, existing.ID)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.run())

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, existing.ID, all[0].ID)
			assert.Len(t, all[0].Races, 1)
		})
	}
}
