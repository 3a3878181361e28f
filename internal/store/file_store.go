package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/keiba-stats/internal/logger"
	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
)

const errWriteStore = "failed to write dataset store: %w"

// FileStore implements DatasetRepository on a single JSON file holding an array of datasets
type FileStore struct {
	path      string
	mu        sync.RWMutex
	datasets  []*models.Dataset
	validator DatasetValidator
	audit     *logger.AuditLogger
	logger    logrus.FieldLogger
}

// NewFileStore opens the store at path, loading any existing datasets. A missing file is
// an empty store.
func NewFileStore(path string, validator DatasetValidator, audit *logger.AuditLogger, log logrus.FieldLogger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	s := &FileStore{
		path:      path,
		validator: validator,
		audit:     audit,
		logger:    log,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.datasets = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read dataset store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var raw []storedDataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode dataset store %s: %w", s.path, err)
	}
	s.datasets = make([]*models.Dataset, 0, len(raw))
	for i := range raw {
		ds, err := raw[i].toDataset()
		if err != nil {
			return fmt.Errorf("failed to decode dataset store %s: %w", s.path, err)
		}
		s.datasets = append(s.datasets, ds)
	}
	s.updateGauge()
	s.logger.WithFields(logrus.Fields{
		"path":     s.path,
		"datasets": len(s.datasets),
	}).Debug("Dataset store loaded")
	return nil
}

// commit writes next through a temp file and only then makes it the in-memory state, so
// a failed write leaves both the file and the store unchanged. Callers must hold mu.
func (s *FileStore) commit(next []*models.Dataset) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf(errWriteStore, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(errWriteStore, err)
	}
	tmp, err := os.CreateTemp(dir, ".keiba-*.json")
	if err != nil {
		return fmt.Errorf(errWriteStore, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf(errWriteStore, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf(errWriteStore, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf(errWriteStore, err)
	}
	s.datasets = next
	s.updateGauge()
	return nil
}

// Upsert stores a dataset. When one already exists for the same racetrack and date it is
// replaced only if overwrite is set, keeping its ID and creation time.
func (s *FileStore) Upsert(ctx context.Context, ds *models.Dataset, overwrite bool) (*models.Dataset, Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if s.validator != nil {
		if err := s.validator.ValidateDataset(ds); err != nil {
			return nil, "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneDataset(ds)
	op := OperationCreated
	next := slices.Clone(s.datasets)
	if i := s.indexOfMeeting(ds.Racetrack, ds.Date); i >= 0 {
		if !overwrite {
			return nil, "", fmt.Errorf("%w: %s %s", models.ErrDatasetDuplicate, ds.Racetrack, ds.Date)
		}
		existing := s.datasets[i]
		now := time.Now().UTC()
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		stored.UpdatedAt = &now
		next[i] = stored
		op = OperationUpdated
	} else {
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now().UTC()
		}
		next = append(next, stored)
	}

	if err := s.commit(next); err != nil {
		return nil, "", err
	}
	s.recordSaved(stored, op)
	return cloneDataset(stored), op, nil
}

// ReplaceRaces swaps the races of an existing dataset, as done after a reconciled payout
// update is committed
func (s *FileStore) ReplaceRaces(ctx context.Context, racetrack, date string, races []*models.Race) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfMeeting(racetrack, date)
	if i < 0 {
		return nil, fmt.Errorf("%w: no dataset for %s %s", models.ErrNotFound, racetrack, date)
	}
	updated := cloneDataset(s.datasets[i])
	updated.Races = models.CloneRaces(races)
	now := time.Now().UTC()
	updated.UpdatedAt = &now
	if s.validator != nil {
		if err := s.validator.ValidateDataset(updated); err != nil {
			return nil, err
		}
	}
	next := slices.Clone(s.datasets)
	next[i] = updated

	if err := s.commit(next); err != nil {
		return nil, err
	}
	s.recordSaved(updated, OperationUpdated)
	return cloneDataset(updated), nil
}

// GetByID retrieves a dataset by ID
func (s *FileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ds := range s.datasets {
		if ds.ID == id {
			return cloneDataset(ds), nil
		}
	}
	return nil, models.ErrNotFound
}

// GetByTrackAndDate retrieves the dataset of one meeting
func (s *FileStore) GetByTrackAndDate(ctx context.Context, racetrack, date string) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOfMeeting(racetrack, date); i >= 0 {
		return cloneDataset(s.datasets[i]), nil
	}
	return nil, models.ErrNotFound
}

// List returns every dataset in storage order
func (s *FileStore) List(ctx context.Context) ([]*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Dataset, len(s.datasets))
	for i, ds := range s.datasets {
		out[i] = cloneDataset(ds)
	}
	return out, nil
}

// Delete removes a dataset by ID
func (s *FileStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ds := range s.datasets {
		if ds.ID != id {
			continue
		}
		if err := s.commit(slices.Delete(slices.Clone(s.datasets), i, i+1)); err != nil {
			return err
		}
		if s.audit != nil {
			s.audit.LogDatasetDeleted(ds.ID.String(), ds.Racetrack, ds.Date)
		}
		return nil
	}
	return models.ErrNotFound
}

// AllRaces flattens every stored race into one list, copied
func (s *FileStore) AllRaces(ctx context.Context) ([]*models.Race, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var races []*models.Race
	for _, ds := range s.datasets {
		races = append(races, models.CloneRaces(ds.Races)...)
	}
	return races, nil
}

func (s *FileStore) indexOfMeeting(racetrack, date string) int {
	for i, ds := range s.datasets {
		if ds.SameMeeting(racetrack, date) {
			return i
		}
	}
	return -1
}

func (s *FileStore) recordSaved(ds *models.Dataset, op Operation) {
	metrics.RecordDatasetStored(string(op))
	if s.audit != nil {
		s.audit.LogDatasetSaved(ds.ID.String(), ds.Racetrack, ds.Date, string(op), len(ds.Races), time.Now())
	}
}

func (s *FileStore) updateGauge() {
	total := 0
	for _, ds := range s.datasets {
		total += len(ds.Races)
	}
	metrics.UpdateStoredRaces(total)
}

func cloneDataset(ds *models.Dataset) *models.Dataset {
	c := *ds
	c.Races = models.CloneRaces(ds.Races)
	if ds.UpdatedAt != nil {
		t := *ds.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// Ping checks that the store file is readable. A store that has never been written is
// healthy.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dataset store unavailable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("dataset store %s is a directory", s.path)
	}
	return nil
}
