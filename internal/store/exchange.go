package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/keiba-stats/internal/models"
)

// ExportVersion is written into every export envelope
const ExportVersion = "1.0"

// unknownRacetrack names datasets saved without a racetrack by older versions
const unknownRacetrack = "不明"

// ErrInvalidExport is returned when an import holds neither an export envelope nor a
// dataset array
var ErrInvalidExport = errors.New("invalid export format")

// ExportMetadata summarises an export
type ExportMetadata struct {
	TotalDataSets int `json:"totalDataSets"`
	TotalRaces    int `json:"totalRaces"`
}

// ExportEnvelope is the document written by Export
type ExportEnvelope struct {
	Version       string            `json:"version"`
	ExportDate    time.Time         `json:"exportDate"`
	SavedDataSets []*models.Dataset `json:"savedDataSets"`
	Metadata      ExportMetadata    `json:"metadata"`
}

// ImportResult reports what an import did
type ImportResult struct {
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	Rejected []string `json:"rejected,omitempty"`
}

// storedDataset decodes datasets whose id may be a UUID, a legacy numeric timestamp or
// missing
type storedDataset struct {
	ID        json.RawMessage `json:"id"`
	Racetrack string          `json:"racetrack"`
	Date      string          `json:"date"`
	Races     []*storedRace   `json:"races"`
	CreatedAt *time.Time      `json:"createdAt"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

func (sd *storedDataset) toDataset() (*models.Dataset, error) {
	ds := &models.Dataset{
		ID:        legacyID(sd.ID),
		Racetrack: sd.Racetrack,
		Date:      sd.Date,
		Races:     make([]*models.Race, 0, len(sd.Races)),
		UpdatedAt: sd.UpdatedAt,
	}
	for _, sr := range sd.Races {
		if sr == nil {
			continue
		}
		race, err := sr.toRace()
		if err != nil {
			return nil, fmt.Errorf("dataset %s %s: %w", sd.Racetrack, sd.Date, err)
		}
		ds.Races = append(ds.Races, race)
	}
	if ds.Racetrack == "" {
		ds.Racetrack = unknownRacetrack
	}
	if sd.CreatedAt != nil {
		ds.CreatedAt = *sd.CreatedAt
	} else {
		ds.CreatedAt = time.Now().UTC()
	}
	return ds, nil
}

// legacyID maps a stored id to a UUID. Non-UUID ids hash to a stable name-based UUID so
// repeated imports of the same file agree; a missing id gets a fresh one.
func legacyID(raw json.RawMessage) uuid.UUID {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return uuid.New()
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if id, err := uuid.Parse(s); err == nil {
			return id
		}
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(s))
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, trimmed)
}

// Export writes every dataset as an indented export envelope
func (s *FileStore) Export(ctx context.Context, w io.Writer) error {
	datasets, err := s.List(ctx)
	if err != nil {
		return err
	}
	env := ExportEnvelope{
		Version:       ExportVersion,
		ExportDate:    time.Now().UTC(),
		SavedDataSets: datasets,
		Metadata:      ExportMetadata{TotalDataSets: len(datasets)},
	}
	for _, ds := range datasets {
		env.Metadata.TotalRaces += len(ds.Races)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Import reads an export envelope or a bare dataset array. With merge, datasets whose ID
// or meeting already exists are skipped; without it the store is replaced. Datasets that
// fail validation are rejected and reported, never stored.
func (s *FileStore) Import(ctx context.Context, r io.Reader, merge bool) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	incoming, err := decodeImport(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	valid := make([]*models.Dataset, 0, len(incoming))
	for _, ds := range incoming {
		if s.validator != nil {
			if err := s.validator.ValidateDataset(ds); err != nil {
				result.Rejected = append(result.Rejected, fmt.Sprintf("%s %s: %v", ds.Racetrack, ds.Date, err))
				continue
			}
		}
		valid = append(valid, ds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next []*models.Dataset
	if merge {
		next = slices.Clone(s.datasets)
	}
	for _, ds := range valid {
		if containsDataset(next, ds) {
			result.Skipped++
			continue
		}
		next = append(next, ds)
		result.Added++
	}

	if err := s.commit(next); err != nil {
		return nil, err
	}
	for _, ds := range next[len(next)-result.Added:] {
		s.recordSaved(ds, OperationImported)
	}
	s.logger.WithFields(logrus.Fields{
		"added":    result.Added,
		"skipped":  result.Skipped,
		"rejected": len(result.Rejected),
		"merge":    merge,
	}).Info("Datasets imported")
	return result, nil
}

func containsDataset(datasets []*models.Dataset, ds *models.Dataset) bool {
	for _, existing := range datasets {
		if existing.ID == ds.ID || existing.SameMeeting(ds.Racetrack, ds.Date) {
			return true
		}
	}
	return false
}

func decodeImport(r io.Reader) ([]*models.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}
	data = bytes.TrimSpace(data)

	var raw []storedDataset
	switch {
	case bytes.HasPrefix(data, []byte("[")):
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
		}
	case bytes.HasPrefix(data, []byte("{")):
		var env struct {
			SavedDataSets []storedDataset `json:"savedDataSets"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
		}
		if env.SavedDataSets == nil {
			return nil, fmt.Errorf("%w: savedDataSets is missing", ErrInvalidExport)
		}
		raw = env.SavedDataSets
	default:
		return nil, ErrInvalidExport
	}

	datasets := make([]*models.Dataset, 0, len(raw))
	for i := range raw {
		ds, err := raw[i].toDataset()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}
