// Package store persists race datasets, one per racetrack and date.
package store

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/yourusername/keiba-stats/internal/models"
)

// DatasetRepository defines the interface for dataset access
type DatasetRepository interface {
	Upsert(ctx context.Context, ds *models.Dataset, overwrite bool) (*models.Dataset, Operation, error)
	ReplaceRaces(ctx context.Context, racetrack, date string, races []*models.Race) (*models.Dataset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	GetByTrackAndDate(ctx context.Context, racetrack, date string) (*models.Dataset, error)
	List(ctx context.Context) ([]*models.Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AllRaces(ctx context.Context) ([]*models.Race, error)
	Export(ctx context.Context, w io.Writer) error
	Import(ctx context.Context, r io.Reader, merge bool) (*ImportResult, error)
}

// DatasetValidator checks a dataset before it is stored
type DatasetValidator interface {
	ValidateDataset(ds *models.Dataset) error
}

// Operation describes how a write changed the store
type Operation string

// Store operations
const (
	OperationCreated  Operation = "created"
	OperationUpdated  Operation = "updated"
	OperationImported Operation = "imported"
)
