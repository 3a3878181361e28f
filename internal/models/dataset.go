package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is one saved batch of races for a racetrack and date
type Dataset struct {
	ID        uuid.UUID  `json:"id" validate:"required"`
	Racetrack string     `json:"racetrack" validate:"required"`
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	Races     []*Race    `json:"races" validate:"required,min=1,dive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// NewDataset creates a dataset with a fresh ID
func NewDataset(racetrack, date string, races []*Race) *Dataset {
	return &Dataset{
		ID:        uuid.New(),
		Racetrack: racetrack,
		Date:      date,
		Races:     races,
		CreatedAt: time.Now().UTC(),
	}
}

// SameMeeting reports whether two datasets describe the same racetrack and date
func (d *Dataset) SameMeeting(racetrack, date string) bool {
	return d.Racetrack == racetrack && d.Date == date
}
