package service

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
)

// DataValidator validates races and datasets before they are stored
type DataValidator struct {
	validate *validator.Validate
	logger   logrus.FieldLogger
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger logrus.FieldLogger) *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidateRace validates the race's fields and its results for internal consistency
func (v *DataValidator) ValidateRace(race *models.Race) []string {
	if race == nil {
		return []string{"race is nil"}
	}

	var errs []string
	if err := v.validate.Struct(race); err != nil {
		errs = append(errs, describeValidationError(race.Label(), err)...)
	}

	if race.Racetrack != "" && !v.IsValidTrackName(race.Racetrack) {
		errs = append(errs, fmt.Sprintf("%s: racetrack %q is not a JRA racecourse", race.Label(), race.Racetrack))
	}

	errs = append(errs, parser.ValidateRace(race)...)
	return errs
}

// ValidateDataset checks a dataset's structure. Consistency findings inside races are
// warnings for the parser, so only structural failures reject the dataset.
func (v *DataValidator) ValidateDataset(ds *models.Dataset) error {
	if ds == nil || len(ds.Races) == 0 {
		return models.ErrDatasetEmpty
	}

	if err := v.validate.Struct(ds); err != nil {
		msgs := describeValidationError(ds.Racetrack+" "+ds.Date, err)
		return fmt.Errorf("%w: %v", models.ErrInvalidDataset, msgs)
	}

	for _, race := range ds.Races {
		if race.Racetrack != ds.Racetrack || race.Date != ds.Date {
			return fmt.Errorf("%w: %s belongs to %s %s", models.ErrInvalidDataset, race.Label(), race.Racetrack, race.Date)
		}
	}
	return nil
}

// ValidateDatasetUniqueness checks that no other dataset covers the same racetrack and date
func (v *DataValidator) ValidateDatasetUniqueness(ds *models.Dataset, existing []*models.Dataset) error {
	for _, other := range existing {
		if other.ID != ds.ID && other.SameMeeting(ds.Racetrack, ds.Date) {
			return fmt.Errorf("%w: %s on %s", models.ErrDatasetDuplicate, ds.Racetrack, ds.Date)
		}
	}
	return nil
}

// IsValidTrackName checks if track is one of the JRA racecourses
func (v *DataValidator) IsValidTrackName(track string) bool {
	return slices.Contains(parser.JRATracks, track)
}

func describeValidationError(label string, err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{fmt.Sprintf("%s: %v", label, err)}
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: %s is required", label, fe.Namespace()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s: %s must be a YYYY-MM-DD date, got %v", label, fe.Namespace(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: %s failed %s=%s (got %v)", label, fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return msgs
}
