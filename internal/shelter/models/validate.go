package models

import (
	"strings"

	"github.com/google/uuid"

	dErrors "shelterhub/pkg/domain-errors"
)

// Validate checks required fields, coordinate ranges and enum values.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(d.Address) == "" {
		return dErrors.New(dErrors.CodeValidation, "address is required")
	}
	if d.Latitude == nil || d.Longitude == nil {
		return dErrors.New(dErrors.CodeValidation, "latitude and longitude are required")
	}
	if err := validateCoordinates(*d.Latitude, *d.Longitude); err != nil {
		return err
	}
	if err := validateCounts(&d.Capacity, &d.CurrentOccupancy); err != nil {
		return err
	}
	if d.Status != "" && !d.Status.IsValid() {
		return invalidStatus(d.Status)
	}
	return ValidatePhotoIDs(d.PhotoIDs)
}

// Validate checks only the fields present in the patch.
func (p *Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name must not be empty")
	}
	if p.Address != nil && strings.TrimSpace(*p.Address) == "" {
		return dErrors.New(dErrors.CodeValidation, "address must not be empty")
	}
	if p.Latitude != nil && !validLatitude(*p.Latitude) {
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if p.Longitude != nil && !validLongitude(*p.Longitude) {
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	}
	if err := validateCounts(p.Capacity, p.CurrentOccupancy); err != nil {
		return err
	}
	if p.Status != nil && !p.Status.IsValid() {
		return invalidStatus(*p.Status)
	}
	if p.PhotoIDs != nil {
		return ValidatePhotoIDs(*p.PhotoIDs)
	}
	return nil
}

func (p BulkPatch) Validate() error {
	if p.Status == nil && p.CurrentOccupancy == nil {
		return dErrors.New(dErrors.CodeValidation, "status or current_occupancy is required")
	}
	if p.Status != nil && !p.Status.IsValid() {
		return invalidStatus(*p.Status)
	}
	return validateCounts(nil, p.CurrentOccupancy)
}

// ValidateIDs rejects an empty id list.
func ValidateIDs(ids []int64) error {
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeValidation, "ids must not be empty")
	}
	return nil
}

func validateCoordinates(lat, lon float64) error {
	if !validLatitude(lat) {
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if !validLongitude(lon) {
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}

// NaN fails both comparisons.
func validLatitude(v float64) bool { return v >= -90 && v <= 90 }
func validLongitude(v float64) bool { return v >= -180 && v <= 180 }

func validateCounts(capacity, occupancy *int) error {
	if capacity != nil && *capacity < 0 {
		return dErrors.New(dErrors.CodeValidation, "capacity must not be negative")
	}
	if occupancy != nil && *occupancy < 0 {
		return dErrors.New(dErrors.CodeValidation, "current_occupancy must not be negative")
	}
	return nil
}

// ValidatePhotoIDs requires every id to be a UUID.
func ValidatePhotoIDs(ids []string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return dErrors.New(dErrors.CodeValidation, "invalid photo id: "+id)
		}
	}
	return nil
}

func invalidStatus(s Status) error {
	return dErrors.New(dErrors.CodeValidation, "status must be open or closed, got "+string(s))
}
