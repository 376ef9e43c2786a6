package service

import (
	"fmt"
	"time"

	"WaterMonitoring.influxDB/internal/models"
)

var (
	dateLayout  = "2006-01-02"
	timeLayouts = []string{"15:04", "15:04:05"}
)

// Normalizer turns a submitted reading into a storage-ready record. It has no side effects.
type Normalizer struct {
	location *time.Location
}

// NewNormalizer creates a Normalizer that localizes wall-clock input to loc.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{location: loc}
}

// Location returns the deployment timezone.
func (n *Normalizer) Location() *time.Location {
	return n.location
}

// Normalize applies the calibration offsets, drops zero values and attaches the
// deployment timezone to the entered date and time.
func (n *Normalizer) Normalize(input models.ReadingInput, offsets map[string]float64) (models.NormalizedRecord, error) {
	ts, err := n.Timestamp(input.Date, input.Time)
	if err != nil {
		return models.NormalizedRecord{}, err
	}
	if input.Room == "" {
		return models.NormalizedRecord{}, &models.ValidationError{Field: "room", Cause: "required"}
	}

	fields := make(map[string]*float64, len(input.Values))
	for meter, raw := range input.Values {
		offset, ok := offsets[meter]
		if !ok {
			return models.NormalizedRecord{}, &models.ValidationError{
				Field: "values." + meter,
				Cause: "meter is not configured for room " + input.Room,
			}
		}
		corrected := raw + offset
		if corrected == 0 {
			// zero means the widget was left untouched
			fields[meter] = nil
			continue
		}
		fields[meter] = &corrected
	}

	return models.NormalizedRecord{
		Measurement: input.Room,
		Timestamp:   ts,
		Fields:      fields,
	}, nil
}

// Timestamp combines a calendar date and a wall-clock time in the deployment timezone.
// Times skipped by a daylight saving change are rejected. Repeated ones resolve to
// one of the two instants, as time.Date does.
func (n *Normalizer) Timestamp(date, clock string) (time.Time, error) {
	if date == "" {
		return time.Time{}, &models.ValidationError{Field: "date", Cause: "required"}
	}
	if clock == "" {
		return time.Time{}, &models.ValidationError{Field: "time", Cause: "required"}
	}

	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "date", Cause: "expected YYYY-MM-DD"}
	}

	var c time.Time
	parsed := false
	for _, layout := range timeLayouts {
		if c, err = time.Parse(layout, clock); err == nil {
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}, &models.ValidationError{Field: "time", Cause: "expected HH:MM or HH:MM:SS"}
	}

	ts := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, n.location)
	// time.Date shifts wall clocks skipped by a daylight saving change.
	if ts.Hour() != c.Hour() || ts.Minute() != c.Minute() || ts.Day() != d.Day() {
		return time.Time{}, &models.ValidationError{
			Field: "time",
			Cause: fmt.Sprintf("%s %s does not exist in %s", date, clock, n.location),
		}
	}
	return ts, nil
}
