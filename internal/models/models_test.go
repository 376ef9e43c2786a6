package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"configuration", &ConfigurationError{Cause: "rooms: required"}, ErrorKindConfiguration},
		{"validation", &ValidationError{Field: "date", Cause: "required"}, ErrorKindValidation},
		{"store timeout", &StoreError{Kind: ErrorKindStoreTimeout, Op: "query", Err: context.DeadlineExceeded}, ErrorKindStoreTimeout},
		{"wrapped store error", fmt.Errorf("fetch: %w", &StoreError{Kind: ErrorKindConnection, Err: errors.New("refused")}), ErrorKindConnection},
		{"plain error", errors.New("boom"), ErrorKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want WriteOutcome
	}{
		{"success", nil, WriteOutcomeSuccess},
		{"rejected", &StoreError{Kind: ErrorKindConnection, Err: fmt.Errorf("%w: 400", ErrRejected)}, WriteOutcomeRejected},
		{"connection", &StoreError{Kind: ErrorKindConnection, Err: errors.New("refused")}, WriteOutcomeUnavailable},
		{"timeout", &StoreError{Kind: ErrorKindStoreTimeout, Err: context.DeadlineExceeded}, WriteOutcomeUnavailable},
		{"unknown store error", &StoreError{Kind: ErrorKindUnknown, Err: errors.New("500")}, WriteOutcomeUnknown},
		{"plain error", errors.New("boom"), WriteOutcomeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeOf(tt.err))
			assert.Equal(t, tt.want == WriteOutcomeSuccess, WriteResult{Outcome: OutcomeOf(tt.err)}.OK())
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "configuration error in config.yaml: rooms: required",
		(&ConfigurationError{Source: "config.yaml", Cause: "rooms: required"}).Error())
	assert.Equal(t, "configuration error: rooms: required", (&ConfigurationError{Cause: "rooms: required"}).Error())
	assert.Equal(t, "validation error: time: required", (&ValidationError{Field: "time", Cause: "required"}).Error())

	inner := errors.New("parse failure")
	assert.ErrorIs(t, &ConfigurationError{Cause: "x", Err: inner}, inner)
	assert.ErrorIs(t, &StoreError{Kind: ErrorKindUnknown, Op: "write", Err: inner}, inner)
}

func TestLatestReading_Delta(t *testing.T) {
	delta, ok := LatestReading{Stored: 13.5, Display: 12, Known: true}.Delta(12.5)
	assert.True(t, ok)
	assert.Equal(t, 0.5, delta)

	delta, ok = LatestReading{Known: false, Notice: "database unreachable"}.Delta(12.5)
	assert.False(t, ok)
	assert.Zero(t, delta)
}

func TestNormalizedRecord_ValuesSkipsAbsentFields(t *testing.T) {
	hot := 13.75
	record := NormalizedRecord{Measurement: "kitchen", Fields: map[string]*float64{"hot": &hot, "cold": nil}}

	assert.Equal(t, map[string]interface{}{"hot": 13.75}, record.Values())
	assert.Equal(t, []string{"cold", "hot"}, record.FieldNames())
}

func TestLatestReadingTable_Get(t *testing.T) {
	table := LatestReadingTable{Rooms: []RoomReadings{
		{Room: "kitchen", Meters: []MeterReading{{Meter: "hot", Reading: LatestReading{Stored: 1, Known: true}}}},
		{Room: "bathroom", Meters: []MeterReading{{Meter: "hot", Reading: LatestReading{Stored: 2, Known: true}}}},
	}}

	got, ok := table.Get("bathroom", "hot")
	assert.True(t, ok)
	assert.Equal(t, 2.0, got.Stored)

	_, ok = table.Get("kitchen", "cold")
	assert.False(t, ok)
	_, ok = table.Get("garage", "hot")
	assert.False(t, ok)
}

func TestTopologyLookups(t *testing.T) {
	topology := Topology{Rooms: []Room{
		{Name: "kitchen", Meters: []Meter{{ID: 1, Name: "hot", Offset: 1.5}, {ID: 2, Name: "cold"}}},
	}}

	room, ok := topology.Room("kitchen")
	assert.True(t, ok)
	assert.Equal(t, map[string]float64{"hot": 1.5, "cold": 0}, room.Offsets())

	meter, ok := room.Meter("cold")
	assert.True(t, ok)
	assert.Equal(t, 2, meter.ID)

	_, ok = room.Meter("warm")
	assert.False(t, ok)
	_, ok = topology.Room("garage")
	assert.False(t, ok)
}

func TestAPIError(t *testing.T) {
	apiErr := NewAPIError(ErrorCodeNotFound, "unknown room", nil, 404)
	assert.Equal(t, "[not_found] unknown room", apiErr.Error())
	assert.Equal(t, 404, apiErr.StatusCode)
}
