package models

import (
	"sort"
	"time"
)

// ReadingInput is what the input surface hands over on a submit: one room, one instant.
type ReadingInput struct {
	Date   string             `json:"date"` // 2006-01-02
	Time   string             `json:"time"` // 15:04 or 15:04:05
	Room   string             `json:"room"`
	Values map[string]float64 `json:"values"` // meter name -> dial value
}

// NormalizedRecord is the unit committed to the store. A nil field value means absent.
type NormalizedRecord struct {
	Measurement string              `json:"measurement"`
	Timestamp   time.Time           `json:"timestamp"`
	Fields      map[string]*float64 `json:"fields"`
}

// Values returns the fields that will actually be written.
func (r NormalizedRecord) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(r.Fields))
	for name, v := range r.Fields {
		if v != nil {
			values[name] = *v
		}
	}
	return values
}

// FieldNames returns all field names of the record, present or absent, sorted.
func (r NormalizedRecord) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LatestReading is the most recent stored value of one meter.
type LatestReading struct {
	Stored  float64 `json:"stored"`  // Offset-corrected value as held by the store
	Display float64 `json:"display"` // Dial value shown to the user (Stored - offset)
	Known   bool    `json:"known"`
	Notice  string  `json:"notice,omitempty"`
}

// Delta is the cosmetic difference between a newly entered dial value and the last one.
// It reports false when the last value is unknown.
func (l LatestReading) Delta(newDisplay float64) (float64, bool) {
	if !l.Known {
		return 0, false
	}
	return newDisplay - l.Display, true
}

type MeterReading struct {
	Meter   string        `json:"meter"`
	Reading LatestReading `json:"reading"`
}

type RoomReadings struct {
	Room   string         `json:"room"`
	Meters []MeterReading `json:"meters"`
}

// LatestReadingTable holds the latest reading of every meter in topology order.
type LatestReadingTable struct {
	Rooms []RoomReadings `json:"rooms"`
}

// Get returns the latest reading of a meter in a room.
func (t LatestReadingTable) Get(room, meter string) (LatestReading, bool) {
	for _, r := range t.Rooms {
		if r.Room != room {
			continue
		}
		for _, m := range r.Meters {
			if m.Meter == meter {
				return m.Reading, true
			}
		}
	}
	return LatestReading{}, false
}
