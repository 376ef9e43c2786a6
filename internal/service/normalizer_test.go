package service

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WaterMonitoring.influxDB/internal/models"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestNormalize_appliesOffset(t *testing.T) {
	n := NewNormalizer(time.UTC)
	tests := []struct {
		name   string
		raw    float64
		offset float64
		want   float64
	}{
		{"no offset", 123.456, 0, 123.456},
		{"positive offset", 10, 1.5, 11.5},
		{"negative offset", 10, -2.25, 7.75},
		{"raw zero with offset stays present", 0, 1.5, 1.5},
		{"negative raw", -4, 1, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := n.Normalize(models.ReadingInput{
				Date:   "2026-10-18",
				Time:   "08:30",
				Room:   "kitchen",
				Values: map[string]float64{"hot": tt.raw},
			}, map[string]float64{"hot": tt.offset})
			require.NoError(t, err)
			require.NotNil(t, record.Fields["hot"])
			assert.Equal(t, tt.want, *record.Fields["hot"])
		})
	}
}

func TestNormalize_zeroCorrectedValueIsAbsent(t *testing.T) {
	n := NewNormalizer(time.UTC)
	record, err := n.Normalize(models.ReadingInput{
		Date:   "2026-10-18",
		Time:   "08:30",
		Room:   "bathroom",
		Values: map[string]float64{"hot": 0, "cold": 2.5, "garden": 12},
	}, map[string]float64{"hot": 0, "cold": -2.5, "garden": 0})
	require.NoError(t, err)

	hot, ok := record.Fields["hot"]
	assert.True(t, ok)
	assert.Nil(t, hot)
	assert.Nil(t, record.Fields["cold"])
	require.NotNil(t, record.Fields["garden"])

	values := record.Values()
	assert.Equal(t, map[string]interface{}{"garden": 12.0}, values)
	assert.Equal(t, "bathroom", record.Measurement)
}

func TestNormalize_attachesDeploymentTimezone(t *testing.T) {
	n := NewNormalizer(berlin(t))

	winter, err := n.Normalize(models.ReadingInput{Date: "2026-01-15", Time: "10:00", Room: "kitchen"}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), winter.Timestamp.UTC())

	summer, err := n.Normalize(models.ReadingInput{Date: "2026-07-15", Time: "10:00:30", Room: "kitchen"}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 15, 8, 0, 30, 0, time.UTC), summer.Timestamp.UTC())
	assert.Equal(t, "Europe/Berlin", summer.Timestamp.Location().String())
}

func TestNormalize_validation(t *testing.T) {
	n := NewNormalizer(time.UTC)
	offsets := map[string]float64{"hot": 0}
	tests := []struct {
		name  string
		input models.ReadingInput
		field string
	}{
		{"missing date", models.ReadingInput{Time: "08:00", Room: "kitchen"}, "date"},
		{"missing time", models.ReadingInput{Date: "2026-10-18", Room: "kitchen"}, "time"},
		{"malformed date", models.ReadingInput{Date: "18.10.2026", Time: "08:00", Room: "kitchen"}, "date"},
		{"malformed time", models.ReadingInput{Date: "2026-10-18", Time: "8 o'clock", Room: "kitchen"}, "time"},
		{"missing room", models.ReadingInput{Date: "2026-10-18", Time: "08:00"}, "room"},
		{"unconfigured meter", models.ReadingInput{Date: "2026-10-18", Time: "08:00", Room: "kitchen", Values: map[string]float64{"steam": 1}}, "values.steam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.input, offsets)
			require.Error(t, err)
			var valErr *models.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
			assert.Equal(t, models.ErrorKindValidation, models.KindOf(err))
		})
	}
}

func TestNewNormalizer_defaultsToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, NewNormalizer(nil).Location())
}

func TestTimestamp_daylightSavingGap(t *testing.T) {
	n := NewNormalizer(berlin(t))

	_, err := n.Timestamp("2026-03-29", "02:30")
	require.Error(t, err)
	var valErr *models.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "time", valErr.Field)
	assert.Contains(t, valErr.Cause, "does not exist in Europe/Berlin")

	ts, err := n.Timestamp("2026-03-29", "03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 29, 1, 0, 0, 0, time.UTC), ts.UTC())
}

func TestTimestamp_repeatedHourIsAccepted(t *testing.T) {
	n := NewNormalizer(berlin(t))

	ts, err := n.Timestamp("2026-10-25", "02:30")
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Hour())
	assert.Equal(t, 30, ts.Minute())
}
