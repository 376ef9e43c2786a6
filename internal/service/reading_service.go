package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"WaterMonitoring.influxDB/internal/models"
	"WaterMonitoring.influxDB/internal/repository"
)

// ReadingService handles the business logic of fetching and committing meter readings.
type ReadingService struct {
	repo       repository.Repository
	topology   models.Topology
	normalizer *Normalizer
	metrics    *Metrics
	log        *zap.Logger
}

// NewReadingService creates a new ReadingService. metrics may be nil.
func NewReadingService(repo repository.Repository, topology models.Topology, normalizer *Normalizer, metrics *Metrics, log *zap.Logger) *ReadingService {
	return &ReadingService{
		repo:       repo,
		topology:   topology,
		normalizer: normalizer,
		metrics:    metrics,
		log:        log,
	}
}

// Topology returns the configured rooms.
func (s *ReadingService) Topology() models.Topology {
	return s.topology
}

// Normalizer returns the normalizer used on submit.
func (s *ReadingService) Normalizer() *Normalizer {
	return s.normalizer
}

// FetchLast returns the most recent stored value of a meter. Failures never reach the
// caller: they are logged and counted, and the reading comes back unknown.
func (s *ReadingService) FetchLast(ctx context.Context, room, meter string) models.LatestReading {
	value, err := s.repo.QueryLast(ctx, room, meter)
	if err == nil {
		return models.LatestReading{Stored: value, Known: true}
	}

	reading := models.LatestReading{Known: false}
	switch {
	case errors.Is(err, models.ErrNoData):
		reading.Notice = "no reading stored yet"
		s.log.Warn("No latest reading in database", zap.String("room", room), zap.String("meter", meter))
		s.metrics.observeFetchFailure("no_data")
	default:
		kind := models.KindOf(err)
		reading.Notice = noticeFor(kind)
		s.log.Error("Querying latest reading from database failed",
			zap.String("room", room),
			zap.String("meter", meter),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		s.metrics.observeFetchFailure(string(kind))
	}
	return reading
}

// FetchAll builds the latest-reading table for every room and meter in topology order.
// Display values are dial values: the stored value minus the meter's offset.
func (s *ReadingService) FetchAll(ctx context.Context) models.LatestReadingTable {
	table := models.LatestReadingTable{Rooms: make([]models.RoomReadings, 0, len(s.topology.Rooms))}
	for _, room := range s.topology.Rooms {
		rr := models.RoomReadings{Room: room.Name, Meters: make([]models.MeterReading, 0, len(room.Meters))}
		for _, meter := range room.Meters {
			reading := s.FetchLast(ctx, room.Name, meter.Name)
			if reading.Known {
				reading.Display = reading.Stored - meter.Offset
			}
			rr.Meters = append(rr.Meters, models.MeterReading{Meter: meter.Name, Reading: reading})
		}
		table.Rooms = append(table.Rooms, rr)
	}
	return table
}

// Commit writes a normalized record. It never returns an error: every failure is
// logged with the attempted record and reported through the outcome.
func (s *ReadingService) Commit(ctx context.Context, record models.NormalizedRecord) models.WriteResult {
	s.log.Debug("Writing record",
		zap.String("measurement", record.Measurement),
		zap.Time("timestamp", record.Timestamp),
		zap.Any("fields", record.Values()),
	)

	err := s.repo.WriteRecord(ctx, record)
	outcome := models.OutcomeOf(err)
	s.metrics.observeWrite(outcome)

	result := models.WriteResult{Outcome: outcome, Record: record, Message: outcomeMessage(outcome)}
	if err != nil {
		s.log.Error("Sending data to database failed",
			zap.String("outcome", string(outcome)),
			zap.String("measurement", record.Measurement),
			zap.Time("timestamp", record.Timestamp),
			zap.Any("fields", record.Values()),
			zap.Strings("absent", absentFields(record)),
			zap.Error(err),
		)
		return result
	}

	s.log.Info("Data logged",
		zap.String("measurement", record.Measurement),
		zap.Time("timestamp", record.Timestamp),
	)
	return result
}

// Submit normalizes input for its room and commits it. The returned error is either
// *models.ValidationError or a not-found error for an unknown room; store failures
// are reported through the result.
func (s *ReadingService) Submit(ctx context.Context, input models.ReadingInput) (models.WriteResult, error) {
	room, ok := s.topology.Room(input.Room)
	if !ok {
		return models.WriteResult{}, fmt.Errorf("%w: %q", ErrUnknownRoom, input.Room)
	}

	record, err := s.normalizer.Normalize(input, room.Offsets())
	if err != nil {
		s.log.Error("Normalizing reading failed", zap.String("room", input.Room), zap.Error(err))
		return models.WriteResult{}, err
	}
	return s.Commit(ctx, record), nil
}

// Health reports whether the store is reachable.
func (s *ReadingService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

// ErrUnknownRoom is returned by Submit for a room that is not in the topology.
var ErrUnknownRoom = errors.New("unknown room")

func noticeFor(kind models.ErrorKind) string {
	switch kind {
	case models.ErrorKindConnection:
		return "database unreachable"
	case models.ErrorKindStoreTimeout:
		return "database timed out"
	default:
		return "unknown error while querying the database"
	}
}

func outcomeMessage(outcome models.WriteOutcome) string {
	switch outcome {
	case models.WriteOutcomeSuccess:
		return "Data logged."
	case models.WriteOutcomeRejected:
		return "The database accepted no data. Nothing was stored."
	case models.WriteOutcomeUnavailable:
		return "The database is unreachable or timed out. Nothing was stored, please retry."
	default:
		return "Writing to the database failed with an unknown error. Nothing was stored."
	}
}

func absentFields(record models.NormalizedRecord) []string {
	var absent []string
	for _, name := range record.FieldNames() {
		if record.Fields[name] == nil {
			absent = append(absent, name)
		}
	}
	return absent
}
