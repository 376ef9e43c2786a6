package service

import (
	"context"

	"WaterMonitoring.influxDB/internal/models"
)

type fakeRepository struct {
	values    map[string]float64
	queryErrs map[string]error
	writeErr  error
	written   []models.NormalizedRecord

	databases []string
	listErr   error
	createErr error
	created   []string
	selected  string
	healthErr error
}

func key(room, meter string) string { return room + "/" + meter }

func (f *fakeRepository) QueryLast(_ context.Context, room, meter string) (float64, error) {
	if err, ok := f.queryErrs[key(room, meter)]; ok {
		return 0, err
	}
	v, ok := f.values[key(room, meter)]
	if !ok {
		return 0, models.ErrNoData
	}
	return v, nil
}

func (f *fakeRepository) WriteRecord(_ context.Context, record models.NormalizedRecord) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, record)
	return nil
}

func (f *fakeRepository) Databases(context.Context) ([]string, error) {
	return f.databases, f.listErr
}

func (f *fakeRepository) CreateDatabase(_ context.Context, name string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, name)
	f.databases = append(f.databases, name)
	return nil
}

func (f *fakeRepository) SelectDatabase(name string) { f.selected = name }

func (f *fakeRepository) Health(context.Context) error { return f.healthErr }
