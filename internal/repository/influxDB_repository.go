// internal/repository/influxDB_repository.go

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"WaterMonitoring.influxDB/internal/models"
)

// Repository is the store capability used by the reading pipeline. Every method is a
// single query or a single write; nothing is held across calls.
type Repository interface {
	QueryLast(ctx context.Context, room, meter string) (float64, error)
	WriteRecord(ctx context.Context, record models.NormalizedRecord) error
	Databases(ctx context.Context) ([]string, error)
	CreateDatabase(ctx context.Context, name string) error
	SelectDatabase(name string)
	Health(ctx context.Context) error
}

// InfluxDBRepository is a repository for reading and writing meter readings in InfluxDB.
type InfluxDBRepository struct {
	client  influxdb2.Client
	org     string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger

	mu     sync.RWMutex
	bucket string
}

// NewInfluxDBRepository creates a new InfluxDBRepository on top of an existing client.
// No database is selected until SelectDatabase is called.
func NewInfluxDBRepository(client influxdb2.Client, org string, timeout time.Duration, log *zap.Logger) *InfluxDBRepository {
	return &InfluxDBRepository{
		client:  client,
		org:     org,
		timeout: timeout,
		breaker: newStoreBreaker(log),
		log:     log,
	}
}

// SelectDatabase sets the bucket used by all subsequent reads and writes.
func (r *InfluxDBRepository) SelectDatabase(name string) {
	r.mu.Lock()
	r.bucket = name
	r.mu.Unlock()
}

func (r *InfluxDBRepository) database() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.bucket == "" {
		return "", errors.New("no database selected")
	}
	return r.bucket, nil
}

// QueryLast returns the most recent value of field meter in measurement room.
// It returns models.ErrNoData when the store holds no point for the pair.
func (r *InfluxDBRepository) QueryLast(ctx context.Context, room, meter string) (float64, error) {
	const op = "query last"
	bucket, err := r.database()
	if err != nil {
		return 0, &models.StoreError{Kind: models.ErrorKindUnknown, Op: op, Err: err}
	}

	fluxQuery := fmt.Sprintf(`from(bucket: %s)
		|> range(start: 0)
		|> filter(fn: (r) => r["_measurement"] == %s and r["_field"] == %s)
		|> last()`, fluxString(bucket), fluxString(room), fluxString(meter))

	var value float64
	found := false
	err = r.execute(ctx, func(ctx context.Context) error {
		result, err := r.client.QueryAPI(r.org).Query(ctx, fluxQuery)
		if err != nil {
			return err
		}
		defer result.Close()

		for result.Next() {
			switch v := result.Record().Value().(type) {
			case float64:
				value, found = v, true
			case int64:
				value, found = float64(v), true
			case uint64:
				value, found = float64(v), true
			}
		}
		return result.Err()
	})
	if err != nil {
		return 0, classify(op, err)
	}
	if !found {
		return 0, models.ErrNoData
	}
	return value, nil
}

// WriteRecord writes the record as one tag-free point whose fields are the present values.
func (r *InfluxDBRepository) WriteRecord(ctx context.Context, record models.NormalizedRecord) error {
	const op = "write record"
	bucket, err := r.database()
	if err != nil {
		return &models.StoreError{Kind: models.ErrorKindUnknown, Op: op, Err: err}
	}

	fields := record.Values()
	if len(fields) == 0 {
		return &models.StoreError{
			Kind: models.ErrorKindConnection,
			Op:   op,
			Err:  fmt.Errorf("%w: record for %q has no present fields", models.ErrRejected, record.Measurement),
		}
	}

	p := influxdb2.NewPoint(record.Measurement, nil, fields, record.Timestamp)
	err = r.execute(ctx, func(ctx context.Context) error {
		return r.client.WriteAPIBlocking(r.org, bucket).WritePoint(ctx, p)
	})
	if err != nil {
		return classify(op, err)
	}

	r.log.Debug("Data point written to InfluxDB",
		zap.String("bucket", bucket),
		zap.String("measurement", record.Measurement),
		zap.Time("timestamp", record.Timestamp),
		zap.Any("fields", fields),
	)
	return nil
}

// Databases lists the user buckets of the store, system buckets excluded.
func (r *InfluxDBRepository) Databases(ctx context.Context) ([]string, error) {
	var names []string
	err := r.execute(ctx, func(ctx context.Context) error {
		buckets, err := r.client.BucketsAPI().GetBuckets(ctx)
		if err != nil {
			return err
		}
		if buckets == nil {
			return nil
		}
		for _, bucket := range *buckets {
			if !isSystemBucket(bucket.Name) {
				names = append(names, bucket.Name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify("list databases", err)
	}
	return names, nil
}

// CreateDatabase creates a new bucket in the configured organization.
func (r *InfluxDBRepository) CreateDatabase(ctx context.Context, name string) error {
	const op = "create database"
	err := r.execute(ctx, func(ctx context.Context) error {
		org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.org)
		if err != nil {
			return fmt.Errorf("finding organization %q: %w", r.org, err)
		}
		if org == nil {
			return fmt.Errorf("organization %q not found", r.org)
		}
		_, err = r.client.BucketsAPI().CreateBucketWithName(ctx, org, name)
		return err
	})
	if err != nil {
		return classify(op, err)
	}
	r.log.Info("Bucket created", zap.String("bucket", name), zap.String("org", r.org))
	return nil
}

// Health reports whether the store answers its health endpoint with "pass".
func (r *InfluxDBRepository) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	health, err := r.client.Health(ctx)
	if err != nil {
		return classify("health", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		return &models.StoreError{Kind: models.ErrorKindConnection, Op: "health", Err: fmt.Errorf("status %s", health.Status)}
	}
	return nil
}

// execute runs one store call under the per-call timeout and the circuit breaker.
func (r *InfluxDBRepository) execute(ctx context.Context, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, call(ctx)
	})
	return err
}

// isSystemBucket checks if the given bucket name is a system bucket
func isSystemBucket(bucketName string) bool {
	switch bucketName {
	case "_internal", "_monitoring", "_tasks":
		return true
	}
	return false
}

var fluxEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `${`, `\${`)

// fluxString renders s as a Flux string literal.
func fluxString(s string) string {
	return `"` + fluxEscaper.Replace(s) + `"`
}
