package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	http2 "github.com/influxdata/influxdb-client-go/v2/api/http"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"WaterMonitoring.influxDB/internal/models"
)

// newStoreBreaker trips after repeated connection-class failures so a dead store
// fails fast instead of blocking every render for the full timeout.
func newStoreBreaker(log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "InfluxDBCircuitBreaker",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// Rejected writes and empty results say nothing about store availability.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			kind := models.KindOf(classify("", err))
			return kind != models.ErrorKindConnection && kind != models.ErrorKindStoreTimeout
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// classify converts an error from the InfluxDB client into a *models.StoreError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *models.StoreError
	if errors.As(err, &storeErr) {
		return err
	}

	kind := models.ErrorKindUnknown
	var httpErr *http2.Error
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		kind = models.ErrorKindConnection
	case isTimeout(err):
		kind = models.ErrorKindStoreTimeout
	case errors.As(err, &httpErr) && httpErr.StatusCode != 0:
		switch httpErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			kind = models.ErrorKindStoreTimeout
		case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusUnauthorized, http.StatusForbidden:
			kind = models.ErrorKindConnection
		case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
			return &models.StoreError{
				Kind: models.ErrorKindConnection,
				Op:   op,
				Err:  fmt.Errorf("%w: %v", models.ErrRejected, err),
			}
		}
	case isConnection(err):
		kind = models.ErrorKindConnection
	}
	return &models.StoreError{Kind: kind, Op: op, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnection(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *http2.Error
	// A status code of zero means the request never got an HTTP response.
	return errors.As(err, &httpErr) && httpErr.StatusCode == 0
}
