package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"WaterMonitoring.influxDB/internal/controller"
	"WaterMonitoring.influxDB/internal/models"
	"WaterMonitoring.influxDB/internal/utils"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(router *mux.Router, controller *controller.ReadingController, gatherer prometheus.Gatherer) {
	// Entry page
	router.HandleFunc("/", controller.HandleIndex).Methods(http.MethodGet)
	router.HandleFunc("/readings", controller.HandleSubmitForm).Methods(http.MethodPost)

	// JSON API
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/topology", controller.HandleTopology).Methods(http.MethodGet)
	api.HandleFunc("/readings/latest", controller.HandleLatest).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room}/readings", controller.HandleSubmitJSON).Methods(http.MethodPost)

	// Operations
	router.HandleFunc("/health", controller.HandleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, "resource not found", nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMethodNotAllowed, "method not allowed", nil, http.StatusMethodNotAllowed))
	})
}
