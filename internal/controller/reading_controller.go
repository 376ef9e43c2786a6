package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"WaterMonitoring.influxDB/internal/models"
	"WaterMonitoring.influxDB/internal/service"
	"WaterMonitoring.influxDB/internal/utils"
	"WaterMonitoring.influxDB/internal/views"
)

const maxBodyBytes = 1 << 16

// ReadingController serves the entry page and the JSON API for meter readings.
type ReadingController struct {
	service *service.ReadingService
	debug   bool
	log     *zap.Logger
	now     func() time.Time
}

// NewReadingController creates a new ReadingController. With debug set, the written
// field values are echoed back after a submit.
func NewReadingController(service *service.ReadingService, debug bool, log *zap.Logger) *ReadingController {
	return &ReadingController{
		service: service,
		debug:   debug,
		log:     log,
		now:     time.Now,
	}
}

// submitRequest is the JSON body of POST /api/v1/rooms/{room}/readings.
type submitRequest struct {
	Date   string             `json:"date"`
	Time   string             `json:"time"`
	Values map[string]float64 `json:"values"`
}

type submitResponse struct {
	Outcome models.WriteOutcome      `json:"outcome"`
	Message string                   `json:"message"`
	Record  *models.NormalizedRecord `json:"record,omitempty"`
}

func inputName(roomIdx int, meter models.Meter) string {
	return fmt.Sprintf("reading-%d-%d", roomIdx, meter.ID)
}

// HandleIndex renders the entry page with the latest reading of every meter.
func (c *ReadingController) HandleIndex(w http.ResponseWriter, r *http.Request) {
	table := c.service.FetchAll(r.Context())
	now := c.now().In(c.service.Normalizer().Location())

	c.render(w, http.StatusOK, &views.EntryPageData{
		Date:  now.Format("2006-01-02"),
		Time:  now.Format("15:04"),
		Rooms: c.sections(table),
		Debug: c.debug,
	})
}

// HandleSubmitForm handles the entry page form. The pressed button names the room;
// only that room's inputs are committed.
func (c *ReadingController) HandleSubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		apiErr := models.NewAPIError(models.ErrorCodeBadRequest, fmt.Sprintf("error parsing form: %v", err), nil, http.StatusBadRequest)
		utils.RespondWithError(w, apiErr)
		return
	}

	date := r.PostForm.Get("date")
	clock := r.PostForm.Get("time")
	roomName := r.PostForm.Get("room")

	before := c.service.FetchAll(r.Context())
	page := &views.EntryPageData{Date: date, Time: clock, Debug: c.debug}

	roomIdx, room, ok := c.lookupRoom(roomName)
	if !ok {
		page.Rooms = c.sections(before)
		page.Outcome = &views.SubmitOutcome{Room: roomName, Message: "Unknown room. Nothing was stored."}
		c.render(w, http.StatusNotFound, page)
		return
	}

	values := make(map[string]float64, len(room.Meters))
	for _, meter := range room.Meters {
		raw := strings.TrimSpace(r.PostForm.Get(inputName(roomIdx, meter)))
		if raw == "" {
			values[meter.Name] = 0
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			page.Rooms = c.sections(before)
			page.Outcome = &views.SubmitOutcome{
				Room:    room.Name,
				Message: fmt.Sprintf("%s %s: not a number. Nothing was stored.", room.Name, meter.Name),
			}
			c.render(w, http.StatusBadRequest, page)
			return
		}
		values[meter.Name] = v
	}

	result, err := c.service.Submit(r.Context(), models.ReadingInput{
		Date:   date,
		Time:   clock,
		Room:   room.Name,
		Values: values,
	})
	if err != nil {
		page.Rooms = c.sections(before)
		page.Outcome = &views.SubmitOutcome{Room: room.Name, Message: err.Error() + ". Nothing was stored."}
		c.render(w, http.StatusBadRequest, page)
		return
	}

	outcome := &views.SubmitOutcome{
		Room:    room.Name,
		OK:      result.OK(),
		Outcome: result.Outcome,
		Message: result.Message,
	}
	for _, meter := range room.Meters {
		entered := values[meter.Name]
		change := views.MeterChange{Meter: meter.Name, Entered: entered}
		if last, found := before.Get(room.Name, meter.Name); found {
			change.Delta, change.HasDelta = last.Delta(entered)
		}
		outcome.Changes = append(outcome.Changes, change)
	}
	if c.debug && result.OK() {
		outcome.Fields = result.Record.Values()
	}

	after := before
	if result.OK() {
		after = c.service.FetchAll(r.Context())
	}
	page.Rooms = c.sections(after)
	page.Outcome = outcome
	c.render(w, statusForOutcome(result.Outcome, http.StatusOK), page)
}

// HandleTopology returns the configured rooms and meters.
func (c *ReadingController) HandleTopology(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.service.Topology())
}

// HandleLatest returns the latest-reading table.
func (c *ReadingController) HandleLatest(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.service.FetchAll(r.Context()))
}

// HandleSubmitJSON commits one room's readings sent as JSON.
func (c *ReadingController) HandleSubmitJSON(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	defer r.Body.Close()

	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		apiErr := models.NewAPIError(models.ErrorCodeBadRequest, fmt.Sprintf("error decoding JSON: %v", err), nil, http.StatusBadRequest)
		utils.RespondWithError(w, apiErr)
		return
	}
	if len(req.Values) == 0 {
		apiErr := models.NewAPIError(models.ErrorCodeMissingParameter, "values is required", nil, http.StatusBadRequest)
		utils.RespondWithError(w, apiErr)
		return
	}

	result, err := c.service.Submit(r.Context(), models.ReadingInput{
		Date:   req.Date,
		Time:   req.Time,
		Room:   room,
		Values: req.Values,
	})
	var valErr *models.ValidationError
	switch {
	case errors.Is(err, service.ErrUnknownRoom):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, err.Error(), nil, http.StatusNotFound))
		return
	case errors.As(err, &valErr):
		details := map[string]string{"field": valErr.Field, "cause": valErr.Cause}
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, valErr.Error(), details, http.StatusBadRequest))
		return
	case err != nil:
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError, err.Error(), nil, http.StatusInternalServerError))
		return
	}

	resp := submitResponse{Outcome: result.Outcome, Message: result.Message}
	if c.debug {
		resp.Record = &result.Record
	}
	if !result.OK() {
		code := models.ErrorCodeStoreUnavailable
		if result.Outcome == models.WriteOutcomeRejected {
			code = models.ErrorCodeWriteRejected
		}
		utils.RespondWithError(w, models.NewAPIError(code, result.Message, resp, statusForOutcome(result.Outcome, http.StatusCreated)))
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// HandleHealth reports whether the store answers its health check.
func (c *ReadingController) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Health(r.Context()); err != nil {
		c.log.Warn("Health check failed", zap.Error(err))
		utils.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusForOutcome(outcome models.WriteOutcome, success int) int {
	switch outcome {
	case models.WriteOutcomeSuccess:
		return success
	case models.WriteOutcomeRejected, models.WriteOutcomeUnknown:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func (c *ReadingController) lookupRoom(name string) (int, models.Room, bool) {
	for i, room := range c.service.Topology().Rooms {
		if room.Name == name {
			return i, room, true
		}
	}
	return 0, models.Room{}, false
}

func (c *ReadingController) sections(table models.LatestReadingTable) []views.RoomSection {
	rooms := c.service.Topology().Rooms
	sections := make([]views.RoomSection, 0, len(rooms))
	for i, room := range rooms {
		section := views.RoomSection{Room: room.Name, Meters: make([]views.MeterWidget, 0, len(room.Meters))}
		for _, meter := range room.Meters {
			last, _ := table.Get(room.Name, meter.Name)
			widget := views.MeterWidget{Meter: meter.Name, InputName: inputName(i, meter), Last: last}
			if last.Known {
				widget.Seed = last.Display
			}
			section.Meters = append(section.Meters, widget)
		}
		sections = append(sections, section)
	}
	return sections
}

func (c *ReadingController) render(w http.ResponseWriter, status int, data *views.EntryPageData) {
	var buf strings.Builder
	if err := views.RenderEntryPage(&buf, data); err != nil {
		c.log.Error("Rendering entry page failed", zap.Error(err))
		apiErr := models.NewAPIError(models.ErrorCodeInternalServerError, "error rendering page", nil, http.StatusInternalServerError)
		utils.RespondWithError(w, apiErr)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(buf.String())); err != nil {
		c.log.Warn("Writing entry page failed", zap.Error(err))
	}
}
