package views

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"WaterMonitoring.influxDB/internal/models"
)

//go:embed templates/*.html
var viewsFS embed.FS

var entryTmpl *template.Template

var funcs = template.FuncMap{
	"fixed":  func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"signed": func(v float64) string { return fmt.Sprintf("%+.3f", v) },
}

func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	entryTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before serving requests.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// MeterWidget is one meter's input on the entry page.
type MeterWidget struct {
	Meter     string
	InputName string
	Last      models.LatestReading
	Seed      float64 // initial input value: the last dial value, or 0 when unknown
}

type RoomSection struct {
	Room   string
	Meters []MeterWidget
}

// MeterChange is the cosmetic delta shown after a submit.
type MeterChange struct {
	Meter    string
	Entered  float64
	Delta    float64
	HasDelta bool
}

// SubmitOutcome is shown after a submit. Fields is only set in debug mode.
type SubmitOutcome struct {
	Room    string
	OK      bool
	Outcome models.WriteOutcome
	Message string
	Changes []MeterChange
	Fields  map[string]interface{}
}

type EntryPageData struct {
	Date    string
	Time    string
	Rooms   []RoomSection
	Outcome *SubmitOutcome
	Debug   bool
}

// RenderEntryPage executes the reading entry page into w.
func RenderEntryPage(w io.Writer, data *EntryPageData) error {
	if entryTmpl == nil {
		return errors.New("entry template not loaded: call views.LoadTemplates during startup")
	}
	return entryTmpl.ExecuteTemplate(w, "entry.html", data)
}
