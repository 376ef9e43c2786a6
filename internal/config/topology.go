package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"WaterMonitoring.influxDB/internal/models"
)

var supportedExts = []string{".yaml", ".yml", ".json", ".toml"}

// Scalars stay untyped until validation so a wrongly typed value is reported
// instead of coerced.
type rawMeter struct {
	ID     interface{} `mapstructure:"id"`
	Name   interface{} `mapstructure:"name"`
	Offset interface{} `mapstructure:"offset"`
}

type rawRoom struct {
	Name   interface{} `mapstructure:"name"`
	Meters []*rawMeter `mapstructure:"meters"`
}

type rawTopology struct {
	Rooms []*rawRoom `mapstructure:"rooms"`
}

// LoadTopology parses and validates the room/meter configuration file.
// Every failure is returned as *models.ConfigurationError.
func LoadTopology(path string) (models.Topology, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !isSupported(ext) {
		return models.Topology{}, &models.ConfigurationError{
			Source: path,
			Cause:  fmt.Sprintf("unsupported config format %q (use one of %s)", ext, strings.Join(supportedExts, ", ")),
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return models.Topology{}, &models.ConfigurationError{Source: path, Cause: "cannot parse config file", Err: err}
	}

	var raw rawTopology
	strict := func(c *mapstructure.DecoderConfig) { c.WeaklyTypedInput = false }
	if err := v.Unmarshal(&raw, strict); err != nil {
		return models.Topology{}, &models.ConfigurationError{Source: path, Cause: "config does not match the rooms schema", Err: err}
	}

	topology, cause := validateTopology(raw)
	if cause != "" {
		return models.Topology{}, &models.ConfigurationError{Source: path, Cause: cause}
	}
	return topology, nil
}

func validateTopology(raw rawTopology) (models.Topology, string) {
	if len(raw.Rooms) == 0 {
		return models.Topology{}, "rooms: required and must not be empty"
	}

	topology := models.Topology{Rooms: make([]models.Room, 0, len(raw.Rooms))}
	roomNames := make(map[string]struct{}, len(raw.Rooms))
	for i, r := range raw.Rooms {
		path := fmt.Sprintf("rooms[%d]", i)
		if r == nil {
			return models.Topology{}, path + ": must be a mapping"
		}
		roomName, cause := requiredString(r.Name)
		if cause != "" {
			return models.Topology{}, path + ".name: " + cause
		}
		if _, dup := roomNames[roomName]; dup {
			return models.Topology{}, fmt.Sprintf("%s.name: duplicate room %q", path, roomName)
		}
		roomNames[roomName] = struct{}{}

		if len(r.Meters) == 0 {
			return models.Topology{}, path + ".meters: required and must not be empty"
		}

		room := models.Room{Name: roomName, Meters: make([]models.Meter, 0, len(r.Meters))}
		ids := make(map[int]struct{}, len(r.Meters))
		names := make(map[string]struct{}, len(r.Meters))
		for j, m := range r.Meters {
			mpath := fmt.Sprintf("%s.meters[%d]", path, j)
			if m == nil {
				return models.Topology{}, mpath + ": must be a mapping"
			}
			id, cause := requiredInt(m.ID)
			if cause != "" {
				return models.Topology{}, mpath + ".id: " + cause
			}
			name, cause := requiredString(m.Name)
			if cause != "" {
				return models.Topology{}, mpath + ".name: " + cause
			}
			offset, cause := optionalFloat(m.Offset)
			if cause != "" {
				return models.Topology{}, mpath + ".offset: " + cause
			}
			if _, dup := ids[id]; dup {
				return models.Topology{}, fmt.Sprintf("%s.id: duplicate meter id %d in room %q", mpath, id, room.Name)
			}
			if _, dup := names[name]; dup {
				return models.Topology{}, fmt.Sprintf("%s.name: duplicate meter %q in room %q", mpath, name, room.Name)
			}
			ids[id] = struct{}{}
			names[name] = struct{}{}

			meter := models.Meter{ID: id, Name: name, Offset: offset}
			room.Meters = append(room.Meters, meter)
		}
		topology.Rooms = append(topology.Rooms, room)
	}
	return topology, ""
}

func requiredString(v interface{}) (string, string) {
	if v == nil {
		return "", "required"
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Sprintf("must be a string, got %T", v)
	}
	if strings.TrimSpace(s) == "" {
		return "", "required"
	}
	return s, ""
}

// requiredInt accepts integers and integral floats (JSON numbers decode as float64).
func requiredInt(v interface{}) (int, string) {
	switch n := v.(type) {
	case nil:
		return 0, "required"
	case int:
		return n, ""
	case int64:
		return int(n), ""
	case uint64:
		return int(n), ""
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Sprintf("must be an integer, got %v", n)
		}
		return int(n), ""
	default:
		return 0, fmt.Sprintf("must be an integer, got %T", v)
	}
}

func optionalFloat(v interface{}) (float64, string) {
	switch n := v.(type) {
	case nil:
		return 0, ""
	case float64:
		return n, ""
	case int:
		return float64(n), ""
	case int64:
		return float64(n), ""
	case uint64:
		return float64(n), ""
	default:
		return 0, fmt.Sprintf("must be a number, got %T", v)
	}
}

func isSupported(ext string) bool {
	for _, e := range supportedExts {
		if e == ext {
			return true
		}
	}
	return false
}
