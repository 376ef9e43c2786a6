package models

// Meter is a single sub-measurement point of a room, e.g. "hot" or "cold".
type Meter struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Offset float64 `json:"offset"` // Calibration constant added to dial values before storing
}

// Room groups meters and maps 1:1 to a measurement in the store.
type Room struct {
	Name   string  `json:"name"`
	Meters []Meter `json:"meters"`
}

// Offsets returns the calibration offset of every meter in the room keyed by meter name.
func (r Room) Offsets() map[string]float64 {
	offsets := make(map[string]float64, len(r.Meters))
	for _, m := range r.Meters {
		offsets[m.Name] = m.Offset
	}
	return offsets
}

// Meter looks up a meter of the room by name.
func (r Room) Meter(name string) (Meter, bool) {
	for _, m := range r.Meters {
		if m.Name == name {
			return m, true
		}
	}
	return Meter{}, false
}

// Topology is the validated set of rooms loaded at startup. It is never mutated afterwards.
type Topology struct {
	Rooms []Room `json:"rooms"`
}

// Room looks up a room by name.
func (t Topology) Room(name string) (Room, bool) {
	for _, r := range t.Rooms {
		if r.Name == name {
			return r, true
		}
	}
	return Room{}, false
}
