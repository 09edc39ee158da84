// Package sector spawns timed sector-wide drift/volatility modifiers.
package sector

import "math/rand"

const (
	spawnChance = 0.10

	tailwindDrift = 0.02
	tailwindVol   = -0.1
	shockDrift    = -0.02
	shockVol      = 0.15
)

// Event is one active sector modifier.
type Event struct {
	Name         string  `json:"name"`
	Sector       string  `json:"sector"`
	DriftDelta   float64 `json:"drift"`
	VolDelta     float64 `json:"vol"`
	StartDay     int     `json:"start_day"`
	DurationDays int     `json:"duration_days"`
}

// Active reports whether the event still applies on the given day.
func (e Event) Active(day int) bool {
	return day < e.StartDay+e.DurationDays
}

// DaysLeft reports the remaining days on the given day.
func (e Event) DaysLeft(day int) int {
	left := e.StartDay + e.DurationDays - day
	if left < 0 {
		return 0
	}
	return left
}

// EventEngine rolls for new events once per simulated day and answers
// modifier queries per sector.
type EventEngine struct {
	sectors []string
	rng     *rand.Rand
	events  []Event
}

func NewEventEngine(sectors []string, rng *rand.Rand) *EventEngine {
	return &EventEngine{sectors: sectors, rng: rng}
}

// MaybeSpawn rolls the 10% daily chance of a new tailwind or shock in a
// random sector lasting 1-3 days.
func (e *EventEngine) MaybeSpawn(day int) (Event, bool) {
	if len(e.sectors) == 0 || e.rng.Float64() > spawnChance {
		return Event{}, false
	}
	ev := Event{
		Sector:       e.sectors[e.rng.Intn(len(e.sectors))],
		StartDay:     day,
		DurationDays: 1 + e.rng.Intn(3),
	}
	if e.rng.Float64() < 0.5 {
		ev.Name = "Sector Tailwind"
		ev.DriftDelta = tailwindDrift
		ev.VolDelta = tailwindVol
	} else {
		ev.Name = "Sector Shock"
		ev.DriftDelta = shockDrift
		ev.VolDelta = shockVol
	}
	e.events = append(e.events, ev)
	return ev, true
}

// Modifiers prunes expired events and sums the drift/vol deltas active
// for the sector on the given day.
func (e *EventEngine) Modifiers(sector string, day int) (drift, vol float64) {
	e.prune(day)
	for _, ev := range e.events {
		if ev.Sector == sector {
			drift += ev.DriftDelta
			vol += ev.VolDelta
		}
	}
	return drift, vol
}

// Active lists the events still running on the given day.
func (e *EventEngine) Active(day int) []Event {
	e.prune(day)
	return append([]Event(nil), e.events...)
}

func (e *EventEngine) prune(day int) {
	keep := e.events[:0]
	for _, ev := range e.events {
		if ev.Active(day) {
			keep = append(keep, ev)
		}
	}
	e.events = keep
}
