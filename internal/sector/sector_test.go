package sector

import (
	"math/rand"
	"testing"
)

func TestMaybeSpawnRate(t *testing.T) {
	e := NewEventEngine([]string{"Terraforming", "AI Research"}, rand.New(rand.NewSource(1)))
	spawned := 0
	for day := 1; day <= 2000; day++ {
		if _, ok := e.MaybeSpawn(day); ok {
			spawned++
		}
	}
	if spawned < 140 || spawned > 260 {
		t.Fatalf("spawned %d events over 2000 days, want roughly 10%%", spawned)
	}
}

func TestSpawnedEventShape(t *testing.T) {
	e := NewEventEngine([]string{"Mining"}, rand.New(rand.NewSource(2)))
	for day := 1; day <= 500; day++ {
		ev, ok := e.MaybeSpawn(day)
		if !ok {
			continue
		}
		if ev.Sector != "Mining" {
			t.Fatalf("sector = %q", ev.Sector)
		}
		if ev.DurationDays < 1 || ev.DurationDays > 3 {
			t.Fatalf("duration = %d, want 1-3", ev.DurationDays)
		}
		switch ev.Name {
		case "Sector Tailwind":
			if ev.DriftDelta != 0.02 || ev.VolDelta != -0.1 {
				t.Fatalf("tailwind deltas = %v/%v", ev.DriftDelta, ev.VolDelta)
			}
		case "Sector Shock":
			if ev.DriftDelta != -0.02 || ev.VolDelta != 0.15 {
				t.Fatalf("shock deltas = %v/%v", ev.DriftDelta, ev.VolDelta)
			}
		default:
			t.Fatalf("unknown event %q", ev.Name)
		}
	}
}

func TestModifiersSumAndExpire(t *testing.T) {
	e := NewEventEngine([]string{"Mining"}, rand.New(rand.NewSource(3)))
	e.events = []Event{
		{Name: "Sector Tailwind", Sector: "Mining", DriftDelta: 0.02, VolDelta: -0.1, StartDay: 1, DurationDays: 3},
		{Name: "Sector Shock", Sector: "Mining", DriftDelta: -0.02, VolDelta: 0.15, StartDay: 2, DurationDays: 1},
		{Name: "Sector Shock", Sector: "Defense", DriftDelta: -0.02, VolDelta: 0.15, StartDay: 1, DurationDays: 3},
	}

	drift, vol := e.Modifiers("Mining", 2)
	if drift != 0.0 || vol != 0.05 {
		t.Fatalf("day 2 modifiers = %v/%v, want 0/0.05", drift, vol)
	}

	// Day 3: the one-day shock has expired, the tailwind still runs.
	drift, vol = e.Modifiers("Mining", 3)
	if drift != 0.02 || vol != -0.1 {
		t.Fatalf("day 3 modifiers = %v/%v, want tailwind only", drift, vol)
	}
	if got := len(e.Active(3)); got != 2 {
		t.Fatalf("active events = %d, want 2", got)
	}

	drift, vol = e.Modifiers("Mining", 10)
	if drift != 0 || vol != 0 {
		t.Fatalf("expired modifiers = %v/%v, want zero", drift, vol)
	}
}

func TestDaysLeft(t *testing.T) {
	ev := Event{StartDay: 5, DurationDays: 3}
	if got := ev.DaysLeft(5); got != 3 {
		t.Fatalf("days left = %d, want 3", got)
	}
	if got := ev.DaysLeft(8); got != 0 {
		t.Fatalf("days left = %d, want 0", got)
	}
	if ev.Active(8) {
		t.Fatalf("event past its window must be inactive")
	}
}
