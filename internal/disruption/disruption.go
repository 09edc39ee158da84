// Package disruption tracks the global disruption index: a [0, 300]
// friction scalar raised by trade activity and decayed per tick plus a
// deeper cut once per simulated day. It feeds price friction, panic
// sensitivity and the status display.
package disruption

const (
	MaxValue      = 300.0
	TickDecayRate = 0.15
	DailyDecay    = 0.92
)

// State bands for display.
const (
	StateCalm     = "calm"
	StateElevated = "elevated"
	StateCritical = "critical"
)

type Index struct {
	value float64
}

func NewIndex() *Index {
	return &Index{}
}

func (d *Index) Value() float64 { return d.value }

// Apply adds trade-driven disruption, clamped to the cap.
func (d *Index) Apply(amount float64) {
	d.value += amount
	if d.value > MaxValue {
		d.value = MaxValue
	}
}

// Reduce lowers the index directly (PR campaigns, fortify), floored at 0.
func (d *Index) Reduce(amount float64) {
	d.value -= amount
	if d.value < 0 {
		d.value = 0
	}
}

// DecayTick applies the fixed per-tick decay.
func (d *Index) DecayTick() {
	if d.value <= 0 {
		return
	}
	d.value -= TickDecayRate
	if d.value < 0 {
		d.value = 0
	}
}

// DecayDaily applies the once-per-day multiplicative decay.
func (d *Index) DecayDaily() {
	d.value *= DailyDecay
	if d.value < 0 {
		d.value = 0
	}
}

// TradePenaltyMultiplier scales buy costs: 1x at 0, 2x at 100, 3x at 200.
func (d *Index) TradePenaltyMultiplier() float64 {
	return 1.0 + d.value/100
}

// PanicSensitivity scales dump panic odds: 1x at 0, 1.5x at 100.
func (d *Index) PanicSensitivity() float64 {
	return 1.0 + d.value/200
}

func (d *Index) State() string {
	switch {
	case d.value < 40:
		return StateCalm
	case d.value < 100:
		return StateElevated
	default:
		return StateCritical
	}
}
