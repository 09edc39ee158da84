// Package price evolves one company's price per tick and drives its
// candle rollovers. Movement combines a volatility random walk, demand
// bias, mean reversion toward the last daily close, reputation scaling,
// decaying panic pressure, disruption friction and ownership-driven
// volatility, in that order.
package price

import (
	"fmt"
	"math"
	"math/rand"

	"orbitals/internal/market"
)

const (
	TicksPerDayNormal = 64
	TicksPerDayFast   = 32
	DaysPerQuarter    = 90
)

// Engine is the per-company price movement system.
type Engine struct {
	c   *market.Company
	rng *rand.Rand

	GlobalTick    int
	GlobalDay     int
	GlobalQuarter int

	fastMode      bool
	panicPressure float64

	// Externally-set bias inputs, refreshed by the orchestrator.
	disruptionFactor  float64 // 0..1
	ratingFactor      float64 // -0.5..+0.5
	assetBoost        float64
	sectorBoost       float64
	ownershipVolBoost float64
	demandBias        float64 // -1..+1
}

func NewEngine(c *market.Company, rng *rand.Rand) *Engine {
	return &Engine{
		c:             c,
		rng:           rng,
		GlobalDay:     1,
		GlobalQuarter: 1,
	}
}

func (e *Engine) Company() *market.Company { return e.c }

// TicksPerDay reports the current day length.
func (e *Engine) TicksPerDay() int {
	if e.fastMode {
		return TicksPerDayFast
	}
	return TicksPerDayNormal
}

// Tick moves the price, folds the forming candle, advances counters and
// rolls the day and quarter when boundaries are crossed.
func (e *Engine) Tick() {
	e.applyPriceMovement()
	e.c.TickPrice()

	e.GlobalTick++
	e.c.TicksToday++

	if e.c.TicksToday >= e.TicksPerDay() {
		e.closeDay()
	}
}

func (e *Engine) applyPriceMovement() {
	c := e.c
	baseVol := c.Volatility * (1.0 + e.sectorBoost)

	delta := uniform(e.rng, -baseVol, baseVol)
	delta += baseVol * e.demandBias * 0.5
	if delta == 0 {
		delta = uniform(e.rng, -baseVol*0.1, baseVol*0.1)
	}

	longTermMean := c.LastDailyClose()
	driftStrength := 0.015 + (e.assetBoost+e.sectorBoost)*0.01 + e.ratingFactor*0.02
	drift := (longTermMean - c.Price) * driftStrength

	// Positive reputation accelerates the move, negative dampens it.
	delta *= 1.0 + e.ratingFactor*0.4
	drift *= 1.0 + e.ratingFactor*0.4

	if e.panicPressure > 0 {
		delta -= e.panicPressure
		e.panicPressure *= 0.90
	}

	if e.disruptionFactor > 0 {
		delta *= math.Max(0.05, 1.0-e.disruptionFactor*1.2)
	}
	delta *= 1.0 + e.ownershipVolBoost

	newPrice := c.Price + delta + drift
	if math.Abs(newPrice-c.Price) < 0.01 {
		if e.rng.Float64() > 0.5 {
			newPrice += 0.02
		} else {
			newPrice -= 0.02
		}
	}
	c.Price = market.Round2(math.Max(market.PriceFloor, newPrice))
}

func (e *Engine) closeDay() {
	e.c.FinalizeDailyCandle()
	e.GlobalDay++
	// Daily disruption friction resets; the orchestrator pushes a fresh
	// value next tick.
	e.disruptionFactor = 0

	if e.GlobalDay > 1 && (e.GlobalDay-1)%DaysPerQuarter == 0 {
		e.closeQuarter()
	}
}

func (e *Engine) closeQuarter() {
	e.c.FinalizeQuarterlyCandle(e.rng)
	e.GlobalQuarter++
}

// ApplyPanicImpact crashes the price immediately after a player dump and
// leaves lingering pressure that dissipates over following ticks. The
// crash strength is returned.
func (e *Engine) ApplyPanicImpact(dumpedShares, totalShares int) float64 {
	if totalShares <= 0 {
		return 0
	}
	frac := float64(dumpedShares) / float64(totalShares)
	crash := frac * 0.30

	e.c.Price = market.Round2(math.Max(market.PriceFloor, e.c.Price*(1-crash)))
	e.panicPressure += crash * 0.5
	return crash
}

// PanicPressure reports the remaining dump drag.
func (e *Engine) PanicPressure() float64 { return e.panicPressure }

// ClockDisplay maps the intraday tick fraction onto a 24-hour clock and
// a quarter/day label, e.g. ("11:15PM UTC", "Q3 Day 12").
func (e *Engine) ClockDisplay() (string, string) {
	dayFraction := float64(e.c.TicksToday) / float64(e.TicksPerDay())
	totalMinutes := int(dayFraction * 24 * 60)

	hour := (totalMinutes / 60) % 24
	minute := totalMinutes % 60

	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	return fmt.Sprintf("%d:%02d%s UTC", hour12, minute, ampm),
		fmt.Sprintf("Q%d Day %d", e.GlobalQuarter, e.GlobalDay)
}

func (e *Engine) SetFastMode(enabled bool) { e.fastMode = enabled }

// ApplyDisruptionFriction sets the 0..1 friction input derived from the
// global disruption index.
func (e *Engine) ApplyDisruptionFriction(pct float64) { e.disruptionFactor = pct }

// SetRatingFactor maps a 0-100 reputation score to the -0.5..+0.5 drift
// factor.
func (e *Engine) SetRatingFactor(rating float64) {
	f := (rating - 50.0) / 100.0
	if f < -0.5 {
		f = -0.5
	}
	if f > 0.5 {
		f = 0.5
	}
	e.ratingFactor = f
}

func (e *Engine) SetAssetBoost(boost float64)        { e.assetBoost = boost }
func (e *Engine) SetSectorBoost(boost float64)       { e.sectorBoost = boost }
func (e *Engine) SetOwnershipVolBoost(boost float64) { e.ownershipVolBoost = boost }

// SetDemandBias clamps the smoothed demand signal to [-1, 1].
func (e *Engine) SetDemandBias(bias float64) {
	if bias < -1 {
		bias = -1
	}
	if bias > 1 {
		bias = 1
	}
	e.demandBias = bias
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
