// Package ai drives the per-company autonomous traders. Every company
// gets a fixed behavioral profile at construction; each tick the trader
// reads trend, disruption, float depth and dividend yield and decides
// whether the AI stakes buy, sell, dump or rebalance.
package ai

import (
	"math"
	"math/rand"

	"orbitals/internal/market"
)

// Archetype labels a company's trading personality.
type Archetype string

const (
	ArchetypeMaker      Archetype = "maker"
	ArchetypeScalper    Archetype = "scalper"
	ArchetypeSwing      Archetype = "swing"
	ArchetypeHolder     Archetype = "holder"
	ArchetypeSpeculator Archetype = "speculator"
)

var archetypeWeights = []struct {
	archetype Archetype
	weight    float64
}{
	{ArchetypeMaker, 0.25},
	{ArchetypeScalper, 0.22},
	{ArchetypeSwing, 0.25},
	{ArchetypeHolder, 0.13},
	{ArchetypeSpeculator, 0.15},
}

// Profile is one company's fixed trading disposition.
type Profile struct {
	Archetype    Archetype
	ActivityBias float64 // -0.05..0.15, shifts throttle and buy appetite
	SizeBias     float64 // 0.5..1.5, scales lot sizes
	HoldBias     float64 // 0..0.3, dampens selling
}

const (
	baseBuyChance  = 0.28
	baseSellChance = 0.18
	dumpChance     = 0.02
)

// Internal dividend ladder used by stakes estimating the payoff of a
// deeper position.
var yieldLadder = []struct {
	threshold float64
	rate      float64
}{
	{0.9, 0.25},
	{0.8, 0.22},
	{0.7, 0.19},
	{0.6, 0.16},
	{0.5, 0.14},
	{0.4, 0.12},
	{0.3, 0.10},
	{0.2, 0.07},
	{0.1, 0.04},
	{0.0, 0.02},
}

func ladderRate(frac float64) float64 {
	for _, step := range yieldLadder {
		if frac >= step.threshold {
			return step.rate
		}
	}
	return 0.0
}

// TradeFunc observes completed AI trades. Delta is positive for buys,
// negative for sells; panicExit marks a full liquidation on a slide.
type TradeFunc func(holder market.Holder, delta int, panicExit bool)

// Trader holds the profiles and per-company price memory.
type Trader struct {
	rng        *rand.Rand
	profiles   map[string]Profile
	lastPrices map[string]float64
}

// NewTrader rolls a profile for every listed company up front so a
// company's disposition never shifts mid-run.
func NewTrader(rng *rand.Rand, companyNames []string) *Trader {
	t := &Trader{
		rng:        rng,
		profiles:   make(map[string]Profile, len(companyNames)),
		lastPrices: make(map[string]float64),
	}
	for _, name := range companyNames {
		t.profiles[name] = t.rollProfile()
	}
	return t
}

func (t *Trader) rollProfile() Profile {
	r := t.rng.Float64()
	acc := 0.0
	chosen := ArchetypeSwing
	for _, aw := range archetypeWeights {
		acc += aw.weight
		if r <= acc {
			chosen = aw.archetype
			break
		}
	}
	return Profile{
		Archetype:    chosen,
		ActivityBias: -0.05 + 0.20*t.rng.Float64(),
		SizeBias:     0.5 + 1.0*t.rng.Float64(),
		HoldBias:     0.3 * t.rng.Float64(),
	}
}

// ProfileFor returns the company's profile, rolling one lazily for
// companies that joined after construction (bankruptcy respawns).
func (t *Trader) ProfileFor(name string) Profile {
	if p, ok := t.profiles[name]; ok {
		return p
	}
	p := t.rollProfile()
	t.profiles[name] = p
	return p
}

func (t *Trader) priceNudge(c *market.Company, shares int, direction float64) {
	frac := float64(shares) / math.Max(1, float64(c.TotalShares))
	impact := frac * 0.2
	c.Price = market.Round2(math.Max(market.PriceFloor, c.Price*(1+direction*impact)))
}

// Tick runs one trading step over every AI stake in the company.
// assetIncome is the company treasury's income this tick, feeding the
// yield signal. onTrade may be nil.
func (t *Trader) Tick(c *market.Company, owners *market.OwnershipEngine, disruptionValue, assetIncome float64, onTrade TradeFunc) {
	holders := c.AIHolders()
	if len(holders) == 0 {
		return
	}

	profile := t.ProfileFor(c.Name)

	throttle := 0.12 - profile.ActivityBias
	if t.rng.Float64() > math.Max(0.02, throttle) {
		return
	}

	trendBias := c.TrendBias()
	prevPrice, seen := t.lastPrices[c.Name]
	if !seen {
		prevPrice = c.Price
	}
	priceChange := (c.Price - prevPrice) / math.Max(1.0, prevPrice)
	t.lastPrices[c.Name] = c.Price

	disruptionPenalty := math.Min(1.0, disruptionValue/150.0)
	floatFactor := math.Min(1.0, float64(c.PublicFloat)/math.Max(1, float64(c.TotalShares)))

	perShareIncome := assetIncome / math.Max(1, float64(c.TotalShares))
	yieldEst := perShareIncome / math.Max(0.01, c.Price)

	for _, h := range holders {
		held := c.HolderShares(h)
		if held <= 0 {
			continue
		}
		if t.tryBuy(c, owners, h, held, profile, trendBias, disruptionPenalty, floatFactor, yieldEst, assetIncome, onTrade) {
			continue
		}
		if t.tryDump(c, owners, h, held, profile, trendBias, priceChange, onTrade) {
			continue
		}
		if profile.Archetype == ArchetypeMaker && t.makerRebalance(c, owners, h, held) {
			continue
		}
		t.trySell(c, owners, h, held, profile, trendBias, priceChange, disruptionPenalty, floatFactor, yieldEst, onTrade)
	}
}

func (t *Trader) tryBuy(c *market.Company, owners *market.OwnershipEngine, h market.Holder, held int, profile Profile, trendBias, disruptionPenalty, floatFactor, yieldEst, assetIncome float64, onTrade TradeFunc) bool {
	floatBias := floatFactor * 0.35

	probeShares := int(float64(c.TotalShares) * 0.01)
	if probeShares < 1 {
		probeShares = 1
	}
	nowRate := ladderRate(float64(held) / math.Max(1, float64(c.TotalShares)))
	nextRate := ladderRate(float64(held+probeShares) / math.Max(1, float64(c.TotalShares)))
	divGain := (nextRate - nowRate) * assetIncome
	incomeBias := math.Min(0.18, yieldEst*6+(divGain/math.Max(1.0, float64(probeShares)*c.Price))*0.3)

	threshold := baseBuyChance + trendBias*0.35 - disruptionPenalty*0.25 + profile.ActivityBias + floatBias + incomeBias
	threshold = math.Max(0.05, math.Min(0.45, threshold))

	if t.rng.Float64() >= threshold || c.PublicFloat <= 0 {
		return false
	}

	maxBuy := int(float64(c.TotalShares) * 0.08 * profile.SizeBias)
	if maxBuy < 1 {
		maxBuy = 1
	}
	shares := 1 + t.rng.Intn(maxBuy)
	if shares > c.PublicFloat {
		shares = c.PublicFloat
	}
	if yieldEst > 0.01 {
		shares += int(float64(c.TotalShares) * 0.01)
		if shares > c.PublicFloat {
			shares = c.PublicFloat
		}
	}
	if !owners.AIBuy(h, shares) {
		return false
	}
	t.priceNudge(c, shares, +1)
	if onTrade != nil {
		onTrade(h, shares, false)
	}
	return true
}

func (t *Trader) tryDump(c *market.Company, owners *market.OwnershipEngine, h market.Holder, held int, profile Profile, trendBias, priceChange float64, onTrade TradeFunc) bool {
	if t.rng.Float64() >= dumpChance*(1+trendBias*-10) {
		return false
	}

	amount := held
	fullExit := true
	if trendBias >= -0.01 && priceChange >= -0.02 {
		amount = int(float64(held) * 0.15 * profile.SizeBias)
		if amount < 1 {
			amount = 1
		}
		fullExit = false
	}
	if amount > held {
		amount = held
	}
	if !owners.AISell(h, amount) {
		return false
	}
	t.priceNudge(c, amount, -1)
	if onTrade != nil {
		onTrade(h, -amount, fullExit && amount >= held)
	}
	return true
}

// makerRebalance keeps a maker's inventory between 8% and 15% of total
// shares.
func (t *Trader) makerRebalance(c *market.Company, owners *market.OwnershipEngine, h market.Holder, held int) bool {
	targetLow := float64(c.TotalShares) * 0.08
	targetHigh := float64(c.TotalShares) * 0.15

	if float64(held) < targetLow && c.PublicFloat > 0 {
		shares := int(float64(c.TotalShares) * 0.01)
		if shares < 1 {
			shares = 1
		}
		if shares > c.PublicFloat {
			shares = c.PublicFloat
		}
		if owners.AIBuy(h, shares) {
			t.priceNudge(c, shares, +1)
		}
		return true
	}
	if float64(held) > targetHigh {
		shares := int((float64(held) - targetHigh) * 0.3)
		if shares < 1 {
			shares = 1
		}
		if owners.AISell(h, shares) {
			t.priceNudge(c, shares, -1)
		}
		return true
	}
	return false
}

func (t *Trader) trySell(c *market.Company, owners *market.OwnershipEngine, h market.Holder, held int, profile Profile, trendBias, priceChange, disruptionPenalty, floatFactor, yieldEst float64, onTrade TradeFunc) {
	threshold := baseSellChance - trendBias*0.25 + disruptionPenalty*0.2 + floatFactor*0.1 - profile.HoldBias
	if priceChange > 0.03 {
		threshold += 0.12
	}
	if priceChange > 0.10 {
		threshold += 0.22
	}
	threshold -= math.Min(0.08, yieldEst*4)
	if c.PublicFloat <= 0 {
		threshold += 0.2
	}
	quickHands := profile.Archetype == ArchetypeScalper || profile.Archetype == ArchetypeSpeculator
	if quickHands && priceChange > 0.05 {
		threshold += 0.18
	}
	threshold = math.Max(0.05, math.Min(0.60, threshold))

	if t.rng.Float64() >= threshold {
		return
	}

	minHold := int(float64(c.TotalShares) * 0.03)
	if minHold < 5 {
		minHold = 5
	}
	if held <= minHold {
		return
	}

	var shares int
	if priceChange > 0.1 && t.rng.Float64() < 0.4 {
		shares = held / 2
		if shares < 1 {
			shares = 1
		}
	} else {
		maxSell := int(float64(held-minHold) * 0.5 * profile.SizeBias)
		if maxSell < 1 {
			maxSell = 1
		}
		shares = 1 + t.rng.Intn(maxSell)
	}
	if quickHands && priceChange > 0.05 {
		shares = int(float64(held) * (0.15 + 0.20*t.rng.Float64()))
		if shares < 1 {
			shares = 1
		}
	}
	if !owners.AISell(h, shares) {
		return
	}
	t.priceNudge(c, shares, -1)
	if onTrade != nil {
		onTrade(h, -shares, false)
	}
}
