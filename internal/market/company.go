package market

import (
	"math"
	"math/rand"
	"sort"
)

const (
	// DefaultTotalShares is the fixed share supply per company.
	DefaultTotalShares = 10000

	// CandleHistoryCap bounds both the daily and quarterly rings.
	CandleHistoryCap = 30

	// PriceFloor is the hard minimum any price can reach.
	PriceFloor = 0.01
)

// Candle is a single OHLC bar.
type Candle struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Company is the per-company market entity: price, ownership ledger and
// candle history. Price movement lives in the price engine; trade
// execution lives in the ownership engine. The conservation invariant
// holds at all times:
//
//	PlayerShares + sum(Owners) + PublicFloat == TotalShares
type Company struct {
	Name     string
	Sector   string
	IsPlayer bool

	Price       float64
	Volatility  float64
	TotalShares int

	PlayerShares int
	Owners       map[Holder]int
	PublicFloat  int

	TakenOver bool

	DailyCandles     []Candle
	QuarterlyCandles []Candle

	// Forming intraday candle.
	CurrentOpen  float64
	CurrentHigh  float64
	CurrentLow   float64
	CurrentClose float64

	TicksToday int
}

// NewCompany creates a company with the full supply in the public float
// and seeded candle history.
func NewCompany(name, sector string, basePrice, volatility float64, rng *rand.Rand) *Company {
	c := &Company{
		Name:        name,
		Sector:      sector,
		Price:       basePrice,
		Volatility:  volatility,
		TotalShares: DefaultTotalShares,
		Owners:      make(map[Holder]int),
		PublicFloat: DefaultTotalShares,
	}
	c.GenerateInitialHistory(rng)
	return c
}

// GenerateInitialHistory seeds 30 daily and 30 quarterly candles around
// the current price so charts have warm-up data, then resets the forming
// candle. Also used by bankruptcy respawn.
func (c *Company) GenerateInitialHistory(rng *rand.Rand) {
	c.DailyCandles = c.DailyCandles[:0]
	c.QuarterlyCandles = c.QuarterlyCandles[:0]
	for i := 0; i < CandleHistoryCap; i++ {
		open := c.Price
		close := open + uniform(rng, -c.Volatility, c.Volatility)
		high := math.Max(open, close) + uniform(rng, 0, c.Volatility)
		low := math.Min(open, close) - uniform(rng, 0, c.Volatility)
		c.DailyCandles = append(c.DailyCandles, Candle{
			Open: round2(open), High: round2(high), Low: round2(low), Close: round2(close),
		})

		qClose := close + uniform(rng, -c.Volatility*2, c.Volatility*2)
		qHigh := math.Max(open, qClose) + uniform(rng, 0, c.Volatility*1.5)
		qLow := math.Min(open, qClose) - uniform(rng, 0, c.Volatility*1.5)
		c.QuarterlyCandles = append(c.QuarterlyCandles, Candle{
			Open: round2(open), High: round2(qHigh), Low: round2(qLow), Close: round2(qClose),
		})
	}
	c.ResetFormingCandle()
	c.TicksToday = 0
}

// ResetFormingCandle opens a fresh intraday candle at the current price.
func (c *Company) ResetFormingCandle() {
	c.CurrentOpen = c.Price
	c.CurrentHigh = c.Price
	c.CurrentLow = c.Price
	c.CurrentClose = c.Price
}

// TickPrice folds the already-updated price into the forming candle.
func (c *Company) TickPrice() {
	c.CurrentClose = c.Price
	if c.Price > c.CurrentHigh {
		c.CurrentHigh = c.Price
	}
	if c.Price < c.CurrentLow {
		c.CurrentLow = c.Price
	}
}

// FinalizeDailyCandle closes the forming candle into the daily ring and
// opens a new one at the current price.
func (c *Company) FinalizeDailyCandle() {
	c.DailyCandles = appendCapped(c.DailyCandles, Candle{
		Open:  round2(c.CurrentOpen),
		High:  round2(c.CurrentHigh),
		Low:   round2(c.CurrentLow),
		Close: round2(c.CurrentClose),
	})
	c.ResetFormingCandle()
	c.TicksToday = 0
}

// FinalizeQuarterlyCandle derives a quarterly bar from the prior
// quarterly close and the latest daily close plus bounded noise.
func (c *Company) FinalizeQuarterlyCandle(rng *rand.Rand) {
	open := c.Price
	if n := len(c.QuarterlyCandles); n > 0 {
		open = c.QuarterlyCandles[n-1].Close
	}
	close := c.Price
	if n := len(c.DailyCandles); n > 0 {
		close = c.DailyCandles[n-1].Close
	}
	high := math.Max(open, close) + uniform(rng, 0, c.Volatility)
	low := math.Min(open, close) - uniform(rng, 0, c.Volatility)

	c.QuarterlyCandles = appendCapped(c.QuarterlyCandles, Candle{
		Open: round2(open), High: round2(high), Low: round2(low), Close: round2(close),
	})
}

// UpdatePublicFloat recomputes the float from the ledger.
func (c *Company) UpdatePublicFloat() {
	owned := c.PlayerShares
	for _, n := range c.Owners {
		owned += n
	}
	c.PublicFloat = c.TotalShares - owned
	if c.PublicFloat < 0 {
		c.PublicFloat = 0
	}
}

// HolderShares reports the ledger balance for a holder.
func (c *Company) HolderShares(h Holder) int {
	if h.Kind == KindPlayer {
		return c.PlayerShares
	}
	return c.Owners[h]
}

// Credit adds shares to a holder without touching the float. Callers are
// responsible for balancing the ledger.
func (c *Company) Credit(h Holder, shares int) {
	if shares <= 0 {
		return
	}
	if h.Kind == KindPlayer {
		c.PlayerShares += shares
		return
	}
	c.Owners[h] += shares
}

// Debit removes up to shares from a holder, clamping to the balance, and
// returns the amount actually removed. Zero-balance map entries are
// deleted, never kept.
func (c *Company) Debit(h Holder, shares int) int {
	if shares <= 0 {
		return 0
	}
	if h.Kind == KindPlayer {
		if shares > c.PlayerShares {
			shares = c.PlayerShares
		}
		c.PlayerShares -= shares
		return shares
	}
	owned := c.Owners[h]
	if shares > owned {
		shares = owned
	}
	if owned-shares > 0 {
		c.Owners[h] = owned - shares
	} else {
		delete(c.Owners, h)
	}
	return shares
}

// BuyShares moves up to amount shares from the public float to a holder,
// returning the amount transferred. Excess is silently truncated.
func (c *Company) BuyShares(h Holder, amount int) int {
	if amount > c.PublicFloat {
		amount = c.PublicFloat
	}
	if amount <= 0 {
		return 0
	}
	c.Credit(h, amount)
	c.PublicFloat -= amount
	return amount
}

// SellShares moves up to amount shares from a holder back to the public
// float, returning the amount transferred.
func (c *Company) SellShares(h Holder, amount int) int {
	amount = c.Debit(h, amount)
	c.PublicFloat += amount
	return amount
}

// AIHolders lists the named AI holders in deterministic order.
func (c *Company) AIHolders() []Holder {
	out := make([]Holder, 0, len(c.Owners))
	for h := range c.Owners {
		if h.Kind == KindAI {
			out = append(out, h)
		}
	}
	sortHolders(out)
	return out
}

// OwnedShares sums player plus non-escrow holder shares; escrowed shares
// are in flight back to the float and do not count as held.
func (c *Company) OwnedShares() int {
	owned := c.PlayerShares
	for h, n := range c.Owners {
		if h.Kind == KindEscrow {
			continue
		}
		owned += n
	}
	return owned
}

// LastDailyClose returns the latest finalized daily close, falling back
// to the current price when no history exists.
func (c *Company) LastDailyClose() float64 {
	if n := len(c.DailyCandles); n > 0 {
		return c.DailyCandles[n-1].Close
	}
	return c.Price
}

// TrendBias is the relative change between the last two finalized daily
// closes, or zero with fewer than two.
func (c *Company) TrendBias() float64 {
	n := len(c.DailyCandles)
	if n < 2 {
		return 0
	}
	prev := c.DailyCandles[n-2].Close
	return (c.DailyCandles[n-1].Close - prev) / math.Max(1.0, prev)
}

func appendCapped(ring []Candle, candle Candle) []Candle {
	ring = append(ring, candle)
	if len(ring) > CandleHistoryCap {
		ring = ring[1:]
	}
	return ring
}

func sortHolders(hs []Holder) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Name < hs[j].Name })
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Round2 rounds a price or money amount to cents.
func Round2(v float64) float64 { return round2(v) }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
