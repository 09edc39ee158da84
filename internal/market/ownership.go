package market

import (
	"math/rand"

	"orbitals/internal/disruption"
)

// Disruption gains per traded supply fraction, by trade kind.
const (
	buyDisruptionWeight   = 3.5
	sellDisruptionWeight  = 2.5
	dumpDisruptionWeight  = 6.0
	offerDisruptionWeight = 5.0

	sellPanicWeight = 0.35
	dumpPanicWeight = 0.7
)

// PanicApplier receives the immediate price impact of a player dump.
// Implemented by the price engine.
type PanicApplier interface {
	ApplyPanicImpact(dumpedShares, totalShares int) float64
}

// OwnershipEngine executes trade intents against one company's ledger.
// Operations clamp or refuse out-of-bounds amounts and never panic;
// callers branch on the returned ok flag.
type OwnershipEngine struct {
	c *Company
}

func NewOwnershipEngine(c *Company) *OwnershipEngine {
	return &OwnershipEngine{c: c}
}

func (e *OwnershipEngine) Company() *Company { return e.c }

// BuyPlayer moves shares from the public float to the player and reports
// the disruption gain applied.
func (e *OwnershipEngine) BuyPlayer(shares int, d *disruption.Index) (bool, float64) {
	c := e.c
	if shares <= 0 || shares > c.PublicFloat {
		return false, 0
	}
	c.PublicFloat -= shares
	c.PlayerShares += shares

	gain := float64(shares) / float64(c.TotalShares) * buyDisruptionWeight
	d.Apply(gain)
	return true, gain
}

// SellPlayer returns shares to the float in an orderly way. The panic
// chance is a signal for the caller to roll; it is never rolled here.
func (e *OwnershipEngine) SellPlayer(shares int, d *disruption.Index) (ok bool, gain, panicChance float64) {
	c := e.c
	if shares <= 0 || shares > c.PlayerShares {
		return false, 0, 0
	}
	c.PlayerShares -= shares
	c.PublicFloat += shares

	frac := float64(shares) / float64(c.TotalShares)
	gain = frac * sellDisruptionWeight
	panicChance = frac * sellPanicWeight
	d.Apply(gain)
	return true, gain, panicChance
}

// DumpPlayer is a panic sale: heavier disruption, a stronger panic
// signal, and an immediate price crash via the price engine.
func (e *OwnershipEngine) DumpPlayer(shares int, d *disruption.Index, p PanicApplier) (ok bool, gain, panicChance float64) {
	c := e.c
	if shares <= 0 || shares > c.PlayerShares {
		return false, 0, 0
	}
	c.PlayerShares -= shares
	c.PublicFloat += shares

	frac := float64(shares) / float64(c.TotalShares)
	gain = frac * dumpDisruptionWeight
	panicChance = frac * dumpPanicWeight
	d.Apply(gain)
	p.ApplyPanicImpact(shares, c.TotalShares)
	return true, gain, panicChance
}

// AIBuy moves shares from the float to an AI holder. AI trade disruption
// is treated as negligible at this layer.
func (e *OwnershipEngine) AIBuy(h Holder, shares int) bool {
	c := e.c
	if shares <= 0 || shares > c.PublicFloat {
		return false
	}
	c.PublicFloat -= shares
	c.Owners[h] += shares
	return true
}

// AISell returns an AI holder's shares to the float.
func (e *OwnershipEngine) AISell(h Holder, shares int) bool {
	c := e.c
	owned := c.Owners[h]
	if shares <= 0 || shares > owned {
		return false
	}
	if owned-shares > 0 {
		c.Owners[h] = owned - shares
	} else {
		delete(c.Owners, h)
	}
	c.PublicFloat += shares
	return true
}

// OfferPurchaseFromAI attempts a direct buyout of shares from one AI
// holder. Requested shares are clamped to the holding. Acceptance odds
// start at 35%, shrink with disruption and the target's stake, and grow
// with the premium, clamped to [2%, 60%]. A decline is an outcome, not
// an error.
func (e *OwnershipEngine) OfferPurchaseFromAI(target Holder, shares int, d *disruption.Index, premiumPct, acceptBias float64, rng *rand.Rand) (accepted bool, transferred int) {
	c := e.c
	owned := c.Owners[target]
	if shares <= 0 || owned <= 0 {
		return false, 0
	}
	if shares > owned {
		shares = owned
	}

	ownershipRatio := float64(owned) / float64(c.TotalShares)
	chance := 0.35 + acceptBias - d.Value()/200.0
	chance -= ownershipRatio * 0.9
	chance += premiumPct * 0.6
	if chance < 0.02 {
		chance = 0.02
	}
	if chance > 0.6 {
		chance = 0.6
	}
	if rng.Float64() >= chance {
		return false, 0
	}

	if owned-shares > 0 {
		c.Owners[target] = owned - shares
	} else {
		delete(c.Owners, target)
	}
	c.PlayerShares += shares
	c.UpdatePublicFloat()

	d.Apply(float64(shares) / float64(c.TotalShares) * offerDisruptionWeight)
	return true, shares
}

// TotalAIShares sums all AI-held shares.
func (e *OwnershipEngine) TotalAIShares() int {
	total := 0
	for h, n := range e.c.Owners {
		if h.Kind == KindAI {
			total += n
		}
	}
	return total
}
