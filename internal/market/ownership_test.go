package market

import (
	"math/rand"
	"testing"

	"orbitals/internal/disruption"
)

type panicRecorder struct {
	dumped, total int
	calls         int
}

func (p *panicRecorder) ApplyPanicImpact(dumpedShares, totalShares int) float64 {
	p.dumped = dumpedShares
	p.total = totalShares
	p.calls++
	return float64(dumpedShares) / float64(totalShares) * 0.30
}

func TestBuyPlayerDisruptionGain(t *testing.T) {
	c := testCompany(t)
	c.PlayerShares = 0
	c.Owners = map[Holder]int{AI("CEO"): c.TotalShares - 500}
	c.UpdatePublicFloat()
	if c.PublicFloat != 500 {
		t.Fatalf("float = %d, want 500", c.PublicFloat)
	}

	d := disruption.NewIndex()
	eng := NewOwnershipEngine(c)
	ok, gain := eng.BuyPlayer(500, d)
	if !ok {
		t.Fatalf("buy should succeed")
	}
	if gain < 0.1749 || gain > 0.1751 {
		t.Fatalf("gain = %v, want 0.175", gain)
	}
	if d.Value() != gain {
		t.Fatalf("disruption = %v, want %v", d.Value(), gain)
	}
	if c.PublicFloat != 0 || c.PlayerShares != 500 {
		t.Fatalf("ledger = float %d player %d, want 0/500", c.PublicFloat, c.PlayerShares)
	}
	checkConservation(t, c)
}

func TestBuyPlayerRefusesOversizedOrder(t *testing.T) {
	c := testCompany(t)
	c.PlayerShares = 0
	c.Owners = map[Holder]int{AI("CEO"): c.TotalShares - 100}
	c.UpdatePublicFloat()

	d := disruption.NewIndex()
	eng := NewOwnershipEngine(c)
	if ok, _ := eng.BuyPlayer(101, d); ok {
		t.Fatalf("buy above float must be refused")
	}
	if ok, _ := eng.BuyPlayer(0, d); ok {
		t.Fatalf("zero buy must be refused")
	}
	if d.Value() != 0 {
		t.Fatalf("refused trade must not move disruption")
	}
	checkConservation(t, c)
}

func TestSellPlayerSignalsPanicChance(t *testing.T) {
	c := testCompany(t)
	c.PlayerShares = 2000
	c.UpdatePublicFloat()

	d := disruption.NewIndex()
	eng := NewOwnershipEngine(c)
	ok, gain, panicChance := eng.SellPlayer(1000, d)
	if !ok {
		t.Fatalf("sell should succeed")
	}
	wantGain := 0.1 * 2.5
	if gain < wantGain-1e-9 || gain > wantGain+1e-9 {
		t.Fatalf("gain = %v, want %v", gain, wantGain)
	}
	wantPanic := 0.1 * 0.35
	if panicChance < wantPanic-1e-9 || panicChance > wantPanic+1e-9 {
		t.Fatalf("panic chance = %v, want %v", panicChance, wantPanic)
	}
	checkConservation(t, c)
}

func TestDumpPlayerAppliesPanicImpact(t *testing.T) {
	c := testCompany(t)
	c.PlayerShares = 1000
	c.UpdatePublicFloat()

	d := disruption.NewIndex()
	rec := &panicRecorder{}
	eng := NewOwnershipEngine(c)
	ok, gain, panicChance := eng.DumpPlayer(1000, d, rec)
	if !ok {
		t.Fatalf("dump should succeed")
	}
	if rec.calls != 1 || rec.dumped != 1000 || rec.total != c.TotalShares {
		t.Fatalf("panic impact not forwarded: %+v", rec)
	}
	wantGain := 0.1 * 6.0
	if gain < wantGain-1e-9 || gain > wantGain+1e-9 {
		t.Fatalf("gain = %v, want %v", gain, wantGain)
	}
	wantPanic := 0.1 * 0.7
	if panicChance < wantPanic-1e-9 || panicChance > wantPanic+1e-9 {
		t.Fatalf("panic chance = %v, want %v", panicChance, wantPanic)
	}
	checkConservation(t, c)
}

func TestAIBuySellBounds(t *testing.T) {
	c := testCompany(t)
	c.UpdatePublicFloat()
	h := AI("Nova Securities")

	eng := NewOwnershipEngine(c)
	if !eng.AIBuy(h, 100) {
		t.Fatalf("ai buy should succeed")
	}
	if eng.AIBuy(h, c.PublicFloat+1) {
		t.Fatalf("ai buy above float must fail")
	}
	if eng.AISell(h, 101) {
		t.Fatalf("ai sell above holding must fail")
	}
	if !eng.AISell(h, 100) {
		t.Fatalf("ai sell should succeed")
	}
	if _, ok := c.Owners[h]; ok {
		t.Fatalf("emptied holder must be removed")
	}
	checkConservation(t, c)
}

func TestOfferAcceptanceBounds(t *testing.T) {
	c := testCompany(t)
	target := AI("Hyperion Holdings")
	c.Owners[target] = 2000
	c.UpdatePublicFloat()

	d := disruption.NewIndex()
	eng := NewOwnershipEngine(c)

	// Force acceptance with an rng that always rolls low.
	rng := rand.New(rand.NewSource(7))
	accepted := false
	transferred := 0
	for i := 0; i < 200 && !accepted; i++ {
		accepted, transferred = eng.OfferPurchaseFromAI(target, 5000, d, 0.5, 0.0, rng)
	}
	if !accepted {
		t.Fatalf("offer never accepted across 200 rolls")
	}
	if transferred != 2000 {
		t.Fatalf("transferred = %d, want clamp to 2000", transferred)
	}
	if c.PlayerShares != 2000 {
		t.Fatalf("player shares = %d, want 2000", c.PlayerShares)
	}
	if _, ok := c.Owners[target]; ok {
		t.Fatalf("target should be removed after full transfer")
	}
	checkConservation(t, c)
}

func TestOfferAgainstMissingHolder(t *testing.T) {
	c := testCompany(t)
	c.UpdatePublicFloat()
	d := disruption.NewIndex()
	eng := NewOwnershipEngine(c)
	rng := rand.New(rand.NewSource(1))
	if accepted, _ := eng.OfferPurchaseFromAI(AI("Nobody"), 10, d, 0.2, 0, rng); accepted {
		t.Fatalf("offer to holder with no shares must not transfer")
	}
}
