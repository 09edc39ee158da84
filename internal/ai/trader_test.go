package ai

import (
	"math"
	"math/rand"
	"testing"

	"orbitals/internal/market"
)

func newTestCompany(seed int64) (*market.Company, *market.OwnershipEngine, *rand.Rand) {
	rng := rand.New(rand.NewSource(seed))
	c := market.NewCompany("Zenith Consolidated", "Mining", 40, 1.2, rng)
	return c, market.NewOwnershipEngine(c), rng
}

func TestProfilesFixedAtConstruction(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := NewTrader(rng, []string{"Zenith Consolidated", "Helion Analytics"})

	p1 := tr.ProfileFor("Zenith Consolidated")
	p2 := tr.ProfileFor("Zenith Consolidated")
	if p1 != p2 {
		t.Fatalf("profile must not change between lookups: %+v vs %+v", p1, p2)
	}
	if p1.ActivityBias < -0.05 || p1.ActivityBias > 0.15 {
		t.Fatalf("activity bias %v outside -0.05..0.15", p1.ActivityBias)
	}
	if p1.SizeBias < 0.5 || p1.SizeBias > 1.5 {
		t.Fatalf("size bias %v outside 0.5..1.5", p1.SizeBias)
	}
	if p1.HoldBias < 0 || p1.HoldBias > 0.3 {
		t.Fatalf("hold bias %v outside 0..0.3", p1.HoldBias)
	}
}

func TestProfileForRollsLazily(t *testing.T) {
	tr := NewTrader(rand.New(rand.NewSource(2)), nil)
	p := tr.ProfileFor("Nebula Dynamics")
	switch p.Archetype {
	case ArchetypeMaker, ArchetypeScalper, ArchetypeSwing, ArchetypeHolder, ArchetypeSpeculator:
	default:
		t.Fatalf("unknown archetype %q", p.Archetype)
	}
}

func TestArchetypeDistribution(t *testing.T) {
	tr := NewTrader(rand.New(rand.NewSource(3)), nil)
	counts := make(map[Archetype]int)
	for i := 0; i < 5000; i++ {
		counts[tr.rollProfile().Archetype]++
	}
	for _, aw := range archetypeWeights {
		got := float64(counts[aw.archetype]) / 5000.0
		if math.Abs(got-aw.weight) > 0.04 {
			t.Fatalf("archetype %s frequency %v, want near %v", aw.archetype, got, aw.weight)
		}
	}
}

func TestTickConservesShares(t *testing.T) {
	c, owners, rng := newTestCompany(4)
	tr := NewTrader(rng, []string{c.Name})
	holder := market.AI("CEO")
	c.Owners[holder] = 3000
	c.UpdatePublicFloat()

	for i := 0; i < 2000; i++ {
		tr.Tick(c, owners, 0, 0, nil)

		total := c.PlayerShares + c.PublicFloat
		for _, n := range c.Owners {
			total += n
		}
		if total != c.TotalShares {
			t.Fatalf("share conservation broken on tick %d: %d != %d", i, total, c.TotalShares)
		}
		if c.PublicFloat < 0 {
			t.Fatalf("float went negative on tick %d", i)
		}
	}
}

func TestTickReportsTrades(t *testing.T) {
	c, owners, rng := newTestCompany(5)
	tr := NewTrader(rng, []string{c.Name})
	tr.profiles[c.Name] = Profile{Archetype: ArchetypeSwing, ActivityBias: -0.05, SizeBias: 1, HoldBias: 0}
	holder := market.AI("CEO")
	c.Owners[holder] = 2000
	c.UpdatePublicFloat()

	trades := 0
	for i := 0; i < 3000 && trades == 0; i++ {
		tr.Tick(c, owners, 0, 0, func(h market.Holder, delta int, panicExit bool) {
			if h != holder {
				t.Fatalf("trade attributed to %v, want %v", h, holder)
			}
			if delta == 0 {
				t.Fatalf("zero-delta trade reported")
			}
			trades++
		})
	}
	if trades == 0 {
		t.Fatalf("no trades across 3000 ticks")
	}
}

func TestDumpFullExitOnSlide(t *testing.T) {
	c, owners, rng := newTestCompany(6)
	tr := NewTrader(rng, []string{c.Name})
	tr.profiles[c.Name] = Profile{Archetype: ArchetypeSwing, ActivityBias: -0.05, SizeBias: 1, HoldBias: 0}
	holder := market.AI("CEO")
	c.Owners[holder] = 1500
	c.UpdatePublicFloat()

	// Force a hard down-trend so any dump is a full exit.
	n := len(c.DailyCandles)
	c.DailyCandles[n-2].Close = 100
	c.DailyCandles[n-1].Close = 60

	sawFullExit := false
	for i := 0; i < 5000 && !sawFullExit; i++ {
		held := c.HolderShares(holder)
		if held == 0 {
			c.Owners[holder] = 1500
			c.UpdatePublicFloat()
			held = 1500
		}
		tr.Tick(c, owners, 0, 0, func(h market.Holder, delta int, panicExit bool) {
			if panicExit {
				if -delta != held {
					t.Fatalf("panic exit sold %d of %d held", -delta, held)
				}
				sawFullExit = true
			}
		})
	}
	if !sawFullExit {
		t.Fatalf("down-trend never produced a panic exit")
	}
}

func TestMakerRebalanceBounds(t *testing.T) {
	c, owners, rng := newTestCompany(7)
	tr := NewTrader(rng, []string{c.Name})
	holder := market.AI("CEO")

	// Over target: trims 30% of the excess above 15%.
	c.Owners[holder] = 4000
	c.UpdatePublicFloat()
	if !tr.makerRebalance(c, owners, holder, 4000) {
		t.Fatalf("maker at 40%% inventory must act")
	}
	if got := c.HolderShares(holder); got != 4000-750 {
		t.Fatalf("held = %d, want 3250 after trimming 30%% of the excess", got)
	}

	// Under target: buys 1% lots back toward 8%.
	c.Owners[holder] = 300
	c.UpdatePublicFloat()
	if !tr.makerRebalance(c, owners, holder, 300) {
		t.Fatalf("maker at 3%% inventory must act")
	}
	if got := c.HolderShares(holder); got != 400 {
		t.Fatalf("held = %d, want 400 after a 1%% lot", got)
	}

	// Inside the band: nothing to do.
	c.Owners[holder] = 1000
	c.UpdatePublicFloat()
	if tr.makerRebalance(c, owners, holder, 1000) {
		t.Fatalf("maker inside the 8-15%% band must stand pat")
	}
}

func TestPriceNudgeRoundsAndFloors(t *testing.T) {
	c, _, rng := newTestCompany(8)
	tr := NewTrader(rng, []string{c.Name})
	c.Price = 0.02
	tr.priceNudge(c, c.TotalShares, -1)
	if c.Price < market.PriceFloor {
		t.Fatalf("nudge pushed price below floor: %v", c.Price)
	}

	c.Price = 50.00
	tr.priceNudge(c, 1000, +1) // 10% of float, +2% impact
	if math.Abs(c.Price-51.00) > 1e-9 {
		t.Fatalf("price = %v, want 51.00", c.Price)
	}
}

func TestLadderRates(t *testing.T) {
	cases := []struct {
		frac float64
		want float64
	}{
		{0.95, 0.25},
		{0.55, 0.14},
		{0.05, 0.02},
		{0.0, 0.02},
	}
	for _, tc := range cases {
		if got := ladderRate(tc.frac); got != tc.want {
			t.Fatalf("ladderRate(%v) = %v, want %v", tc.frac, got, tc.want)
		}
	}
}
