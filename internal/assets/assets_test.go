package assets

import (
	"math"
	"math/rand"
	"testing"

	"orbitals/internal/market"
)

func TestPurchaseUnknownType(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(1)))
	if _, _, err := m.Purchase("Lunar Casino", market.Player()); err != ErrInvalidAssetType {
		t.Fatalf("err = %v, want ErrInvalidAssetType", err)
	}
}

func TestPurchaseRolls(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(2)))
	sawBroken := false
	for i := 0; i < 200; i++ {
		cost, broken, err := m.Purchase("Mining Ship", market.Player())
		if err != nil {
			t.Fatalf("purchase failed: %v", err)
		}
		if cost != 18000 {
			t.Fatalf("cost = %v, want 18000", cost)
		}
		if broken {
			sawBroken = true
		}
	}
	if !sawBroken {
		t.Fatalf("expected some broken units across 200 purchases")
	}
	for _, a := range m.Snapshot(market.Player()) {
		if a.Broken {
			if a.Condition != 0.35 {
				t.Fatalf("broken condition = %v, want 0.35", a.Condition)
			}
			if a.Efficiency < 0.4 || a.Efficiency > 0.6 {
				t.Fatalf("broken efficiency = %v, want 0.4-0.6", a.Efficiency)
			}
		} else {
			if a.Condition != 1.0 {
				t.Fatalf("condition = %v, want 1.0", a.Condition)
			}
			if a.Efficiency < 0.7 || a.Efficiency > 1.3 {
				t.Fatalf("efficiency = %v, want 0.7-1.3", a.Efficiency)
			}
		}
		switch a.Tier {
		case "Common", "Rare", "Epic":
		default:
			t.Fatalf("unknown tier %q", a.Tier)
		}
	}
}

func TestTickDecayScenario(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(3)))
	owner := market.Player()
	m.ledger[owner] = []*Asset{{
		Type:       "Orbital Refinery", // decay 0.003
		Condition:  1.0,
		Value:      32000,
		Efficiency: 1.0,
		Tier:       "Rare",
		tierIncome: 1.0,
		tierDecay:  1.0,
	}}

	income, decayLoss := m.Tick(96)
	// Income accrues against the pre-decay condition.
	wantIncome := 7200.0 / 96.0
	if math.Abs(income[owner]-wantIncome) > 1e-9 {
		t.Fatalf("income = %v, want %v", income[owner], wantIncome)
	}
	a := m.ledger[owner][0]
	if math.Abs(a.Condition-0.997) > 1e-9 {
		t.Fatalf("condition = %v, want 0.997", a.Condition)
	}
	wantValue := 32000 * 0.997
	if math.Abs(a.Value-wantValue) > 1e-6 {
		t.Fatalf("value = %v, want %v", a.Value, wantValue)
	}
	if math.Abs(decayLoss[owner]-(32000-wantValue)) > 1e-6 {
		t.Fatalf("decay loss = %v, want %v", decayLoss[owner], 32000-wantValue)
	}
}

func TestTickEvictsExhaustedAssets(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(4)))
	owner := market.AI("Zenith Consolidated")
	m.ledger[owner] = []*Asset{{
		Type:       "Drone Swarm",
		Condition:  0.1001,
		Value:      14000 * 0.1001,
		Efficiency: 1.0,
		Tier:       "Common",
		tierIncome: 0.9,
		tierDecay:  1.1,
	}}

	m.Tick(96)
	if m.Count(owner) != 0 {
		t.Fatalf("asset at the condition floor should be evicted")
	}
}

func TestScrapOneRefunds(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(5)))
	owner := market.Player()
	m.ledger[owner] = []*Asset{
		{Type: "Element Mine", Condition: 1, Value: 12000, Efficiency: 1, tierIncome: 1, tierDecay: 1},
		{Type: "Orbital Lab", Condition: 1, Value: 22000, Efficiency: 1, tierIncome: 1, tierDecay: 1},
	}

	refund := m.ScrapOne(owner, "Orbital Lab")
	if math.Abs(refund-22000*0.4) > 1e-9 {
		t.Fatalf("refund = %v, want 40%% of value", refund)
	}
	if m.Count(owner) != 1 {
		t.Fatalf("count = %d, want 1", m.Count(owner))
	}
	if m.ScrapOne(owner, "Orbital Lab") != 0 {
		t.Fatalf("scrapping a missing type should refund 0")
	}
	if refund := m.ScrapOne(owner, ""); math.Abs(refund-12000*0.4) > 1e-9 {
		t.Fatalf("untyped scrap should take the oldest, refund %v", refund)
	}
}

func TestCEORatingBounds(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(6)))
	if got := m.CEORating(0, 0, market.Player(), 0, 0); got != 0 {
		t.Fatalf("broke rating = %d, want 0", got)
	}
	rich := m.CEORating(1_000_000, 500_000, market.Player(), 0, 0)
	if rich != 100 {
		t.Fatalf("rich rating = %d, want saturation at 100", rich)
	}
	stressed := m.CEORating(1_000_000, 500_000, market.Player(), 300, -0.5)
	if stressed < 0 || stressed > 100 {
		t.Fatalf("rating %d outside 0-100", stressed)
	}
	if stressed >= rich {
		t.Fatalf("disruption and negative trend must lower the score")
	}
}

func TestPriceBoostSums(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(7)))
	owner := market.Player()
	m.ledger[owner] = []*Asset{
		{Type: "Shield Array", Condition: 0.5, tierIncome: 1, tierDecay: 1},   // 0.05 * 0.5
		{Type: "Black Market Node", Condition: 1, tierIncome: 1, tierDecay: 1}, // -0.02
	}
	want := 0.05*0.5 - 0.02
	if got := m.PriceBoost(owner); math.Abs(got-want) > 1e-9 {
		t.Fatalf("boost = %v, want %v", got, want)
	}
}

func TestMoveAllTransfersLedger(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(8)))
	from := market.AI("NovaTerra Holdings")
	to := market.Player()
	if _, _, err := m.Purchase("Element Mine", from); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, _, err := m.Purchase("Drone Swarm", from); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	moved := m.MoveAll(from, to)
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}
	if m.Count(from) != 0 || m.Count(to) != 2 {
		t.Fatalf("ledgers = %d/%d, want 0/2", m.Count(from), m.Count(to))
	}
}

func TestRandomAIPickRespectsBudget(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(9)))
	if _, ok := m.RandomAIPick(5000); ok {
		t.Fatalf("nothing should be affordable at 5000")
	}
	for i := 0; i < 100; i++ {
		name, ok := m.RandomAIPick(15000)
		if !ok {
			t.Fatalf("pick should exist at 15000")
		}
		spec, found := SpecFor(name)
		if !found {
			t.Fatalf("pick %q not in catalog", name)
		}
		if spec.Cost > 15000 {
			t.Fatalf("pick %q costs %v over budget", name, spec.Cost)
		}
	}
}
