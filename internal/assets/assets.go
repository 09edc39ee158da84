// Package assets manages the owner-indexed ledgers of decaying income
// assets (player plus each company treasury) and derives the CEO rating
// from wealth, trend and disruption.
package assets

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"orbitals/internal/market"
)

var ErrInvalidAssetType = errors.New("invalid asset type")

// Spec describes one catalog entry.
type Spec struct {
	Name         string  `json:"name"`
	Cost         float64 `json:"cost"`
	IncomePerDay float64 `json:"income_per_day"`
	Decay        float64 `json:"decay"`
	Boost        float64 `json:"boost"`
}

// Catalog is the fixed set of purchasable asset types.
var Catalog = []Spec{
	{Name: "Asteroid Hotel", Cost: 25000, IncomePerDay: 5200, Decay: 0.0016, Boost: 0.02},
	{Name: "Mining Ship", Cost: 18000, IncomePerDay: 4100, Decay: 0.0025, Boost: 0.01},
	{Name: "Element Mine", Cost: 12000, IncomePerDay: 2600, Decay: 0.0005, Boost: 0.0},
	{Name: "Orbital Refinery", Cost: 32000, IncomePerDay: 7200, Decay: 0.0030, Boost: 0.03},
	{Name: "Drone Swarm", Cost: 14000, IncomePerDay: 2300, Decay: 0.0045, Boost: 0.0},
	{Name: "Terraform Rig", Cost: 45000, IncomePerDay: 9000, Decay: 0.0030, Boost: 0.04},
	{Name: "Orbital Lab", Cost: 22000, IncomePerDay: 3600, Decay: 0.0030, Boost: 0.02},
	{Name: "Shield Array", Cost: 28000, IncomePerDay: 0, Decay: 0.0025, Boost: 0.05},
	{Name: "Black Market Node", Cost: 9000, IncomePerDay: 2200, Decay: 0.0055, Boost: -0.02},
}

// SpecFor looks up a catalog entry by name.
func SpecFor(name string) (Spec, bool) {
	for _, s := range Catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

type tierSpec struct {
	name       string
	incomeMult float64
	decayMult  float64
	weight     float64
}

var tiers = []tierSpec{
	{name: "Common", incomeMult: 0.9, decayMult: 1.1, weight: 0.55},
	{name: "Rare", incomeMult: 1.05, decayMult: 1.0, weight: 0.35},
	{name: "Epic", incomeMult: 1.2, decayMult: 0.9, weight: 0.10},
}

const (
	brokenChance     = 0.15
	conditionFloor   = 0.1
	valueFloor       = 100.0
	scrapRefundShare = 0.40
)

// Asset is one owned instance of a catalog type.
type Asset struct {
	Type       string  `json:"type"`
	Condition  float64 `json:"condition"`
	Value      float64 `json:"value"`
	Efficiency float64 `json:"efficiency"`
	Tier       string  `json:"tier"`
	tierIncome float64
	tierDecay  float64
	Broken     bool `json:"broken"`
}

// Manager holds every owner's asset ledger.
type Manager struct {
	rng    *rand.Rand
	ledger map[market.Holder][]*Asset
}

func NewManager(rng *rand.Rand) *Manager {
	return &Manager{
		rng:    rng,
		ledger: make(map[market.Holder][]*Asset),
	}
}

// Purchase validates the type, rolls tier/broken/efficiency and appends
// the asset to the owner's ledger. Returns the catalog cost and whether
// the unit arrived broken.
func (m *Manager) Purchase(assetType string, owner market.Holder) (cost float64, broken bool, err error) {
	spec, ok := SpecFor(assetType)
	if !ok {
		return 0, false, ErrInvalidAssetType
	}
	tier := m.rollTier()
	broken = m.rng.Float64() < brokenChance

	condition := 1.0
	efficiency := 0.7 + 0.6*m.rng.Float64()
	if broken {
		condition = 0.35
		efficiency = 0.4 + 0.2*m.rng.Float64()
	}

	m.ledger[owner] = append(m.ledger[owner], &Asset{
		Type:       spec.Name,
		Condition:  condition,
		Value:      spec.Cost,
		Efficiency: efficiency,
		Tier:       tier.name,
		tierIncome: tier.incomeMult,
		tierDecay:  tier.decayMult,
		Broken:     broken,
	})
	return spec.Cost, broken, nil
}

func (m *Manager) rollTier() tierSpec {
	r := m.rng.Float64()
	acc := 0.0
	for _, tier := range tiers {
		acc += tier.weight
		if r <= acc {
			return tier
		}
	}
	return tiers[len(tiers)-1]
}

// Tick accrues income (against pre-decay condition), decays conditions,
// recomputes values and evicts exhausted assets. Returns per-owner
// income and decay loss for this tick.
func (m *Manager) Tick(ticksPerDay int) (income, decayLoss map[market.Holder]float64) {
	income = make(map[market.Holder]float64)
	decayLoss = make(map[market.Holder]float64)

	for owner, items := range m.ledger {
		keep := items[:0]
		ownerIncome := 0.0
		ownerDecay := 0.0
		for _, a := range items {
			spec, _ := SpecFor(a.Type)
			ownerIncome += spec.IncomePerDay / float64(ticksPerDay) * a.Condition * a.Efficiency * a.tierIncome

			a.Condition *= 1.0 - spec.Decay*a.tierDecay
			if a.Condition < 0 {
				a.Condition = 0
			}
			newValue := spec.Cost * a.Condition
			if a.Value > newValue {
				ownerDecay += a.Value - newValue
			}
			a.Value = newValue

			if a.Condition > conditionFloor && a.Value > valueFloor {
				keep = append(keep, a)
			}
		}
		m.ledger[owner] = keep
		income[owner] = ownerIncome
		decayLoss[owner] = ownerDecay
	}
	return income, decayLoss
}

// ScrapOne removes one asset (the first of assetType, or the oldest when
// assetType is empty) and returns the 40% refund. Zero means nothing
// matched.
func (m *Manager) ScrapOne(owner market.Holder, assetType string) float64 {
	items := m.ledger[owner]
	if len(items) == 0 {
		return 0
	}
	idx := 0
	if assetType != "" {
		idx = -1
		for i, a := range items {
			if a.Type == assetType {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0
		}
	}
	scrapped := items[idx]
	m.ledger[owner] = append(items[:idx], items[idx+1:]...)
	return scrapped.Value * scrapRefundShare
}

// TotalValue sums the current value of an owner's assets.
func (m *Manager) TotalValue(owner market.Holder) float64 {
	total := 0.0
	for _, a := range m.ledger[owner] {
		total += a.Value
	}
	return total
}

// CEORating scores 0-100 from wealth (log scale), trend and disruption.
func (m *Manager) CEORating(cash, portfolioValue float64, owner market.Holder, disruption, trend float64) int {
	base := cash + portfolioValue + m.TotalValue(owner)
	if base <= 0 {
		return 0
	}
	score := int(math.Log1p(base) / math.Log(1.0005))
	if score > 100 {
		score = 100
	}
	score += int(trend * 120)
	score -= int(disruption * 0.35)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Snapshot copies an owner's assets for display.
func (m *Manager) Snapshot(owner market.Holder) []Asset {
	items := m.ledger[owner]
	out := make([]Asset, 0, len(items))
	for _, a := range items {
		out = append(out, *a)
	}
	return out
}

// Count reports how many assets an owner holds.
func (m *Manager) Count(owner market.Holder) int {
	return len(m.ledger[owner])
}

// PriceBoost sums boost × condition across an owner's assets; fed into
// the owner company's price drift.
func (m *Manager) PriceBoost(owner market.Holder) float64 {
	boost := 0.0
	for _, a := range m.ledger[owner] {
		spec, _ := SpecFor(a.Type)
		boost += spec.Boost * a.Condition
	}
	return boost
}

// MoveAll transfers every asset from one owner to another (takeovers).
func (m *Manager) MoveAll(from, to market.Holder) int {
	items := m.ledger[from]
	if len(items) == 0 {
		return 0
	}
	m.ledger[to] = append(m.ledger[to], items...)
	delete(m.ledger, from)
	return len(items)
}

// RandomAIPick chooses an affordable catalog type with a slight bias
// toward the mid-cost option. False when nothing fits the budget.
func (m *Manager) RandomAIPick(budget float64) (string, bool) {
	var affordable []Spec
	for _, s := range Catalog {
		if s.Cost <= budget {
			affordable = append(affordable, s)
		}
	}
	if len(affordable) == 0 {
		return "", false
	}
	sort.Slice(affordable, func(i, j int) bool { return affordable[i].Cost < affordable[j].Cost })
	mid := affordable[len(affordable)/2]
	pool := append(affordable, mid)
	return pool[m.rng.Intn(len(pool))].Name, true
}

// Owners lists owners with at least one asset, in deterministic order.
func (m *Manager) Owners() []market.Holder {
	out := make([]market.Holder, 0, len(m.ledger))
	for h, items := range m.ledger {
		if len(items) > 0 {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}
