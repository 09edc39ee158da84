package market

import (
	"math/rand"
	"testing"
)

func TestGenerateWithPlayerCompany(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	companies := Generate(8, DifficultyMedium, "Orbitals Inc", rng)
	if len(companies) != 9 {
		t.Fatalf("companies = %d, want 8 AI + player", len(companies))
	}

	player := companies[0]
	if !player.IsPlayer || player.Name != "Orbitals Inc" {
		t.Fatalf("first company should be the player company, got %+v", player.Name)
	}
	if player.PlayerShares != player.TotalShares/10 {
		t.Fatalf("player stake = %d, want 10%%", player.PlayerShares)
	}

	for _, c := range companies[1:] {
		if c.IsPlayer {
			t.Fatalf("duplicate player company %q", c.Name)
		}
		if got := c.Owners[AI("CEO")]; got != c.TotalShares/10 {
			t.Fatalf("%s CEO stake = %d, want 10%%", c.Name, got)
		}
		if c.Price < 20 || c.Price > 110 {
			t.Fatalf("%s price %v outside medium range", c.Name, c.Price)
		}
		if c.Volatility < 0.8 || c.Volatility > 2.0 {
			t.Fatalf("%s volatility %v outside medium range", c.Name, c.Volatility)
		}
		checkConservation(t, c)
	}
}

func TestGenerateClampsCount(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	if got := len(Generate(1, DifficultyEasy, "", rng)); got != 5 {
		t.Fatalf("low count should clamp to 5, got %d", got)
	}
	rng = rand.New(rand.NewSource(4))
	if got := len(Generate(50, DifficultyHard, "", rng)); got != 20 {
		t.Fatalf("high count should clamp to 20, got %d", got)
	}
}

func TestSeedIntercompanyHoldersKeepsConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	companies := Generate(10, DifficultyMedium, "Orbitals Inc", rng)
	SeedIntercompanyHolders(companies, rng)

	for _, c := range companies {
		checkConservation(t, c)
		if ceo, ok := c.Owners[AI("CEO")]; !c.IsPlayer && (!ok || ceo != c.TotalShares/10) {
			t.Fatalf("%s lost its CEO stake during seeding", c.Name)
		}
		aiHolders := 0
		for h := range c.Owners {
			if h.Kind != KindAI {
				t.Fatalf("%s has non-AI holder %v after seeding", c.Name, h)
			}
			if h.Name == c.Name {
				t.Fatalf("%s holds its own shares via the AI map", c.Name)
			}
			if h.Name != "CEO" {
				aiHolders++
			}
		}
		if aiHolders > 5 {
			t.Fatalf("%s has %d cross-holders, cap is 5", c.Name, aiHolders)
		}
	}
}

func TestSectorsDeduplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	companies := Generate(12, DifficultyMedium, "", rng)
	sectors := Sectors(companies)
	seen := make(map[string]bool)
	for _, s := range sectors {
		if seen[s] {
			t.Fatalf("sector %q listed twice", s)
		}
		seen[s] = true
	}
	for _, c := range companies {
		if !seen[c.Sector] {
			t.Fatalf("sector %q missing from list", c.Sector)
		}
	}
}
