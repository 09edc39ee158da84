package market

import "math/rand"

// Difficulty tunes starting price and volatility ranges.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ceoHolderName is the seeded insider stake on AI-run companies.
const ceoHolderName = "CEO"

var companyNameBank = []string{
	"Solaris Dynamics",
	"Pioneer Robotics",
	"Starforge Logistics",
	"Helion Analytics",
	"Vector Mining Group",
	"Astral Systems",
	"Quantum Axis Industries",
	"DeepWell Extraction Corp",
	"NovaTerra Holdings",
	"Stellar Frontier Solutions",
	"Orbital Freight Co.",
	"Celestial Automation",
	"IonCore Technologies",
	"TriStar Resource Ventures",
	"Zenith Consolidated",
	"Stardust Ore Partners",
	"Vertex Quantum Labs",
	"Horizon Yield Systems",
	"ForgePoint Enterprises",
	"AstroLink Engineering",
	"Infinite Meridian Corp",
	"PillarPoint Mechanics",
	"LuminaWave Robotics",
	"Astrosphere Logistics",
	"Momentum Rift Partners",
}

var sectorBank = []string{
	"AI Research",
	"Robotics",
	"Asteroid Mining",
	"Aerospace Logistics",
	"Deep Space Energy",
	"Quantum Software",
	"NanoFabrication",
}

func difficultyRanges(d Difficulty) (volLo, volHi, priceLo, priceHi float64) {
	switch d {
	case DifficultyEasy:
		return 0.4, 1.2, 15, 85
	case DifficultyHard:
		return 1.0, 2.8, 30, 140
	default:
		return 0.8, 2.0, 20, 110
	}
}

// Generate creates the market: count AI-run companies plus the player's
// company when a name is given. AI companies start with a 10% CEO
// insider stake; the player company starts with a 10% player stake.
func Generate(count int, difficulty Difficulty, playerCompanyName string, rng *rand.Rand) []*Company {
	if count < 5 {
		count = 5
	}
	if count > 20 {
		count = 20
	}
	volLo, volHi, priceLo, priceHi := difficultyRanges(difficulty)

	names := append([]string(nil), companyNameBank...)
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	names = names[:count]

	var companies []*Company
	if playerCompanyName != "" {
		c := NewCompany(
			playerCompanyName,
			sectorBank[rng.Intn(len(sectorBank))],
			round2(uniform(rng, priceLo, priceHi)),
			round2(uniform(rng, volLo, volHi)),
			rng,
		)
		c.IsPlayer = true
		c.PlayerShares = c.TotalShares / 10
		c.UpdatePublicFloat()
		companies = append(companies, c)
	}

	for _, name := range names {
		c := NewCompany(
			name,
			sectorBank[rng.Intn(len(sectorBank))],
			round2(uniform(rng, priceLo, priceHi)),
			round2(uniform(rng, volLo, volHi)),
			rng,
		)
		c.Owners[AI(ceoHolderName)] = c.TotalShares / 10
		c.UpdatePublicFloat()
		companies = append(companies, c)
	}
	return companies
}

// SeedIntercompanyHolders gives each company up to five other companies
// as AI shareholders, simulating cross-holdings. Existing CEO and player
// stakes are preserved; the float absorbs the remainder.
func SeedIntercompanyHolders(companies []*Company, rng *rand.Rand) {
	names := make([]string, len(companies))
	for i, c := range companies {
		names[i] = c.Name
	}
	for _, c := range companies {
		ceo := c.Owners[AI(ceoHolderName)]
		c.Owners = make(map[Holder]int)
		if ceo > 0 {
			c.Owners[AI(ceoHolderName)] = ceo
		}
		remaining := c.TotalShares - c.PlayerShares - ceo
		if remaining < 0 {
			remaining = 0
		}

		others := make([]string, 0, len(names)-1)
		for _, n := range names {
			if n != c.Name {
				others = append(others, n)
			}
		}
		rng.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
		if len(others) > 5 {
			others = others[:5]
		}
		for _, n := range others {
			if remaining <= 0 {
				break
			}
			maxGive := c.TotalShares / 20
			if maxGive < 1 {
				maxGive = 1
			}
			give := 1 + rng.Intn(maxGive)
			if give > remaining {
				give = remaining
			}
			c.Owners[AI(n)] = give
			remaining -= give
		}
		c.PublicFloat = remaining
	}
}

// Sectors returns the distinct sectors present in the market.
func Sectors(companies []*Company) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range companies {
		if _, ok := seen[c.Sector]; ok {
			continue
		}
		seen[c.Sector] = struct{}{}
		out = append(out, c.Sector)
	}
	return out
}
