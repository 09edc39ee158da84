// Package engine owns the whole simulation: companies, per-company
// price and ownership engines, the global disruption index, asset
// ledgers, sector events, AI traders, order queues and the automation
// bot. All entry points lock the engine, so the HTTP layer can call in
// concurrently with the tick loop.
package engine

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"orbitals/internal/ai"
	"orbitals/internal/assets"
	"orbitals/internal/disruption"
	"orbitals/internal/feed"
	"orbitals/internal/market"
	"orbitals/internal/price"
	"orbitals/internal/sector"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidAmount      = errors.New("share amount must be positive")
	ErrUnknownCompany     = errors.New("unknown company")
	ErrUnknownHolder      = errors.New("unknown holder")
	ErrInvalidAspect      = errors.New("unknown upgrade aspect")
	ErrBotActive          = errors.New("automation bot already active")
	ErrBotInactive        = errors.New("automation bot not active")
)

const (
	startingCash       = 100_000.0
	startingAITreasury = 120_000.0
)

// CommandResult is the outcome of a player command that can partially
// succeed without being an error: queued orders and declined offers.
type CommandResult struct {
	Status  string `json:"status"` // ok, queued, declined
	Message string `json:"message"`
}

func okResult(msg string) CommandResult       { return CommandResult{Status: "ok", Message: msg} }
func queuedResult(msg string) CommandResult   { return CommandResult{Status: "queued", Message: msg} }
func declinedResult(msg string) CommandResult { return CommandResult{Status: "declined", Message: msg} }

// sellOrder is one queued player liquidation, drained chunk by chunk.
// The reserved shares sit in escrow until each lot is released.
type sellOrder struct {
	ID        string
	Owner     market.Holder
	Remaining int
	Chunk     int
	Penalty   float64
}

type autoBot struct {
	Active   bool
	Level    int
	Speed    int
	Accuracy float64
	Size     float64
	TotalPnL float64
	History  []BotTrade
}

// BotTrade is one completed scalp by the automation bot.
type BotTrade struct {
	Result  string  `json:"result"`
	Company string  `json:"company"`
	Shares  int     `json:"shares"`
	Buy     float64 `json:"buy"`
	Sell    float64 `json:"sell"`
	PnL     float64 `json:"pnl"`
}

const botHistoryCap = 20

// Config is everything needed to build a fresh market.
type Config struct {
	CompanyCount  int
	Difficulty    market.Difficulty
	PlayerName    string
	PlayerCompany string
	Seed          int64
}

// Engine is the simulation root.
type Engine struct {
	mu  sync.Mutex
	log *slog.Logger
	rng *rand.Rand

	companies []*market.Company
	byName    map[string]*market.Company
	prices    map[string]*price.Engine
	owners    map[string]*market.OwnershipEngine

	disruption *disruption.Index
	assets     *assets.Manager
	sectors    *sector.EventEngine
	trader     *ai.Trader
	bus        *feed.Bus

	playerName string
	cash       float64
	aiCash     map[market.Holder]float64

	prevPrices   map[string]float64
	sentiment    map[string]float64
	demand       map[string]float64
	buyPressure  map[string]int
	sellPressure map[string][]*sellOrder
	tradeLogs    map[string]*feed.Log

	lastDay int
	fast    bool

	bot autoBot

	playerRating int
	ratingSeen   bool
	aiRatings    map[string]int

	lastReports        []CompanyReport
	lastExternalIncome float64
}

// New builds the market and seeds the AI treasuries and starter assets.
func New(cfg Config, log *slog.Logger) *Engine {
	rng := rand.New(rand.NewSource(cfg.Seed))

	companies := market.Generate(cfg.CompanyCount, cfg.Difficulty, cfg.PlayerCompany, rng)
	market.SeedIntercompanyHolders(companies, rng)

	names := make([]string, len(companies))
	e := &Engine{
		log:          log,
		rng:          rng,
		companies:    companies,
		byName:       make(map[string]*market.Company, len(companies)),
		prices:       make(map[string]*price.Engine, len(companies)),
		owners:       make(map[string]*market.OwnershipEngine, len(companies)),
		disruption:   disruption.NewIndex(),
		assets:       assets.NewManager(rng),
		bus:          feed.NewBus(),
		playerName:   cfg.PlayerName,
		cash:         startingCash,
		aiCash:       make(map[market.Holder]float64),
		prevPrices:   make(map[string]float64, len(companies)),
		sentiment:    make(map[string]float64, len(companies)),
		demand:       make(map[string]float64, len(companies)),
		buyPressure:  make(map[string]int, len(companies)),
		sellPressure: make(map[string][]*sellOrder, len(companies)),
		tradeLogs:    make(map[string]*feed.Log, len(companies)),
		aiRatings:    make(map[string]int, len(companies)),
		lastDay:      1,
	}

	for i, c := range companies {
		names[i] = c.Name
		e.byName[c.Name] = c
		e.prices[c.Name] = price.NewEngine(c, rng)
		e.owners[c.Name] = market.NewOwnershipEngine(c)
		e.prevPrices[c.Name] = c.Price
		e.tradeLogs[c.Name] = feed.NewLog(50)
	}
	e.sectors = sector.NewEventEngine(market.Sectors(companies), rng)
	e.trader = ai.NewTrader(rng, names)

	// Company treasuries start funded and holding a couple of assets.
	for _, c := range companies {
		if c.IsPlayer {
			continue
		}
		owner := market.AI(c.Name)
		budget := startingAITreasury
		for i := 0; i < 2; i++ {
			pick, ok := e.assets.RandomAIPick(budget * 0.3)
			if !ok {
				continue
			}
			spec, _ := assets.SpecFor(pick)
			if budget < spec.Cost {
				continue
			}
			if _, _, err := e.assets.Purchase(pick, owner); err == nil {
				budget -= spec.Cost
			}
		}
		e.aiCash[owner] = budget
	}

	return e
}

// SubscribeFeed attaches a live feed subscriber.
func (e *Engine) SubscribeFeed(buffer int) (<-chan feed.Event, func()) {
	return e.bus.Subscribe(buffer)
}

// FastMode reports whether the fast tick cadence is selected.
func (e *Engine) FastMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fast
}

func (e *Engine) company(name string) (*market.Company, error) {
	c, ok := e.byName[name]
	if !ok {
		return nil, ErrUnknownCompany
	}
	return c, nil
}

func (e *Engine) portfolioValue() float64 {
	total := 0.0
	for _, c := range e.companies {
		total += float64(c.PlayerShares) * c.Price
	}
	return total
}

// adjustPlayerRating applies a command-driven rating delta against the
// last computed rating (50 before the first tick).
func (e *Engine) adjustPlayerRating(delta int) {
	if !e.ratingSeen {
		e.playerRating = 50
		e.ratingSeen = true
	}
	e.playerRating += delta
}

func (e *Engine) spend(amount float64) { e.cash -= amount }
func (e *Engine) earn(amount float64)  { e.cash += amount }
