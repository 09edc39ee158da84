package engine

import (
	"math"

	"orbitals/internal/assets"
	"orbitals/internal/feed"
	"orbitals/internal/market"
	"orbitals/internal/sector"
)

// Status is the top-level dashboard snapshot.
type Status struct {
	PlayerName      string         `json:"player_name"`
	Cash            float64        `json:"cash"`
	PortfolioValue  float64        `json:"portfolio_value"`
	CEORating       int            `json:"ceo_rating"`
	Disruption      float64        `json:"disruption"`
	DisruptionState string         `json:"disruption_state"`
	Clock           string         `json:"clock"`
	CalendarLabel   string         `json:"calendar_label"`
	Day             int            `json:"day"`
	Quarter         int            `json:"quarter"`
	Tick            int            `json:"tick"`
	FastMode        bool           `json:"fast_mode"`
	ExternalIncome  float64        `json:"external_income"`
	AITreasury      float64        `json:"ai_treasury"`
	ActiveEvents    []SectorEvent  `json:"active_events"`
	Bot             BotStatus      `json:"bot"`
}

// SectorEvent is an active sector modifier with its remaining days.
type SectorEvent struct {
	Name     string  `json:"name"`
	Sector   string  `json:"sector"`
	Drift    float64 `json:"drift"`
	Vol      float64 `json:"vol"`
	DaysLeft int     `json:"days_left"`
}

// CompanySummary is one row of the market list.
type CompanySummary struct {
	Name         string  `json:"name"`
	Sector       string  `json:"sector"`
	Price        float64 `json:"price"`
	ChangePct    float64 `json:"change_pct"`
	PlayerShares int     `json:"player_shares"`
	PublicFloat  int     `json:"public_float"`
	IsPlayer     bool    `json:"is_player"`
	TakenOver    bool    `json:"taken_over"`
	Sentiment    float64 `json:"sentiment"`
	CEORating    int     `json:"ceo_rating"`
}

// HolderStake is one outside position in a company.
type HolderStake struct {
	Name   string `json:"name"`
	Shares int    `json:"shares"`
}

// CompanyDetail is the full per-company view.
type CompanyDetail struct {
	CompanySummary
	Volatility       float64         `json:"volatility"`
	TotalShares      int             `json:"total_shares"`
	DemandBias       float64         `json:"demand_bias"`
	Holders          []HolderStake   `json:"holders"`
	DailyCandles     []market.Candle `json:"daily_candles"`
	QuarterlyCandles []market.Candle `json:"quarterly_candles"`
	TradeLog         []string        `json:"trade_log"`
}

// BotStatus is the automation bot snapshot.
type BotStatus struct {
	Active   bool       `json:"active"`
	Level    int        `json:"level"`
	Speed    int        `json:"speed"`
	Accuracy float64    `json:"accuracy"`
	Size     float64    `json:"size"`
	TotalPnL float64    `json:"total_pnl"`
	History  []BotTrade `json:"history"`
}

// CompanyReport is one row of the reports view.
type CompanyReport struct {
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Float             int     `json:"float"`
	Owned             int     `json:"owned"`
	AssetIncome       float64 `json:"asset_income"`
	DividendsPaid     float64 `json:"dividends_paid"`
	DividendsReceived float64 `json:"dividends_received"`
}

// AssetsView is the player's holdings panel.
type AssetsView struct {
	Cash           float64        `json:"cash"`
	PortfolioValue float64        `json:"portfolio_value"`
	TotalValue     float64        `json:"total_value"`
	Assets         []assets.Asset `json:"assets"`
	Catalog        []assets.Spec  `json:"catalog"`
}

// Status reports the dashboard snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	sample := e.prices[e.companies[0].Name]
	clock, label := sample.ClockDisplay()

	aiTreasury := 0.0
	for _, cash := range e.aiCash {
		aiTreasury += cash
	}

	var events []SectorEvent
	for _, ev := range e.sectors.Active(sample.GlobalDay) {
		events = append(events, SectorEvent{
			Name:     ev.Name,
			Sector:   ev.Sector,
			Drift:    ev.DriftDelta,
			Vol:      ev.VolDelta,
			DaysLeft: ev.DaysLeft(sample.GlobalDay),
		})
	}

	return Status{
		PlayerName:      e.playerName,
		Cash:            market.Round2(e.cash),
		PortfolioValue:  market.Round2(e.portfolioValue()),
		CEORating:       e.playerRating,
		Disruption:      e.disruption.Value(),
		DisruptionState: e.disruption.State(),
		Clock:           clock,
		CalendarLabel:   label,
		Day:             sample.GlobalDay,
		Quarter:         sample.GlobalQuarter,
		Tick:            sample.GlobalTick,
		FastMode:        e.fast,
		ExternalIncome:  e.lastExternalIncome,
		AITreasury:      market.Round2(aiTreasury),
		ActiveEvents:    events,
		Bot:             e.botStatusLocked(),
	}
}

// Companies lists every company as a market row.
func (e *Engine) Companies() []CompanySummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]CompanySummary, 0, len(e.companies))
	for _, c := range e.companies {
		out = append(out, e.summaryLocked(c))
	}
	return out
}

func (e *Engine) summaryLocked(c *market.Company) CompanySummary {
	change := 0.0
	if n := len(c.DailyCandles); n > 0 && c.DailyCandles[n-1].Close > 0 {
		change = (c.Price - c.DailyCandles[n-1].Close) / c.DailyCandles[n-1].Close * 100
	}
	rating := e.playerRating
	if !c.IsPlayer {
		if r, ok := e.aiRatings[c.Name]; ok {
			rating = r
		} else {
			rating = 50
		}
	}
	return CompanySummary{
		Name:         c.Name,
		Sector:       c.Sector,
		Price:        c.Price,
		ChangePct:    market.Round2(change),
		PlayerShares: c.PlayerShares,
		PublicFloat:  c.PublicFloat,
		IsPlayer:     c.IsPlayer,
		TakenOver:    c.TakenOver,
		Sentiment:    e.sentiment[c.Name],
		CEORating:    rating,
	}
}

// CompanyDetail reports the full view of one company.
func (e *Engine) CompanyDetail(name string) (CompanyDetail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.company(name)
	if err != nil {
		return CompanyDetail{}, err
	}

	holders := make([]HolderStake, 0, len(c.Owners))
	for _, h := range c.AIHolders() {
		holders = append(holders, HolderStake{Name: h.String(), Shares: c.Owners[h]})
	}
	if n := c.Owners[market.MarketQueue()]; n > 0 {
		holders = append(holders, HolderStake{Name: market.MarketQueue().String(), Shares: n})
	}

	return CompanyDetail{
		CompanySummary:   e.summaryLocked(c),
		Volatility:       c.Volatility,
		TotalShares:      c.TotalShares,
		DemandBias:       e.demand[c.Name] / math.Max(1, float64(c.TotalShares)),
		Holders:          holders,
		DailyCandles:     append([]market.Candle(nil), c.DailyCandles...),
		QuarterlyCandles: append([]market.Candle(nil), c.QuarterlyCandles...),
		TradeLog:         e.tradeLogs[c.Name].Lines(),
	}, nil
}

// Feed returns up to n recent feed events, oldest first.
func (e *Engine) Feed(n int) []feed.Event {
	return e.bus.Recent(n)
}

// Reports returns the per-company income and dividend rows from the last
// tick.
func (e *Engine) Reports() []CompanyReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]CompanyReport(nil), e.lastReports...)
}

// Bot reports the automation bot state.
func (e *Engine) Bot() BotStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.botStatusLocked()
}

func (e *Engine) botStatusLocked() BotStatus {
	return BotStatus{
		Active:   e.bot.Active,
		Level:    e.bot.Level,
		Speed:    e.bot.Speed,
		Accuracy: e.bot.Accuracy,
		Size:     e.bot.Size,
		TotalPnL: market.Round2(e.bot.TotalPnL),
		History:  append([]BotTrade(nil), e.bot.History...),
	}
}

// Assets reports the player's asset holdings plus the purchase catalog.
func (e *Engine) Assets() AssetsView {
	e.mu.Lock()
	defer e.mu.Unlock()

	return AssetsView{
		Cash:           market.Round2(e.cash),
		PortfolioValue: market.Round2(e.portfolioValue()),
		TotalValue:     market.Round2(e.assets.TotalValue(market.Player())),
		Assets:         e.assets.Snapshot(market.Player()),
		Catalog:        assets.Catalog,
	}
}

// SectorEventList exposes currently active sector events.
func (e *Engine) SectorEventList() []sector.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sectors.Active(e.prices[e.companies[0].Name].GlobalDay)
}
