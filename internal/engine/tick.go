package engine

import (
	"fmt"
	"math"

	"orbitals/internal/assets"
	"orbitals/internal/feed"
	"orbitals/internal/market"
)

// Dividend payout ladder applied to the player and to outside holders of
// a company's treasury income, by ownership fraction.
var dividendLadder = []struct {
	threshold float64
	rate      float64
}{
	{0.9, 0.32},
	{0.8, 0.29},
	{0.7, 0.25},
	{0.6, 0.21},
	{0.5, 0.18},
	{0.4, 0.15},
	{0.3, 0.12},
	{0.2, 0.09},
	{0.1, 0.06},
	{0.0, 0.03},
}

func dividendRate(frac float64) float64 {
	for _, step := range dividendLadder {
		if frac >= step.threshold {
			return step.rate
		}
	}
	return 0.0
}

// Tick advances the whole simulation by one step: asset income, price
// movement, AI trading, the bot, queued order pressure, treasuries,
// dividends, decay, day-boundary events, takeovers, bankruptcies and
// ratings.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	sample := e.prices[e.companies[0].Name]
	ticksPerDay := sample.TicksPerDay()

	// Asset income lands first so AI yield signals see fresh numbers.
	income, _ := e.assets.Tick(ticksPerDay)
	if playerIncome := income[market.Player()]; playerIncome > 0 {
		e.earn(playerIncome)
	}

	var trendChanges []float64
	for _, c := range e.companies {
		p := e.prices[c.Name]
		p.ApplyDisruptionFriction(e.disruption.Value() / 100.0)
		p.Tick()

		e.trader.Tick(c, e.owners[c.Name], e.disruption.Value(), income[market.AI(c.Name)],
			func(h market.Holder, delta int, panicExit bool) {
				e.recordAITrade(c, h, delta, panicExit)
			})

		pct := 0.0
		if prev := e.prevPrices[c.Name]; prev > 0 {
			pct = (c.Price - prev) / prev
			trendChanges = append(trendChanges, pct)
			if pct <= -0.05 {
				e.bus.Emit(fmt.Sprintf("%s in free fall (%.1f%%)", c.Name, pct*100), feed.ToneBad)
			}
		}
		e.prevPrices[c.Name] = c.Price
		e.sentiment[c.Name] = e.sentiment[c.Name]*0.9 + pct*0.1
	}

	e.tickBot()
	e.drainSellPressure()
	e.drainBuyPressure()
	e.tickAITreasuries(income)
	paid, received := e.payDividends(income)

	e.disruption.DecayTick()
	for name, c := range e.byName {
		e.demand[name] *= 0.98
		if math.Abs(e.demand[name]) < 0.5 {
			e.demand[name] = 0
		}
		if c.PublicFloat <= 0 {
			e.demand[name] += float64(c.TotalShares) * 0.01
		}
	}

	if sample.GlobalDay != e.lastDay {
		e.disruption.DecayDaily()
		e.lastDay = sample.GlobalDay
		if ev, ok := e.sectors.MaybeSpawn(sample.GlobalDay); ok {
			tone := feed.ToneInfo
			if ev.DriftDelta < 0 {
				tone = feed.ToneWarn
			}
			e.bus.Emit(fmt.Sprintf("%s in %s for %dd", ev.Name, ev.Sector, ev.DurationDays), tone)
		}
	}

	e.applyPlayerAssetBoost()
	e.checkTakeovers()
	e.checkBankruptcies()
	e.aiProfitTaking()
	e.updateRatings(trendChanges)
	e.pushPriceInputs(sample.GlobalDay)
	e.buildReports(income, paid, received)
}

func (e *Engine) recordAITrade(c *market.Company, h market.Holder, delta int, panicExit bool) {
	e.demand[c.Name] += float64(delta)
	if delta > 0 {
		e.tradeLogs[c.Name].Add(fmt.Sprintf("%s bought %d %s", h.String(), delta, c.Name))
	} else {
		e.tradeLogs[c.Name].Add(fmt.Sprintf("%s sold %d %s", h.String(), -delta, c.Name))
	}
	if panicExit {
		e.bus.Emit(fmt.Sprintf("%s panic-dumped all shares of %s", h.String(), c.Name), feed.ToneBad)
	}
}

// drainSellPressure releases one lot per queued order: escrowed shares
// return to the float, the owner is paid at the penalty price, demand
// softens and the price takes a small supply hit.
func (e *Engine) drainSellPressure() {
	for name, orders := range e.sellPressure {
		if len(orders) == 0 {
			continue
		}
		c := e.byName[name]
		keep := orders[:0]
		for _, o := range orders {
			if o.Remaining <= 0 {
				continue
			}
			lot := o.Chunk
			if lot > o.Remaining {
				lot = o.Remaining
			}
			o.Remaining -= lot

			c.Debit(market.Escrow(), lot)
			c.PublicFloat += lot

			payout := float64(lot) * c.Price * o.Penalty
			if o.Owner.Kind == market.KindPlayer {
				e.earn(payout)
			} else {
				e.aiCash[o.Owner] += payout
			}

			pressure := 0.6
			if o.Penalty < 1.0 {
				pressure = 1.2
			}
			e.demand[name] -= float64(lot) * pressure

			e.prevPrices[name] = c.Price
			c.Price = market.Round2(math.Max(market.PriceFloor,
				c.Price*(1-float64(lot)/math.Max(1, float64(c.TotalShares))*0.15)))

			if o.Remaining > 0 {
				keep = append(keep, o)
			}
		}
		e.sellPressure[name] = keep
	}
}

// drainBuyPressure fills queued buy orders once float frees up; filled
// shares park under the market queue holder and lift the price.
func (e *Engine) drainBuyPressure() {
	for name, qty := range e.buyPressure {
		c := e.byName[name]
		if qty <= 0 || c.PublicFloat <= 0 {
			continue
		}
		take := c.BuyShares(market.MarketQueue(), qty)
		e.demand[name] += float64(take) * 0.5
		c.Price = market.Round2(c.Price * (1 + float64(take)/math.Max(1, float64(c.TotalShares))*0.1))
		e.buyPressure[name] -= take
	}
}

// tickAITreasuries banks company asset income and occasionally spends a
// slice of the treasury on a new asset.
func (e *Engine) tickAITreasuries(income map[market.Holder]float64) {
	for _, c := range e.companies {
		if c.IsPlayer {
			continue
		}
		owner := market.AI(c.Name)
		e.aiCash[owner] += income[owner]

		if e.aiCash[owner] <= 6000 || e.rng.Float64() >= 0.6 {
			continue
		}
		slice := e.aiCash[owner] * (0.15 + 0.20*e.rng.Float64())
		pick, ok := e.assets.RandomAIPick(slice)
		if !ok {
			continue
		}
		spec, _ := assets.SpecFor(pick)
		if e.aiCash[owner] < spec.Cost {
			continue
		}
		e.aiCash[owner] -= spec.Cost
		if _, broken, err := e.assets.Purchase(pick, owner); err == nil {
			note := fmt.Sprintf("%s bought asset %s", c.Name, pick)
			if broken {
				note += " (broken)"
			}
			e.bus.Emit(note, feed.ToneAccent)
		}
	}
}

// payDividends shares each company's asset income with its outside
// holders on the payout ladder. Escrowed shares earn nothing.
func (e *Engine) payDividends(income map[market.Holder]float64) (paid map[string]float64, received map[string]float64) {
	paid = make(map[string]float64)
	received = make(map[string]float64)
	e.lastExternalIncome = 0

	for _, c := range e.companies {
		targetIncome := income[market.AI(c.Name)]
		if targetIncome <= 0 {
			continue
		}
		totalShares := math.Max(1, float64(c.TotalShares))

		if c.PlayerShares > 0 {
			frac := float64(c.PlayerShares) / totalShares
			dividend := targetIncome * dividendRate(frac)
			if dividend > 0 {
				e.earn(dividend)
				e.lastExternalIncome += dividend
				paid[c.Name] += dividend
				received[market.Player().String()] += dividend
			}
		}
		for h, amt := range c.Owners {
			if h.Kind == market.KindEscrow || amt <= 0 {
				continue
			}
			frac := float64(amt) / totalShares
			dividend := targetIncome * dividendRate(frac)
			if dividend > 0 {
				e.aiCash[h] += dividend
				paid[c.Name] += dividend
				received[h.String()] += dividend
			}
		}
	}
	return paid, received
}

// applyPlayerAssetBoost bumps the player company's price by its asset
// portfolio boost.
func (e *Engine) applyPlayerAssetBoost() {
	for _, c := range e.companies {
		if !c.IsPlayer {
			continue
		}
		boost := e.assets.PriceBoost(market.Player())
		if boost != 0 {
			c.Price = market.Round2(math.Max(market.PriceFloor, c.Price*(1.0+boost*0.005)))
		}
		return
	}
}

// checkTakeovers hands a company to the player once they own a majority:
// the company treasury's assets transfer and outside stakes dissolve.
func (e *Engine) checkTakeovers() {
	for _, c := range e.companies {
		if c.IsPlayer || c.TakenOver {
			continue
		}
		if float64(c.PlayerShares) <= float64(c.TotalShares)*0.5 {
			continue
		}
		moved := e.assets.MoveAll(market.AI(c.Name), market.Player())
		for h := range c.Owners {
			if h.Kind != market.KindEscrow {
				delete(c.Owners, h)
			}
		}
		c.TakenOver = true
		c.UpdatePublicFloat()

		e.bus.Emit(fmt.Sprintf("You took over %s! Assets integrated.", c.Name), feed.ToneGood)
		e.log.Info("takeover", "company", c.Name, "assets_moved", moved)
	}
}

// checkBankruptcies respawns any company whose price collapsed with its
// supply back in the float: fresh price, clean ledger, regenerated
// history, queued orders voided.
func (e *Engine) checkBankruptcies() {
	for _, c := range e.companies {
		if c.IsPlayer {
			continue
		}
		if c.Price > 0.5 || float64(c.PublicFloat) < float64(c.TotalShares)*0.95 {
			continue
		}
		c.Price = market.Round2(15 + e.rng.Float64()*45)
		c.PlayerShares = 0
		c.Owners = make(map[market.Holder]int)
		c.PublicFloat = c.TotalShares
		c.GenerateInitialHistory(e.rng)
		e.prevPrices[c.Name] = c.Price
		e.sellPressure[c.Name] = nil
		e.buyPressure[c.Name] = 0

		e.bus.Emit(fmt.Sprintf("%s went bankrupt and respawned at $%.2f", c.Name, c.Price), feed.ToneWarn)
		e.log.Info("bankruptcy respawn", "company", c.Name, "price", c.Price)
	}
}

// aiProfitTaking trims small lots from AI stakes after a sharp intra-tick
// rise.
func (e *Engine) aiProfitTaking() {
	for _, c := range e.companies {
		if c.IsPlayer {
			continue
		}
		prev := e.prevPrices[c.Name]
		if prev <= 0 {
			continue
		}
		pct := (c.Price - prev) / prev
		if pct <= 0.05 || e.rng.Float64() >= 0.2 {
			continue
		}
		for _, h := range c.AIHolders() {
			amt := c.HolderShares(h)
			if amt <= 0 {
				continue
			}
			sellAmt := int(float64(amt) * 0.02)
			if sellAmt < 1 {
				sellAmt = 1
			}
			sold := c.SellShares(h, sellAmt)
			if sold > 0 {
				e.bus.Emit(fmt.Sprintf("%s trimmed %d of %s", h.String(), sold, c.Name), feed.ToneInfo)
			}
		}
	}
}

// updateRatings recomputes the player and per-company CEO ratings from
// wealth, average trend and disruption.
func (e *Engine) updateRatings(trendChanges []float64) {
	avgTrend := 0.0
	if len(trendChanges) > 0 {
		for _, t := range trendChanges {
			avgTrend += t
		}
		avgTrend /= float64(len(trendChanges))
	}

	rating := e.assets.CEORating(e.cash, e.portfolioValue(), market.Player(), e.disruption.Value(), avgTrend)
	rating -= int(e.disruption.Value() * 0.2)
	if avgTrend < 0 {
		rating -= int(math.Abs(avgTrend) * 200)
	}
	if e.disruption.Value() > 80 {
		rating -= 5
	}
	if e.ratingSeen {
		delta := rating - e.playerRating
		if delta >= 10 {
			e.bus.Emit(fmt.Sprintf("Your CEO rating surged to %d", rating), feed.ToneInfo)
		} else if delta <= -10 {
			e.bus.Emit(fmt.Sprintf("Your CEO rating plummeted to %d", rating), feed.ToneBad)
		}
	}
	e.playerRating = rating
	e.ratingSeen = true

	for _, c := range e.companies {
		if c.IsPlayer {
			continue
		}
		owner := market.AI(c.Name)
		aiRating := e.assets.CEORating(
			e.aiCash[owner],
			c.Price*float64(e.owners[c.Name].TotalAIShares()),
			owner, 0, avgTrend,
		)
		if avgTrend < 0 {
			aiRating -= int(math.Abs(avgTrend) * 150)
		}
		e.aiRatings[c.Name] = aiRating
	}
}

// pushPriceInputs refreshes every price engine's bias inputs for the
// next movement step.
func (e *Engine) pushPriceInputs(day int) {
	playerBoost := e.assets.PriceBoost(market.Player())
	for _, c := range e.companies {
		p := e.prices[c.Name]

		rating := e.playerRating
		assetBoost := 0.0
		if c.IsPlayer {
			assetBoost = playerBoost
		} else {
			if r, ok := e.aiRatings[c.Name]; ok {
				rating = r
			} else {
				rating = 50
			}
		}
		sectorDrift, sectorVol := e.sectors.Modifiers(c.Sector, day)
		ownershipVol := math.Min(0.5, float64(c.OwnedShares())/math.Max(1, float64(c.TotalShares))*0.5)

		p.SetRatingFactor(float64(rating))
		p.SetAssetBoost(assetBoost)
		p.SetSectorBoost(sectorDrift)
		p.SetOwnershipVolBoost(ownershipVol + sectorVol)
		p.SetDemandBias(e.demand[c.Name] / math.Max(1, float64(c.TotalShares)))
	}
}

func (e *Engine) buildReports(income map[market.Holder]float64, paid, received map[string]float64) {
	reports := make([]CompanyReport, 0, len(e.companies))
	for _, c := range e.companies {
		reports = append(reports, CompanyReport{
			Name:              c.Name,
			Price:             c.Price,
			Float:             c.PublicFloat,
			Owned:             c.PlayerShares,
			AssetIncome:       income[market.AI(c.Name)],
			DividendsPaid:     paid[c.Name],
			DividendsReceived: received[market.AI(c.Name).String()],
		})
	}
	e.lastReports = reports
}
