package engine

import (
	"fmt"

	"github.com/google/uuid"

	"orbitals/internal/assets"
	"orbitals/internal/feed"
	"orbitals/internal/market"
)

const (
	prCost       = 5000.0
	rdCost       = 7000.0
	sabotageCost = 4000.0
	fortifyCost  = 6000.0
	botCost      = 15000.0
)

// Buy purchases shares from the public float at market price. With no
// float available the order is queued as buy pressure instead of
// failing.
func (e *Engine) Buy(company string, shares int) (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.company(company)
	if err != nil {
		return CommandResult{}, err
	}
	if shares <= 0 {
		return CommandResult{}, ErrInvalidAmount
	}
	cost := c.Price * float64(shares)
	if cost > e.cash {
		return CommandResult{}, ErrInsufficientFunds
	}

	if c.PublicFloat <= 0 {
		e.buyPressure[c.Name] += shares
		msg := fmt.Sprintf("No float available. Queued buy order for %d shares of %s.", shares, c.Name)
		e.bus.Emit(msg, feed.ToneInfo)
		return queuedResult(msg), nil
	}

	ok, _ := e.owners[c.Name].BuyPlayer(shares, e.disruption)
	if !ok {
		return CommandResult{}, ErrInsufficientShares
	}
	e.spend(cost)
	e.demand[c.Name] += float64(shares)

	msg := fmt.Sprintf("You bought %d shares of %s", shares, c.Name)
	e.bus.Emit(msg, feed.ToneGood)
	e.tradeLogs[c.Name].Add(fmt.Sprintf("Buy %d @ $%.2f", shares, c.Price))
	e.log.Info("player buy", "company", c.Name, "shares", shares, "cost", cost)
	return okResult(msg), nil
}

// Sell reserves shares into escrow and queues an orderly liquidation
// paid out at full price as lots drain.
func (e *Engine) Sell(company string, shares int) (CommandResult, error) {
	return e.queueLiquidation(company, shares, 8, 1.0)
}

// Dump queues a fast liquidation in quarter-size chunks at a 10% price
// penalty and immediately raises disruption.
func (e *Engine) Dump(company string, shares int) (CommandResult, error) {
	res, err := e.queueLiquidation(company, shares, 4, 0.9)
	if err != nil {
		return res, err
	}
	e.mu.Lock()
	e.disruption.Apply(10)
	e.mu.Unlock()
	return res, nil
}

func (e *Engine) queueLiquidation(company string, shares, chunkDiv int, penalty float64) (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.company(company)
	if err != nil {
		return CommandResult{}, err
	}
	if shares <= 0 {
		return CommandResult{}, ErrInvalidAmount
	}
	if c.PlayerShares < shares {
		return CommandResult{}, ErrInsufficientShares
	}

	c.Debit(market.Player(), shares)
	c.Credit(market.Escrow(), shares)

	chunk := shares / chunkDiv
	if chunk < 1 {
		chunk = 1
	}
	order := &sellOrder{
		ID:        uuid.NewString(),
		Owner:     market.Player(),
		Remaining: shares,
		Chunk:     chunk,
		Penalty:   penalty,
	}
	e.sellPressure[c.Name] = append(e.sellPressure[c.Name], order)

	var msg string
	if penalty < 1.0 {
		msg = fmt.Sprintf("Dumped %d shares of %s (queued, discount payout)", shares, c.Name)
		e.bus.Emit(msg, feed.ToneBad)
	} else {
		msg = fmt.Sprintf("Queued sell of %d shares of %s", shares, c.Name)
		e.bus.Emit(msg, feed.ToneInfo)
	}
	e.log.Info("player liquidation queued", "order_id", order.ID, "company", c.Name, "shares", shares, "penalty", penalty)
	return queuedResult(msg), nil
}

// Offer proposes a direct buyout of shares from one AI holder at a
// premium over market price. The holder may decline; that is an outcome,
// not an error. Cash is pre-checked against the full request but only
// charged for shares actually transferred.
func (e *Engine) Offer(company, target string, shares int, premiumPct float64) (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.company(company)
	if err != nil {
		return CommandResult{}, err
	}
	if shares <= 0 {
		return CommandResult{}, ErrInvalidAmount
	}
	holder := market.AI(target)
	if c.HolderShares(holder) <= 0 {
		return CommandResult{}, ErrUnknownHolder
	}
	unitPrice := c.Price * (1 + premiumPct/100)
	if unitPrice*float64(shares) > e.cash {
		return CommandResult{}, ErrInsufficientFunds
	}

	accepted, transferred := e.owners[c.Name].OfferPurchaseFromAI(
		holder, shares, e.disruption, premiumPct/100, -0.05, e.rng,
	)
	if !accepted || transferred <= 0 {
		msg := fmt.Sprintf("%s declined your offer for %d shares of %s", target, shares, c.Name)
		e.bus.Emit(msg, feed.ToneWarn)
		return declinedResult(msg), nil
	}

	e.spend(unitPrice * float64(transferred))
	msg := fmt.Sprintf("%s accepted offer for %d shares of %s", target, transferred, c.Name)
	e.bus.Emit(msg, feed.ToneAccent)
	e.log.Info("offer accepted", "company", c.Name, "target", target, "shares", transferred)
	return okResult(msg), nil
}

// BuyAsset purchases one asset of the given catalog type for the player.
func (e *Engine) BuyAsset(assetType string) (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	spec, ok := assets.SpecFor(assetType)
	if !ok {
		return CommandResult{}, assets.ErrInvalidAssetType
	}
	if spec.Cost > e.cash {
		return CommandResult{}, ErrInsufficientFunds
	}

	_, broken, err := e.assets.Purchase(assetType, market.Player())
	if err != nil {
		return CommandResult{}, err
	}
	e.spend(spec.Cost)

	msg := fmt.Sprintf("Purchased %s for $%.0f", assetType, spec.Cost)
	tone := feed.ToneInfo
	if broken {
		msg += " (broken)"
		tone = feed.ToneBad
	}
	e.bus.Emit(msg, tone)
	return okResult(msg), nil
}

// ScrapAsset sells off one player asset for a 40% salvage refund. An
// empty type scraps the oldest asset.
func (e *Engine) ScrapAsset(assetType string) (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if assetType != "" {
		if _, ok := assets.SpecFor(assetType); !ok {
			return CommandResult{}, assets.ErrInvalidAssetType
		}
	}
	refund := e.assets.ScrapOne(market.Player(), assetType)
	if refund <= 0 {
		return declinedResult("Nothing to scrap."), nil
	}
	e.earn(refund)

	msg := fmt.Sprintf("Scrapped asset for $%.2f salvage", refund)
	e.bus.Emit(msg, feed.ToneInfo)
	return okResult(msg), nil
}

// PRCampaign spends cash to shave 10 points of disruption and lift the
// CEO rating.
func (e *Engine) PRCampaign() (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cash < prCost {
		return CommandResult{}, ErrInsufficientFunds
	}
	e.spend(prCost)
	e.disruption.Reduce(10)
	e.adjustPlayerRating(2)

	msg := "PR campaign lowered disruption by 10% and lifted CEO rating"
	e.bus.Emit(msg, feed.ToneInfo)
	return okResult(msg), nil
}

// RDSprint gambles cash on research: 65% chance of a rating boost,
// otherwise a rating hit plus disruption.
func (e *Engine) RDSprint() (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cash < rdCost {
		return CommandResult{}, ErrInsufficientFunds
	}
	e.spend(rdCost)

	if e.rng.Float64() < 0.65 {
		e.adjustPlayerRating(4)
		msg := "R&D sprint succeeded: CEO rating +4"
		e.bus.Emit(msg, feed.ToneAccent)
		return okResult(msg), nil
	}
	e.adjustPlayerRating(-3)
	e.disruption.Apply(5)
	msg := "R&D failed: CEO rating -3, disruption +5"
	e.bus.Emit(msg, feed.ToneBad)
	return okResult(msg), nil
}

// Sabotage trims a rival's public float into the market queue, raising
// disruption and denting the player's reputation.
func (e *Engine) Sabotage(target string) (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.company(target)
	if err != nil {
		return CommandResult{}, err
	}
	if c.IsPlayer {
		return declinedResult("You cannot sabotage your own company."), nil
	}
	if e.cash < sabotageCost {
		return CommandResult{}, ErrInsufficientFunds
	}
	e.spend(sabotageCost)

	c.BuyShares(market.MarketQueue(), 5)
	e.disruption.Apply(12)
	e.adjustPlayerRating(-5)

	msg := fmt.Sprintf("Sabotaged %s (float -5, rating hit)", c.Name)
	e.bus.Emit(msg, feed.ToneBad)
	e.log.Info("sabotage", "target", c.Name)
	return okResult(msg), nil
}

// Fortify spends cash on defensive operations: a rating lift and a small
// disruption reduction.
func (e *Engine) Fortify() (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cash < fortifyCost {
		return CommandResult{}, ErrInsufficientFunds
	}
	e.spend(fortifyCost)
	e.disruption.Reduce(5)
	e.adjustPlayerRating(3)

	msg := "Fortified operations: +3 CEO rating, -5 disruption"
	e.bus.Emit(msg, feed.ToneInfo)
	return okResult(msg), nil
}

// SetSpeed switches every price engine between the normal and fast day
// length. The serving loop reads FastMode to adjust its ticker.
func (e *Engine) SetSpeed(fast bool) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.fast = fast
	for _, p := range e.prices {
		p.SetFastMode(fast)
	}
	if fast {
		return okResult("Fast mode enabled")
	}
	return okResult("Normal speed restored")
}
