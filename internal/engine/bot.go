package engine

import (
	"fmt"

	"orbitals/internal/feed"
	"orbitals/internal/market"
)

// ActivateBot turns the automation bot on at level 1.
func (e *Engine) ActivateBot() (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bot.Active {
		return CommandResult{}, ErrBotActive
	}
	if e.cash < botCost {
		return CommandResult{}, ErrInsufficientFunds
	}
	e.spend(botCost)
	e.bot = autoBot{
		Active:   true,
		Level:    1,
		Speed:    1,
		Accuracy: 0.55,
		Size:     0.5,
	}

	msg := "Automation bot online (Level 1)."
	e.bus.Emit(msg, feed.ToneInfo)
	return okResult(msg), nil
}

// UpgradeBot raises one bot aspect. Cost scales with level; each aspect
// has a hard cap.
func (e *Engine) UpgradeBot(aspect string) (CommandResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.bot.Active {
		return CommandResult{}, ErrBotInactive
	}
	switch aspect {
	case "speed", "accuracy", "size":
	default:
		return CommandResult{}, ErrInvalidAspect
	}
	cost := 8000.0 + float64(e.bot.Level)*4000.0
	if e.cash < cost {
		return CommandResult{}, ErrInsufficientFunds
	}
	e.spend(cost)
	e.bot.Level++

	switch aspect {
	case "speed":
		if e.bot.Speed < 5 {
			e.bot.Speed++
		}
	case "accuracy":
		e.bot.Accuracy += 0.05
		if e.bot.Accuracy > 0.9 {
			e.bot.Accuracy = 0.9
		}
	case "size":
		e.bot.Size += 0.25
		if e.bot.Size > 3.0 {
			e.bot.Size = 3.0
		}
	}

	msg := fmt.Sprintf("Automation upgrade applied (%s).", aspect)
	e.bus.Emit(msg, feed.ToneInfo)
	return okResult(msg), nil
}

// tickBot runs one automation step: pick a random company, scalp a small
// position and settle it immediately at a win or loss price. The float
// is borrowed and returned within the trade, so only the price and
// demand signal move. Caller holds the lock.
func (e *Engine) tickBot() {
	if !e.bot.Active {
		return
	}
	if e.rng.Float64() > 0.12*float64(e.bot.Speed) {
		return
	}
	target := e.companies[e.rng.Intn(len(e.companies))]
	if target.PublicFloat <= 0 {
		return
	}

	shares := int(float64(target.TotalShares) * 0.006 * e.bot.Size)
	if shares < 1 {
		shares = 1
	}
	if shares > target.PublicFloat {
		shares = target.PublicFloat
	}
	cost := target.Price * float64(shares)
	if e.cash < cost {
		return
	}

	win := e.rng.Float64() < e.bot.Accuracy
	buyPrice := target.Price
	var sellPrice float64
	if win {
		sellPrice = buyPrice * (1.012 + e.rng.Float64()*0.012)
	} else {
		sellPrice = buyPrice * (1 - (0.008 + e.rng.Float64()*0.01))
	}
	pnl := (sellPrice - buyPrice) * float64(shares)

	e.spend(cost)
	target.Price = market.Round2(sellPrice)
	if win {
		e.demand[target.Name] += float64(shares)
	} else {
		e.demand[target.Name] -= float64(shares) * 0.5
	}
	e.earn(cost + pnl)
	e.bot.TotalPnL += pnl

	result := "WIN"
	if !win {
		result = "LOSS"
	}
	e.bot.History = append(e.bot.History, BotTrade{
		Result:  result,
		Company: target.Name,
		Shares:  shares,
		Buy:     buyPrice,
		Sell:    market.Round2(sellPrice),
		PnL:     pnl,
	})
	if len(e.bot.History) > botHistoryCap {
		e.bot.History = e.bot.History[len(e.bot.History)-botHistoryCap:]
	}
}
