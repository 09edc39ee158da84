package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"orbitals/internal/engine"
	"orbitals/internal/feed"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func promptInt(label string, min int) (int, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min {
			printWarn(fmt.Sprintf("Value must be >= %d", min))
			continue
		}
		return v, nil
	}
}

func clearScreen() {
	fmt.Print("\033[2J\033[H")
}

func renderStatus(st engine.Status) {
	accent.Printf("\n== %s ==\n", strings.ToUpper(st.PlayerName))
	fmt.Printf("Clock:        %s  (%s)\n", st.Clock, st.CalendarLabel)
	fmt.Printf("Cash:         %s\n", money(st.Cash))
	fmt.Printf("Portfolio:    %s\n", money(st.PortfolioValue))
	fmt.Printf("CEO Rating:   %s\n", colorizeRating(st.CEORating))
	fmt.Printf("Disruption:   %.1f (%s)\n", st.Disruption, st.DisruptionState)
	fmt.Printf("Income/day:   %s\n", money(st.ExternalIncome))
	fmt.Printf("AI Treasury:  %s\n", money(st.AITreasury))
	if st.FastMode {
		warn.Println("Fast mode is ON.")
	}
	if st.Bot.Active {
		fmt.Printf("Bot:          L%d, PnL %s\n", st.Bot.Level, colorizeMoney(st.Bot.TotalPnL))
	}
	if len(st.ActiveEvents) > 0 {
		fmt.Println()
		accent.Println("Active Sector Events")
		for _, ev := range st.ActiveEvents {
			fmt.Printf("  %-16s %-12s drift %+0.3f  vol %+0.3f  %dd left\n",
				ev.Name, ev.Sector, ev.Drift, ev.Vol, ev.DaysLeft)
		}
	}
	fmt.Println()
}

func renderCompanies(companies []engine.CompanySummary) {
	accent.Println("\n== MARKET ==")
	if len(companies) == 0 {
		printInfo("No companies on the board.")
		return
	}
	fmt.Printf("%-24s %-14s %10s %9s %8s %8s %6s %-6s\n",
		"COMPANY", "SECTOR", "PRICE", "CHANGE", "OWNED", "FLOAT", "CEO", "FLAGS")
	for _, c := range companies {
		var flags []string
		if c.IsPlayer {
			flags = append(flags, "you")
		}
		if c.TakenOver {
			flags = append(flags, "owned")
		}
		fmt.Printf("%-24s %-14s %10s %9s %8d %8d %6d %-6s\n",
			truncate(c.Name, 24),
			truncate(c.Sector, 14),
			money(c.Price),
			colorizePercent(c.ChangePct),
			c.PlayerShares,
			c.PublicFloat,
			c.CEORating,
			strings.Join(flags, ","),
		)
	}
	fmt.Println()
}

func renderCompanyDetail(d engine.CompanyDetail) {
	accent.Printf("\n== %s (%s) ==\n", strings.ToUpper(d.Name), d.Sector)
	fmt.Printf("Price:       %s (%s today)\n", money(d.Price), colorizePercent(d.ChangePct))
	fmt.Printf("Volatility:  %.3f\n", d.Volatility)
	fmt.Printf("Sentiment:   %+.3f\n", d.Sentiment)
	fmt.Printf("Demand bias: %+.1f\n", d.DemandBias)
	fmt.Printf("CEO Rating:  %d\n", d.CEORating)
	fmt.Printf("Shares:      yours=%d float=%d total=%d\n", d.PlayerShares, d.PublicFloat, d.TotalShares)
	if d.TakenOver {
		success.Println("This company is under your control.")
	}

	if len(d.Holders) > 0 {
		fmt.Println()
		accent.Println("Holders")
		for _, h := range d.Holders {
			fmt.Printf("  %-20s %8d\n", truncate(h.Name, 20), h.Shares)
		}
	}

	if len(d.DailyCandles) > 0 {
		fmt.Println()
		accent.Println("Recent Days")
		fmt.Printf("%10s %10s %10s %10s\n", "OPEN", "HIGH", "LOW", "CLOSE")
		candles := d.DailyCandles
		if len(candles) > 8 {
			candles = candles[len(candles)-8:]
		}
		for _, c := range candles {
			fmt.Printf("%10s %10s %10s %10s\n", money(c.Open), money(c.High), money(c.Low), money(c.Close))
		}
	}

	if len(d.TradeLog) > 0 {
		fmt.Println()
		accent.Println("Trade Log")
		for _, line := range d.TradeLog {
			fmt.Printf("  %s\n", line)
		}
	}
	fmt.Println()
}

func renderFeed(events []feed.Event) {
	accent.Println("\n== MARKET FEED ==")
	if len(events) == 0 {
		printInfo("No events yet.")
		return
	}
	for _, ev := range events {
		stamp := ev.At.Local().Format("15:04:05")
		line := fmt.Sprintf("%s  %s", stamp, ev.Message)
		switch ev.Tone {
		case feed.ToneGood:
			success.Println(line)
		case feed.ToneBad:
			danger.Println(line)
		case feed.ToneWarn:
			warn.Println(line)
		case feed.ToneAccent:
			accent.Println(line)
		default:
			neutral.Println(line)
		}
	}
	fmt.Println()
}

func renderReports(reports []engine.CompanyReport) {
	accent.Println("\n== COMPANY REPORTS ==")
	if len(reports) == 0 {
		printInfo("No reports yet. Let a day pass first.")
		return
	}
	fmt.Printf("%-24s %10s %8s %8s %12s %12s %12s\n",
		"COMPANY", "PRICE", "FLOAT", "OWNED", "ASSET INC", "DIV PAID", "DIV RECV")
	for _, r := range reports {
		fmt.Printf("%-24s %10s %8d %8d %12s %12s %12s\n",
			truncate(r.Name, 24),
			money(r.Price),
			r.Float,
			r.Owned,
			money(r.AssetIncome),
			money(r.DividendsPaid),
			money(r.DividendsReceived),
		)
	}
	fmt.Println()
}

func renderAssets(view engine.AssetsView) {
	accent.Println("\n== ASSETS ==")
	fmt.Printf("Cash:      %s\n", money(view.Cash))
	fmt.Printf("Portfolio: %s\n", money(view.PortfolioValue))
	fmt.Printf("Total:     %s\n", money(view.TotalValue))

	fmt.Println()
	accent.Println("Holdings")
	if len(view.Assets) == 0 {
		printInfo("No assets owned yet.")
	} else {
		fmt.Printf("%-18s %-10s %10s %10s %8s %-7s\n", "TYPE", "TIER", "COND", "VALUE", "EFF", "STATE")
		for _, a := range view.Assets {
			state := "ok"
			if a.Broken {
				state = "broken"
			}
			fmt.Printf("%-18s %-10s %9.1f%% %10s %7.2fx %-7s\n",
				truncate(a.Type, 18), a.Tier, a.Condition*100, money(a.Value), a.Efficiency, state)
		}
	}

	fmt.Println()
	accent.Println("Catalog")
	fmt.Printf("%-18s %10s %12s %8s\n", "TYPE", "COST", "INCOME/DAY", "BOOST")
	for _, spec := range view.Catalog {
		fmt.Printf("%-18s %10s %12s %7.1f%%\n",
			truncate(spec.Name, 18), money(spec.Cost), money(spec.IncomePerDay), spec.Boost*100)
	}
	fmt.Println()
}

func renderBot(bot engine.BotStatus) {
	accent.Println("\n== TRADING BOT ==")
	if !bot.Active {
		printInfo("Bot is not active. Run `orb bot activate`.")
		return
	}
	fmt.Printf("Level:    %d\n", bot.Level)
	fmt.Printf("Speed:    %d\n", bot.Speed)
	fmt.Printf("Accuracy: %.0f%%\n", bot.Accuracy*100)
	fmt.Printf("Size:     %.2fx\n", bot.Size)
	fmt.Printf("Total PnL:%s\n", colorizeMoney(bot.TotalPnL))

	if len(bot.History) > 0 {
		fmt.Println()
		accent.Println("Recent Trades")
		fmt.Printf("%-6s %-24s %8s %10s %10s %12s\n", "RESULT", "COMPANY", "SHARES", "BUY", "SELL", "PNL")
		for _, tr := range bot.History {
			fmt.Printf("%-6s %-24s %8d %10s %10s %12s\n",
				tr.Result, truncate(tr.Company, 24), tr.Shares, money(tr.Buy), money(tr.Sell), colorizeMoney(tr.PnL))
		}
	}
	fmt.Println()
}

func renderResult(res engine.CommandResult) {
	switch res.Status {
	case "ok":
		printSuccess(res.Message)
	case "queued":
		printWarn(res.Message)
	case "declined":
		danger.Println(res.Message)
	default:
		printInfo(res.Message)
	}
}

func colorizeMoney(v float64) string {
	text := money(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeRating(v int) string {
	text := strconv.Itoa(v)
	switch {
	case v >= 70:
		return success.Sprint(text)
	case v < 40:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v)
	frac := int64((v-float64(whole))*100 + 0.5)
	if frac >= 100 {
		whole++
		frac -= 100
	}
	return fmt.Sprintf("%s$%s.%02d", sign, comma(whole), frac)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
