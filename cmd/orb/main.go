package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cl "orbitals/internal/cli"
	"orbitals/internal/config"
	"orbitals/internal/engine"
)

func main() {
	cfg := config.LoadCLI()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "orb",
		Short:        "Orbitals market CLI client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newStatusCmd(&apiBase),
		newCompaniesCmd(&apiBase),
		newShowCmd(&apiBase),
		newFeedCmd(&apiBase),
		newReportsCmd(&apiBase),
		newAssetsCmd(&apiBase),
		newBuyCmd(&apiBase),
		newSellCmd(&apiBase),
		newDumpCmd(&apiBase),
		newOfferCmd(&apiBase),
		newAssetCmd(&apiBase),
		newPRCmd(&apiBase),
		newRDCmd(&apiBase),
		newSabotageCmd(&apiBase),
		newFortifyCmd(&apiBase),
		newSpeedCmd(&apiBase),
		newBotCmd(&apiBase),
		newWatchCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Status(ctx)
			if err != nil {
				return err
			}
			renderStatus(out)
			return nil
		},
	}
}

func newCompaniesCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:     "companies",
		Short:   "List every company on the market",
		Aliases: []string{"market"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Companies(ctx)
			if err != nil {
				return err
			}
			renderCompanies(out)
			return nil
		},
	}
}

func newShowCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [company]",
		Short: "Inspect one company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := companyFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).CompanyDetail(ctx, name)
			if err != nil {
				return err
			}
			renderCompanyDetail(out)
			return nil
		},
	}
}

func newFeedCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show recent market events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Feed(ctx, limit)
			if err != nil {
				return err
			}
			renderFeed(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events")
	return cmd
}

func newReportsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "Show the quarterly company reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Reports(ctx)
			if err != nil {
				return err
			}
			renderReports(out)
			return nil
		},
	}
}

func newAssetsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "Show your asset portfolio and the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Assets(ctx)
			if err != nil {
				return err
			}
			renderAssets(out)
			return nil
		},
	}
}

func newBuyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "buy [company] [shares]",
		Short: "Buy shares from the public float",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shareCommand(cmd, apiBase, args, func(ctx context.Context, c *cl.Client, name string, shares int) (engine.CommandResult, error) {
				return c.Buy(ctx, name, shares)
			})
		},
	}
}

func newSellCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sell [company] [shares]",
		Short: "Sell shares gradually at full price",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shareCommand(cmd, apiBase, args, func(ctx context.Context, c *cl.Client, name string, shares int) (engine.CommandResult, error) {
				return c.Sell(ctx, name, shares)
			})
		},
	}
}

func newDumpCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [company] [shares]",
		Short: "Dump shares fast at a haircut",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shareCommand(cmd, apiBase, args, func(ctx context.Context, c *cl.Client, name string, shares int) (engine.CommandResult, error) {
				return c.Dump(ctx, name, shares)
			})
		},
	}
}

func shareCommand(cmd *cobra.Command, apiBase *string, args []string, call func(context.Context, *cl.Client, string, int) (engine.CommandResult, error)) error {
	name, err := companyFromArgsOrPrompt(args)
	if err != nil {
		return err
	}
	shares, err := intFromArgOrPrompt(args, 1, "Shares")
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	out, err := call(ctx, newClient(apiBase), name, shares)
	if err != nil {
		return err
	}
	renderResult(out)
	return nil
}

func newOfferCmd(apiBase *string) *cobra.Command {
	var premium float64
	cmd := &cobra.Command{
		Use:   "offer [company] [holder] [shares]",
		Short: "Make a private offer for another holder's stake",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := companyFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			var target string
			if len(args) > 1 {
				target = strings.TrimSpace(args[1])
			} else {
				target, err = promptRequired("Holder")
				if err != nil {
					return err
				}
			}
			shares, err := intFromArgOrPrompt(args, 2, "Shares")
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Offer(ctx, name, target, shares, premium)
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&premium, "premium", 10, "premium over market price, percent")
	return cmd
}

func newAssetCmd(apiBase *string) *cobra.Command {
	asset := &cobra.Command{
		Use:   "asset",
		Short: "Buy and scrap income assets",
	}
	asset.AddCommand(&cobra.Command{
		Use:   "buy [type]",
		Short: "Buy an asset from the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetType := ""
			if len(args) > 0 {
				assetType = strings.TrimSpace(args[0])
			}
			if assetType == "" {
				var err error
				assetType, err = promptRequired("Asset type")
				if err != nil {
					return err
				}
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).BuyAsset(ctx, assetType)
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	})
	asset.AddCommand(&cobra.Command{
		Use:   "scrap [type]",
		Short: "Scrap an asset for its salvage value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetType := ""
			if len(args) > 0 {
				assetType = strings.TrimSpace(args[0])
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).ScrapAsset(ctx, assetType)
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	})
	return asset
}

func newPRCmd(apiBase *string) *cobra.Command {
	return simpleCommand(apiBase, "pr", "Run a PR campaign to calm disruption",
		func(ctx context.Context, c *cl.Client) (engine.CommandResult, error) { return c.PRCampaign(ctx) })
}

func newRDCmd(apiBase *string) *cobra.Command {
	return simpleCommand(apiBase, "rd", "Fund an R&D sprint for your company",
		func(ctx context.Context, c *cl.Client) (engine.CommandResult, error) { return c.RDSprint(ctx) })
}

func newFortifyCmd(apiBase *string) *cobra.Command {
	return simpleCommand(apiBase, "fortify", "Fortify your company against raids",
		func(ctx context.Context, c *cl.Client) (engine.CommandResult, error) { return c.Fortify(ctx) })
}

func simpleCommand(apiBase *string, use, short string, call func(context.Context, *cl.Client) (engine.CommandResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := call(ctx, newClient(apiBase))
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	}
}

func newSabotageCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sabotage [company]",
		Short: "Sabotage a rival company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := companyFromArgsOrPrompt(args)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Sabotage(ctx, name)
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	}
}

func newSpeedCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "speed [fast|normal]",
		Short: "Switch the simulation speed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "fast"
			if len(args) > 0 {
				mode = strings.ToLower(strings.TrimSpace(args[0]))
			}
			if mode != "fast" && mode != "normal" {
				return fmt.Errorf("speed must be fast or normal")
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).SetSpeed(ctx, mode == "fast")
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	}
}

func newBotCmd(apiBase *string) *cobra.Command {
	bot := &cobra.Command{
		Use:   "bot",
		Short: "Automation bot commands",
	}
	bot.AddCommand(&cobra.Command{
		Use:   "activate",
		Short: "Buy and activate the trading bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).ActivateBot(ctx)
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	})
	bot.AddCommand(&cobra.Command{
		Use:   "upgrade [speed|accuracy|size]",
		Short: "Upgrade one bot aspect",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aspect := ""
			if len(args) > 0 {
				aspect = strings.ToLower(strings.TrimSpace(args[0]))
			} else {
				var err error
				aspect, err = promptChoice("Aspect", []string{"speed", "accuracy", "size"}, "speed")
				if err != nil {
					return err
				}
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).UpgradeBot(ctx, aspect)
			if err != nil {
				return err
			}
			renderResult(out)
			return nil
		},
	})
	bot.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show bot level and trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Bot(ctx)
			if err != nil {
				return err
			}
			renderBot(out)
			return nil
		},
	})
	return bot
}

func newWatchCmd(apiBase *string) *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the market and redraw until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(apiBase)
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				status, err := client.Status(ctx)
				if err != nil {
					cancel()
					return err
				}
				companies, err := client.Companies(ctx)
				cancel()
				if err != nil {
					return err
				}
				clearScreen()
				renderStatus(status)
				renderCompanies(companies)
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&every, "every", 2*time.Second, "refresh interval")
	return cmd
}

func companyFromArgsOrPrompt(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	return promptRequired("Company")
}

func intFromArgOrPrompt(args []string, idx int, label string) (int, error) {
	if len(args) > idx {
		v, err := strconv.Atoi(strings.TrimSpace(args[idx]))
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid %s", strings.ToLower(label))
		}
		return v, nil
	}
	return promptInt(label, 1)
}
