// Package cli is the HTTP client used by the orb command-line tool.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orbitals/internal/engine"
	"orbitals/internal/feed"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Status(ctx context.Context) (engine.Status, error) {
	var out engine.Status
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/status", nil, &out)
	return out, err
}

func (c *Client) Companies(ctx context.Context) ([]engine.CompanySummary, error) {
	var out struct {
		Companies []engine.CompanySummary `json:"companies"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies", nil, &out)
	return out.Companies, err
}

func (c *Client) CompanyDetail(ctx context.Context, name string) (engine.CompanyDetail, error) {
	var out engine.CompanyDetail
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies/"+url.PathEscape(name), nil, &out)
	return out, err
}

func (c *Client) Feed(ctx context.Context, limit int) ([]feed.Event, error) {
	var out struct {
		Events []feed.Event `json:"events"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/feed?limit=%d", limit), nil, &out)
	return out.Events, err
}

func (c *Client) Reports(ctx context.Context) ([]engine.CompanyReport, error) {
	var out struct {
		Reports []engine.CompanyReport `json:"reports"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/reports", nil, &out)
	return out.Reports, err
}

func (c *Client) Bot(ctx context.Context) (engine.BotStatus, error) {
	var out engine.BotStatus
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/bot", nil, &out)
	return out, err
}

func (c *Client) Assets(ctx context.Context) (engine.AssetsView, error) {
	var out engine.AssetsView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/assets", nil, &out)
	return out, err
}

func (c *Client) Buy(ctx context.Context, company string, shares int) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/buy", map[string]any{"company": company, "shares": shares})
}

func (c *Client) Sell(ctx context.Context, company string, shares int) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/sell", map[string]any{"company": company, "shares": shares})
}

func (c *Client) Dump(ctx context.Context, company string, shares int) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/dump", map[string]any{"company": company, "shares": shares})
}

func (c *Client) Offer(ctx context.Context, company, target string, shares int, premiumPct float64) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/offer", map[string]any{
		"company":     company,
		"target":      target,
		"shares":      shares,
		"premium_pct": premiumPct,
	})
}

func (c *Client) BuyAsset(ctx context.Context, assetType string) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/buy-asset", map[string]any{"type": assetType})
}

func (c *Client) ScrapAsset(ctx context.Context, assetType string) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/scrap-asset", map[string]any{"type": assetType})
}

func (c *Client) PRCampaign(ctx context.Context) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/pr", map[string]any{})
}

func (c *Client) RDSprint(ctx context.Context) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/rd", map[string]any{})
}

func (c *Client) Sabotage(ctx context.Context, company string) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/sabotage", map[string]any{"company": company})
}

func (c *Client) Fortify(ctx context.Context) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/fortify", map[string]any{})
}

func (c *Client) SetSpeed(ctx context.Context, fast bool) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/speed", map[string]any{"fast": fast})
}

func (c *Client) ActivateBot(ctx context.Context) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/bot/activate", map[string]any{})
}

func (c *Client) UpgradeBot(ctx context.Context, aspect string) (engine.CommandResult, error) {
	return c.command(ctx, "/v1/commands/bot/upgrade", map[string]any{"aspect": aspect})
}

func (c *Client) command(ctx context.Context, path string, body map[string]any) (engine.CommandResult, error) {
	var out engine.CommandResult
	err := c.jsonRequest(ctx, http.MethodPost, path, body, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
