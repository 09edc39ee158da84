// Package api exposes the simulation over HTTP: read-only snapshots of
// the market plus the player command surface.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orbitals/internal/assets"
	"orbitals/internal/engine"
)

type Server struct {
	log *slog.Logger
	sim *engine.Engine
	mux *chi.Mux
}

func New(logger *slog.Logger, sim *engine.Engine) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log: logger,
		sim: sim,
		mux: chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/companies", s.handleCompanies)
		r.Get("/companies/{name}", s.handleCompanyDetail)
		r.Get("/feed", s.handleFeed)
		r.Get("/reports", s.handleReports)
		r.Get("/bot", s.handleBot)
		r.Get("/assets", s.handleAssets)

		r.Route("/commands", func(r chi.Router) {
			r.Post("/buy", s.handleBuy)
			r.Post("/sell", s.handleSell)
			r.Post("/dump", s.handleDump)
			r.Post("/offer", s.handleOffer)
			r.Post("/buy-asset", s.handleBuyAsset)
			r.Post("/scrap-asset", s.handleScrapAsset)
			r.Post("/pr", s.handlePR)
			r.Post("/rd", s.handleRD)
			r.Post("/sabotage", s.handleSabotage)
			r.Post("/fortify", s.handleFortify)
			r.Post("/speed", s.handleSpeed)
			r.Post("/bot/activate", s.handleBotActivate)
			r.Post("/bot/upgrade", s.handleBotUpgrade)
		})
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.Status())
}

func (s *Server) handleCompanies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"companies": s.sim.Companies()})
}

func (s *Server) handleCompanyDetail(w http.ResponseWriter, r *http.Request) {
	out, err := s.sim.CompanyDetail(chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": s.sim.Feed(limit)})
}

func (s *Server) handleReports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reports": s.sim.Reports()})
}

func (s *Server) handleBot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.Bot())
}

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.Assets())
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleShareCommand(w, r, s.sim.Buy)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleShareCommand(w, r, s.sim.Sell)
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	s.handleShareCommand(w, r, s.sim.Dump)
}

func (s *Server) handleShareCommand(w http.ResponseWriter, r *http.Request, cmd func(string, int) (engine.CommandResult, error)) {
	var in struct {
		Company string `json:"company"`
		Shares  int    `json:"shares"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := cmd(strings.TrimSpace(in.Company), in.Shares)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Company    string  `json:"company"`
		Target     string  `json:"target"`
		Shares     int     `json:"shares"`
		PremiumPct float64 `json:"premium_pct"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.sim.Offer(strings.TrimSpace(in.Company), strings.TrimSpace(in.Target), in.Shares, in.PremiumPct)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBuyAsset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type string `json:"type"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.sim.BuyAsset(strings.TrimSpace(in.Type))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScrapAsset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type string `json:"type"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.sim.ScrapAsset(strings.TrimSpace(in.Type))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePR(w http.ResponseWriter, r *http.Request) {
	s.handleSimpleCommand(w, s.sim.PRCampaign)
}

func (s *Server) handleRD(w http.ResponseWriter, r *http.Request) {
	s.handleSimpleCommand(w, s.sim.RDSprint)
}

func (s *Server) handleFortify(w http.ResponseWriter, r *http.Request) {
	s.handleSimpleCommand(w, s.sim.Fortify)
}

func (s *Server) handleSimpleCommand(w http.ResponseWriter, cmd func() (engine.CommandResult, error)) {
	res, err := cmd()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSabotage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Company string `json:"company"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.sim.Sabotage(strings.TrimSpace(in.Company))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Fast bool `json:"fast"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sim.SetSpeed(in.Fast))
}

func (s *Server) handleBotActivate(w http.ResponseWriter, r *http.Request) {
	s.handleSimpleCommand(w, s.sim.ActivateBot)
}

func (s *Server) handleBotUpgrade(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Aspect string `json:"aspect"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.sim.UpgradeBot(strings.TrimSpace(in.Aspect))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, engine.ErrInsufficientShares),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrInvalidAspect),
		errors.Is(err, assets.ErrInvalidAssetType):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, engine.ErrUnknownCompany), errors.Is(err, engine.ErrUnknownHolder):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrBotActive), errors.Is(err, engine.ErrBotInactive):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
