package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/railswap/train-seat-exchange/internal/matching"
	"github.com/railswap/train-seat-exchange/internal/service"
)

// MatchHandler exposes match finding for a user's tickets.
type MatchHandler struct {
	Svc *service.MatchService
}

func NewMatchHandler(svc *service.MatchService) *MatchHandler {
	return &MatchHandler{Svc: svc}
}

// preferencesInput is the optional per-request preference override.
// When present it replaces the preferences stored on the ticket for
// this run only.
type preferencesInput struct {
	SameCoachOnly  bool     `json:"same_coach_only"`
	SameBayOnly    bool     `json:"same_bay_only"`
	PreferredBerth []string `json:"preferred_berth"`
	AllowCyclic    bool     `json:"allow_cyclic"`
	MinMatchScore  float64  `json:"min_match_score"`
}

func (p *preferencesInput) toPreferences() *matching.Preferences {
	if p == nil {
		return nil
	}
	return &matching.Preferences{
		SameCoachOnly:  p.SameCoachOnly,
		SameBayOnly:    p.SameBayOnly,
		PreferredBerth: p.PreferredBerth,
		AllowCyclic:    p.AllowCyclic,
		MinStoreScore:  p.MinMatchScore,
	}
}

type findMatchesRequest struct {
	Preferences    *preferencesInput `json:"preferences"`
	UseEnhancement bool              `json:"use_ai_enhancement"`
}

// FindMatches returns exchange candidates for one of the caller's
// tickets. Cached suggestions are served when present unless the
// request carries a berth preference, which forces a live scoring
// pass. The body is optional; without it the ticket's stored
// preferences apply.
func (h *MatchHandler) FindMatches(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := pathID(c, "ticket_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req findMatchesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.Svc.FindMatches(c.Request().Context(), ticketID, uid,
		req.Preferences.toPreferences(), req.UseEnhancement)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":    ticketID,
		"matches":      res.Entries,
		"total":        len(res.Entries),
		"prepopulated": res.Prepopulated,
	})
}

type batchFindMatchesRequest struct {
	TicketIDs      []uint64 `json:"ticket_ids"`
	UseEnhancement bool     `json:"use_ai_enhancement"`
}

// BatchFindMatches runs FindMatches for several of the caller's
// tickets. Tickets that fail are omitted from the response.
func (h *MatchHandler) BatchFindMatches(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req batchFindMatchesRequest
	if err := c.Bind(&req); err != nil || len(req.TicketIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_ids is required"})
	}

	results := h.Svc.BatchFindMatches(c.Request().Context(), uid, req.TicketIDs, req.UseEnhancement)

	out := make(map[uint64]echo.Map, len(results))
	for id, res := range results {
		out[id] = echo.Map{"matches": res.Entries, "prepopulated": res.Prepopulated}
	}
	return c.JSON(http.StatusOK, echo.Map{"results": out})
}
