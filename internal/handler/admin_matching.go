package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/railswap/train-seat-exchange/internal/service"
)

// AdminMatchingHandler exposes the operator-only matching jobs.
type AdminMatchingHandler struct {
	Svc *service.AdminMatchingService
}

func NewAdminMatchingHandler(svc *service.AdminMatchingService) *AdminMatchingHandler {
	return &AdminMatchingHandler{Svc: svc}
}

type adminRunRequest struct {
	TrainNumber   string  `json:"train_number"`
	TravelDate    string  `json:"travel_date"` // YYYY-MM-DD, required with train_number
	MinStoreScore float64 `json:"min_store_score"`
	TimeLimit     string  `json:"time_limit"` // Go duration, e.g. "30s"
}

func (r adminRunRequest) options() (service.GlobalOptions, error) {
	opts := service.GlobalOptions{MinScore: r.MinStoreScore}
	if r.TimeLimit != "" {
		d, err := time.ParseDuration(r.TimeLimit)
		if err != nil {
			return opts, err
		}
		opts.TimeLimit = d
	}
	return opts, nil
}

func (r adminRunRequest) date() (time.Time, error) {
	if r.TravelDate == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", r.TravelDate)
}

// Run triggers the per-ticket batch scorer. With a train number and
// date it processes one trip; without, every active ticket.
func (h *AdminMatchingHandler) Run(c echo.Context) error {
	var req adminRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := req.date()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}
	if req.TrainNumber != "" && req.TravelDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date is required with train_number"})
	}

	summary, err := h.Svc.RunMatching(c.Request().Context(), req.TrainNumber, date, req.MinStoreScore)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// RunGlobal solves the maximum-weight cycle cover for one trip and
// stores the resulting cycle suggestions.
func (h *AdminMatchingHandler) RunGlobal(c echo.Context) error {
	return h.global(c, true)
}

// PreviewGlobal runs the same solve without touching the suggestion
// store.
func (h *AdminMatchingHandler) PreviewGlobal(c echo.Context) error {
	return h.global(c, false)
}

func (h *AdminMatchingHandler) global(c echo.Context, persist bool) error {
	var req adminRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TrainNumber == "" || req.TravelDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_number and travel_date are required"})
	}
	date, err := req.date()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}
	opts, err := req.options()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_limit must be a duration like 30s"})
	}

	ctx := c.Request().Context()
	var result *service.GlobalRunResult
	if persist {
		result, err = h.Svc.RunGlobalMatching(ctx, req.TrainNumber, date, opts)
	} else {
		result, err = h.Svc.PreviewGlobalMatching(ctx, req.TrainNumber, date, opts)
	}
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
