package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/repository"
)

// TicketHandler exposes ticket entry and management: creating a
// ticket with its passengers, listing the caller's tickets, tuning
// matching preferences and cancelling.
type TicketHandler struct {
	Tickets *repository.TicketRepo
}

func NewTicketHandler(tickets *repository.TicketRepo) *TicketHandler {
	return &TicketHandler{Tickets: tickets}
}

type passengerInput struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	Coach         string `json:"coach"`
	SeatNumber    int    `json:"seat_number"`
	BerthType     string `json:"berth_type"`
	BookingStatus string `json:"booking_status"`
	CurrentStatus string `json:"current_status"`
}

type createTicketRequest struct {
	PNR             string           `json:"pnr"`
	TrainNumber     string           `json:"train_number"`
	TrainName       string           `json:"train_name"`
	TravelDate      string           `json:"travel_date"` // YYYY-MM-DD
	BoardingCode    string           `json:"boarding_code"`
	BoardingName    string           `json:"boarding_name"`
	DestinationCode string           `json:"destination_code"`
	DestinationName string           `json:"destination_name"`
	ClassType       string           `json:"class_type"`
	Quota           string           `json:"quota"`
	Passengers      []passengerInput `json:"passengers"`
	PreferredBerth  []string         `json:"preferred_berth"`
	AllowCyclic     bool             `json:"allow_cyclic"`
	SameCoachOnly   bool             `json:"same_coach_only"`
	SameBayOnly     bool             `json:"same_bay_only"`
	MinMatchScore   float64          `json:"min_match_score"`
}

// Create registers a ticket with its passengers for the caller.
func (h *TicketHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PNR == "" || req.TrainNumber == "" || len(req.Passengers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pnr, train_number and passengers are required"})
	}
	travelDate, err := time.Parse("2006-01-02", req.TravelDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}

	ticket := &model.Ticket{
		UserID:          uid,
		PNR:             req.PNR,
		TrainNumber:     req.TrainNumber,
		TrainName:       req.TrainName,
		TravelDate:      travelDate,
		BoardingCode:    req.BoardingCode,
		BoardingName:    req.BoardingName,
		DestinationCode: req.DestinationCode,
		DestinationName: req.DestinationName,
		ClassType:       req.ClassType,
		Quota:           req.Quota,
		PreferredBerth:  req.PreferredBerth,
		AllowCyclic:     req.AllowCyclic,
		SameCoachOnly:   req.SameCoachOnly,
		SameBayOnly:     req.SameBayOnly,
		MinMatchScore:   req.MinMatchScore,
	}
	for _, p := range req.Passengers {
		ticket.Passengers = append(ticket.Passengers, model.Passenger{
			Name:          p.Name,
			Age:           p.Age,
			Gender:        p.Gender,
			Coach:         p.Coach,
			SeatNumber:    p.SeatNumber,
			BerthType:     p.BerthType,
			BookingStatus: p.BookingStatus,
			CurrentStatus: p.CurrentStatus,
		})
	}

	if err := h.Tickets.Create(c.Request().Context(), ticket); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

// List returns all of the caller's tickets, newest first.
func (h *TicketHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tickets, err := h.Tickets.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// Get returns one of the caller's tickets.
func (h *TicketHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ticket, err := h.Tickets.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	if ticket.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, ticket)
}

type updatePreferencesRequest struct {
	PreferredBerth []string `json:"preferred_berth"`
	AllowCyclic    bool     `json:"allow_cyclic"`
	SameCoachOnly  bool     `json:"same_coach_only"`
	SameBayOnly    bool     `json:"same_bay_only"`
	MinMatchScore  float64  `json:"min_match_score"`
}

// UpdatePreferences replaces the matching preferences stored on one
// of the caller's tickets.
func (h *TicketHandler) UpdatePreferences(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req updatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	err = h.Tickets.UpdatePreferences(ctx, id, uid,
		req.PreferredBerth, req.AllowCyclic, req.SameCoachOnly, req.SameBayOnly, req.MinMatchScore)
	if err != nil {
		return writeDomainError(c, err)
	}
	ticket, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// Cancel withdraws one of the caller's tickets from matching. A
// ticket referenced by an open exchange request cannot be cancelled.
func (h *TicketHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	if err := h.Tickets.Cancel(c.Request().Context(), id, uid); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ticket cancelled"})
}
