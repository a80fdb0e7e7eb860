package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/service"
)

// ExchangeHandler exposes the exchange request lifecycle: propose,
// list, accept, decline and confirm.
type ExchangeHandler struct {
	Svc *service.ExchangeService
}

func NewExchangeHandler(svc *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{Svc: svc}
}

type createExchangeRequest struct {
	TargetUserID   uint64                 `json:"target_user_id"`
	TargetTicketID uint64                 `json:"target_ticket_id"`
	Proposal       model.ExchangeProposal `json:"proposal"`
	Message        string                 `json:"message"`
}

// Create proposes a new exchange to another user.
func (h *ExchangeHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createExchangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TargetUserID == 0 || req.TargetTicketID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target_user_id and target_ticket_id are required"})
	}
	if len(req.Proposal.Give) == 0 || len(req.Proposal.Receive) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "proposal must include give and receive seats"})
	}

	created, err := h.Svc.Create(c.Request().Context(), uid, service.CreateExchangeInput{
		TargetUserID:   req.TargetUserID,
		TargetTicketID: req.TargetTicketID,
		Proposal:       req.Proposal,
		Message:        req.Message,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// List returns the caller's received and sent exchange requests.
func (h *ExchangeHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	received, sent, err := h.Svc.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": received, "sent": sent})
}

// Accept moves a pending request to accepted. Target only.
func (h *ExchangeHandler) Accept(c echo.Context) error {
	return h.transition(c, h.Svc.Accept)
}

// Decline marks a request declined. Target only, idempotent.
func (h *ExchangeHandler) Decline(c echo.Context) error {
	return h.transition(c, h.Svc.Decline)
}

// Confirm records the caller's confirmation; the second confirmation
// completes the exchange.
func (h *ExchangeHandler) Confirm(c echo.Context) error {
	return h.transition(c, h.Svc.Confirm)
}

// transition factors the shared shape of the status endpoints: parse
// the id, run the service operation as the caller, map errors.
func (h *ExchangeHandler) transition(c echo.Context, op func(ctx context.Context, id, userID uint64) (*model.ExchangeRequest, error)) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	req, err := op(c.Request().Context(), id, uid)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}
