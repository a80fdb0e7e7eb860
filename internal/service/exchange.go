package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/queue"
	"github.com/railswap/train-seat-exchange/internal/repository"
)

// TransitionError reports an exchange request operation attempted in
// a status that does not allow it. Handlers map it to a 400.
type TransitionError struct {
	Op     string
	Status string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a request in status %q", e.Op, e.Status)
}

// ExchangeService drives the lifecycle of exchange requests:
// pending on creation, accepted or declined by the target, then
// completed once both parties confirm. Completion flips the status
// and bumps both users' exchange counters inside one transaction, so
// concurrent confirms increment the counters exactly once.
type ExchangeService struct {
	DB        *sql.DB
	Exchanges *repository.ExchangeRepo
	Tickets   *repository.TicketRepo
	Users     *repository.UserRepo

	// publish is swapped out in tests. It is called after a
	// successful completion commit; a failed publish is logged and
	// never surfaced to the caller.
	publish func(ctx context.Context, ev queue.ExchangeCompletedEvent) error
}

func NewExchangeService(db *sql.DB, ex *repository.ExchangeRepo, tk *repository.TicketRepo, us *repository.UserRepo) *ExchangeService {
	return &ExchangeService{
		DB:        db,
		Exchanges: ex,
		Tickets:   tk,
		Users:     us,
		publish:   queue.PublishExchangeCompleted,
	}
}

// CreateExchangeInput carries the fields a requester submits when
// proposing an exchange.
type CreateExchangeInput struct {
	TargetUserID   uint64
	TargetTicketID uint64
	Proposal       model.ExchangeProposal
	Message        string
}

// Create validates and persists a new pending exchange request. The
// target user and ticket must exist, the ticket must belong to the
// target, the requester must hold an active ticket on the same train
// and date, and both sides of the proposal must name at least one
// seat. Requester and target are always distinct users.
func (s *ExchangeService) Create(ctx context.Context, requesterID uint64, in CreateExchangeInput) (*model.ExchangeRequest, error) {
	if requesterID == in.TargetUserID {
		return nil, repository.ErrForbidden
	}
	if len(in.Proposal.Give) == 0 || len(in.Proposal.Receive) == 0 {
		return nil, errors.New("proposal must name seats on both sides")
	}
	if _, err := s.Users.GetByID(ctx, in.TargetUserID); err != nil {
		return nil, err
	}
	target, err := s.Tickets.GetByID(ctx, in.TargetTicketID)
	if err != nil {
		return nil, err
	}
	if target.UserID != in.TargetUserID {
		return nil, repository.ErrTicketNotFound
	}
	mine, err := s.Tickets.ActiveTicketForUser(ctx, requesterID, target.TrainNumber, target.TravelDate)
	if err != nil {
		return nil, err
	}

	req := &model.ExchangeRequest{
		RequesterID:       requesterID,
		RequesterTicketID: mine.ID,
		TargetUserID:      in.TargetUserID,
		TargetTicketID:    in.TargetTicketID,
		TrainNumber:       target.TrainNumber,
		TravelDate:        target.TravelDate,
		Proposal:          in.Proposal,
		Message:           in.Message,
	}
	if err := s.Exchanges.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListForUser returns the requests where the user is target
// (received) and those where they are requester (sent).
func (s *ExchangeService) ListForUser(ctx context.Context, userID uint64) (received, sent []*model.ExchangeRequest, err error) {
	return s.Exchanges.ListByUser(ctx, userID)
}

// Accept moves a pending request to accepted. Only the target may
// accept, and only while the request is still pending.
func (s *ExchangeService) Accept(ctx context.Context, id, userID uint64) (*model.ExchangeRequest, error) {
	req, err := s.Exchanges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TargetUserID != userID {
		return nil, repository.ErrForbidden
	}
	if req.Status != model.ExchangePending {
		return nil, &TransitionError{Op: "accept", Status: req.Status}
	}
	if err := s.Exchanges.UpdateStatus(ctx, id, model.ExchangeAccepted); err != nil {
		return nil, err
	}
	req.Status = model.ExchangeAccepted
	return req, nil
}

// Decline marks a request as declined. Only the target may decline.
// Declining is unconditional: a repeated decline is an idempotent
// no-op and declining an already accepted request withdraws it.
func (s *ExchangeService) Decline(ctx context.Context, id, userID uint64) (*model.ExchangeRequest, error) {
	req, err := s.Exchanges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TargetUserID != userID {
		return nil, repository.ErrForbidden
	}
	if req.Status == model.ExchangeDeclined {
		return req, nil
	}
	if err := s.Exchanges.UpdateStatus(ctx, id, model.ExchangeDeclined); err != nil {
		return nil, err
	}
	req.Status = model.ExchangeDeclined
	return req, nil
}

// Confirm records one party's confirmation on an accepted request.
// When the second confirmation lands the request completes: the
// status flips to completed and both users' exchange counters are
// incremented, all inside one transaction under a row lock. The
// conditional completion update guarantees the counters are bumped
// exactly once even when both parties confirm concurrently.
func (s *ExchangeService) Confirm(ctx context.Context, id, userID uint64) (*model.ExchangeRequest, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	req, err := s.Exchanges.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsParty(userID) {
		return nil, repository.ErrForbidden
	}
	if req.Status == model.ExchangeCompleted {
		// A confirm after completion is absorbed: no flag write, no
		// counters, the request comes back as it stands.
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return req, nil
	}
	if req.Status != model.ExchangeAccepted {
		return nil, &TransitionError{Op: "confirm", Status: req.Status}
	}

	asRequester := userID == req.RequesterID
	if err := s.Exchanges.SetConfirmationTx(ctx, tx, id, asRequester); err != nil {
		return nil, err
	}
	if asRequester {
		req.RequesterConfirmed = true
	} else {
		req.TargetConfirmed = true
	}

	completed := false
	if req.CanComplete() {
		won, err := s.Exchanges.CompleteTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if won {
			if err := s.Users.IncrementExchangesTx(ctx, tx, req.RequesterID); err != nil {
				return nil, err
			}
			if err := s.Users.IncrementExchangesTx(ctx, tx, req.TargetUserID); err != nil {
				return nil, err
			}
		}
		req.Status = model.ExchangeCompleted
		completed = won
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if completed {
		ev := queue.ExchangeCompletedEvent{
			RequestID:        req.ID,
			RequesterID:      req.RequesterID,
			TargetUserID:     req.TargetUserID,
			TrainNumber:      req.TrainNumber,
			TravelDate:       req.TravelDate.UTC().Format("2006-01-02"),
			ImprovementScore: req.Proposal.ImprovementScore,
			GiveSeats:        len(req.Proposal.Give),
			ReceiveSeats:     len(req.Proposal.Receive),
			CompletedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publish(ctx, ev); err != nil {
			log.Printf("exchange: completion event for request %d not published: %v", req.ID, err)
		}
	}
	return req, nil
}
