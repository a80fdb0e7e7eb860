package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/queue"
	"github.com/railswap/train-seat-exchange/internal/repository"
)

const exchangeCols = "id, requester_id, requester_ticket_id, target_user_id, " +
	"target_ticket_id, train_number, travel_date, proposal, status, message, " +
	"requester_confirmed, target_confirmed, expires_at, created_at, updated_at"

func exchangeRow(id, requesterID, targetID uint64, status string, requesterConfirmed, targetConfirmed bool) *sqlmock.Rows {
	now := time.Now().UTC()
	proposal := []byte(`{"give":[{"passenger_id":"a","coach":"B2","seat_number":45,"berth_type":"UB"}],` +
		`"receive":[{"passenger_id":"b","coach":"B2","seat_number":46,"berth_type":"LB"}],` +
		`"improvement_score":40}`)
	return sqlmock.NewRows(splitCols(exchangeCols)).
		AddRow(id, requesterID, 100, targetID, 200, "12301", "2026-09-01",
			proposal, status, "let's swap", requesterConfirmed, targetConfirmed,
			nil, now, now)
}

func splitCols(cols string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(cols); i++ {
		if i == len(cols) || cols[i] == ',' {
			name := cols[start:i]
			for len(name) > 0 && name[0] == ' ' {
				name = name[1:]
			}
			out = append(out, name)
			start = i + 1
		}
	}
	return out
}

func newExchangeService(t *testing.T) (*ExchangeService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := NewExchangeService(db,
		repository.NewExchangeRepo(db),
		repository.NewTicketRepo(db),
		repository.NewUserRepo(db))
	svc.publish = func(context.Context, queue.ExchangeCompletedEvent) error { return nil }
	return svc, mock, func() { db.Close() }
}

func TestConfirmSecondConfirmationCompletes(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	var published []queue.ExchangeCompletedEvent
	svc.publish = func(_ context.Context, ev queue.ExchangeCompletedEvent) error {
		published = append(published, ev)
		return nil
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM exchange_requests WHERE id=\\? LIMIT 1 FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(exchangeRow(7, 1, 2, model.ExchangeAccepted, true, false))
	mock.ExpectExec("UPDATE exchange_requests SET target_confirmed=TRUE").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE exchange_requests SET status=\\?, updated_at=NOW\\(\\) WHERE id=\\? AND status<>\\?").
		WithArgs(model.ExchangeCompleted, uint64(7), model.ExchangeCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET total_exchanges = total_exchanges \\+ 1").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET total_exchanges = total_exchanges \\+ 1").
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, err := svc.Confirm(context.Background(), 7, 2)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if req.Status != model.ExchangeCompleted {
		t.Fatalf("status = %q, want completed", req.Status)
	}
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].RequestID != 7 || published[0].GiveSeats != 1 || published[0].ReceiveSeats != 1 {
		t.Fatalf("unexpected event: %+v", published[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmFirstConfirmationLeavesAccepted(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(exchangeRow(7, 1, 2, model.ExchangeAccepted, false, false))
	mock.ExpectExec("UPDATE exchange_requests SET requester_confirmed=TRUE").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, err := svc.Confirm(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if req.Status != model.ExchangeAccepted {
		t.Fatalf("status = %q, want accepted", req.Status)
	}
	if !req.RequesterConfirmed || req.TargetConfirmed {
		t.Fatalf("flags = %v/%v, want true/false", req.RequesterConfirmed, req.TargetConfirmed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmRaceLoserSkipsCounters(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	published := 0
	svc.publish = func(context.Context, queue.ExchangeCompletedEvent) error {
		published++
		return nil
	}

	// Another confirm already flipped the status; this call's guarded
	// update touches zero rows, so no counter increments happen.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(exchangeRow(7, 1, 2, model.ExchangeAccepted, true, false))
	mock.ExpectExec("UPDATE exchange_requests SET target_confirmed=TRUE").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE exchange_requests SET status=\\?").
		WithArgs(model.ExchangeCompleted, uint64(7), model.ExchangeCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if _, err := svc.Confirm(context.Background(), 7, 2); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if published != 0 {
		t.Fatalf("published %d events, want 0", published)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmOutsiderForbidden(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(exchangeRow(7, 1, 2, model.ExchangeAccepted, false, false))
	mock.ExpectRollback()

	_, err := svc.Confirm(context.Background(), 7, 99)
	if !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestConfirmCompletedIsNoOp(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	published := 0
	svc.publish = func(context.Context, queue.ExchangeCompletedEvent) error {
		published++
		return nil
	}

	// Re-confirming a completed request writes nothing: no flag
	// update, no counters, no event.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(exchangeRow(7, 1, 2, model.ExchangeCompleted, true, true))
	mock.ExpectCommit()

	req, err := svc.Confirm(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if req.Status != model.ExchangeCompleted {
		t.Fatalf("status = %q, want completed", req.Status)
	}
	if published != 0 {
		t.Fatalf("published %d events, want 0", published)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConfirmRequiresAccepted(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(exchangeRow(7, 1, 2, model.ExchangePending, false, false))
	mock.ExpectRollback()

	_, err := svc.Confirm(context.Background(), 7, 2)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
	if te.Status != model.ExchangePending {
		t.Fatalf("TransitionError.Status = %q, want pending", te.Status)
	}
}

func TestAcceptOnlyTarget(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	mock.ExpectQuery("SELECT .+ FROM exchange_requests WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(exchangeRow(5, 1, 2, model.ExchangePending, false, false))

	_, err := svc.Accept(context.Background(), 5, 1)
	if !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestAcceptRequiresPending(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	mock.ExpectQuery("SELECT .+ FROM exchange_requests WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(exchangeRow(5, 1, 2, model.ExchangeDeclined, false, false))

	_, err := svc.Accept(context.Background(), 5, 2)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
}

func TestDeclineIdempotent(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	// Already declined: no update statement is issued.
	mock.ExpectQuery("SELECT .+ FROM exchange_requests WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(exchangeRow(5, 1, 2, model.ExchangeDeclined, false, false))

	req, err := svc.Decline(context.Background(), 5, 2)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if req.Status != model.ExchangeDeclined {
		t.Fatalf("status = %q, want declined", req.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeclineWithdrawsAccepted(t *testing.T) {
	svc, mock, done := newExchangeService(t)
	defer done()

	mock.ExpectQuery("SELECT .+ FROM exchange_requests WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(exchangeRow(5, 1, 2, model.ExchangeAccepted, false, false))
	mock.ExpectExec("UPDATE exchange_requests SET status=\\?, updated_at=NOW\\(\\) WHERE id=\\?").
		WithArgs(model.ExchangeDeclined, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req, err := svc.Decline(context.Background(), 5, 2)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if req.Status != model.ExchangeDeclined {
		t.Fatalf("status = %q, want declined", req.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
