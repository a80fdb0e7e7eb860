package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/railswap/train-seat-exchange/internal/model"
)

// ExchangeRepo persists exchange requests. The proposal travels as a
// JSON column; requests form an audit trail and are never deleted.
// The completion transition runs inside a caller-supplied transaction
// so the status flip and the user counters commit atomically.
type ExchangeRepo struct{ DB *sql.DB }

func NewExchangeRepo(db *sql.DB) *ExchangeRepo { return &ExchangeRepo{DB: db} }

const exchangeColumns = `id, requester_id, requester_ticket_id, target_user_id,
	target_ticket_id, train_number, travel_date, proposal, status, message,
	requester_confirmed, target_confirmed, expires_at, created_at, updated_at`

// Create inserts a new request in pending state with both
// confirmation flags false and populates the generated id.
func (r *ExchangeRepo) Create(ctx context.Context, req *model.ExchangeRequest) error {
	proposal, err := json.Marshal(req.Proposal)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO exchange_requests (requester_id, requester_ticket_id,
			target_user_id, target_ticket_id, train_number, travel_date,
			proposal, status, message)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		req.RequesterID, req.RequesterTicketID, req.TargetUserID,
		req.TargetTicketID, req.TrainNumber, dateOf(req.TravelDate),
		proposal, model.ExchangePending, req.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.Status = model.ExchangePending
	return nil
}

// GetByID returns a request or ErrRequestNotFound.
func (r *ExchangeRepo) GetByID(ctx context.Context, id uint64) (*model.ExchangeRequest, error) {
	return scanExchange(r.DB.QueryRowContext(ctx,
		"SELECT "+exchangeColumns+" FROM exchange_requests WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx loads a request with a row lock inside the given
// transaction. The confirm transition reads, mutates and conditionally
// completes under this lock.
func (r *ExchangeRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ExchangeRequest, error) {
	return scanExchange(tx.QueryRowContext(ctx,
		"SELECT "+exchangeColumns+" FROM exchange_requests WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// ListByUser returns the requests received by and sent by a user,
// newest first.
func (r *ExchangeRepo) ListByUser(ctx context.Context, userID uint64) (received, sent []*model.ExchangeRequest, err error) {
	received, err = r.list(ctx, "target_user_id", userID)
	if err != nil {
		return nil, nil, err
	}
	sent, err = r.list(ctx, "requester_id", userID)
	if err != nil {
		return nil, nil, err
	}
	return received, sent, nil
}

func (r *ExchangeRepo) list(ctx context.Context, column string, userID uint64) ([]*model.ExchangeRequest, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+exchangeColumns+" FROM exchange_requests WHERE "+column+"=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ExchangeRequest
	for rows.Next() {
		req, err := scanExchangeRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// UpdateStatus sets a request's status unconditionally. Used for the
// accept and decline transitions after the service has validated the
// guards.
func (r *ExchangeRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE exchange_requests SET status=?, updated_at=NOW() WHERE id=?", status, id)
	return err
}

// SetConfirmationTx records one party's confirmation flag inside the
// transaction.
func (r *ExchangeRepo) SetConfirmationTx(ctx context.Context, tx *sql.Tx, id uint64, requester bool) error {
	column := "target_confirmed"
	if requester {
		column = "requester_confirmed"
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE exchange_requests SET "+column+"=TRUE, updated_at=NOW() WHERE id=?", id)
	return err
}

// CompleteTx flips a request to completed, guarded on the current
// status so the transition happens at most once no matter how many
// confirm calls race. It reports whether this call performed the
// transition; only the winner increments the user counters.
func (r *ExchangeRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE exchange_requests SET status=?, updated_at=NOW() WHERE id=? AND status<>?",
		model.ExchangeCompleted, id, model.ExchangeCompleted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExchange(row *sql.Row) (*model.ExchangeRequest, error) {
	req, err := scanExchangeFrom(row)
	if err == sql.ErrNoRows {
		return nil, ErrRequestNotFound
	}
	return req, err
}

func scanExchangeRows(rows *sql.Rows) (*model.ExchangeRequest, error) {
	return scanExchangeFrom(rows)
}

func scanExchangeFrom(s rowScanner) (*model.ExchangeRequest, error) {
	var req model.ExchangeRequest
	var travelDate string
	var proposal []byte
	var message sql.NullString
	var expiresAt sql.NullTime
	err := s.Scan(&req.ID, &req.RequesterID, &req.RequesterTicketID,
		&req.TargetUserID, &req.TargetTicketID, &req.TrainNumber, &travelDate,
		&proposal, &req.Status, &message, &req.RequesterConfirmed,
		&req.TargetConfirmed, &expiresAt, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	req.TravelDate = parseDate(travelDate)
	if message.Valid {
		req.Message = message.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		req.ExpiresAt = &t
	}
	if len(proposal) > 0 {
		if err := json.Unmarshal(proposal, &req.Proposal); err != nil {
			return nil, err
		}
	}
	return &req, nil
}
