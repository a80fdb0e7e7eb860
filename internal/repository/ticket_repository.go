package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/railswap/train-seat-exchange/internal/model"
)

// TicketRepo provides CRUD operations for tickets and their
// passengers. A ticket groups the seat assignments of one PNR; the
// passengers table holds one row per seat. Travel dates are stored
// as DATE columns, so all lookups compare by calendar day in UTC.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

const ticketColumns = `id, user_id, pnr, train_number, train_name, travel_date,
	boarding_code, boarding_name, destination_code, destination_name,
	class_type, quota, status, preferred_berth, allow_cyclic,
	same_coach_only, same_bay_only, min_match_score, created_at, updated_at`

// dateOf formats a travel date the way the DATE column stores it.
func dateOf(t time.Time) string { return t.UTC().Format("2006-01-02") }

// Create inserts a ticket and its passengers in one transaction.
// Passenger IDs are assigned here (UUIDs) when empty. It returns
// ErrDuplicateSeat when two passengers share a (coach, seat_number)
// pair, before touching the database.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	type seatKey struct {
		coach string
		seat  int
	}
	seen := map[seatKey]struct{}{}
	for _, p := range t.Passengers {
		k := seatKey{p.Coach, p.SeatNumber}
		if _, dup := seen[k]; dup {
			return ErrDuplicateSeat
		}
		seen[k] = struct{}{}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tickets (user_id, pnr, train_number, train_name, travel_date,
			boarding_code, boarding_name, destination_code, destination_name,
			class_type, quota, status, preferred_berth, allow_cyclic,
			same_coach_only, same_bay_only, min_match_score)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.UserID, t.PNR, t.TrainNumber, t.TrainName, dateOf(t.TravelDate),
		t.BoardingCode, t.BoardingName, t.DestinationCode, t.DestinationName,
		t.ClassType, t.Quota, model.TicketActive,
		strings.Join(t.PreferredBerth, ","), t.AllowCyclic,
		t.SameCoachOnly, t.SameBayOnly, t.MinMatchScore)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.TicketActive

	if len(t.Passengers) > 0 {
		query := `INSERT INTO passengers (id, ticket_id, name, age, gender, coach,
			seat_number, berth_type, booking_status, current_status) VALUES `
		args := make([]interface{}, 0, len(t.Passengers)*10)
		for i := range t.Passengers {
			p := &t.Passengers[i]
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			p.TicketID = t.ID
			if i > 0 {
				query += ","
			}
			query += "(?,?,?,?,?,?,?,?,?,?)"
			args = append(args, p.ID, p.TicketID, p.Name, p.Age, p.Gender,
				p.Coach, p.SeatNumber, p.BerthType, p.BookingStatus, p.CurrentStatus)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a ticket with its passengers. ErrTicketNotFound is
// returned when the id does not resolve.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id=? LIMIT 1", id)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, []*model.Ticket{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByUser returns all of a user's tickets, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// FindForMatching returns the active tickets on a train and travel
// date excluding the given owner. This is the candidate pool the
// scorer runs against.
func (r *TicketRepo) FindForMatching(ctx context.Context, trainNumber string, travelDate time.Time, excludeUserID uint64) ([]*model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+` FROM tickets
		 WHERE train_number=? AND travel_date=? AND status=? AND user_id<>?
		 ORDER BY id`,
		trainNumber, dateOf(travelDate), model.TicketActive, excludeUserID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListActiveByTrip returns every active ticket on a train and date,
// owners included. The admin matching jobs operate on this pool.
func (r *TicketRepo) ListActiveByTrip(ctx context.Context, trainNumber string, travelDate time.Time) ([]*model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+` FROM tickets
		 WHERE train_number=? AND travel_date=? AND status=? ORDER BY id`,
		trainNumber, dateOf(travelDate), model.TicketActive)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListActive returns all active tickets regardless of trip. Used by
// the admin run when no train/date filter is supplied; the service
// groups the result by trip before scoring.
func (r *TicketRepo) ListActive(ctx context.Context) ([]*model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE status=? ORDER BY train_number, travel_date, id",
		model.TicketActive)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ActiveTicketForUser returns the user's active ticket on the given
// train and date, or ErrTicketNotFound. Used to validate that an
// exchange requester actually travels on the target's trip.
func (r *TicketRepo) ActiveTicketForUser(ctx context.Context, userID uint64, trainNumber string, travelDate time.Time) (*model.Ticket, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+ticketColumns+` FROM tickets
		 WHERE user_id=? AND train_number=? AND travel_date=? AND status=? LIMIT 1`,
		userID, trainNumber, dateOf(travelDate), model.TicketActive)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, []*model.Ticket{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdatePreferences stores the matching preferences of a ticket. The
// owner check is part of the statement; a zero row count on an
// existing ticket means someone else owns it.
func (r *TicketRepo) UpdatePreferences(ctx context.Context, ticketID, userID uint64, preferredBerth []string, allowCyclic, sameCoachOnly, sameBayOnly bool, minMatchScore float64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tickets SET preferred_berth=?, allow_cyclic=?, same_coach_only=?,
			same_bay_only=?, min_match_score=?, updated_at=NOW()
		 WHERE id=? AND user_id=?`,
		strings.Join(preferredBerth, ","), allowCyclic, sameCoachOnly,
		sameBayOnly, minMatchScore, ticketID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var owner uint64
		err := r.DB.QueryRowContext(ctx, "SELECT user_id FROM tickets WHERE id=?", ticketID).Scan(&owner)
		if err == sql.ErrNoRows {
			return ErrTicketNotFound
		}
		if err != nil {
			return err
		}
		if owner != userID {
			return ErrForbidden
		}
	}
	return nil
}

// Cancel marks a ticket cancelled. It refuses with ErrConflict while
// a pending or accepted exchange request references the ticket, so an
// open negotiation never loses its subject.
func (r *TicketRepo) Cancel(ctx context.Context, ticketID, userID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx, "SELECT user_id FROM tickets WHERE id=?", ticketID).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrTicketNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	var open int
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exchange_requests
		 WHERE (requester_ticket_id=? OR target_ticket_id=?) AND status IN (?, ?)`,
		ticketID, ticketID, model.ExchangePending, model.ExchangeAccepted).Scan(&open)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE tickets SET status=?, updated_at=NOW() WHERE id=?",
		model.TicketCancelled, ticketID)
	return err
}

// scanTicket reads one tickets row from a QueryRow result.
func scanTicket(row *sql.Row) (*model.Ticket, error) {
	var t model.Ticket
	var travelDate string
	var preferred sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.PNR, &t.TrainNumber, &t.TrainName,
		&travelDate, &t.BoardingCode, &t.BoardingName, &t.DestinationCode,
		&t.DestinationName, &t.ClassType, &t.Quota, &t.Status, &preferred,
		&t.AllowCyclic, &t.SameCoachOnly, &t.SameBayOnly, &t.MinMatchScore,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.TravelDate = parseDate(travelDate)
	t.PreferredBerth = splitBerths(preferred)
	return &t, nil
}

// collect drains a tickets result set and attaches passengers to
// every ticket in one follow-up query.
func (r *TicketRepo) collect(ctx context.Context, rows *sql.Rows) ([]*model.Ticket, error) {
	defer rows.Close()
	var out []*model.Ticket
	for rows.Next() {
		var t model.Ticket
		var travelDate string
		var preferred sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.PNR, &t.TrainNumber, &t.TrainName,
			&travelDate, &t.BoardingCode, &t.BoardingName, &t.DestinationCode,
			&t.DestinationName, &t.ClassType, &t.Quota, &t.Status, &preferred,
			&t.AllowCyclic, &t.SameCoachOnly, &t.SameBayOnly, &t.MinMatchScore,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.TravelDate = parseDate(travelDate)
		t.PreferredBerth = splitBerths(preferred)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadPassengers populates Passengers for every ticket in one query.
func (r *TicketRepo) loadPassengers(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Ticket, len(tickets))
	ids := make([]interface{}, 0, len(tickets))
	placeholders := make([]string, 0, len(tickets))
	for _, t := range tickets {
		index[t.ID] = t
		ids = append(ids, t.ID)
		placeholders = append(placeholders, "?")
	}
	query := `SELECT id, ticket_id, name, age, gender, coach, seat_number,
		berth_type, booking_status, current_status
	 FROM passengers WHERE ticket_id IN (` + strings.Join(placeholders, ",") + `)
	 ORDER BY ticket_id, coach, seat_number`
	rows, err := r.DB.QueryContext(ctx, query, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Passenger
		if err := rows.Scan(&p.ID, &p.TicketID, &p.Name, &p.Age, &p.Gender,
			&p.Coach, &p.SeatNumber, &p.BerthType, &p.BookingStatus, &p.CurrentStatus); err != nil {
			return err
		}
		if t, ok := index[p.TicketID]; ok {
			t.Passengers = append(t.Passengers, p)
		}
	}
	return rows.Err()
}

// parseDate converts a DATE column value to a UTC midnight time.
func parseDate(s string) time.Time {
	// parseTime=true normally hands us time.Time, but DATE columns
	// scanned into strings arrive as plain YYYY-MM-DD.
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// splitBerths parses the CSV preferred_berth column.
func splitBerths(v sql.NullString) []string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	parts := strings.Split(v.String, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
