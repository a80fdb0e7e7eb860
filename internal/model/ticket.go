package model

import "time"

// BerthType enumerates the seat categories found on Indian Railways
// sleeper and AC coaches. The order of desirability is fixed by
// BerthRank: lower berths are the most wanted, upper berths the least.
const (
	BerthLower     = "LB" // lower berth
	BerthMiddle    = "MB" // middle berth
	BerthUpper     = "UB" // upper berth
	BerthSideLower = "SL" // side lower berth
	BerthSideUpper = "SU" // side upper berth
)

// BerthRank maps a berth type to its desirability. A higher number
// means a more desirable berth. Unknown berth types rank 0 so that
// they never count as an improvement.
var BerthRank = map[string]int{
	BerthLower:     5,
	BerthSideLower: 4,
	BerthMiddle:    3,
	BerthSideUpper: 2,
	BerthUpper:     1,
}

// Ticket status values. A ticket is active while its seats may still
// be exchanged, completed once the journey is over and cancelled when
// the owner withdraws it. Tickets referenced by an open exchange
// request are never hard-deleted.
const (
	TicketActive    = "active"
	TicketCompleted = "completed"
	TicketCancelled = "cancelled"
)

// BaySize is the number of consecutive seats that form one bay in a
// sleeper or 3-tier coach. Seats 1-8 share a bay, 9-16 the next one
// and so on.
const BaySize = 8

// Passenger is one seat assignment on a ticket.
//
// Fields:
//  ID            – UUID assigned on ticket entry.
//  TicketID      – owning ticket.
//  Name          – passenger name as printed on the ticket.
//  Age           – passenger age.
//  Gender        – "M", "F" or "O".
//  Coach         – coach label, e.g. "B2".
//  SeatNumber    – seat number within the coach.
//  BerthType     – one of the Berth* constants.
//  BookingStatus – status at booking time (CNF, RAC, WL, ...).
//  CurrentStatus – status after charting.
type Passenger struct {
	ID            string // passengers.id (uuid)
	TicketID      uint64 // passengers.ticket_id
	Name          string // passengers.name
	Age           int    // passengers.age
	Gender        string // passengers.gender
	Coach         string // passengers.coach
	SeatNumber    int    // passengers.seat_number
	BerthType     string // passengers.berth_type
	BookingStatus string // passengers.booking_status
	CurrentStatus string // passengers.current_status
}

// Bay returns the zero-based bay index of the passenger's seat.
func (p Passenger) Bay() int { return (p.SeatNumber - 1) / BaySize }

// Ticket represents one PNR entered by a user, along with its
// passengers and the matching preferences the owner has chosen.
// Passengers on one ticket always have unique (coach, seat_number)
// pairs; the repository enforces this on insert.
type Ticket struct {
	ID              uint64      // tickets.id
	UserID          uint64      // tickets.user_id
	PNR             string      // tickets.pnr
	TrainNumber     string      // tickets.train_number
	TrainName       string      // tickets.train_name
	TravelDate      time.Time   // tickets.travel_date
	BoardingCode    string      // tickets.boarding_code
	BoardingName    string      // tickets.boarding_name
	DestinationCode string      // tickets.destination_code
	DestinationName string      // tickets.destination_name
	ClassType       string      // tickets.class_type (SL, 3A, 2A, ...)
	Quota           string      // tickets.quota
	Status          string      // tickets.status
	Passengers      []Passenger // rows from passengers joined by ticket_id
	PreferredBerth  []string    // tickets.preferred_berth (CSV column)
	AllowCyclic     bool        // tickets.allow_cyclic
	SameCoachOnly   bool        // tickets.same_coach_only
	SameBayOnly     bool        // tickets.same_bay_only
	MinMatchScore   float64     // tickets.min_match_score
	CreatedAt       time.Time   // tickets.created_at
	UpdatedAt       time.Time   // tickets.updated_at
}

// IsScattered reports whether the ticket's passengers sit in more
// than one coach. Scattered tickets are the ones that benefit most
// from exchanges.
func (t *Ticket) IsScattered() bool {
	coaches := map[string]struct{}{}
	for _, p := range t.Passengers {
		coaches[p.Coach] = struct{}{}
	}
	return len(coaches) > 1
}

// Coaches returns the distinct coach labels occupied by this ticket's
// passengers. Order is not specified.
func (t *Ticket) Coaches() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(t.Passengers))
	for _, p := range t.Passengers {
		if _, ok := seen[p.Coach]; !ok {
			seen[p.Coach] = struct{}{}
			out = append(out, p.Coach)
		}
	}
	return out
}
