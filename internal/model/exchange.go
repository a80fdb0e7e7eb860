package model

import "time"

// Exchange request status values. A request moves pending→accepted→
// completed, or pending→declined. The expired status is declared in
// the schema but no code path transitions into it; there is no expiry
// sweep, only the reserved expires_at column.
const (
	ExchangePending   = "pending"
	ExchangeAccepted  = "accepted"
	ExchangeDeclined  = "declined"
	ExchangeCompleted = "completed"
	ExchangeExpired   = "expired"
)

// SeatInfo is a snapshot of a passenger's seat taken when a proposal
// is built. It is deliberately decoupled from the live Passenger row
// so that a pending proposal stays meaningful even if the passenger
// record later changes.
type SeatInfo struct {
	PassengerID   string `json:"passenger_id"`
	PassengerName string `json:"passenger_name"`
	Coach         string `json:"coach"`
	SeatNumber    int    `json:"seat_number"`
	BerthType     string `json:"berth_type"`
}

// ExchangeProposal describes which seats the requester gives away and
// which they receive in return. Both lists are non-empty when a
// proposal is created; the service layer rejects empty ones.
type ExchangeProposal struct {
	Give             []SeatInfo `json:"give"`
	Receive          []SeatInfo `json:"receive"`
	ImprovementScore float64    `json:"improvement_score"`
}

// ExchangeRequest is one bilateral exchange between two users holding
// tickets on the same train and date. Requests form an audit trail
// and are never deleted. Only the two named parties may mutate a
// request, and requester and target are always distinct users.
//
// The proposal is stored as a JSON column; both confirmation flags
// are independent and completion requires both to be true.
type ExchangeRequest struct {
	ID                 uint64           // exchange_requests.id
	RequesterID        uint64           // exchange_requests.requester_id
	RequesterTicketID  uint64           // exchange_requests.requester_ticket_id
	TargetUserID       uint64           // exchange_requests.target_user_id
	TargetTicketID     uint64           // exchange_requests.target_ticket_id
	TrainNumber        string           // exchange_requests.train_number
	TravelDate         time.Time        // exchange_requests.travel_date
	Proposal           ExchangeProposal // exchange_requests.proposal (JSON)
	Status             string           // exchange_requests.status
	Message            string           // exchange_requests.message
	RequesterConfirmed bool             // exchange_requests.requester_confirmed
	TargetConfirmed    bool             // exchange_requests.target_confirmed
	ExpiresAt          *time.Time       // exchange_requests.expires_at (nullable, unused)
	CreatedAt          time.Time        // exchange_requests.created_at
	UpdatedAt          time.Time        // exchange_requests.updated_at
}

// CanComplete reports whether both parties have confirmed the swap.
func (r *ExchangeRequest) CanComplete() bool {
	return r.RequesterConfirmed && r.TargetConfirmed
}

// IsParty reports whether the given user is one of the two users
// named on the request.
func (r *ExchangeRequest) IsParty(userID uint64) bool {
	return r.RequesterID == userID || r.TargetUserID == userID
}
