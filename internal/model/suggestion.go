package model

import "time"

// Suggestion sources. Auto suggestions are computed on demand for a
// single ticket, admin_run comes from the per-ticket batch job and
// admin_global_ilp from the global cycle optimizer.
const (
	SuggestionAuto        = "auto"
	SuggestionAdminRun    = "admin_run"
	SuggestionAdminGlobal = "admin_global_ilp"
)

// Suggestion kinds stored inside a MatchSuggestion entry.
const (
	SuggestionKindPair  = "pair"
	SuggestionKindCycle = "cycle"
)

// SuggestionEntry is one cached suggestion for a ticket: either a
// pairwise match against another ticket or the ticket's membership in
// a multi-party cycle. Pair entries carry the counterparty and its
// seats; cycle entries carry the full member list so the client can
// render the whole rotation.
type SuggestionEntry struct {
	Kind           string     `json:"kind"`
	TicketID       uint64     `json:"ticket_id,omitempty"`
	UserID         uint64     `json:"user_id,omitempty"`
	UserName       string     `json:"user_name,omitempty"`
	UserRating     float64    `json:"user_rating,omitempty"`
	Seats          []SeatInfo `json:"available_seats,omitempty"`
	CycleTicketIDs []uint64   `json:"cycle_ticket_ids,omitempty"`
	Score          float64    `json:"match_score"`
	Description    string     `json:"benefit_description"`
}

// MatchSuggestion is the per-ticket cached suggestion list owned by
// the suggestion store. A recompute supersedes the previous value
// wholesale; entries are never merged.
type MatchSuggestion struct {
	TicketID    uint64            `json:"ticket_id"`
	TrainNumber string            `json:"train_number"`
	TravelDate  time.Time         `json:"travel_date"`
	Suggestions []SuggestionEntry `json:"suggestions"`
	Source      string            `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
}
