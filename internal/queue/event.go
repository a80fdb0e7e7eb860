// Package queue defines message payloads exchanged over the message
// broker, the publisher for domain events and the background consumer
// that records completed exchanges.
package queue

// ExchangeCompletedEvent is published when both parties have
// confirmed an exchange. It carries enough information for
// downstream consumers to log, notify or feed analytics without
// querying the primary database.
type ExchangeCompletedEvent struct {
	RequestID        uint64  `json:"request_id"`
	RequesterID      uint64  `json:"requester_id"`
	TargetUserID     uint64  `json:"target_user_id"`
	TrainNumber      string  `json:"train_number"`
	TravelDate       string  `json:"travel_date"`
	ImprovementScore float64 `json:"improvement_score"`
	GiveSeats        int     `json:"give_seats"`
	ReceiveSeats     int     `json:"receive_seats"`
	CompletedAt      string  `json:"completed_at"`
}
