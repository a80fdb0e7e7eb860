// Package service contains the business logic that sits between the
// HTTP handlers and the repositories: the match finding orchestration,
// the exchange request lifecycle, the suggestion cache and the OTP
// issue/verify flow.
package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/store"
)

// SuggestionStore caches per-ticket match suggestion lists in a
// key-value store. A recompute supersedes the cached value wholesale.
// There is no transactional guarantee: concurrent writers for the
// same ticket race and the last write wins.
type SuggestionStore struct {
	kv  store.Store
	ttl time.Duration
}

// NewSuggestionStore wraps a Store. A zero ttl keeps entries until
// they are superseded or deleted.
func NewSuggestionStore(kv store.Store, ttl time.Duration) *SuggestionStore {
	return &SuggestionStore{kv: kv, ttl: ttl}
}

func suggestionKey(ticketID uint64) string {
	return "ticket:" + strconv.FormatUint(ticketID, 10)
}

// Get returns the cached suggestion list for a ticket, if any.
func (s *SuggestionStore) Get(ctx context.Context, ticketID uint64) (*model.MatchSuggestion, bool, error) {
	bs, found, err := s.kv.Get(ctx, suggestionKey(ticketID))
	if err != nil || !found {
		return nil, false, err
	}
	var ms model.MatchSuggestion
	if err := json.Unmarshal(bs, &ms); err != nil {
		// A corrupt entry is treated as a miss; the next recompute
		// overwrites it.
		return nil, false, nil
	}
	return &ms, true, nil
}

// Put stores a suggestion list, replacing any previous value.
func (s *SuggestionStore) Put(ctx context.Context, ms *model.MatchSuggestion) error {
	if ms.CreatedAt.IsZero() {
		ms.CreatedAt = time.Now().UTC()
	}
	bs, err := json.Marshal(ms)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, suggestionKey(ms.TicketID), bs, s.ttl)
}

// Delete removes the cached entry for a ticket.
func (s *SuggestionStore) Delete(ctx context.Context, ticketID uint64) error {
	return s.kv.Delete(ctx, suggestionKey(ticketID))
}
