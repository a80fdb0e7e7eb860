package service

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/railswap/train-seat-exchange/internal/config"
	"github.com/railswap/train-seat-exchange/internal/matching"
	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/repository"
)

// MatchService finds exchange candidates for a ticket. Results are
// served from the suggestion store when a cached list exists and the
// caller's preferences allow it; otherwise the pool for the ticket's
// train and date is scored live and the store is refreshed.
type MatchService struct {
	Tickets     *repository.TicketRepo
	Users       *repository.UserRepo
	Suggestions *SuggestionStore
	Enhancer    matching.Enhancer
	Cfg         config.MatchingConfig
}

func NewMatchService(tk *repository.TicketRepo, us *repository.UserRepo, sg *SuggestionStore, enh matching.Enhancer, cfg config.MatchingConfig) *MatchService {
	return &MatchService{Tickets: tk, Users: us, Suggestions: sg, Enhancer: enh, Cfg: cfg}
}

// MatchResult is the outcome of one FindMatches call. Prepopulated
// reports whether the entries came from the suggestion store rather
// than a live scoring pass.
type MatchResult struct {
	Entries      []model.SuggestionEntry
	Prepopulated bool
}

// prefsForTicket resolves the effective preferences for a run: the
// caller's override when one is supplied, otherwise the preferences
// stored on the ticket.
func (s *MatchService) prefsForTicket(t *model.Ticket, override *matching.Preferences) matching.Preferences {
	if override != nil {
		return *override
	}
	return matching.Preferences{
		SameCoachOnly:  t.SameCoachOnly,
		SameBayOnly:    t.SameBayOnly,
		PreferredBerth: t.PreferredBerth,
		AllowCyclic:    t.AllowCyclic,
		MinStoreScore:  t.MinMatchScore,
	}
}

// FindMatches returns candidate exchanges for the given ticket,
// sorted by descending score and capped at the configured limit.
// The ticket must belong to the caller. A berth preference forces a
// live recomputation; otherwise a cached list is served when present.
func (s *MatchService) FindMatches(ctx context.Context, ticketID, userID uint64, override *matching.Preferences, useEnhancement bool) (*MatchResult, error) {
	ticket, err := s.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, repository.ErrForbidden
	}
	prefs := s.prefsForTicket(ticket, override)

	if !prefs.ForcesLive() {
		if cached, found, err := s.Suggestions.Get(ctx, ticketID); err == nil && found {
			return &MatchResult{Entries: s.cap(cached.Suggestions), Prepopulated: true}, nil
		} else if err != nil {
			log.Printf("match: suggestion lookup for ticket %d failed: %v", ticketID, err)
		}
	}

	entries, err := s.scoreAgainstPool(ctx, ticket, prefs, useEnhancement)
	if err != nil {
		return nil, err
	}

	if !prefs.ForcesLive() {
		if err := s.refreshStore(ctx, ticket, entries, model.SuggestionAuto, prefs.MinStoreScore); err != nil {
			log.Printf("match: suggestion refresh for ticket %d failed: %v", ticketID, err)
		}
	}

	return &MatchResult{Entries: s.cap(entries)}, nil
}

// cap trims a suggestion list to the configured match limit. Cached
// lists go through it too, since an admin run may store more entries
// than a caller should see.
func (s *MatchService) cap(entries []model.SuggestionEntry) []model.SuggestionEntry {
	if s.Cfg.MatchLimit > 0 && len(entries) > s.Cfg.MatchLimit {
		return entries[:s.Cfg.MatchLimit]
	}
	return entries
}

// scoreAgainstPool scores the ticket against every other active
// ticket on the same train and date and returns the positive matches
// sorted by descending score.
func (s *MatchService) scoreAgainstPool(ctx context.Context, ticket *model.Ticket, prefs matching.Preferences, useEnhancement bool) ([]model.SuggestionEntry, error) {
	pool, err := s.Tickets.FindForMatching(ctx, ticket.TrainNumber, ticket.TravelDate, ticket.UserID)
	if err != nil {
		return nil, err
	}

	entries := make([]model.SuggestionEntry, 0, len(pool))
	for _, other := range pool {
		score, desc := matching.Score(ticket.Passengers, other.Passengers, prefs)
		if score <= 0 {
			continue
		}
		final := float64(score)
		if useEnhancement && s.Enhancer != nil {
			enhanced, err := s.Enhancer.ScoreMatch(ctx, ticket.Passengers, other.Passengers)
			if err != nil {
				log.Printf("match: enhancer failed for tickets %d/%d: %v", ticket.ID, other.ID, err)
			} else {
				final = matching.Blend(final, enhanced)
			}
		}

		owner, err := s.Users.GetByID(ctx, other.UserID)
		if err != nil {
			// A ticket whose owner row is gone is silently skipped;
			// it cannot be exchanged with anyway.
			continue
		}
		entries = append(entries, model.SuggestionEntry{
			Kind:        model.SuggestionKindPair,
			TicketID:    other.ID,
			UserID:      other.UserID,
			UserName:    owner.Name,
			UserRating:  owner.Rating,
			Seats:       seatInfos(other.Passengers),
			Score:       final,
			Description: desc,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries, nil
}

// refreshStore replaces the ticket's cached suggestion list with the
// entries at or above minScore, or deletes the cached list when none
// qualify.
func (s *MatchService) refreshStore(ctx context.Context, ticket *model.Ticket, entries []model.SuggestionEntry, source string, minScore float64) error {
	if minScore <= 0 {
		minScore = s.Cfg.MinStoreScore
	}
	keep := make([]model.SuggestionEntry, 0, len(entries))
	for _, e := range entries {
		if e.Score >= minScore {
			keep = append(keep, e)
		}
	}
	if len(keep) == 0 {
		return s.Suggestions.Delete(ctx, ticket.ID)
	}
	return s.Suggestions.Put(ctx, &model.MatchSuggestion{
		TicketID:    ticket.ID,
		TrainNumber: ticket.TrainNumber,
		TravelDate:  ticket.TravelDate,
		Suggestions: keep,
		Source:      source,
	})
}

// BatchFindMatches runs FindMatches for several of the caller's
// tickets, a few at a time. Tickets that fail to score are logged and
// omitted from the result.
func (s *MatchService) BatchFindMatches(ctx context.Context, userID uint64, ticketIDs []uint64, useEnhancement bool) map[uint64]*MatchResult {
	group := s.Cfg.BatchGroupSize
	if group < 1 {
		group = 1
	}

	var mu sync.Mutex
	results := make(map[uint64]*MatchResult, len(ticketIDs))

	for start := 0; start < len(ticketIDs); start += group {
		end := start + group
		if end > len(ticketIDs) {
			end = len(ticketIDs)
		}
		var wg sync.WaitGroup
		for _, id := range ticketIDs[start:end] {
			wg.Add(1)
			go func(ticketID uint64) {
				defer wg.Done()
				res, err := s.FindMatches(ctx, ticketID, userID, nil, useEnhancement)
				if err != nil {
					log.Printf("match: batch find for ticket %d failed: %v", ticketID, err)
					return
				}
				mu.Lock()
				results[ticketID] = res
				mu.Unlock()
			}(id)
		}
		wg.Wait()
	}
	return results
}

// seatInfos snapshots passenger seats for a suggestion entry or a
// proposal.
func seatInfos(passengers []model.Passenger) []model.SeatInfo {
	out := make([]model.SeatInfo, 0, len(passengers))
	for _, p := range passengers {
		out = append(out, model.SeatInfo{
			PassengerID:   p.ID,
			PassengerName: p.Name,
			Coach:         p.Coach,
			SeatNumber:    p.SeatNumber,
			BerthType:     p.BerthType,
		})
	}
	return out
}
