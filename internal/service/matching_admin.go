package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/railswap/train-seat-exchange/internal/matching"
	"github.com/railswap/train-seat-exchange/internal/model"
)

// AdminMatchingService runs the operator-triggered matching jobs:
// the per-ticket batch scorer that prepopulates the suggestion store
// and the global cycle optimizer. Global solves are throttled by a
// semaphore so a burst of admin requests cannot pile up solver runs.
type AdminMatchingService struct {
	Match     *MatchService
	Optimizer *matching.Optimizer

	solverSem chan struct{}
}

func NewAdminMatchingService(match *MatchService, opt *matching.Optimizer, solverWorkers int) *AdminMatchingService {
	if solverWorkers < 1 {
		solverWorkers = 1
	}
	return &AdminMatchingService{
		Match:     match,
		Optimizer: opt,
		solverSem: make(chan struct{}, solverWorkers),
	}
}

// RunSummary reports what a per-ticket batch run did. RunID ties log
// lines of one run together.
type RunSummary struct {
	RunID            string `json:"run_id"`
	TicketsProcessed int    `json:"tickets_processed"`
	TicketsWithMatch int    `json:"tickets_with_match"`
	EntriesStored    int    `json:"entries_stored"`
}

// GlobalRunResult reports the outcome of a global cycle solve.
type GlobalRunResult struct {
	RunID         string           `json:"run_id"`
	Backend       string           `json:"backend"`
	Tickets       int              `json:"tickets"`
	Cycles        []matching.Cycle `json:"cycles"`
	EntriesStored int              `json:"entries_stored"`
}

// GlobalOptions carries per-run overrides for the admin jobs. Zero
// values fall back to the configured defaults.
type GlobalOptions struct {
	MinScore  float64
	TimeLimit time.Duration
}

// RunMatching scores every active ticket against its trip pool and
// refreshes the suggestion store with the qualifying entries. When
// trainNumber is empty all active tickets are processed, grouped by
// trip. Tickets are scored a few at a time per the batch group size.
// A non-zero minScore overrides both the per-ticket threshold and
// the configured default.
func (s *AdminMatchingService) RunMatching(ctx context.Context, trainNumber string, travelDate time.Time, minScore float64) (*RunSummary, error) {
	var tickets []*model.Ticket
	var err error
	if trainNumber != "" {
		tickets, err = s.Match.Tickets.ListActiveByTrip(ctx, trainNumber, travelDate)
	} else {
		tickets, err = s.Match.Tickets.ListActive(ctx)
	}
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{RunID: uuid.NewString()}
	var mu sync.Mutex

	group := s.Match.Cfg.BatchGroupSize
	if group < 1 {
		group = 1
	}
	for start := 0; start < len(tickets); start += group {
		end := start + group
		if end > len(tickets) {
			end = len(tickets)
		}
		var wg sync.WaitGroup
		for _, t := range tickets[start:end] {
			wg.Add(1)
			go func(t *model.Ticket) {
				defer wg.Done()
				stored, err := s.refreshTicket(ctx, t, minScore)
				if err != nil {
					log.Printf("admin-matching: ticket %d skipped: %v", t.ID, err)
					return
				}
				mu.Lock()
				summary.TicketsProcessed++
				if stored > 0 {
					summary.TicketsWithMatch++
					summary.EntriesStored += stored
				}
				mu.Unlock()
			}(t)
		}
		wg.Wait()
	}
	return summary, nil
}

// refreshTicket recomputes and stores one ticket's suggestion list
// and returns how many entries qualified for storage.
func (s *AdminMatchingService) refreshTicket(ctx context.Context, t *model.Ticket, minScore float64) (int, error) {
	prefs := s.Match.prefsForTicket(t, nil)
	entries, err := s.Match.scoreAgainstPool(ctx, t, prefs, false)
	if err != nil {
		return 0, err
	}

	if minScore <= 0 {
		minScore = prefs.MinStoreScore
	}
	if minScore <= 0 {
		minScore = s.Match.Cfg.MinStoreScore
	}
	keep := make([]model.SuggestionEntry, 0, len(entries))
	for _, e := range entries {
		if e.Score >= minScore {
			keep = append(keep, e)
		}
	}
	if len(keep) == 0 {
		return 0, s.Match.Suggestions.Delete(ctx, t.ID)
	}
	err = s.Match.Suggestions.Put(ctx, &model.MatchSuggestion{
		TicketID:    t.ID,
		TrainNumber: t.TrainNumber,
		TravelDate:  t.TravelDate,
		Suggestions: keep,
		Source:      model.SuggestionAdminRun,
	})
	return len(keep), err
}

// RunGlobalMatching solves the maximum-weight cycle cover for one
// trip's opted-in tickets and stores a cycle suggestion for every
// member of every selected cycle.
func (s *AdminMatchingService) RunGlobalMatching(ctx context.Context, trainNumber string, travelDate time.Time, opts GlobalOptions) (*GlobalRunResult, error) {
	return s.runGlobal(ctx, trainNumber, travelDate, opts, true)
}

// PreviewGlobalMatching runs the same solve without touching the
// suggestion store, so an operator can inspect the cycles first.
func (s *AdminMatchingService) PreviewGlobalMatching(ctx context.Context, trainNumber string, travelDate time.Time, opts GlobalOptions) (*GlobalRunResult, error) {
	return s.runGlobal(ctx, trainNumber, travelDate, opts, false)
}

func (s *AdminMatchingService) runGlobal(ctx context.Context, trainNumber string, travelDate time.Time, opts GlobalOptions, persist bool) (*GlobalRunResult, error) {
	all, err := s.Match.Tickets.ListActiveByTrip(ctx, trainNumber, travelDate)
	if err != nil {
		return nil, err
	}
	pool := make([]*model.Ticket, 0, len(all))
	for _, t := range all {
		if t.AllowCyclic {
			pool = append(pool, t)
		}
	}

	result := &GlobalRunResult{
		RunID:   uuid.NewString(),
		Backend: s.Optimizer.Backend(),
		Tickets: len(pool),
	}
	if len(pool) < 2 {
		return result, nil
	}

	timeLimit := opts.TimeLimit
	if timeLimit <= 0 {
		timeLimit = s.Match.Cfg.TimeLimit
	}

	// One slot per configured worker; extra runs wait here rather
	// than in the solver.
	select {
	case s.solverSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	cycles := s.Optimizer.Optimize(pool, matching.Preferences{}, timeLimit)
	<-s.solverSem

	result.Cycles = cycles
	if !persist {
		return result, nil
	}

	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = s.Match.Cfg.MinStoreScore
	}
	byID := make(map[uint64]*model.Ticket, len(pool))
	for _, t := range pool {
		byID[t.ID] = t
	}
	for _, c := range cycles {
		if float64(c.TotalScore) < minScore {
			continue
		}
		entry := model.SuggestionEntry{
			Kind:           model.SuggestionKindCycle,
			CycleTicketIDs: c.TicketIDs,
			Score:          float64(c.TotalScore),
			Description:    c.Description,
		}
		for _, id := range c.TicketIDs {
			t := byID[id]
			if t == nil {
				continue
			}
			err := s.Match.Suggestions.Put(ctx, &model.MatchSuggestion{
				TicketID:    t.ID,
				TrainNumber: t.TrainNumber,
				TravelDate:  t.TravelDate,
				Suggestions: []model.SuggestionEntry{entry},
				Source:      model.SuggestionAdminGlobal,
			})
			if err != nil {
				log.Printf("admin-matching: cycle suggestion for ticket %d not stored: %v", t.ID, err)
				continue
			}
			result.EntriesStored++
		}
	}
	return result, nil
}
