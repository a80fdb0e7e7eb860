package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/railswap/train-seat-exchange/internal/config"
	"github.com/railswap/train-seat-exchange/internal/matching"
	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/repository"
	"github.com/railswap/train-seat-exchange/internal/store"
)

func cyclicTicketRow(id, userID uint64) []driverValue {
	now := time.Now().UTC()
	return []driverValue{id, userID, "PNR", "12301", "Howrah Express",
		"2026-09-01", "NDLS", "New Delhi", "HWH", "Howrah", "SL", "GN",
		model.TicketActive, nil, true, false, false, 0.0, now, now}
}

func newAdminService(t *testing.T) (*AdminMatchingService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	cfg := config.MatchingConfig{
		BatchGroupSize: 3,
		MatchLimit:     10,
		MinStoreScore:  60,
		TimeLimit:      time.Second,
	}
	match := NewMatchService(
		repository.NewTicketRepo(db),
		repository.NewUserRepo(db),
		NewSuggestionStore(store.NewMemory(), 0),
		matching.CohesionEnhancer{},
		cfg)
	svc := NewAdminMatchingService(match, matching.NewOptimizer(matching.BackendHeuristic), 1)
	return svc, mock, func() { db.Close() }
}

func expectTrip(mock sqlmock.Sqlmock) {
	rows := sqlmock.NewRows(ticketCols).
		AddRow(cyclicTicketRow(11, 1)...).
		AddRow(cyclicTicketRow(22, 2)...).
		AddRow(cyclicTicketRow(33, 3)...)
	mock.ExpectQuery("SELECT .+ FROM tickets WHERE train_number=\\? AND travel_date=\\? AND status=\\? ORDER BY id").
		WillReturnRows(rows)

	// A three-way rotation: each group improves by moving one step.
	pax := sqlmock.NewRows(passengerCols).
		AddRow(passengerRow(11, "Ravi", "B1", 3, model.BerthUpper)...).
		AddRow(passengerRow(22, "Asha", "B1", 11, model.BerthMiddle)...).
		AddRow(passengerRow(33, "Dev", "B1", 19, model.BerthLower)...)
	mock.ExpectQuery("FROM passengers WHERE ticket_id IN").
		WithArgs(uint64(11), uint64(22), uint64(33)).
		WillReturnRows(pax)
}

func TestRunGlobalMatchingStoresCycleSuggestions(t *testing.T) {
	svc, mock, done := newAdminService(t)
	defer done()

	expectTrip(mock)

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.RunGlobalMatching(context.Background(), "12301", date, GlobalOptions{})
	if err != nil {
		t.Fatalf("RunGlobalMatching: %v", err)
	}
	if res.Backend != matching.BackendHeuristic {
		t.Fatalf("backend = %q", res.Backend)
	}
	if len(res.Cycles) != 1 {
		t.Fatalf("got %d cycles, want 1", len(res.Cycles))
	}
	if res.EntriesStored != 3 {
		t.Fatalf("stored %d entries, want 3", res.EntriesStored)
	}

	for _, id := range []uint64{11, 22, 33} {
		ms, found, err := svc.Match.Suggestions.Get(context.Background(), id)
		if err != nil || !found {
			t.Fatalf("ticket %d: found=%v err=%v", id, found, err)
		}
		if ms.Source != model.SuggestionAdminGlobal {
			t.Fatalf("ticket %d source = %q", id, ms.Source)
		}
		if len(ms.Suggestions) != 1 || ms.Suggestions[0].Kind != model.SuggestionKindCycle {
			t.Fatalf("ticket %d suggestions = %+v", id, ms.Suggestions)
		}
		if got := len(ms.Suggestions[0].CycleTicketIDs); got != 3 {
			t.Fatalf("ticket %d cycle has %d members", id, got)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPreviewGlobalMatchingDoesNotPersist(t *testing.T) {
	svc, mock, done := newAdminService(t)
	defer done()

	expectTrip(mock)

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.PreviewGlobalMatching(context.Background(), "12301", date, GlobalOptions{})
	if err != nil {
		t.Fatalf("PreviewGlobalMatching: %v", err)
	}
	if len(res.Cycles) != 1 || res.EntriesStored != 0 {
		t.Fatalf("cycles=%d stored=%d, want 1/0", len(res.Cycles), res.EntriesStored)
	}
	for _, id := range []uint64{11, 22, 33} {
		if _, found, _ := svc.Match.Suggestions.Get(context.Background(), id); found {
			t.Fatalf("ticket %d: preview must not persist", id)
		}
	}
}

func TestRunGlobalMatchingSkipsTinyPools(t *testing.T) {
	svc, mock, done := newAdminService(t)
	defer done()

	mock.ExpectQuery("SELECT .+ FROM tickets WHERE train_number=\\? AND travel_date=\\? AND status=\\? ORDER BY id").
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(cyclicTicketRow(11, 1)...))
	mock.ExpectQuery("FROM passengers WHERE ticket_id IN").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows(passengerCols).
			AddRow(passengerRow(11, "Ravi", "B1", 3, model.BerthUpper)...))

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.RunGlobalMatching(context.Background(), "12301", date, GlobalOptions{})
	if err != nil {
		t.Fatalf("RunGlobalMatching: %v", err)
	}
	if len(res.Cycles) != 0 || res.Tickets != 1 {
		t.Fatalf("cycles=%d tickets=%d, want 0/1", len(res.Cycles), res.Tickets)
	}
}
