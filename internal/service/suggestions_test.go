package service

import (
	"context"
	"testing"
	"time"

	"github.com/railswap/train-seat-exchange/internal/model"
	"github.com/railswap/train-seat-exchange/internal/store"
)

func TestSuggestionStoreRoundTrip(t *testing.T) {
	s := NewSuggestionStore(store.NewMemory(), 0)
	ctx := context.Background()

	if _, found, err := s.Get(ctx, 1); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	ms := &model.MatchSuggestion{
		TicketID:    1,
		TrainNumber: "12301",
		Suggestions: []model.SuggestionEntry{{Kind: model.SuggestionKindPair, TicketID: 2, Score: 75}},
		Source:      model.SuggestionAuto,
	}
	if err := s.Put(ctx, ms); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ms.CreatedAt.IsZero() {
		t.Fatal("Put should stamp CreatedAt")
	}

	got, found, err := s.Get(ctx, 1)
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0].TicketID != 2 {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestSuggestionStoreSupersede(t *testing.T) {
	s := NewSuggestionStore(store.NewMemory(), 0)
	ctx := context.Background()

	first := &model.MatchSuggestion{TicketID: 1, Suggestions: []model.SuggestionEntry{{TicketID: 2}, {TicketID: 3}}}
	second := &model.MatchSuggestion{TicketID: 1, Suggestions: []model.SuggestionEntry{{TicketID: 9}}}
	if err := s.Put(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, found, _ := s.Get(ctx, 1)
	if !found || len(got.Suggestions) != 1 || got.Suggestions[0].TicketID != 9 {
		t.Fatalf("recompute must replace wholesale, got %+v", got)
	}
}

func TestSuggestionStoreDelete(t *testing.T) {
	s := NewSuggestionStore(store.NewMemory(), 0)
	ctx := context.Background()

	if err := s.Put(ctx, &model.MatchSuggestion{TicketID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, 1); found {
		t.Fatal("entry should be gone")
	}
}

func TestSuggestionStoreCorruptEntryIsMiss(t *testing.T) {
	kv := store.NewMemory()
	s := NewSuggestionStore(kv, 0)
	ctx := context.Background()

	if err := kv.Set(ctx, "ticket:1", []byte("{not json"), 0); err != nil {
		t.Fatal(err)
	}
	if _, found, err := s.Get(ctx, 1); err != nil || found {
		t.Fatalf("corrupt entry: found=%v err=%v", found, err)
	}
}

func TestSuggestionStoreTTL(t *testing.T) {
	s := NewSuggestionStore(store.NewMemory(), 10*time.Millisecond)
	ctx := context.Background()

	if err := s.Put(ctx, &model.MatchSuggestion{TicketID: 1}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, found, _ := s.Get(ctx, 1); found {
		t.Fatal("entry should have expired")
	}
}
