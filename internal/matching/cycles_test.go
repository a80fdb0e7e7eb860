package matching

import (
	"testing"

	"github.com/railswap/train-seat-exchange/internal/model"
)

func poolOf(ids ...uint64) []*model.Ticket {
	pool := make([]*model.Ticket, len(ids))
	for i, id := range ids {
		pool[i] = &model.Ticket{ID: id}
	}
	return pool
}

func TestPackCyclesThreeParty(t *testing.T) {
	// W[0][1]=40, W[1][2]=35, W[2][0]=30, all reverse edges zero:
	// exactly one 3-cycle with total 105.
	pool := poolOf(11, 22, 33)
	w := Weights{
		{0, 40, 0},
		{0, 0, 35},
		{30, 0, 0},
	}
	cycles := PackCycles(pool, w)
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1", len(cycles))
	}
	c := cycles[0]
	if c.TotalScore != 105 {
		t.Fatalf("total = %d, want 105", c.TotalScore)
	}
	if len(c.TicketIDs) != 3 || c.TicketIDs[0] != 11 || c.TicketIDs[1] != 22 || c.TicketIDs[2] != 33 {
		t.Fatalf("members = %v", c.TicketIDs)
	}
}

func TestPackCyclesSingleRotationOnly(t *testing.T) {
	// Only the reverse rotation 0→2→1→0 carries benefit. The
	// enumeration checks the canonical rotation i→j→k→i exclusively,
	// so nothing is found. This pins the shipped behaviour; if both
	// rotations ever become fair game this test must change with it.
	pool := poolOf(1, 2, 3)
	w := Weights{
		{0, 0, 40},
		{30, 0, 0},
		{0, 35, 0},
	}
	if cycles := PackCycles(pool, w); len(cycles) != 0 {
		t.Fatalf("reverse rotation unexpectedly enumerated: %v", cycles)
	}
}

func TestPackCyclesGreedyDisjoint(t *testing.T) {
	// The best 2-cycle {1,2} blocks both of its overlapping
	// neighbours even though accepting {0,1} and {2,3} instead would
	// score higher in total. Accepted cycles are never displaced.
	pool := poolOf(100, 200, 300, 400)
	w := Weights{
		{0, 50, 0, 0},
		{50, 0, 60, 0},
		{0, 60, 0, 10},
		{0, 0, 10, 0},
	}
	cycles := PackCycles(pool, w)
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %v", len(cycles), cycles)
	}
	if cycles[0].TotalScore != 120 {
		t.Fatalf("total = %d, want 120", cycles[0].TotalScore)
	}
	assertDisjoint(t, cycles)
}

func TestFindCyclesEndToEnd(t *testing.T) {
	// Three single-passenger tickets in one coach with strictly
	// improving berths 0→1→2. Directed benefits form the rotation
	// 0→1→2→0 worth 110, which beats every 2-cycle pairing (70).
	pool := []*model.Ticket{
		{ID: 1, Passengers: []model.Passenger{pax("B1", 3, "UB")}},
		{ID: 2, Passengers: []model.Passenger{pax("B1", 11, "MB")}},
		{ID: 3, Passengers: []model.Passenger{pax("B1", 19, "LB")}},
	}
	cycles := FindCycles(pool, Preferences{})
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %v", len(cycles), cycles)
	}
	if got := cycles[0].TotalScore; got != 110 {
		t.Fatalf("total = %d, want 110", got)
	}
	assertDisjoint(t, cycles)
}

// assertDisjoint fails the test when any ticket id appears in more
// than one cycle.
func assertDisjoint(t *testing.T, cycles []Cycle) {
	t.Helper()
	seen := map[uint64]bool{}
	for _, c := range cycles {
		for _, id := range c.TicketIDs {
			if seen[id] {
				t.Fatalf("ticket %d appears in more than one cycle", id)
			}
			seen[id] = true
		}
	}
}
