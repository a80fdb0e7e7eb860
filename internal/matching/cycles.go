package matching

import (
	"fmt"
	"sort"

	"github.com/railswap/train-seat-exchange/internal/model"
)

// Cycle is a closed chain of tickets where each member gives seats to
// the next and receives from the previous. TicketIDs lists members in
// rotation order; TotalScore is the sum of the directed edge scores
// along the rotation.
type Cycle struct {
	TicketIDs   []uint64 `json:"ticket_ids"`
	TotalScore  int      `json:"total_score"`
	Description string   `json:"description"`
}

// Weights is the directed score matrix over a ticket pool, indexed by
// pool position. W[i][j] is the benefit of ticket i taking ticket
// j's seats; the diagonal is zero.
type Weights [][]int

// BuildWeights scores every ordered ticket pair in the pool.
func BuildWeights(pool []*model.Ticket, prefs Preferences) Weights {
	n := len(pool)
	w := make(Weights, n)
	for i := range w {
		w[i] = make([]int, n)
		for j := range w[i] {
			if i == j {
				continue
			}
			w[i][j], _ = Score(pool[i].Passengers, pool[j].Passengers, prefs)
		}
	}
	return w
}

// FindCycles runs the small-cycle heuristic over a bounded ticket
// pool: it enumerates all 2-cycles and canonical 3-cycles with
// positive edges, sorts candidates by total score descending, and
// greedily packs disjoint ones. Accepted cycles are never displaced
// by later candidates, so the packing is not globally optimal.
//
// For triples i<j<k only the rotation i→j→k→i is checked. The
// reverse rotation was never enumerated by the original algorithm and
// the asymmetry is kept as shipped behaviour; see the rotation test
// in cycles_test.go before changing this.
func FindCycles(pool []*model.Ticket, prefs Preferences) []Cycle {
	w := BuildWeights(pool, prefs)
	return PackCycles(pool, w)
}

// PackCycles performs candidate enumeration and greedy packing over a
// precomputed weight matrix. Split out from FindCycles so the global
// optimizer's fallback can reuse it with its own matrix.
func PackCycles(pool []*model.Ticket, w Weights) []Cycle {
	n := len(pool)
	type candidate struct {
		members []int
		total   int
	}
	var cands []candidate

	// 2-cycles: both directions must carry benefit.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if w[i][j] > 0 && w[j][i] > 0 {
				cands = append(cands, candidate{members: []int{i, j}, total: w[i][j] + w[j][i]})
			}
		}
	}
	// 3-cycles, single rotation per canonical triple.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if w[i][j] > 0 && w[j][k] > 0 && w[k][i] > 0 {
					cands = append(cands, candidate{
						members: []int{i, j, k},
						total:   w[i][j] + w[j][k] + w[k][i],
					})
				}
			}
		}
	}

	sort.SliceStable(cands, func(a, b int) bool { return cands[a].total > cands[b].total })

	used := make([]bool, n)
	var out []Cycle
	for _, c := range cands {
		clash := false
		for _, m := range c.members {
			if used[m] {
				clash = true
				break
			}
		}
		if clash {
			continue
		}
		ids := make([]uint64, len(c.members))
		for idx, m := range c.members {
			used[m] = true
			ids[idx] = pool[m].ID
		}
		out = append(out, Cycle{
			TicketIDs:   ids,
			TotalScore:  c.total,
			Description: describeCycle(len(ids), c.total),
		})
	}
	return out
}

func describeCycle(size, total int) string {
	if size == 2 {
		return fmt.Sprintf("Mutual exchange, combined benefit %d", total)
	}
	return fmt.Sprintf("%d-party rotation, combined benefit %d", size, total)
}
