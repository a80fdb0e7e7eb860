package matching

import (
	"log"
	"time"

	"github.com/railswap/train-seat-exchange/internal/model"
)

// weightScale converts scorer output to the integer objective used by
// the solver backend. Scaling and read-back rescaling must stay
// consistent; cycle totals are reported in scorer units.
const weightScale = 10

// DefaultTimeLimit bounds a global solve when the caller passes no
// explicit limit.
const DefaultTimeLimit = 30 * time.Second

// Optimizer computes a maximum-weight set of vertex-disjoint directed
// cycles of any length over a ticket pool. The backend is chosen
// once at startup; callers must not assume proven optimality when the
// time limit was reached mid-search.
type Optimizer struct {
	backend CycleSolver
}

// NewOptimizer selects the solver backend by name. Unknown or empty
// names degrade to the heuristic backend so the feature keeps working
// without a hard solver dependency.
func NewOptimizer(backend string) *Optimizer {
	switch backend {
	case BackendPB:
		return &Optimizer{backend: pbSolver{}}
	case BackendHeuristic:
		return &Optimizer{backend: heuristicSolver{}}
	default:
		log.Printf("matching: unknown solver backend %q, using heuristic", backend)
		return &Optimizer{backend: heuristicSolver{}}
	}
}

// Backend returns the name of the selected solver backend.
func (o *Optimizer) Backend() string { return o.backend.Name() }

// Optimize scores every ordered pair in the pool and solves the
// disjoint cycle cover under the given wall-clock budget. When no
// edge has positive weight the result is empty and no solve is
// attempted. A backend that produces no usable selection also yields
// an empty result, never an error.
func (o *Optimizer) Optimize(pool []*model.Ticket, prefs Preferences, timeLimit time.Duration) []Cycle {
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	w := BuildWeights(pool, prefs)

	positive := false
	scaled := make(Weights, len(w))
	for i := range w {
		scaled[i] = make([]int, len(w[i]))
		for j, v := range w[i] {
			if v > 0 {
				positive = true
				scaled[i][j] = v * weightScale
			}
		}
	}
	if !positive {
		return nil
	}

	succ, ok := o.backend.SolveCycleCover(scaled, timeLimit)
	if !ok {
		return nil
	}
	return decodeCycles(pool, w, succ)
}

// decodeCycles walks successor edges from every unvisited node that
// has an outgoing selection. A walk that returns to its start node is
// emitted as a cycle with the sum of its edge weights; a walk that
// stalls (a node without an outgoing edge) is dropped without being
// emitted. Weights here are unscaled scorer values.
func decodeCycles(pool []*model.Ticket, w Weights, succ map[int]int) []Cycle {
	visited := make(map[int]bool)
	var out []Cycle
	for start := 0; start < len(pool); start++ {
		if visited[start] {
			continue
		}
		if _, has := succ[start]; !has {
			continue
		}
		var members []int
		total := 0
		node := start
		closed := false
		for {
			visited[node] = true
			members = append(members, node)
			next, has := succ[node]
			if !has {
				break // stalled walk, not a cycle
			}
			total += w[node][next]
			if next == start {
				closed = true
				break
			}
			if visited[next] {
				break // joins an earlier walk, cannot close on start
			}
			node = next
		}
		if !closed {
			continue
		}
		ids := make([]uint64, len(members))
		for i, m := range members {
			ids[i] = pool[m].ID
		}
		out = append(out, Cycle{
			TicketIDs:   ids,
			TotalScore:  total,
			Description: describeCycle(len(ids), total),
		})
	}
	return out
}
