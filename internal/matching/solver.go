package matching

import "time"

// CycleSolver is the capability interface behind the global cycle
// optimizer. A backend receives the scaled weight matrix and returns
// the selected edge set as a successor map (node index → node index).
// Implementations must respect the per-node degree constraints:
// selected out-degree ≤ 1, in-degree ≤ 1 and out-degree == in-degree.
//
// The time limit is advisory: a backend should stop searching around
// the deadline and return the best feasible selection found so far.
// Returning ok=false means no usable selection was produced at all.
type CycleSolver interface {
	Name() string
	SolveCycleCover(w Weights, timeLimit time.Duration) (succ map[int]int, ok bool)
}

// Backend names accepted by NewOptimizer.
const (
	BackendPB        = "pb"
	BackendHeuristic = "heuristic"
)

// heuristicSolver degrades the global optimizer to the small-cycle
// heuristic (cycles of length 2 and 3 only) when no constraint
// solver backend is configured. The feature stays available at
// reduced optimality; this is not an error path.
type heuristicSolver struct{}

func (heuristicSolver) Name() string { return BackendHeuristic }

func (heuristicSolver) SolveCycleCover(w Weights, _ time.Duration) (map[int]int, bool) {
	n := len(w)
	type candidate struct {
		members []int
		total   int
	}
	var cands []candidate
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if w[i][j] > 0 && w[j][i] > 0 {
				cands = append(cands, candidate{[]int{i, j}, w[i][j] + w[j][i]})
			}
			for k := j + 1; k < n; k++ {
				if w[i][j] > 0 && w[j][k] > 0 && w[k][i] > 0 {
					cands = append(cands, candidate{[]int{i, j, k}, w[i][j] + w[j][k] + w[k][i]})
				}
			}
		}
	}
	// Greedy packing, highest combined benefit first.
	for a := 1; a < len(cands); a++ {
		for b := a; b > 0 && cands[b].total > cands[b-1].total; b-- {
			cands[b], cands[b-1] = cands[b-1], cands[b]
		}
	}
	used := make([]bool, n)
	succ := make(map[int]int)
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
		for idx, m := range c.members {
			used[m] = true
			succ[m] = c.members[(idx+1)%len(c.members)]
		}
	}
	return succ, true
}
