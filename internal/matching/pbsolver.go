package matching

import (
	"time"

	"github.com/crillab/gophersat/solver"
)

// pbSolver solves the maximum-weight disjoint cycle cover as a
// pseudo-Boolean optimization problem using gophersat. One Boolean
// variable is created per positive-weight directed edge; per node the
// selected out-degree and in-degree are each at most one and equal to
// each other, which forces every participating node into a closed
// cycle and forbids open chains.
//
// The objective maximizes the total selected weight. gophersat
// minimizes a cost function, so the cost is the weight of the edges
// left unselected: both formulations pick the same edge set.
type pbSolver struct{}

func (pbSolver) Name() string { return BackendPB }

func (pbSolver) SolveCycleCover(w Weights, timeLimit time.Duration) (map[int]int, bool) {
	n := len(w)

	// Number the decision variables 1..m over positive-weight edges.
	type edge struct{ from, to int }
	var edges []edge
	varOf := make(map[edge]int)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && w[i][j] > 0 {
				e := edge{i, j}
				edges = append(edges, e)
				varOf[e] = len(edges) // variables are 1-based
			}
		}
	}
	if len(edges) == 0 {
		return map[int]int{}, true
	}

	outLits := make([][]int, n)
	inLits := make([][]int, n)
	for _, e := range edges {
		v := varOf[e]
		outLits[e.from] = append(outLits[e.from], v)
		inLits[e.to] = append(inLits[e.to], v)
	}

	var constrs []solver.PBConstr
	for node := 0; node < n; node++ {
		out := outLits[node]
		in := inLits[node]
		if len(out) > 1 {
			constrs = append(constrs, solver.AtMost(out, 1))
		}
		if len(in) > 1 {
			constrs = append(constrs, solver.AtMost(in, 1))
		}
		// sum(out) - sum(in) == 0
		if len(out) == 0 && len(in) == 0 {
			continue
		}
		lits := make([]int, 0, len(out)+len(in))
		coeffs := make([]int, 0, len(out)+len(in))
		for _, v := range out {
			lits = append(lits, v)
			coeffs = append(coeffs, 1)
		}
		for _, v := range in {
			lits = append(lits, v)
			coeffs = append(coeffs, -1)
		}
		constrs = append(constrs, solver.Eq(lits, coeffs, 0)...)
	}

	pb := solver.ParsePBConstrs(constrs)

	// Cost of a model = total weight of unselected edges.
	costLits := make([]solver.Lit, len(edges))
	costWeights := make([]int, len(edges))
	for idx, e := range edges {
		costLits[idx] = solver.IntToLit(int32(-varOf[e]))
		costWeights[idx] = w[e.from][e.to]
	}
	pb.SetCostFunc(costLits, costWeights)

	s := solver.New(pb)
	s.Verbose = false

	stop := make(chan struct{})
	timer := time.AfterFunc(timeLimit, func() { close(stop) })
	res := s.Optimal(nil, stop)
	timer.Stop()

	if res.Status != solver.Sat || len(res.Model) < len(edges) {
		// Either proven infeasible (cannot happen: the empty selection
		// is always a model) or stopped before any model was found.
		return nil, false
	}
	succ := make(map[int]int, n)
	for idx, e := range edges {
		if res.Model[idx] {
			succ[e.from] = e.to
		}
	}
	return succ, true
}
