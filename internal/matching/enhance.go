package matching

import (
	"context"

	"github.com/railswap/train-seat-exchange/internal/model"
)

// Blend weights for the optional re-ranking layer: the traditional
// score dominates and an externally computed score nudges the order.
const (
	traditionalWeight = 0.6
	enhancedWeight    = 0.4
)

// Enhancer supplies an auxiliary score for a potential match. It
// sits outside the matching core's correctness contract: any failure
// or absence leaves the traditional ranking untouched.
type Enhancer interface {
	ScoreMatch(ctx context.Context, mine, theirs []model.Passenger) (float64, error)
}

// Blend combines the traditional score with an externally computed
// one, 60/40 weighted.
func Blend(traditional, enhanced float64) float64 {
	return traditional*traditionalWeight + enhanced*enhancedWeight
}

// CohesionEnhancer is the default Enhancer: it scores a match by how
// much the swap would improve the togetherness of the beneficiary's
// group if it received the counterparty's seats. Deterministic and
// local, so re-ranking stays reproducible without an external model.
type CohesionEnhancer struct{}

func (CohesionEnhancer) ScoreMatch(_ context.Context, mine, theirs []model.Passenger) (float64, error) {
	merged := make([]model.Passenger, 0, len(mine)+len(theirs))
	merged = append(merged, mine...)
	merged = append(merged, theirs...)
	return TogethernessScore(merged), nil
}

// TogethernessScore rates how close together a passenger group sits,
// from 100 (single seat or one bay) downwards. Each extra coach
// costs 30 points and each extra bay within a coach costs 10.
func TogethernessScore(passengers []model.Passenger) float64 {
	if len(passengers) <= 1 {
		return 100.0
	}
	score := 100.0
	coaches := map[string][]model.Passenger{}
	for _, p := range passengers {
		coaches[p.Coach] = append(coaches[p.Coach], p)
	}
	if len(coaches) > 1 {
		score -= 30 * float64(len(coaches)-1)
	}
	for _, group := range coaches {
		if len(group) <= 1 {
			continue
		}
		bays := map[int]struct{}{}
		for _, p := range group {
			bays[p.Bay()] = struct{}{}
		}
		if len(bays) > 1 {
			score -= 10 * float64(len(bays)-1)
		}
	}
	if score < 0 {
		return 0
	}
	return score
}
