package matching

import (
	"fmt"
	"strings"

	"github.com/railswap/train-seat-exchange/internal/model"
)

// Scoring weights. The scorer is additive and capped at MaxScore.
const (
	MaxScore         = 100
	sameCoachBonus   = 30 // at least one shared coach
	sameBayBonus     = 20 // passenger pair in the same 8-seat bay
	adjacentBonus    = 15 // passenger pair with seat numbers differing by <=1
	betterBerthBonus = 10 // counterparty berth outranks ours
	wantedBerthBonus = 8  // and it is in our preferred list
)

// fallbackDescription is returned when the score is positive but no
// itemized benefit phrase was recorded.
const fallbackDescription = "Potential exchange available"

// Score computes the directed benefit of the beneficiary taking the
// counterparty's seats. It is a pure function of the two passenger
// lists and the preferences, deterministic, and not symmetric:
// Score(a, b) and Score(b, a) generally differ because berth
// improvements only count in one direction.
//
// The returned value is always in [0, MaxScore]. The description
// concatenates the triggered benefit phrases with " • ". Degenerate
// input (either list empty) scores 0; the scorer never fails.
func Score(mine, theirs []model.Passenger, prefs Preferences) (int, string) {
	if len(mine) == 0 || len(theirs) == 0 {
		return 0, "No matching coaches"
	}

	score := 0
	var benefits []string

	myCoaches := map[string]struct{}{}
	for _, p := range mine {
		myCoaches[p.Coach] = struct{}{}
	}
	var common []string
	seen := map[string]struct{}{}
	for _, p := range theirs {
		if _, ok := myCoaches[p.Coach]; ok {
			if _, dup := seen[p.Coach]; !dup {
				seen[p.Coach] = struct{}{}
				common = append(common, p.Coach)
			}
		}
	}
	if len(common) > 0 {
		score += sameCoachBonus
		benefits = append(benefits, fmt.Sprintf("Same coach (%s)", strings.Join(common, ", ")))
	}

	// Bay and adjacency bonuses apply per passenger pair sharing a
	// coach. Both can trigger for the same pair.
	for _, mp := range mine {
		for _, op := range theirs {
			if mp.Coach != op.Coach {
				continue
			}
			if mp.Bay() == op.Bay() {
				score += sameBayBonus
				benefits = append(benefits, fmt.Sprintf("Same bay as seat %d", op.SeatNumber))
			}
			if diff := mp.SeatNumber - op.SeatNumber; diff <= 1 && diff >= -1 {
				score += adjacentBonus
				benefits = append(benefits, fmt.Sprintf("Adjacent to seat %d", op.SeatNumber))
			}
		}
	}

	// Berth improvement: every counterparty berth that outranks one of
	// ours counts, and counts extra when it is explicitly wanted.
	for _, op := range theirs {
		theirRank := model.BerthRank[op.BerthType]
		for _, mp := range mine {
			if theirRank > model.BerthRank[mp.BerthType] {
				score += betterBerthBonus
				benefits = append(benefits, fmt.Sprintf("Better berth: %s", op.BerthType))
				if prefs.WantsBerth(op.BerthType) {
					score += wantedBerthBonus
				}
			}
		}
	}

	// Hard veto, evaluated last: no shared coach under SameCoachOnly
	// zeroes out everything accumulated above.
	if prefs.SameCoachOnly && len(common) == 0 {
		return 0, "No matching coaches"
	}

	if score > MaxScore {
		score = MaxScore
	}
	if len(benefits) == 0 {
		return score, fallbackDescription
	}
	return score, strings.Join(benefits, " • ")
}
