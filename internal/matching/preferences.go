// Package matching implements the seat exchange matching engine: the
// pairwise benefit scorer, the small-cycle heuristic and the global
// cycle optimizer. Everything in this package is pure computation;
// repositories and caches live in the service layer.
package matching

// Preferences is the structured form of the matching options a caller
// may attach to a scoring or cycle-finding run. It replaces the loose
// string-keyed dictionaries used by earlier iterations of the
// product: every recognized option is an explicit field.
//
// SameBayOnly is carried for parity with the ticket schema but does
// not influence the scorer; no release has ever acted on it.
type Preferences struct {
	SameCoachOnly  bool     // veto matches without a shared coach
	SameBayOnly    bool     // reserved, currently not applied
	PreferredBerth []string // berth types the beneficiary wants
	AllowCyclic    bool     // opt in to multi-party cycles
	MinStoreScore  float64  // minimum score for stored suggestions
}

// WantsBerth reports whether the given berth type is in the caller's
// preferred list.
func (p Preferences) WantsBerth(berth string) bool {
	for _, b := range p.PreferredBerth {
		if b == berth {
			return true
		}
	}
	return false
}

// ForcesLive reports whether these preferences require a live
// recomputation instead of serving a cached suggestion list. A
// non-empty berth preference changes scoring, so cached entries
// computed without it cannot be reused.
func (p Preferences) ForcesLive() bool { return len(p.PreferredBerth) > 0 }
