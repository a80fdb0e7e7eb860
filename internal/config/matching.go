package config

import "time"

// MatchingConfig collects the tunables of the matching engine and
// the suggestion store. Defaults are used when variables are unset;
// unlike the core Config none of these are required.
//
//	SOLVER_BACKEND        – "pb" (gophersat) or "heuristic"
//	SOLVER_TIME_LIMIT     – wall-clock budget per global solve
//	SOLVER_WORKERS        – concurrent global solves allowed
//	MATCH_BATCH_GROUP     – tickets scored concurrently in batch jobs
//	MATCH_LIMIT           – matches returned per ticket
//	MIN_STORE_SCORE       – default threshold for stored suggestions
//	SUGGESTION_TTL        – lifetime of cached suggestion lists (0 keeps them)
//	OTP_TTL               – lifetime of issued OTP codes
type MatchingConfig struct {
	SolverBackend  string
	TimeLimit      time.Duration
	SolverWorkers  int
	BatchGroupSize int
	MatchLimit     int
	MinStoreScore  float64
	SuggestionTTL  time.Duration
	OTPTTL         time.Duration
}

// LoadMatchingConfig reads environment variables to build a
// MatchingConfig, falling back to defaults for anything unset.
func LoadMatchingConfig() MatchingConfig {
	cfg := MatchingConfig{
		SolverBackend:  envStr("SOLVER_BACKEND", "pb"),
		TimeLimit:      envDur("SOLVER_TIME_LIMIT", 30*time.Second),
		SolverWorkers:  envInt("SOLVER_WORKERS", 1),
		BatchGroupSize: envInt("MATCH_BATCH_GROUP", 3),
		MatchLimit:     envInt("MATCH_LIMIT", 10),
		MinStoreScore:  envFloat("MIN_STORE_SCORE", 60),
		SuggestionTTL:  envDur("SUGGESTION_TTL", 0),
		OTPTTL:         envDur("OTP_TTL", 5*time.Minute),
	}
	if cfg.SolverWorkers < 1 {
		cfg.SolverWorkers = 1
	}
	if cfg.BatchGroupSize < 1 {
		cfg.BatchGroupSize = 1
	}
	if cfg.MatchLimit < 1 {
		cfg.MatchLimit = 1
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = 30 * time.Second
	}
	return cfg
}
