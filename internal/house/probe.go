package house

// Probe outcomes for one enumeration step. A found document that fails to
// parse is a skip: the roll exists, so it must not feed the miss streak.
type outcome int

const (
	outcomeFound outcome = iota
	outcomeMiss
	outcomeSkip
)

// stopReason reports why enumeration terminated.
type stopReason string

const (
	stopNone    stopReason = ""
	stopStreak  stopReason = "streak"
	stopCeiling stopReason = "ceiling"
)

// probeState carries the enumeration counters from step to step. It is a
// plain value threaded through the loop so the termination heuristic is
// testable without any network I/O.
type probeState struct {
	roll   int // next roll number to probe
	misses int // current consecutive-miss streak
	found  int // documents discovered so far
	probes int // total probes issued
}

func newProbeState() probeState {
	return probeState{roll: 1}
}

// next advances the state by one observed outcome and reports whether
// enumeration is done. The miss streak only terminates the scan once at
// least one document has been found, so transient startup errors cannot
// end a session before it begins; the absolute ceiling applies regardless.
func (s probeState) next(o outcome, missStreak, maxProbe int) (probeState, stopReason) {
	s.probes++
	switch o {
	case outcomeFound:
		s.misses = 0
		s.found++
	case outcomeMiss:
		s.misses++
	case outcomeSkip:
		// roll existed; streak untouched
	}
	s.roll++

	if o == outcomeMiss && s.misses >= missStreak && s.found > 0 {
		return s, stopStreak
	}
	if s.roll > maxProbe {
		return s, stopCeiling
	}
	return s, stopNone
}
