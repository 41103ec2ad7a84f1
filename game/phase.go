package game

import "fmt"

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseCollecting
	PhaseGenerating
	PhaseVoting
	PhaseResults
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseLobby:      "LOBBY",
	PhaseCollecting: "COLLECTING",
	PhaseGenerating: "GENERATING",
	PhaseVoting:     "VOTING",
	PhaseResults:    "RESULTS",
	PhaseFinished:   "FINISHED",
}

// transitions lists every edge of the phase graph. Room destruction is not
// a phase, so it has no entry.
var transitions = map[Phase][]Phase{
	PhaseLobby:      {PhaseCollecting},
	PhaseCollecting: {PhaseGenerating},
	PhaseGenerating: {PhaseVoting},
	PhaseVoting:     {PhaseResults},
	PhaseResults:    {PhaseCollecting, PhaseFinished},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) Valid() bool {
	_, ok := phaseNames[p]
	return ok
}

func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range transitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
