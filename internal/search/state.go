package search

// State is a step of the search pipeline.
type State int

const (
	StateReceived State = iota
	StateRecalling
	StateFusing
	StateReranking
	StateRanking
	StateDiversifying
	StateResponded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateRecalling:
		return "RECALLING"
	case StateFusing:
		return "FUSING"
	case StateReranking:
		return "RERANKING"
	case StateRanking:
		return "RANKING"
	case StateDiversifying:
		return "DIVERSIFYING"
	case StateResponded:
		return "RESPONDED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// validNext lists the legal transitions. RERANKING and DIVERSIFYING are optional.
var validNext = map[State][]State{
	StateReceived:     {StateRecalling},
	StateRecalling:    {StateFusing, StateFailed, StateResponded},
	StateFusing:       {StateReranking, StateRanking},
	StateReranking:    {StateRanking},
	StateRanking:      {StateDiversifying, StateResponded},
	StateDiversifying: {StateResponded},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, s := range validNext[from] {
		if s == to {
			return true
		}
	}
	return false
}
