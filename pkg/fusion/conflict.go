package fusion

// CommandsConflict reports whether two commands compete for the same
// action. Only the command type is compared; targets and text are not.
func CommandsConflict(a, b Command) bool {
	return a.Type() == b.Type()
}

// Reason explains which rule decided a conflict.
type Reason string

const (
	ReasonPriority   Reason = "priority"
	ReasonConfidence Reason = "confidence"
	ReasonFirstMover Reason = "first_mover"
)

// Decision is the outcome of resolving a conflict.
type Decision struct {
	Winner Command `json:"winner"`
	Loser  Command `json:"loser"`
	Reason Reason  `json:"reason"`

	// NewWins is true when the incoming command beat the existing one
	NewWins bool `json:"new_wins"`
}

// Resolve picks the winner between an incoming command and an existing
// one it conflicts with. Ties on every compared field keep the existing
// command, so the result never depends on anything but its inputs.
func Resolve(incoming, existing Command, priorities Priorities, strategy Strategy) Decision {
	pNew, pOld := priorities[incoming.Modality], priorities[existing.Modality]
	cNew, cOld := incoming.Confidence, existing.Confidence

	byPriority := func() (decided, newWins bool) {
		if pNew != pOld {
			return true, pNew > pOld
		}
		return false, false
	}
	byConfidence := func() (decided, newWins bool) {
		if cNew != cOld {
			return true, cNew > cOld
		}
		return false, false
	}

	type rule struct {
		reason Reason
		cmp    func() (bool, bool)
	}
	rules := []rule{{ReasonPriority, byPriority}, {ReasonConfidence, byConfidence}}
	if strategy == StrategyConfidence {
		rules[0], rules[1] = rules[1], rules[0]
	}

	for _, r := range rules {
		if decided, newWins := r.cmp(); decided {
			return decide(incoming, existing, newWins, r.reason)
		}
	}
	return decide(incoming, existing, false, ReasonFirstMover)
}

func decide(incoming, existing Command, newWins bool, reason Reason) Decision {
	if newWins {
		return Decision{Winner: incoming, Loser: existing, Reason: reason, NewWins: true}
	}
	return Decision{Winner: existing, Loser: incoming, Reason: reason}
}
