package fusion

// Situational contexts understood by ContextPriorities.
const (
	ContextDriving = "driving"
	ContextMeeting = "meeting"
	ContextHome    = "home"
	ContextPublic  = "public"
)

// contextDeltas are the priority adjustments applied per context.
var contextDeltas = map[string]Priorities{
	ContextDriving: {Voice: +2, Eye: +1, Gesture: -1, Touch: -2},
	ContextMeeting: {Gesture: +1, Touch: +1, Voice: -2},
	ContextHome:    {},
	ContextPublic:  {Voice: -1, Gesture: +1},
}

// KnownContext reports whether name has defined priority adjustments.
func KnownContext(name string) bool {
	_, ok := contextDeltas[name]
	return ok
}

// ComputePriorities derives modality priorities from the defaults and a
// capability profile. The capability branches are exclusive: a user who
// cannot use their hands gets the hands-free table whether or not they
// also have limited mobility. The preferred method is boosted last.
func ComputePriorities(profile UserProfile, defaults Priorities) Priorities {
	p := defaults.Clone()

	if !profile.CanUseHands {
		p[Gesture] = 1
		p[Touch] = 1
		p[Eye] = 5
		p[Voice] = 4
	} else if profile.HasLimitedMobility {
		p[Gesture] = 3
		p[Eye] = 4
		p[Voice] = 3
	}

	if profile.PreferredInputMethod.Valid() {
		p[profile.PreferredInputMethod]++
	}

	return p
}

// ContextPriorities returns a copy of base adjusted for a situational
// context. Unknown contexts leave the copy unchanged.
func ContextPriorities(base Priorities, context string) Priorities {
	p := base.Clone()
	for m, delta := range contextDeltas[context] {
		p[m] += delta
	}
	return p
}
