package fusion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputePriorities(t *testing.T) {
	tests := []struct {
		name    string
		profile UserProfile
		want    Priorities
	}{
		{
			name:    "defaults",
			profile: DefaultProfile(),
			want:    Priorities{Eye: 3, Gesture: 4, Voice: 2, Switch: 1, Touch: 5},
		},
		{
			name:    "no hands",
			profile: UserProfile{CanUseHands: false, CanUseVoice: true, CanUseEyes: true},
			want:    Priorities{Eye: 5, Gesture: 1, Voice: 4, Switch: 1, Touch: 1},
		},
		{
			name:    "no hands wins over limited mobility",
			profile: UserProfile{CanUseHands: false, HasLimitedMobility: true},
			want:    Priorities{Eye: 5, Gesture: 1, Voice: 4, Switch: 1, Touch: 1},
		},
		{
			name:    "limited mobility",
			profile: UserProfile{CanUseHands: true, HasLimitedMobility: true},
			want:    Priorities{Eye: 4, Gesture: 3, Voice: 3, Switch: 1, Touch: 5},
		},
		{
			name:    "preferred method boost",
			profile: UserProfile{CanUseHands: true, PreferredInputMethod: Switch},
			want:    Priorities{Eye: 3, Gesture: 4, Voice: 2, Switch: 2, Touch: 5},
		},
		{
			name:    "preferred method on top of capability branch",
			profile: UserProfile{CanUseHands: false, PreferredInputMethod: Eye},
			want:    Priorities{Eye: 6, Gesture: 1, Voice: 4, Switch: 1, Touch: 1},
		},
		{
			name:    "unknown preferred method ignored",
			profile: UserProfile{CanUseHands: true, PreferredInputMethod: "telepathy"},
			want:    Priorities{Eye: 3, Gesture: 4, Voice: 2, Switch: 1, Touch: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePriorities(tt.profile, DefaultPriorities())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ComputePriorities() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputePrioritiesIdempotent(t *testing.T) {
	profile := UserProfile{CanUseHands: true, HasLimitedMobility: true, PreferredInputMethod: Voice}

	first := ComputePriorities(profile, DefaultPriorities())
	profile.Priorities = first
	second := ComputePriorities(profile, DefaultPriorities())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second recompute differs (-first +second):\n%s", diff)
	}
}

func TestUpdatePrioritiesIdempotent(t *testing.T) {
	e, _, _, _ := newTestEngine(t, DefaultConfig(), WithProfile(UserProfile{
		CanUseHands:          true,
		PreferredInputMethod: Gesture,
	}))

	e.UpdatePriorities()
	first := e.Priorities()
	e.UpdatePriorities()
	second := e.Priorities()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("UpdatePriorities() not idempotent (-first +second):\n%s", diff)
	}
	if first[Gesture] != 5 {
		t.Errorf("Expected gesture=5 after preferred boost, got %d", first[Gesture])
	}
}

func TestCapabilityShiftIgnoresPriorValues(t *testing.T) {
	defaults := Priorities{Eye: 9, Gesture: 9, Voice: 9, Switch: 9, Touch: 9}

	got := ComputePriorities(UserProfile{CanUseHands: false}, defaults)

	if got[Gesture] != 1 || got[Touch] != 1 {
		t.Errorf("Expected gesture=1 touch=1, got gesture=%d touch=%d", got[Gesture], got[Touch])
	}
	if got[Eye] != 5 || got[Voice] != 4 {
		t.Errorf("Expected eye=5 voice=4, got eye=%d voice=%d", got[Eye], got[Voice])
	}
	if defaults[Gesture] != 9 {
		t.Error("ComputePriorities must not mutate the defaults")
	}
}

func TestContextPriorities(t *testing.T) {
	base := DefaultPriorities()

	tests := []struct {
		context string
		want    Priorities
	}{
		{ContextDriving, Priorities{Eye: 4, Gesture: 3, Voice: 4, Switch: 1, Touch: 3}},
		{ContextMeeting, Priorities{Eye: 3, Gesture: 5, Voice: 0, Switch: 1, Touch: 6}},
		{ContextHome, base},
		{ContextPublic, Priorities{Eye: 3, Gesture: 5, Voice: 1, Switch: 1, Touch: 5}},
		{"library", base},
	}

	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			got := ContextPriorities(base, tt.context)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ContextPriorities(%q) mismatch (-want +got):\n%s", tt.context, diff)
			}
		})
	}

	if diff := cmp.Diff(DefaultPriorities(), base); diff != "" {
		t.Errorf("ContextPriorities mutated its input:\n%s", diff)
	}
}

func TestKnownContext(t *testing.T) {
	for _, c := range []string{ContextDriving, ContextMeeting, ContextHome, ContextPublic} {
		if !KnownContext(c) {
			t.Errorf("Expected %q to be known", c)
		}
	}
	if KnownContext("space") {
		t.Error("Expected \"space\" to be unknown")
	}
}
