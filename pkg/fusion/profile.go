package fusion

// UserProfile describes what the user can physically do and which input
// method they prefer. Priorities is derived; see ComputePriorities.
type UserProfile struct {
	HasLimitedMobility   bool       `json:"has_limited_mobility" yaml:"has_limited_mobility"`
	CanUseHands          bool       `json:"can_use_hands" yaml:"can_use_hands"`
	CanUseVoice          bool       `json:"can_use_voice" yaml:"can_use_voice"`
	CanUseEyes           bool       `json:"can_use_eyes" yaml:"can_use_eyes"`
	PreferredInputMethod Modality   `json:"preferred_input_method,omitempty" yaml:"preferred_input_method,omitempty"`
	Priorities           Priorities `json:"priorities,omitempty" yaml:"-"`
}

// DefaultProfile returns a profile with no capability restrictions.
func DefaultProfile() UserProfile {
	return UserProfile{
		CanUseHands: true,
		CanUseVoice: true,
		CanUseEyes:  true,
	}
}

// ProfilePatch is a partial UserProfile. Nil fields are left unchanged.
type ProfilePatch struct {
	HasLimitedMobility   *bool     `json:"has_limited_mobility,omitempty" yaml:"has_limited_mobility,omitempty"`
	CanUseHands          *bool     `json:"can_use_hands,omitempty" yaml:"can_use_hands,omitempty"`
	CanUseVoice          *bool     `json:"can_use_voice,omitempty" yaml:"can_use_voice,omitempty"`
	CanUseEyes           *bool     `json:"can_use_eyes,omitempty" yaml:"can_use_eyes,omitempty"`
	PreferredInputMethod *Modality `json:"preferred_input_method,omitempty" yaml:"preferred_input_method,omitempty"`
}

// Apply returns p with the patch merged in. Priorities are carried over
// untouched; the caller recomputes them.
func (pp ProfilePatch) Apply(p UserProfile) UserProfile {
	out := p
	out.Priorities = p.Priorities.Clone()
	if pp.HasLimitedMobility != nil {
		out.HasLimitedMobility = *pp.HasLimitedMobility
	}
	if pp.CanUseHands != nil {
		out.CanUseHands = *pp.CanUseHands
	}
	if pp.CanUseVoice != nil {
		out.CanUseVoice = *pp.CanUseVoice
	}
	if pp.CanUseEyes != nil {
		out.CanUseEyes = *pp.CanUseEyes
	}
	if pp.PreferredInputMethod != nil {
		out.PreferredInputMethod = *pp.PreferredInputMethod
	}
	return out
}
