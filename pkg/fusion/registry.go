package fusion

// Registry tracks which modalities are currently active.
type Registry struct {
	active map[Modality]bool
}

// NewRegistry creates a registry with every modality inactive.
func NewRegistry() *Registry {
	r := &Registry{active: make(map[Modality]bool, len(AllModalities))}
	for _, m := range AllModalities {
		r.active[m] = false
	}
	return r
}

// SetActive flips a modality on or off. Unknown modalities are ignored and
// SetActive reports whether the modality was recognised.
func (r *Registry) SetActive(m Modality, active bool) bool {
	if _, ok := r.active[m]; !ok {
		return false
	}
	r.active[m] = active
	return true
}

// IsActive reports whether a modality is active.
func (r *Registry) IsActive(m Modality) bool {
	return r.active[m]
}

// Active returns the active modalities in registration order.
func (r *Registry) Active() []Modality {
	var out []Modality
	for _, m := range AllModalities {
		if r.active[m] {
			out = append(out, m)
		}
	}
	return out
}
