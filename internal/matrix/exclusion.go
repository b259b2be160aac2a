package matrix

// ExclusionRule is a partial axis-name to value mapping. A configuration is
// excluded when it has every named axis and agrees on every value.
type ExclusionRule map[string]string

// Matches reports whether cfg fully matches the rule. An axis the
// configuration does not have makes the rule fail, as does an empty rule.
func (r ExclusionRule) Matches(cfg Configuration) bool {
	if len(r) == 0 {
		return false
	}
	for axis, want := range r {
		got, ok := cfg.Value(axis)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func (r ExclusionRule) clone() ExclusionRule {
	out := make(ExclusionRule, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
