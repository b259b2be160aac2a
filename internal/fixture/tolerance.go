package fixture

// DefaultLineTolerance is the permitted line-number drift when no exact
// strategy applies.
const DefaultLineTolerance = 2

// TolerancePolicy decides the line-number tolerance for a target tag set.
type TolerancePolicy interface {
	Tolerance(tags []string) int
}

// TolerancePolicyFunc adapts a function to TolerancePolicy.
type TolerancePolicyFunc func(tags []string) int

// Tolerance calls f.
func (f TolerancePolicyFunc) Tolerance(tags []string) int {
	return f(tags)
}

// ExactLinePolicy reports zero tolerance for configurations whose trace
// capture strategy yields exact line numbers.
//
// Each entry of Exact is a tag set; when the target contains every tag of
// any entry the tolerance is 0, otherwise Default.
type ExactLinePolicy struct {
	Default int
	Exact   [][]string
}

// Tolerance implements TolerancePolicy.
func (p ExactLinePolicy) Tolerance(tags []string) int {
	have := make(map[string]bool, len(tags))
	for _, t := range tags {
		have[t] = true
	}
	for _, set := range p.Exact {
		if len(set) == 0 {
			continue
		}
		all := true
		for _, t := range set {
			if !have[t] {
				all = false
				break
			}
		}
		if all {
			return 0
		}
	}
	return p.Default
}
