package entity

// ConceptIntegration describes how many concepts a problem draws on.
type ConceptIntegration string

const (
	IntegrationSingle       ConceptIntegration = "single"
	IntegrationMultiConcept ConceptIntegration = "multi-concept"
	IntegrationCrossSubject ConceptIntegration = "cross-subject"
)

// ProblemApproach describes the solving style a problem demands.
type ProblemApproach string

const (
	ApproachDirect      ProblemApproach = "direct-application"
	ApproachMultiStep   ProblemApproach = "multi-step"
	ApproachProof       ProblemApproach = "proof-based"
	ApproachExploratory ProblemApproach = "exploratory"
)

// The ordinal tables below are the only place the relative order of the enum dimensions is
// defined. Distance, adjustment and pathway scoring all read from them.
var (
	integrationRungs = [...]ConceptIntegration{IntegrationSingle, IntegrationMultiConcept, IntegrationCrossSubject}
	approachRungs    = [...]ProblemApproach{ApproachDirect, ApproachMultiStep, ApproachProof, ApproachExploratory}

	// absolute positions used when a single vector is scored on its own
	integrationPositions = [...]float64{0.33, 0.67, 1.0}
	approachPositions    = [...]float64{0.25, 0.5, 0.75, 1.0}
)

// MaxIntegrationOrdinal and MaxApproachOrdinal are the top rungs of the enum ladders.
const (
	MaxIntegrationOrdinal = len(integrationRungs) - 1
	MaxApproachOrdinal    = len(approachRungs) - 1
)

// ConceptIntegrations lists the integration values in ascending order.
func ConceptIntegrations() []ConceptIntegration {
	return append([]ConceptIntegration(nil), integrationRungs[:]...)
}

// ProblemApproaches lists the approach values in ascending order.
func ProblemApproaches() []ProblemApproach {
	return append([]ProblemApproach(nil), approachRungs[:]...)
}

// Ordinal returns the rung index, or -1 for an unknown value.
func (c ConceptIntegration) Ordinal() int {
	for i, rung := range integrationRungs {
		if rung == c {
			return i
		}
	}
	return -1
}

func (c ConceptIntegration) Valid() bool { return c.Ordinal() >= 0 }

// Step moves delta rungs, stopping at the floor and ceiling. Unknown values are returned as is.
func (c ConceptIntegration) Step(delta int) ConceptIntegration {
	idx := c.Ordinal()
	if idx < 0 {
		return c
	}
	return integrationRungs[clampInt(idx+delta, 0, MaxIntegrationOrdinal)]
}

// Position is the absolute difficulty position in (0, 1]; unknown values score 0.5.
func (c ConceptIntegration) Position() float64 {
	idx := c.Ordinal()
	if idx < 0 {
		return 0.5
	}
	return integrationPositions[idx]
}

// Ordinal returns the rung index, or -1 for an unknown value.
func (a ProblemApproach) Ordinal() int {
	for i, rung := range approachRungs {
		if rung == a {
			return i
		}
	}
	return -1
}

func (a ProblemApproach) Valid() bool { return a.Ordinal() >= 0 }

// Step moves delta rungs, stopping at the floor and ceiling. Unknown values are returned as is.
func (a ProblemApproach) Step(delta int) ProblemApproach {
	idx := a.Ordinal()
	if idx < 0 {
		return a
	}
	return approachRungs[clampInt(idx+delta, 0, MaxApproachOrdinal)]
}

// Position is the absolute difficulty position in (0, 1]; unknown values score 0.5.
func (a ProblemApproach) Position() float64 {
	idx := a.Ordinal()
	if idx < 0 {
		return 0.5
	}
	return approachPositions[idx]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
