package scenario

// DefaultName is the built-in scenario used when none is configured.
const DefaultName = "evening"

// BuiltIn returns predefined host load scenarios.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"idle": {
			Name:        "Idle",
			Description: "An empty server ticking well under budget.",
			Phases: []Phase{
				{Name: "quiet", LoadMs: 2, JitterMs: 1},
			},
		},
		"evening": {
			Name:        "Evening",
			Description: "Players trickle in, the server gets busy, then everyone but one logs off.",
			Phases: []Phase{
				{Name: "warmup", Ticks: 200, LoadMs: 4, JitterMs: 1},
				{Name: "arrivals", Ticks: 600, LoadMs: 12, JitterMs: 3, Join: []string{"Ari", "Bo", "Cyd"}},
				{Name: "peak", Ticks: 1200, LoadMs: 38, JitterMs: 8, Join: []string{"Dee", "Eli"}},
				{Name: "winddown", LoadMs: 6, JitterMs: 2, Leave: []string{"Bo", "Cyd", "Dee", "Eli"}},
			},
		},
		"lag-spike": {
			Name:        "Lag Spike",
			Description: "A full server falls behind for a while and then recovers.",
			Phases: []Phase{
				{Name: "steady", Ticks: 400, LoadMs: 20, JitterMs: 4, Join: []string{"Ari", "Bo", "Cyd", "Dee"}},
				{Name: "spike", Ticks: 100, LoadMs: 140, JitterMs: 30},
				{Name: "recovered", LoadMs: 22, JitterMs: 4},
			},
		},
	}
}

// Default returns the built-in DefaultName scenario.
func Default() *Scenario {
	sc := BuiltIn()[DefaultName]
	return &sc
}
