package convergence

// #region tolerances

// Tolerances bounds how much a numeric field may move between two
// consecutive snapshots and still count as unchanged. Values are
// configuration, not per-field constants baked into the comparator.
type Tolerances struct {
	Score      float64 // trait scores, 0-10 scale
	Confidence float64 // archetype confidence, 0-100 scale
}

// DefaultTolerances returns the empirically chosen production defaults.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Score:      0.1,
		Confidence: 1.0,
	}
}

// #endregion tolerances

// #region completeness-config

// CompletenessConfig holds the thresholds for structural completeness.
type CompletenessConfig struct {
	MinConfidence float64  // archetype confidence floor, 0-100
	BatteryTraits []string // trait group that must be fully present; nil = profile.PrimaryTraits
}

// DefaultCompletenessConfig returns sensible defaults.
func DefaultCompletenessConfig() CompletenessConfig {
	return CompletenessConfig{
		MinConfidence: 75,
	}
}

// #endregion completeness-config

// #region completeness-report

// Completeness is the per-signal breakdown of one snapshot's structural
// readiness. Each sub-check is individually meaningful to callers.
type Completeness struct {
	TraitsReady     bool // full battery present AND confidence at threshold
	IndicatorsReady bool // derived-indicators map non-empty
	AwaitingInput   bool // backend is blocked on open questions, not still converging
}

// Complete reports whether the snapshot is structurally done. A snapshot
// that is awaiting user input is not complete; the controller surfaces that
// as its own terminal reason instead.
func (c Completeness) Complete() bool {
	return c.TraitsReady && c.IndicatorsReady && !c.AwaitingInput
}

// #endregion completeness-report

// #region stability-result

// StabilityResult carries the comparator's verdict plus the first field
// that broke stability, for logs and history.
type StabilityResult struct {
	Stable bool
	Reason string // empty when stable
}

// #endregion stability-result
