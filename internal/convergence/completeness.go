package convergence

import (
	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region evaluate

// EvaluateCompleteness inspects a single snapshot and reports which
// sub-signals have reached a usable state. Missing fields are incomplete,
// never errors.
func EvaluateCompleteness(snap profile.Snapshot, cfg CompletenessConfig) Completeness {
	battery := cfg.BatteryTraits
	if battery == nil {
		battery = profile.PrimaryTraits
	}

	return Completeness{
		TraitsReady:     snap.HasTraits(battery) && snap.Archetype != "" && snap.Confidence >= cfg.MinConfidence,
		IndicatorsReady: len(snap.Indicators) > 0,
		AwaitingInput:   len(snap.OpenQuestions) > 0,
	}
}

// #endregion evaluate
