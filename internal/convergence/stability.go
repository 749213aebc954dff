package convergence

import (
	"fmt"
	"math"

	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

// #region compare

// CompareStability decides whether the numerically significant parts of two
// consecutive snapshots are unchanged within the configured tolerances.
// Stability requires two comparable observations: a nil previous snapshot is
// never stable. A field present on only one side means progress is still
// being made, so that sub-check fails conservatively.
func CompareStability(prev *profile.Snapshot, curr profile.Snapshot, tol Tolerances) StabilityResult {
	if prev == nil {
		return StabilityResult{Reason: "first observation"}
	}

	// Archetype: exact string match, no tolerance.
	if prev.Archetype != curr.Archetype {
		return StabilityResult{Reason: fmt.Sprintf("archetype changed %q -> %q", prev.Archetype, curr.Archetype)}
	}

	if d := math.Abs(curr.Confidence - prev.Confidence); d >= tol.Confidence {
		return StabilityResult{Reason: fmt.Sprintf("confidence moved %.1f -> %.1f", prev.Confidence, curr.Confidence)}
	}

	// Trait scores: every trait present in both snapshots must be within
	// tolerance; appearing or disappearing traits break stability.
	for name, pv := range prev.TraitScores {
		cv, ok := curr.TraitScores[name]
		if !ok {
			return StabilityResult{Reason: fmt.Sprintf("trait %q dropped", name)}
		}
		if math.Abs(cv.Score-pv.Score) >= tol.Score {
			return StabilityResult{Reason: fmt.Sprintf("trait %q moved %.2f -> %.2f", name, pv.Score, cv.Score)}
		}
	}
	for name := range curr.TraitScores {
		if _, ok := prev.TraitScores[name]; !ok {
			return StabilityResult{Reason: fmt.Sprintf("trait %q appeared", name)}
		}
	}

	return StabilityResult{Stable: true}
}

// #endregion compare
