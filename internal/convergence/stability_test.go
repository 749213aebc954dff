package convergence

import (
	"strings"
	"testing"

	"github.com/veralis-app/salesdesk/go-engine/internal/profile"
)

func snapWith(scores map[string]float64, archetype string, confidence float64) profile.Snapshot {
	traits := make(map[string]profile.TraitScore, len(scores))
	for name, v := range scores {
		traits[name] = profile.TraitScore{Score: v}
	}
	return profile.Snapshot{
		SubjectID:   "subj-1",
		TraitScores: traits,
		Archetype:   archetype,
		Confidence:  confidence,
	}
}

func TestStabilityNilPrevious(t *testing.T) {
	curr := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80)

	res := CompareStability(nil, curr, DefaultTolerances())
	if res.Stable {
		t.Fatal("first observation has nothing to compare against; must not be stable")
	}
	if res.Reason == "" {
		t.Error("expected a reason on the first observation")
	}
}

func TestStabilityIdenticalSnapshots(t *testing.T) {
	prev := snapWith(map[string]float64{"openness": 7.0, "extraversion": 4.2}, "visionary", 80)
	curr := snapWith(map[string]float64{"openness": 7.0, "extraversion": 4.2}, "visionary", 80)

	res := CompareStability(&prev, curr, DefaultTolerances())
	if !res.Stable {
		t.Fatalf("identical snapshots must be stable, got reason %q", res.Reason)
	}
	if res.Reason != "" {
		t.Errorf("stable result should carry no reason, got %q", res.Reason)
	}
}

func TestStabilityScoreTolerance(t *testing.T) {
	cases := []struct {
		name   string
		delta  float64
		stable bool
	}{
		{"well inside", 0.05, true},
		{"at threshold", 0.1, false}, // tolerance is exclusive: |d| >= tol breaks
		{"beyond", 0.5, false},
		{"negative inside", -0.05, true},
		{"negative beyond", -0.2, false},
	}
	for _, tc := range cases {
		prev := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80)
		curr := snapWith(map[string]float64{"openness": 7.0 + tc.delta}, "visionary", 80)

		res := CompareStability(&prev, curr, DefaultTolerances())
		if res.Stable != tc.stable {
			t.Errorf("%s (delta=%.2f): Stable=%v, want %v (reason %q)",
				tc.name, tc.delta, res.Stable, tc.stable, res.Reason)
		}
	}
}

func TestStabilityConfidenceTolerance(t *testing.T) {
	prev := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80)

	curr := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80.5)
	if res := CompareStability(&prev, curr, DefaultTolerances()); !res.Stable {
		t.Fatalf("confidence drift of 0.5 is inside tolerance, got reason %q", res.Reason)
	}

	curr = snapWith(map[string]float64{"openness": 7.0}, "visionary", 81)
	if res := CompareStability(&prev, curr, DefaultTolerances()); res.Stable {
		t.Fatal("confidence drift of 1.0 must break stability")
	}
}

func TestStabilityArchetypeChange(t *testing.T) {
	prev := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80)
	curr := snapWith(map[string]float64{"openness": 7.0}, "operator", 80)

	res := CompareStability(&prev, curr, DefaultTolerances())
	if res.Stable {
		t.Fatal("archetype label change must break stability regardless of scores")
	}
	if !strings.Contains(res.Reason, "archetype") {
		t.Errorf("reason should name the archetype, got %q", res.Reason)
	}
}

func TestStabilityTraitDisappears(t *testing.T) {
	prev := snapWith(map[string]float64{"openness": 7.0, "extraversion": 4.2}, "visionary", 80)
	curr := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80)

	res := CompareStability(&prev, curr, DefaultTolerances())
	if res.Stable {
		t.Fatal("a trait dropping out between polls must break stability")
	}
}

func TestStabilityTraitAppears(t *testing.T) {
	prev := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80)
	curr := snapWith(map[string]float64{"openness": 7.0, "extraversion": 4.2}, "visionary", 80)

	res := CompareStability(&prev, curr, DefaultTolerances())
	if res.Stable {
		t.Fatal("a new trait appearing means inference is still progressing")
	}
	if !strings.Contains(res.Reason, "extraversion") {
		t.Errorf("reason should name the new trait, got %q", res.Reason)
	}
}

func TestStabilityLargeJumpNamesTrait(t *testing.T) {
	prev := snapWith(map[string]float64{"conscientiousness": 7.0}, "visionary", 80)
	curr := snapWith(map[string]float64{"conscientiousness": 8.5}, "visionary", 80)

	res := CompareStability(&prev, curr, DefaultTolerances())
	if res.Stable {
		t.Fatal("a 1.5-point jump must break stability")
	}
	if !strings.Contains(res.Reason, "conscientiousness") {
		t.Errorf("reason should name the moved trait, got %q", res.Reason)
	}
}

func TestStabilityCustomTolerance(t *testing.T) {
	prev := snapWith(map[string]float64{"openness": 7.0}, "visionary", 80)
	curr := snapWith(map[string]float64{"openness": 7.4}, "visionary", 80)

	loose := Tolerances{Score: 0.5, Confidence: 1.0}
	if res := CompareStability(&prev, curr, loose); !res.Stable {
		t.Fatalf("0.4 drift inside a 0.5 tolerance should be stable, got %q", res.Reason)
	}
}
