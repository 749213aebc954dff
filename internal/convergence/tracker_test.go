package convergence

import "testing"

func TestTrackerGrowsOnCompleteStable(t *testing.T) {
	var tr Tracker

	for i := 1; i <= 3; i++ {
		if got := tr.Observe(true, true); got != i {
			t.Fatalf("observation %d: streak=%d, want %d", i, got, i)
		}
	}
	if !tr.HasConverged(3) {
		t.Fatal("three consecutive good observations should converge at required=3")
	}
}

func TestTrackerResetsOnAnyRegression(t *testing.T) {
	cases := []struct {
		name             string
		complete, stable bool
	}{
		{"incomplete", false, true},
		{"unstable", true, false},
		{"both bad", false, false},
	}
	for _, tc := range cases {
		var tr Tracker
		tr.Observe(true, true)
		tr.Observe(true, true)

		if got := tr.Observe(tc.complete, tc.stable); got != 0 {
			t.Errorf("%s: streak=%d after regression, want 0", tc.name, got)
		}
		if tr.HasConverged(3) {
			t.Errorf("%s: must not report converged after a reset", tc.name)
		}
	}
}

func TestTrackerStreakIsSuffixLength(t *testing.T) {
	// The streak equals the length of the trailing run of good
	// observations, not the total count of good ones.
	var tr Tracker
	seq := []bool{true, true, false, true, true, true}
	var last int
	for _, good := range seq {
		last = tr.Observe(good, good)
	}
	if last != 3 {
		t.Fatalf("streak=%d, want 3 (the trailing run)", last)
	}
}

func TestTrackerRebuildAfterReset(t *testing.T) {
	var tr Tracker
	tr.Observe(true, true)
	tr.Observe(true, true)
	tr.Observe(true, false)

	for i := 1; i <= 3; i++ {
		tr.Observe(true, true)
	}
	if !tr.HasConverged(3) {
		t.Fatal("a full streak rebuilt after a reset should converge")
	}
}

func TestTrackerReset(t *testing.T) {
	var tr Tracker
	tr.Observe(true, true)
	tr.Reset()
	if tr.Streak() != 0 {
		t.Fatalf("streak=%d after Reset, want 0", tr.Streak())
	}
}
