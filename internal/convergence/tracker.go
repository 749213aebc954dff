package convergence

// #region tracker

// Tracker accumulates consecutive complete-and-stable observations. Any
// regression resets the streak to zero. One "looks done" snapshot is not
// trusted; requiring a streak is the anti-flapping guarantee over a naive
// poll-until-non-null loop.
type Tracker struct {
	streak int
}

// Observe folds one observation into the streak and returns the new streak.
func (t *Tracker) Observe(complete, stable bool) int {
	if complete && stable {
		t.streak++
	} else {
		t.streak = 0
	}
	return t.streak
}

// Streak returns the current run of complete-and-stable observations.
func (t *Tracker) Streak() int {
	return t.streak
}

// HasConverged reports whether the streak has reached the required length.
func (t *Tracker) HasConverged(required int) bool {
	return t.streak >= required
}

// Reset clears the streak, for reuse across polling sessions.
func (t *Tracker) Reset() {
	t.streak = 0
}

// #endregion tracker
