package profile

import "time"

// #region snapshot

// Snapshot is one point-in-time read of the externally computed behavioral
// profile for a subject. It is a value type: consumers never mutate one in
// place, and snapshots are only comparable to other snapshots of the same
// subject.
type Snapshot struct {
	SubjectID     string                `json:"subject_id"`
	TraitScores   map[string]TraitScore `json:"trait_scores,omitempty"`
	Archetype     string                `json:"archetype,omitempty"`
	Confidence    float64               `json:"archetype_confidence"` // 0-100
	Indicators    map[string]string     `json:"indicators,omitempty"`
	OpenQuestions []OpenQuestion        `json:"open_questions,omitempty"`
	FetchedAt     time.Time             `json:"-"`
}

// TraitScore is a single inferred trait: a bounded 0-10 score plus the
// backend's free-text rationale for it.
type TraitScore struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}

// OpenQuestion is an outstanding clarification prompt the backend still
// wants answered before it can refine the profile further.
type OpenQuestion struct {
	ID   string `json:"question_id"`
	Text string `json:"question_text"`
}

// #endregion snapshot

// #region battery

// PrimaryTraits is the five-trait battery the backend computes first.
// Completeness of this group is the structural signal that trait inference
// has produced a usable result.
var PrimaryTraits = []string{
	"openness",
	"conscientiousness",
	"extraversion",
	"agreeableness",
	"neuroticism",
}

// HasTraits reports whether the snapshot carries a score for every named
// trait.
func (s Snapshot) HasTraits(names []string) bool {
	if len(s.TraitScores) == 0 {
		return false
	}
	for _, name := range names {
		if _, ok := s.TraitScores[name]; !ok {
			return false
		}
	}
	return true
}

// #endregion battery

// #region clone

// Clone returns a deep copy. Views handed to callers use this so the
// session's own snapshot can never be mutated from outside.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.TraitScores != nil {
		out.TraitScores = make(map[string]TraitScore, len(s.TraitScores))
		for k, v := range s.TraitScores {
			out.TraitScores[k] = v
		}
	}
	if s.Indicators != nil {
		out.Indicators = make(map[string]string, len(s.Indicators))
		for k, v := range s.Indicators {
			out.Indicators[k] = v
		}
	}
	if s.OpenQuestions != nil {
		out.OpenQuestions = append([]OpenQuestion(nil), s.OpenQuestions...)
	}
	return out
}

// #endregion clone
