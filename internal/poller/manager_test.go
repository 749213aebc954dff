package poller

import (
	"errors"
	"testing"
	"time"
)

func TestManagerStartRejectsBlankSubject(t *testing.T) {
	m := NewManager(&scriptFetcher{steps: []step{{snap: partialSnap()}}}, testConfig(3), nil)

	for _, subject := range []string{"", "   ", "\t"} {
		if _, err := m.Start(subject); !errors.Is(err, ErrEmptySubject) {
			t.Errorf("Start(%q): err=%v, want ErrEmptySubject", subject, err)
		}
	}
	if len(m.Views()) != 0 {
		t.Fatal("rejected starts must not leave sessions behind")
	}
}

func TestManagerRestartCancelsPrior(t *testing.T) {
	fetcher := &blockFetcher{entered: make(chan struct{})}
	m := NewManager(fetcher, testConfig(15), nil)

	first, err := m.Start("subj-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-fetcher.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first session never fetched")
	}

	second, err := m.Start("subj-1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.ID() == first.ID() {
		t.Fatal("restart must install a fresh session")
	}

	// The superseded session winds down; only the new one remains visible.
	waitDone(t, first)
	if v := first.View(); v.Reason != ReasonCancelled {
		t.Errorf("first session reason=%s, want cancelled", v.Reason)
	}

	view, ok := m.View("subj-1")
	if !ok {
		t.Fatal("subject should have a session")
	}
	if view.SessionID != second.ID() {
		t.Fatalf("manager view points at %s, want the new session %s", view.SessionID, second.ID())
	}
	if views := m.Views(); len(views) != 1 {
		t.Fatalf("%d sessions visible, want 1 per subject", len(views))
	}

	second.Stop()
	waitDone(t, second)
}

func TestManagerStop(t *testing.T) {
	fetcher := &scriptFetcher{steps: []step{{snap: partialSnap()}}}
	m := NewManager(fetcher, testConfig(1000), nil)

	s, err := m.Start("subj-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.Stop("subj-1") {
		t.Fatal("Stop should report the session was found")
	}
	waitDone(t, s)

	if v, _ := m.View("subj-1"); v.Reason != ReasonCancelled {
		t.Errorf("reason=%s, want cancelled", v.Reason)
	}
	if m.Stop("nobody") {
		t.Error("Stop on an unknown subject should report false")
	}
}

func TestManagerTerminalSessionStaysVisible(t *testing.T) {
	fetcher := &scriptFetcher{steps: []step{{snap: fullSnap(81)}}}
	m := NewManager(fetcher, testConfig(15), nil)

	s, err := m.Start("subj-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)

	view, ok := m.View("subj-1")
	if !ok {
		t.Fatal("terminal session should remain visible until replaced")
	}
	if view.Reason != ReasonConverged {
		t.Errorf("reason=%s, want converged", view.Reason)
	}
	if view.Polling {
		t.Error("terminal session must not report polling")
	}
}

func TestManagerViewsSortedBySubject(t *testing.T) {
	fetcher := &scriptFetcher{steps: []step{{snap: fullSnap(81)}}}
	m := NewManager(fetcher, testConfig(15), nil)

	for _, subject := range []string{"zeta", "alpha", "mike"} {
		s, err := m.Start(subject)
		if err != nil {
			t.Fatalf("start %s: %v", subject, err)
		}
		waitDone(t, s)
	}

	views := m.Views()
	if len(views) != 3 {
		t.Fatalf("%d views, want 3", len(views))
	}
	want := []string{"alpha", "mike", "zeta"}
	for i, subject := range want {
		if views[i].SubjectID != subject {
			t.Errorf("views[%d]=%s, want %s", i, views[i].SubjectID, subject)
		}
	}
}

func TestManagerStopAll(t *testing.T) {
	fetcher := &scriptFetcher{steps: []step{{snap: partialSnap()}}}
	m := NewManager(fetcher, testConfig(1000), nil)

	var sessions []*Session
	for _, subject := range []string{"a", "b", "c"} {
		s, err := m.Start(subject)
		if err != nil {
			t.Fatalf("start %s: %v", subject, err)
		}
		sessions = append(sessions, s)
	}

	m.StopAll()
	for _, s := range sessions {
		waitDone(t, s)
		if v := s.View(); v.Reason != ReasonCancelled {
			t.Errorf("subject %s reason=%s, want cancelled", v.SubjectID, v.Reason)
		}
	}
}

func TestManagerNormalizesConfig(t *testing.T) {
	// A zero config must not produce sessions that can never terminate.
	fetcher := &scriptFetcher{steps: []step{{snap: fullSnap(81)}}}
	m := NewManager(fetcher, Config{Interval: time.Millisecond}, nil)

	s, err := m.Start("subj-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)

	v := s.View()
	if v.MaxAttempts != DefaultConfig().MaxAttempts {
		t.Errorf("max attempts=%d, want the default back-filled", v.MaxAttempts)
	}
	if v.RequiredStreak != DefaultConfig().RequiredStreak {
		t.Errorf("required streak=%d, want the default back-filled", v.RequiredStreak)
	}
}
