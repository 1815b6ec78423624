package main

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/matchwheel/flow"
	"github.com/Seednode/matchwheel/roster"
	"github.com/Seednode/matchwheel/wheel"
	"github.com/gdamore/tcell/v2"
)

func newTestTerminal(t *testing.T) *terminal {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init failed: %v", err)
	}
	screen.SetSize(80, 30)
	t.Cleanup(screen.Fini)

	store, err := roster.New(testMembers)
	if err != nil {
		t.Fatalf("roster.New failed: %v", err)
	}

	cfg := testConfig()

	engine, err := wheel.New(cfg.wheelConfig(), zeroSource{})
	if err != nil {
		t.Fatalf("wheel.New failed: %v", err)
	}

	controller := flow.New(engine, store.Members(), 0)
	controller.Begin()

	return &terminal{
		cfg:       cfg,
		screen:    screen,
		store:     store,
		gen:       &fakeInsight{},
		flow:      controller,
		lastSlice: -1,
	}
}

func TestTerminal_SpinRound(t *testing.T) {
	term := newTestTerminal(t)
	term.draw()

	if err := term.flow.SelectSelf("1"); err != nil {
		t.Fatalf("SelectSelf failed: %v", err)
	}
	term.draw()

	term.startSpin()
	if term.flow.State() != flow.Spinning || len(term.spinCandidates) != 2 {
		t.Fatalf("spin did not start: %s, %d candidates", term.flow.State(), len(term.spinCandidates))
	}
	term.draw()

	term.tick(time.Now().Add(time.Minute))
	if term.flow.State() != flow.ResultShown {
		t.Fatalf("expected result_shown, got %s", term.flow.State())
	}
	if term.spinCandidates != nil {
		t.Error("spin snapshot kept after the reveal")
	}

	// Five whole turns leave the pointer over slice 0 of two: Grace.
	if match, _ := term.flow.Match(); match.ID != "2" {
		t.Errorf("expected Grace, got %+v", match)
	}
	term.draw()

	for i, want := range []rune{'A', 'G'} {
		if got, _, _, _ := term.screen.GetContent(2, 4+3*i); got != want {
			t.Errorf("avatar %d shows %q, want %q", i, got, want)
		}
	}

	term.requestInsight()
	if !term.insightPending {
		t.Fatal("insight not pending")
	}

	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := term.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	deadline := time.After(3 * time.Second)
	for term.insightPending {
		select {
		case ev := <-events:
			term.handleEvent(ev)
		case <-deadline:
			t.Fatal("insight never arrived")
		}
	}

	if !strings.Contains(term.insightText, "Ada meets Grace") {
		t.Errorf("unexpected insight %q", term.insightText)
	}
	term.draw()
}

func TestTerminal_RosterReload(t *testing.T) {
	term := newTestTerminal(t)

	_ = term.flow.SelectSelf("3")

	if err := term.store.Replace(testMembers[:2]); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	term.handleEvent(tcell.NewEventInterrupt(rosterEvent{}))

	if term.flow.State() != flow.SelectingSelf {
		t.Errorf("expected selecting_self, got %s", term.flow.State())
	}
	if len(term.flow.Members()) != 2 {
		t.Errorf("expected 2 members, got %d", len(term.flow.Members()))
	}
}

func TestTerminal_StaleInsightDropped(t *testing.T) {
	term := newTestTerminal(t)

	term.insightSeq = 4
	term.insightPending = true

	term.handleEvent(tcell.NewEventInterrupt(insightEvent{seq: 3, text: "old"}))
	if term.insightText != "" || !term.insightPending {
		t.Error("stale insight was shown")
	}

	term.handleEvent(tcell.NewEventInterrupt(insightEvent{seq: 4, text: "new"}))
	if term.insightText != "new" || term.insightPending {
		t.Errorf("current insight not shown: %q", term.insightText)
	}
}

func TestPlainText(t *testing.T) {
	got := plainText("<p>Try these:</p><ul><li>What&#39;s <strong>new</strong>?</li><li>Why?</li></ul>")
	want := []string{"Try these:", "• What's new?", "• Why?"}

	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("plainText = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"one two three", 7, []string{"one two", "three"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"  spaced   out  ", 20, []string{"spaced out"}},
		{"anything", 0, nil},
		{"", 5, nil},
	}

	for _, tt := range tests {
		got := wrap(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestClickGenerator(t *testing.T) {
	gen := newClickGenerator(sampleRate, tickPitch)

	samples := make([][2]float64, sampleRate.N(tickLength))
	n, ok := gen.Stream(samples)

	if !ok || n != len(samples) {
		t.Fatalf("expected %d samples, got %d (%v)", len(samples), n, ok)
	}

	var early, late float64
	for i, s := range samples[:n] {
		if s[0] < -1 || s[0] > 1 || s[0] != s[1] {
			t.Fatalf("sample %d out of range or unbalanced: %v", i, s)
		}
		if i < n/4 {
			early = math.Max(early, math.Abs(s[0]))
		} else if i > 3*n/4 {
			late = math.Max(late, math.Abs(s[0]))
		}
	}

	if late >= early {
		t.Errorf("click does not decay: early peak %f, late peak %f", early, late)
	}
	if gen.Err() != nil {
		t.Errorf("unexpected error %v", gen.Err())
	}
}

func TestFindMember(t *testing.T) {
	store := mustStore(t)

	tests := []struct {
		query string
		want  string
		err   string
	}{
		{"2", "2", ""},
		{"hedy", "3", ""},
		{"ENGINEER", "1", ""},
		{"a", "", "matches 2 members"},
		{"nobody", "", "no member matches"},
	}

	for _, tt := range tests {
		m, err := findMember(store, tt.query)

		switch {
		case tt.err != "":
			if err == nil || !strings.Contains(err.Error(), tt.err) {
				t.Errorf("findMember(%q): expected error containing %q, got %v", tt.query, tt.err, err)
			}
		case err != nil:
			t.Errorf("findMember(%q) failed: %v", tt.query, err)
		case m.ID != tt.want:
			t.Errorf("findMember(%q) = %s, want %s", tt.query, m.ID, tt.want)
		}
	}
}
