/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"html"
	"math"
	mrand "math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/Seednode/matchwheel/contact"
	"github.com/Seednode/matchwheel/flow"
	"github.com/Seednode/matchwheel/insight"
	"github.com/Seednode/matchwheel/roster"
	"github.com/Seednode/matchwheel/wheel"
	"github.com/gdamore/tcell/v2"
)

// terminal cells are about twice as tall as they are wide
const cellAspect = 2.0

type rosterEvent struct{}

type insightEvent struct {
	seq  int
	text string
}

type terminal struct {
	cfg    *Config
	screen tcell.Screen
	store  *roster.Store
	gen    insight.Generator
	flow   *flow.Controller
	sound  *tickSound

	query  string
	cursor int

	spinCandidates []wheel.Candidate
	lastSlice      int

	insightSeq     int
	insightPending bool
	insightText    string
}

// RunTerminal spins the wheel in the terminal until the user quits.
func RunTerminal(ctx context.Context, cfg *Config) error {
	store, err := cfg.loadRoster()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	engine, err := wheel.New(cfg.wheelConfig(), mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64())))
	if err != nil {
		return err
	}

	controller := flow.New(engine, store.Members(), cfg.revealDelay)
	controller.Begin()

	if cfg.self != "" {
		self, err := findMember(store, cfg.self)
		if err != nil {
			return err
		}
		if err := controller.SelectSelf(self.ID); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	t := &terminal{
		cfg:       cfg,
		screen:    screen,
		store:     store,
		gen:       cfg.insightGenerator(nil),
		flow:      controller,
		lastSlice: -1,
	}

	if !cfg.mute {
		t.sound = newTickSound()
		if err := t.sound.Initialize(); err != nil {
			t.sound = nil
		} else {
			defer t.sound.Close()
		}
	}

	// Logging would scribble over the screen, so reloads are silent here.
	store.OnChange(func([]roster.Member) {
		_ = screen.PostEvent(tcell.NewEventInterrupt(rosterEvent{}))
	})
	store.Watch(nil)

	return t.run(ctx)
}

// findMember looks query up as a member id first, then as a name or
// category that only one member matches.
func findMember(store *roster.Store, query string) (roster.Member, error) {
	if m, ok := store.Get(query); ok {
		return m, nil
	}

	switch matches := store.Search(query); len(matches) {
	case 0:
		return roster.Member{}, fmt.Errorf("--as: no member matches %q", query)
	case 1:
		return matches[0], nil
	default:
		return roster.Member{}, fmt.Errorf("--as: %q matches %d members", query, len(matches))
	}
}

func (t *terminal) run(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.frameInterval())
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	t.draw()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if !t.handleEvent(ev) {
				return nil
			}
			t.draw()

		case now := <-ticker.C:
			if !t.flow.Active() {
				continue
			}
			t.tick(now)
			t.draw()
		}
	}
}

func (t *terminal) tick(now time.Time) {
	ev := t.flow.Tick(now)

	if n := len(t.spinCandidates); n > 0 {
		slice := wheel.Resolve(t.flow.Rotation(), n)
		if slice != t.lastSlice && t.sound != nil {
			t.sound.Play()
		}
		t.lastSlice = slice
	}

	if ev == flow.Revealed {
		t.spinCandidates = nil
	}
}

func (t *terminal) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()

	case *tcell.EventInterrupt:
		switch data := ev.Data().(type) {
		case rosterEvent:
			t.flow.SetRoster(t.store.Members())
			if _, ok := t.flow.Match(); !ok {
				t.clearInsight()
			}
		case insightEvent:
			if data.seq == t.insightSeq {
				t.insightPending = false
				t.insightText = data.text
			}
		}

	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return false
		}

		if t.flow.State() == flow.SelectingSelf {
			return t.handleSelectorKey(ev)
		}

		if ev.Key() == tcell.KeyEscape {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			t.startSpin()
		case 'r':
			if t.flow.SpinAgain() == nil {
				t.clearInsight()
			}
		case 'c':
			if t.flow.ChangeSelf() == nil {
				t.clearInsight()
				t.query = ""
				t.cursor = 0
			}
		case 'i':
			t.requestInsight()
		}
	}

	return true
}

func (t *terminal) handleSelectorKey(ev *tcell.EventKey) bool {
	matches := roster.Filter(t.flow.Members(), roster.Matches(t.query))

	switch ev.Key() {
	case tcell.KeyEscape:
		return false
	case tcell.KeyUp:
		t.cursor = max(t.cursor-1, 0)
	case tcell.KeyDown:
		t.cursor = min(t.cursor+1, max(len(matches)-1, 0))
	case tcell.KeyEnter:
		if t.cursor < len(matches) {
			_ = t.flow.SelectSelf(matches[t.cursor].ID)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(t.query); len(r) > 0 {
			t.query = string(r[:len(r)-1])
			t.cursor = 0
		}
	case tcell.KeyRune:
		t.query += string(ev.Rune())
		t.cursor = 0
	}

	return true
}

func (t *terminal) startSpin() {
	candidates := flow.WheelCandidates(t.flow.Candidates())

	if err := t.flow.StartSpin(time.Now()); err != nil {
		return
	}

	t.spinCandidates = candidates
	t.lastSlice = wheel.Resolve(t.flow.Rotation(), len(candidates))
	t.clearInsight()
}

func (t *terminal) requestInsight() {
	self, okSelf := t.flow.Self()
	match, okMatch := t.flow.Match()
	if t.flow.State() != flow.ResultShown || !okSelf || !okMatch || t.insightPending {
		return
	}

	t.insightSeq++
	seq := t.insightSeq
	t.insightPending = true
	t.insightText = ""

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.insightTimeout)
		defer cancel()

		text := t.gen.Generate(ctx, self, match)
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(insightEvent{seq: seq, text: text}))
	}()
}

func (t *terminal) clearInsight() {
	t.insightSeq++
	t.insightPending = false
	t.insightText = ""
}

// Drawing

var (
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleMuted  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCursor = tcell.StyleDefault.Reverse(true)
	styleGood   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
)

func (t *terminal) draw() {
	t.screen.Clear()

	width, height := t.screen.Size()

	drawCentered(t.screen, 0, width, styleTitle, t.cfg.title)

	switch t.flow.State() {
	case flow.SelectingSelf, flow.Idle:
		t.drawSelector(width, height)
	case flow.ReadyToSpin, flow.Spinning:
		t.drawWheel(width, height)
	case flow.ResultShown:
		t.drawResult(width, height)
	}

	t.screen.Show()
}

func (t *terminal) drawSelector(width, height int) {
	drawCentered(t.screen, 2, width, tcell.StyleDefault.Bold(true), "Who are you?")
	drawText(t.screen, 2, 4, tcell.StyleDefault, "Search: "+t.query+"_")

	matches := roster.Filter(t.flow.Members(), roster.Matches(t.query))
	if len(matches) == 0 {
		drawText(t.screen, 2, 6, styleMuted, "No members found.")
	}

	rows := max(height-9, 1)
	first := max(t.cursor-rows+1, 0)

	for i := first; i < len(matches) && i-first < rows; i++ {
		m := matches[i]
		y := 6 + i - first

		drawAvatar(t.screen, 2, y, m)

		style := tcell.StyleDefault
		if i == t.cursor {
			style = styleCursor
		}
		drawText(t.screen, 5, y, style, m.Name)
		drawText(t.screen, 6+len([]rune(m.Name)), y, styleMuted, m.Category)
	}

	drawText(t.screen, 2, height-1, styleMuted, "type to search · ↑/↓ move · enter select · esc quit")
}

func (t *terminal) drawWheel(width, height int) {
	self, _ := t.flow.Self()
	drawCentered(t.screen, 1, width, styleMuted, "Playing as: "+self.Name)

	candidates := t.spinCandidates
	if candidates == nil {
		candidates = flow.WheelCandidates(t.flow.Candidates())
	}
	n := len(candidates)
	rotation := t.flow.Rotation()

	radius := math.Min(float64(height-7)/2, float64(width)/(2*cellAspect)-1)
	if radius < 2 || n == 0 {
		drawCentered(t.screen, height/2, width, styleMuted, "There is nobody else on the wheel yet.")
		drawText(t.screen, 2, height-1, styleMuted, "c change · q quit")
		return
	}

	cx := float64(width) / 2
	cy := 3 + radius

	for y := 0; y < height-3; y++ {
		for x := 0; x < width; x++ {
			dx := (float64(x) + 0.5 - cx) / cellAspect
			dy := cy - (float64(y) + 0.5)
			if math.Hypot(dx, dy) > radius {
				continue
			}

			i := wheel.SliceAt(wheel.LocalAngle(math.Atan2(dy, dx), rotation), n)
			if i < 0 {
				continue
			}
			t.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(tcell.GetColor(candidates[i].Color)))
		}
	}

	px := int(cx + (radius+1)*math.Cos(wheel.PointerAngle)*cellAspect)
	py := int(cy - (radius+1)*math.Sin(wheel.PointerAngle))
	t.screen.SetContent(px, py, '▼', nil, tcell.StyleDefault.Bold(true))

	under := candidates[wheel.Resolve(rotation, n)]
	drawCentered(t.screen, height-3, width, tcell.StyleDefault.Foreground(tcell.GetColor(under.Color)).Bold(true), "▶ "+under.Name+" ◀")

	switch t.flow.State() {
	case flow.Spinning:
		drawCentered(t.screen, height-2, width, styleMuted, "Spinning...")
		drawText(t.screen, 2, height-1, styleMuted, "q quit")
	default:
		drawCentered(t.screen, height-2, width, tcell.StyleDefault.Bold(true), "SPIN THE WHEEL")
		drawText(t.screen, 2, height-1, styleMuted, "space spin · c change · q quit")
	}
}

func (t *terminal) drawResult(width, height int) {
	self, _ := t.flow.Self()
	match, _ := t.flow.Match()

	drawCentered(t.screen, 2, width, styleGood, "It's a Match!")

	y := 4
	for _, m := range []roster.Member{self, match} {
		drawAvatar(t.screen, 2, y, m)
		drawText(t.screen, 5, y, tcell.StyleDefault.Bold(true), m.Name)
		drawText(t.screen, 5, y+1, styleMuted, strings.TrimSpace(m.Category+" · "+m.Company))
		y += 3
	}

	greeting := contact.Greeting(t.cfg.title, self.Name, self.Company, match.Name)
	if link, ok := contact.WhatsAppURL(match.Phone, greeting, t.cfg.countryCode); ok {
		drawText(t.screen, 2, y, styleGood, "Connect on WhatsApp:")
		for _, line := range wrap(link, width-4) {
			y++
			drawText(t.screen, 2, y, tcell.StyleDefault.Underline(true), line)
		}
	} else {
		drawText(t.screen, 2, y, styleMuted, "Phone number not available")
	}
	y += 2

	switch {
	case t.insightPending:
		drawText(t.screen, 2, y, styleMuted, "Thinking...")
	case t.insightText != "":
		for _, para := range plainText(t.insightText) {
			for _, line := range wrap(para, width-4) {
				if y >= height-2 {
					break
				}
				drawText(t.screen, 2, y, tcell.StyleDefault, line)
				y++
			}
		}
	}

	drawText(t.screen, 2, height-1, styleMuted, "r spin again · i icebreakers · c change · q quit")
}

// drawAvatar fills two cells with the member's colour and their initial.
func drawAvatar(s tcell.Screen, x, y int, m roster.Member) {
	style := tcell.StyleDefault.Background(tcell.GetColor(m.Color)).Foreground(tcell.ColorWhite).Bold(true)

	s.SetContent(x, y, []rune(m.Initial())[0], nil, style)
	s.SetContent(x+1, y, ' ', nil, style)
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func drawCentered(s tcell.Screen, y, width int, style tcell.Style, text string) {
	drawText(s, max((width-len([]rune(text)))/2, 0), y, style, text)
}

var (
	blockTag = regexp.MustCompile(`(?i)</?(p|ul|ol|h[1-6]|div)[^>]*>|<br\s*/?>`)
	itemTag  = regexp.MustCompile(`(?i)<li[^>]*>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
)

// plainText turns the insight HTML into paragraphs for the terminal.
func plainText(markup string) []string {
	text := itemTag.ReplaceAllString(markup, "\n• ")
	text = blockTag.ReplaceAllString(text, "\n")
	text = anyTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// wrap breaks text into lines of at most width runes, on spaces where it
// can.
func wrap(text string, width int) []string {
	if width < 1 {
		return nil
	}

	var lines []string
	var line []rune

	for _, word := range strings.Fields(text) {
		w := []rune(word)

		for len(w) > width {
			if len(line) > 0 {
				lines = append(lines, string(line))
				line = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}

		switch {
		case len(line) == 0:
			line = w
		case len(line)+1+len(w) <= width:
			line = append(append(line, ' '), w...)
		default:
			lines = append(lines, string(line))
			line = w
		}
	}

	if len(line) > 0 {
		lines = append(lines, string(line))
	}

	return lines
}
