/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	tickLength = 25 * time.Millisecond
	tickPitch  = 1800
)

// tickSound clicks whenever a new slice passes under the pointer.
type tickSound struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func newTickSound() *tickSound {
	return &tickSound{
		mixer: &beep.Mixer{},
	}
}

func (s *tickSound) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}

	speaker.Play(s.mixer)
	s.initialized = true

	return nil
}

func (s *tickSound) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	speaker.Lock()
	s.mixer.Add(beep.Take(sampleRate.N(tickLength), newClickGenerator(sampleRate, tickPitch)))
	speaker.Unlock()
}

func (s *tickSound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	speaker.Clear()
	speaker.Close()
	s.initialized = false
}

// clickGenerator is a short sine burst with a fast exponential decay.
type clickGenerator struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

func newClickGenerator(sr beep.SampleRate, freq float64) *clickGenerator {
	return &clickGenerator{
		sr:   sr,
		freq: freq,
	}
}

func (g *clickGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		sample := 0.25 * math.Sin(2*math.Pi*g.freq*t) * math.Exp(-t*160)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *clickGenerator) Err() error {
	return nil
}
