/*
Package main
File: sound.go
Description:
    Short tone cues for game notices.
*/

package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/everforgeworks/pizza-copter/internal/game"
)

const sampleRate = beep.SampleRate(44100)

type tone struct {
	freq float64
	dur  time.Duration
}

// cues maps each notice to a short tone sequence.
var cues = map[game.NoticeKind][]tone{
	game.NoticeRing:      {{880, 90 * time.Millisecond}, {0, 60 * time.Millisecond}, {880, 90 * time.Millisecond}},
	game.NoticeAccepted:  {{660, 80 * time.Millisecond}},
	game.NoticeReminder:  {{440, 120 * time.Millisecond}, {440, 120 * time.Millisecond}},
	game.NoticePickup:    {{523, 60 * time.Millisecond}, {784, 80 * time.Millisecond}},
	game.NoticeDelivered: {{784, 70 * time.Millisecond}, {988, 70 * time.Millisecond}, {1319, 120 * time.Millisecond}},
	game.NoticeShortfall: {{196, 150 * time.Millisecond}},
	game.NoticeBoost:     {{988, 50 * time.Millisecond}, {1319, 90 * time.Millisecond}},
	game.NoticeSlowdown:  {{330, 90 * time.Millisecond}, {220, 140 * time.Millisecond}},
	game.NoticeWon:       {{523, 120 * time.Millisecond}, {659, 120 * time.Millisecond}, {784, 120 * time.Millisecond}, {1047, 300 * time.Millisecond}},
	game.NoticeLost:      {{392, 200 * time.Millisecond}, {330, 200 * time.Millisecond}, {262, 400 * time.Millisecond}},
}

// sound plays notice cues. The zero value is silent.
type sound struct {
	enabled bool
}

func newSound() (*sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &sound{}, err
	}
	return &sound{enabled: true}, nil
}

func (s *sound) play(kind game.NoticeKind) {
	if s == nil || !s.enabled {
		return
	}
	seq, ok := cues[kind]
	if !ok {
		return
	}
	parts := make([]beep.Streamer, 0, len(seq))
	for _, t := range seq {
		n := sampleRate.N(t.dur)
		if t.freq == 0 {
			parts = append(parts, beep.Silence(n))
			continue
		}
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			continue
		}
		parts = append(parts, beep.Take(n, sine))
	}
	speaker.Play(beep.Seq(parts...))
}
