// Package beep plays the short cues that mark a recording starting, stopping
// or failing.
package beep

import "math"

const sampleRate = 44100

// Kind selects a cue.
type Kind int

const (
	KindStart Kind = iota
	KindStop
	KindError
)

type tone struct {
	freq     float64
	duration float64 // seconds
	volume   float64
	decay    float64
	double   bool
}

var tones = map[Kind]tone{
	// high and short
	KindStart: {freq: 1200, duration: 0.2, volume: 0.5, decay: 60},
	// lower, slightly longer tail
	KindStop: {freq: 900, duration: 0.2, volume: 0.5, decay: 40},
	// low double beep
	KindError: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, double: true},
}

const doubleGap = 0.05

// Samples renders a cue as mono 16-bit PCM at rate.
func Samples(k Kind, rate int) []int16 {
	t, ok := tones[k]
	if !ok {
		return nil
	}
	s := tick(rate, t)
	if !t.double {
		return s
	}
	gap := make([]int16, int(float64(rate)*doubleGap))
	out := make([]int16, 0, 2*len(s)+len(gap))
	out = append(out, s...)
	out = append(out, gap...)
	return append(out, s...)
}

func tick(rate int, t tone) []int16 {
	n := int(float64(rate) * t.duration)
	samples := make([]int16, n)
	for i := range samples {
		x := float64(i) / float64(rate)
		envelope := math.Exp(-x * t.decay)
		samples[i] = int16(math.Sin(2*math.Pi*t.freq*x) * 32767 * t.volume * envelope)
	}
	return samples
}

// Player plays cues without blocking the caller.
type Player struct {
	out output
}

type output interface {
	play(samples []int16)
}

// New returns a player on the platform's default output. Playback failures
// are silent: a missing cue never affects a recording.
func New() *Player {
	return &Player{out: newOutput()}
}

func (p *Player) Start() { p.cue(KindStart) }
func (p *Player) Stop()  { p.cue(KindStop) }
func (p *Player) Error() { p.cue(KindError) }

func (p *Player) cue(k Kind) {
	if p == nil || p.out == nil {
		return
	}
	go p.out.play(Samples(k, sampleRate))
}

// Silent plays nothing.
type Silent struct{}

func (Silent) Start() {}
func (Silent) Stop()  {}
func (Silent) Error() {}
