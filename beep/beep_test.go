package beep

import (
	"testing"
	"time"
)

func TestSamplesLength(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindStart, 8820},
		{KindStop, 8820},
		// two 80 ms beeps around a 50 ms gap
		{KindError, 3528*2 + 2205},
	}
	for _, tt := range tests {
		if got := len(Samples(tt.kind, sampleRate)); got != tt.want {
			t.Errorf("kind %d: %d samples, want %d", tt.kind, got, tt.want)
		}
	}
	if s := Samples(Kind(99), sampleRate); s != nil {
		t.Errorf("unknown kind produced %d samples", len(s))
	}
}

func TestSamplesDecay(t *testing.T) {
	s := Samples(KindStart, sampleRate)
	peak := func(from, to int) int16 {
		var m int16
		for _, v := range s[from:to] {
			if v < 0 {
				v = -v
			}
			m = max(m, v)
		}
		return m
	}
	head, tail := peak(0, 441), peak(len(s)-441, len(s))
	if head == 0 || tail >= head/10 {
		t.Fatalf("cue does not decay: head %d tail %d", head, tail)
	}
}

func TestErrorCueHasGap(t *testing.T) {
	s := Samples(KindError, sampleRate)
	gapStart := 3528
	for i, v := range s[gapStart : gapStart+2205] {
		if v != 0 {
			t.Fatalf("sample %d in gap is %d", gapStart+i, v)
		}
	}
}

type recordingOutput struct{ got chan int }

func (r recordingOutput) play(samples []int16) { r.got <- len(samples) }

func TestPlayerRoutesCues(t *testing.T) {
	out := recordingOutput{got: make(chan int, 3)}
	p := &Player{out: out}
	p.Start()
	p.Stop()
	p.Error()

	total := 0
	for range 3 {
		select {
		case n := <-out.got:
			total += n
		case <-time.After(time.Second):
			t.Fatal("cue not played")
		}
	}
	if want := 8820*2 + 3528*2 + 2205; total != want {
		t.Fatalf("played %d samples, want %d", total, want)
	}
}

func TestNilPlayer(t *testing.T) {
	var p *Player
	p.Start()
	Silent{}.Error()
}
