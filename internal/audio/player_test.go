package audio

import (
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/vovakirdan/tapfield/internal/spawn"
)

// drain reads s to the end and returns the sample count and peak amplitude.
func drain(t *testing.T, s beep.Streamer) (int, float64) {
	t.Helper()
	buf := make([][2]float64, 512)
	total, peak := 0, 0.0
	for range 10_000 {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			peak = max(peak, smp[0], -smp[0])
			if smp[0] != smp[1] {
				t.Fatal("cues are mono; channels must match")
			}
		}
		total += n
		if !ok {
			return total, peak
		}
	}
	t.Fatal("cue never ended")
	return 0, 0
}

func TestCuesAreFiniteAndBounded(t *testing.T) {
	p := NewPlayer(WithSource(spawn.NewSeededSource(1)))

	tests := []struct {
		id  string
		dur time.Duration
	}{
		{"note", 180 * time.Millisecond},
		{"pop", 70 * time.Millisecond},
		{"bonk", 90 * time.Millisecond},
		{"whoosh", 250 * time.Millisecond},
		{"crack", 60 * time.Millisecond},
		{"pull", 150 * time.Millisecond},
		{"chime", 310 * time.Millisecond},
		{"splash", 180 * time.Millisecond},
		{"voice", 210 * time.Millisecond},
		{"fanfare", 820 * time.Millisecond},
		{"no-such-cue", 50 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			n, peak := drain(t, p.Cue(tc.id))
			want := sampleRate.N(tc.dur)
			// sequences round each part separately
			if diff := n - want; diff < -4 || diff > 4 {
				t.Errorf("%d samples, expected about %d", n, want)
			}
			if peak <= 0 || peak > 1 {
				t.Errorf("peak = %v, expected within (0, 1]", peak)
			}
		})
	}
}

func TestNoteNeverRepeats(t *testing.T) {
	p := NewPlayer(WithSource(spawn.NewSeededSource(9)))
	prev := -1
	for range 200 {
		p.Cue("note")
		if p.lastNote == prev {
			t.Fatalf("note %d repeated", prev)
		}
		if p.lastNote < 0 || p.lastNote >= len(pentatonic) {
			t.Fatalf("note index %d out of range", p.lastNote)
		}
		prev = p.lastNote
	}
}

func TestVolumeScalesCues(t *testing.T) {
	loud := NewPlayer(WithVolume(1))
	quiet := NewPlayer(WithVolume(0.25))

	_, lp := drain(t, loud.Cue("bonk"))
	_, qp := drain(t, quiet.Cue("bonk"))
	if qp >= lp {
		t.Errorf("quiet peak %v is not below loud peak %v", qp, lp)
	}
	if v := NewPlayer(WithVolume(3)).volume; v != 1 {
		t.Errorf("volume = %v, expected clamp to 1", v)
	}
}

func TestPlayerSilentWithoutInit(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("uninitialized player panicked: %v", r)
		}
	}()

	p := NewPlayer()
	p.PlaySound("pop")
	p.PlaySound("fanfare")
	p.Close()

	var s spawn.SoundPlayer = p
	s.PlaySound("note")
	Nop{}.PlaySound("pop")
}
