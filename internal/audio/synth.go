package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"

	"github.com/vovakirdan/tapfield/internal/spawn"
)

// C major pentatonic, two octaves.
var pentatonic = []float64{
	523.25, 587.33, 659.25, 783.99, 880.00,
	1046.50, 1174.66, 1318.51, 1567.98, 1760.00,
}

var fanfare = []float64{523.25, 659.25, 783.99}

// waveGenerator renders a waveform with an exponential decay envelope and a
// short attack so cues start without a click.
type waveGenerator struct {
	sr    beep.SampleRate
	pos   int
	amp   float64
	decay float64
	wave  func(t float64) float64
}

func (g *waveGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	attack := float64(g.sr.N(5 * time.Millisecond))
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		env := math.Exp(-t*g.decay) * math.Min(float64(g.pos)/attack, 1.0)
		s := g.amp * env * g.wave(t)
		samples[i][0] = s
		samples[i][1] = s
		g.pos++
	}
	return len(samples), true
}

func (g *waveGenerator) Err() error {
	return nil
}

func tone(freq float64, d time.Duration, amp, decay float64) beep.Streamer {
	return beep.Take(sampleRate.N(d), &waveGenerator{
		sr:    sampleRate,
		amp:   amp,
		decay: decay,
		wave: func(t float64) float64 {
			return math.Sin(2 * math.Pi * freq * t)
		},
	})
}

func square(freq float64, d time.Duration, amp float64) beep.Streamer {
	return beep.Take(sampleRate.N(d), &waveGenerator{
		sr:    sampleRate,
		amp:   amp,
		decay: 25,
		wave: func(t float64) float64 {
			if math.Sin(2*math.Pi*freq*t) >= 0 {
				return 1
			}
			return -1
		},
	})
}

// sweep glides linearly from f0 to f1 over d.
func sweep(f0, f1 float64, d time.Duration, amp float64) beep.Streamer {
	secs := d.Seconds()
	return beep.Take(sampleRate.N(d), &waveGenerator{
		sr:    sampleRate,
		amp:   amp,
		decay: 6,
		wave: func(t float64) float64 {
			// phase of a linear chirp
			k := (f1 - f0) / secs
			return math.Sin(2 * math.Pi * (f0*t + 0.5*k*t*t))
		},
	})
}

// noise runs its own LCG seeded from src; the speaker goroutine must not
// share src with the game loop.
func noise(d time.Duration, amp, decay float64, src spawn.RandomSource) beep.Streamer {
	seed := uint32(src.Float64() * math.MaxUint32)
	return beep.Take(sampleRate.N(d), &waveGenerator{
		sr:    sampleRate,
		amp:   amp,
		decay: decay,
		wave: func(float64) float64 {
			seed = seed*1664525 + 1013904223
			return float64(seed)/math.MaxUint32*2 - 1
		},
	})
}
