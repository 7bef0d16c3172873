// Package audio plays the synthesized sound cues of the tap field games.
// Nothing is loaded from disk: every cue is generated on the fly and mixed
// into one speaker stream.
package audio

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/vovakirdan/tapfield/internal/spawn"
)

const (
	sampleRate = beep.SampleRate(44100)
	// maxVoices caps overlapping cues; storms would otherwise pile up.
	maxVoices = 12
)

// Player mixes cues into the speaker. It satisfies spawn.SoundPlayer and is
// safe for concurrent use. Until Init succeeds every PlaySound is a no-op.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	volume      float64
	src         spawn.RandomSource
	lastNote    int
	logger      *log.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithVolume sets the master volume in [0, 1].
func WithVolume(v float64) Option {
	return func(p *Player) {
		p.volume = min(max(v, 0), 1)
	}
}

// WithSource sets the random source used for melody notes.
func WithSource(src spawn.RandomSource) Option {
	return func(p *Player) { p.src = src }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *log.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// NewPlayer creates a player that stays silent until Init.
func NewPlayer(opts ...Option) *Player {
	p := &Player{
		mixer:    &beep.Mixer{},
		volume:   0.6,
		src:      spawn.DefaultSource(),
		lastNote: -1,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init opens the speaker. Failing to do so is not fatal for a game; callers
// usually log the error and keep the silent player.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	p.logger.Debug("speaker ready", "rate", int(sampleRate))
	return nil
}

// Close silences everything that is still playing.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// PlaySound starts cue id. Unknown ids play a short blip.
func (p *Player) PlaySound(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || p.volume == 0 {
		return
	}
	s := p.cue(id)

	speaker.Lock()
	defer speaker.Unlock()
	if p.mixer.Len() >= maxVoices {
		p.logger.Debug("cue dropped", "id", id)
		return
	}
	p.mixer.Add(s)
}

// Cue returns the streamer for id without playing it.
func (p *Player) Cue(id string) beep.Streamer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cue(id)
}

func (p *Player) cue(id string) beep.Streamer {
	v := p.volume
	switch id {
	case "note":
		// a pentatonic step that never repeats the previous one
		i := spawn.PickIndex(p.src, len(pentatonic), p.lastNote)
		p.lastNote = i
		return tone(pentatonic[i], 180*time.Millisecond, 0.5*v, 12)
	case "pop":
		return sweep(900, 1500, 70*time.Millisecond, 0.5*v)
	case "bonk":
		return square(160, 90*time.Millisecond, 0.35*v)
	case "whoosh", "flutter":
		return noise(250*time.Millisecond, 0.25*v, 10, p.src)
	case "crack", "chip":
		return noise(60*time.Millisecond, 0.45*v, 45, p.src)
	case "pull", "slice":
		return sweep(300, 700, 150*time.Millisecond, 0.35*v)
	case "splash":
		return noise(180*time.Millisecond, 0.35*v, 14, p.src)
	case "voice":
		return beep.Seq(
			sweep(420, 620, 90*time.Millisecond, 0.35*v),
			sweep(620, 380, 120*time.Millisecond, 0.35*v),
		)
	case "chime":
		return beep.Seq(
			tone(1047, 90*time.Millisecond, 0.4*v, 8),
			tone(1568, 220*time.Millisecond, 0.4*v, 8),
		)
	case "fanfare":
		notes := make([]beep.Streamer, 0, len(fanfare))
		for _, f := range fanfare {
			notes = append(notes, tone(f, 140*time.Millisecond, 0.45*v, 4))
		}
		notes = append(notes, tone(fanfare[len(fanfare)-1]*2, 400*time.Millisecond, 0.45*v, 5))
		return beep.Seq(notes...)
	default:
		return tone(660, 50*time.Millisecond, 0.3*v, 20)
	}
}

// Nop is a SoundPlayer that plays nothing.
type Nop struct{}

// PlaySound does nothing.
func (Nop) PlaySound(string) {}
