package field

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

// SimOptions configure a headless round.
type SimOptions struct {
	Seconds       float64 // Simulated time; the round may end sooner
	TapsPerSecond float64
	Seed          int64 // Seeds both the pool and the tapper; 0 picks one
	TickRate      int
	ConfigPath    string
	Difficulty    string
	Logger        *log.Logger
}

// SimResult summarizes a headless round.
type SimResult struct {
	Elapsed    time.Duration
	Taps       int
	Misses     int // Taps with nothing capturable on the field
	Score      int
	Captures   int
	ByTier     map[spawn.Tier]int
	ByTemplate map[string]int
}

// Simulate plays variant id without a terminal. A seeded tapper presses a
// random capturable slot TapsPerSecond times a second, through the same
// digit-key path a player uses.
func Simulate(id string, opts SimOptions) (SimResult, error) {
	if opts.Seconds <= 0 {
		return SimResult{}, errors.New("field: simulate needs a positive duration")
	}
	rc := core.DefaultConfig()
	if opts.TickRate > 0 {
		rc.TickRate = opts.TickRate
	}
	rc.Seed = opts.Seed
	if rc.Seed == 0 {
		rc.Seed = time.Now().UnixNano()
	}
	rc.ConfigPath = opts.ConfigPath
	rc.Difficulty = opts.Difficulty

	g := New(id)
	g.SetLogger(opts.Logger)
	if err := g.Reset(rc); err != nil {
		return SimResult{}, err
	}

	tapper := spawn.NewSeededSource(uint64(rc.Seed) ^ 0x7a9)
	dt := rc.TickDuration()
	end := time.Duration(opts.Seconds * float64(time.Second))
	perTick := opts.TapsPerSecond * dt.Seconds()

	res := SimResult{
		ByTier:     make(map[spawn.Tier]int),
		ByTemplate: make(map[string]int),
	}
	var owed float64
	for res.Elapsed < end && !g.gameOver {
		in := core.NewInputFrame()
		for owed += perTick; owed >= 1; owed-- {
			res.Taps++
			n, ok := pickTarget(g, tapper)
			if !ok {
				res.Misses++
				continue
			}
			in.Set(core.SlotAction(n))
		}
		g.Step(in)
		res.Elapsed += dt
	}

	res.Score = g.score
	res.Captures = g.captures
	for _, r := range g.rewards {
		res.ByTier[r.Tier]++
		res.ByTemplate[r.Template]++
	}
	return res, nil
}

// pickTarget returns the 1-based key of a random capturable slot.
func pickTarget(g *Game, src spawn.RandomSource) (int, bool) {
	var open []int
	for i, s := range g.pool.Slots() {
		if i < core.MaxSlotKeys && s.Capturable(KeyboardPointer) {
			open = append(open, i+1)
		}
	}
	if len(open) == 0 {
		return 0, false
	}
	i := int(src.Float64() * float64(len(open)))
	return open[min(i, len(open)-1)], true
}
