package spawn

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tapfield/internal/core"
)

// SpawnMode decides how empty slots get new occupants.
type SpawnMode int

const (
	// SpawnImmediate re-arms every empty slot, optionally after an idle gap.
	// Expired or resolved slots come straight back.
	SpawnImmediate SpawnMode = iota
	// SpawnInterval arms one random free slot every Interval while fewer
	// than MaxActive slots are occupied. Expired slots are reclaimed.
	SpawnInterval
)

func (m SpawnMode) String() string {
	if m == SpawnInterval {
		return "interval"
	}
	return "immediate"
}

// Exclusivity selects the arbitration rule.
type Exclusivity int

const (
	// ExclusivePerSlot lets a batch claim several distinct slots.
	ExclusivePerSlot Exclusivity = iota
	// ExclusiveGlobal allows at most one claim per batch and none while any
	// slot is busy presenting a capture.
	ExclusiveGlobal
)

func (e Exclusivity) String() string {
	if e == ExclusiveGlobal {
		return "global"
	}
	return "per-slot"
}

// ExitAction is applied when a mobile occupant leaves the playfield.
type ExitAction int

const (
	ExitReclaim ExitAction = iota
	ExitDisable
)

// CapturePolicy describes what a capture does. Policies are picked per
// occupant, so variants differ by data instead of by type.
type CapturePolicy struct {
	// Taps is the number of presses needed before the result is revealed.
	Taps int
	// Capture is the reaction played after every press.
	Capture time.Duration
	// Resolve is the reveal once enough presses landed.
	Resolve time.Duration
	// Display is how long the reward is presented.
	Display time.Duration
	// Score is credited when the reward is presented.
	Score int
	// Window is how long a multi-tap capture waits for its next press
	// before the occupant is released back to Idle; 0 means DefaultTapWindow.
	Window time.Duration

	CaptureSound string
	RewardSound  string
}

// TapsNeeded returns Taps clamped to at least one.
func (p CapturePolicy) TapsNeeded() int {
	if p.Taps < 1 {
		return 1
	}
	return p.Taps
}

// DefaultTapWindow is the tap window of policies that leave Window unset.
const DefaultTapWindow = 3 * time.Second

// TapWindow returns Window, or DefaultTapWindow when it is unset.
func (p CapturePolicy) TapWindow() time.Duration {
	if p.Window <= 0 {
		return DefaultTapWindow
	}
	return p.Window
}

func (p CapturePolicy) validate(name string) error {
	if p.Taps < 0 {
		return fmt.Errorf("%w: policy %s taps %d", ErrBadTiming, name, p.Taps)
	}
	if p.Capture < 0 || p.Resolve < 0 || p.Display < 0 || p.Window < 0 {
		return fmt.Errorf("%w: policy %s has a negative duration", ErrBadTiming, name)
	}
	return nil
}

// Policies maps occupants to capture policies.
type Policies struct {
	Normal    CapturePolicy
	Rare      CapturePolicy
	SuperRare CapturePolicy
	Named     map[string]CapturePolicy
}

// For resolves the policy of a template: its named policy if set, otherwise
// the policy of its tier.
func (p Policies) For(t Template) CapturePolicy {
	if t.Policy != "" {
		if pol, ok := p.Named[t.Policy]; ok {
			return pol
		}
	}
	switch t.Tier {
	case TierRare:
		return p.Rare
	case TierSuperRare:
		return p.SuperRare
	default:
		return p.Normal
	}
}

// Timings are the per-pool durations outside the capture policy.
type Timings struct {
	// Appear is the spawn animation.
	Appear time.Duration
	// Lifetime auto-expires an untouched Idle occupant; 0 disables expiry.
	Lifetime time.Duration
	// Vanish is the fade out after the reward.
	Vanish time.Duration
	// RespawnDelay is waited after Vanish before the pool re-arms.
	RespawnDelay time.Duration
	// IdleGapMin/IdleGapMax bound a random wait in Empty before an
	// immediate pool re-arms a slot.
	IdleGapMin time.Duration
	IdleGapMax time.Duration
}

// StormRule occasionally queues a burst of spawns.
type StormRule struct {
	Chance   float64
	MinCount int
	MaxCount int
	Cooldown time.Duration
}

// SpawnRule configures the spawner.
type SpawnRule struct {
	Mode     SpawnMode
	Interval time.Duration
	// MaxActive caps occupied slots in interval mode; 0 means all slots.
	MaxActive int
	Storm     StormRule
}

// Motion makes occupants drift; they spawn on a line between SpawnFrom and
// SpawnTo and leave through Bounds inflated by ExitMargin.
type Motion struct {
	Bounds     core.Bounds
	SpawnFrom  core.Vec
	SpawnTo    core.Vec
	Velocity   core.Vec
	Jitter     core.Vec
	ExitMargin float64
	Exit       ExitAction
}

// Sounds are pool-level cue ids; empty ids are not played.
type Sounds struct {
	Appear string
	Expire string
}

// Config is everything New needs to build a pool.
type Config struct {
	Positions     []core.Vec
	Radius        float64
	Candidates    CandidatePool
	Policies      Policies
	Timings       Timings
	Spawn         SpawnRule
	Exclusivity   Exclusivity
	MaxRareActive int
	AvoidRepeat   bool
	Motion        *Motion
	Drop          DropRule
	Sounds        Sounds
}

// Validate reports every configuration problem it finds.
func (c Config) Validate() error {
	var errs []error

	if len(c.Positions) == 0 {
		errs = append(errs, ErrNoSlots)
	}
	if c.Radius <= 0 {
		errs = append(errs, fmt.Errorf("%w: radius %v", ErrBadGeometry, c.Radius))
	}
	if err := c.Candidates.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxRareActive > 0 {
		if _, ok := pickWeighted(constSource(0), c.Candidates.Normal, ""); !ok {
			errs = append(errs, fmt.Errorf("%w: rare cap needs a normal tier", ErrEmptyPool))
		}
	}

	t := c.Timings
	if t.Appear < 0 || t.Lifetime < 0 || t.Vanish < 0 || t.RespawnDelay < 0 || t.IdleGapMin < 0 || t.IdleGapMax < 0 {
		errs = append(errs, fmt.Errorf("%w: negative pool timing", ErrBadTiming))
	}
	if t.IdleGapMax < t.IdleGapMin {
		errs = append(errs, fmt.Errorf("%w: idle gap max %v below min %v", ErrBadTiming, t.IdleGapMax, t.IdleGapMin))
	}

	if c.Spawn.Mode == SpawnInterval && c.Spawn.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: interval spawner needs a positive interval", ErrBadTiming))
	}
	if c.Spawn.MaxActive < 0 {
		errs = append(errs, fmt.Errorf("%w: max active %d", ErrBadGeometry, c.Spawn.MaxActive))
	}
	if s := c.Spawn.Storm; s.Chance < 0 || s.Chance > 1 {
		errs = append(errs, fmt.Errorf("%w: storm chance %v", ErrBadChance, s.Chance))
	} else if s.Chance > 0 && (s.MinCount <= 0 || s.MaxCount < s.MinCount) {
		errs = append(errs, fmt.Errorf("%w: storm count %d..%d", ErrBadGeometry, s.MinCount, s.MaxCount))
	}

	for name, pol := range map[string]CapturePolicy{
		"normal": c.Policies.Normal, "rare": c.Policies.Rare, "super-rare": c.Policies.SuperRare,
	} {
		if err := pol.validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	for name, pol := range c.Policies.Named {
		if err := pol.validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, tier := range [...]Tier{TierNormal, TierRare, TierSuperRare} {
		for _, tmpl := range c.Candidates.Tier(tier) {
			if tmpl.Policy == "" {
				continue
			}
			if _, ok := c.Policies.Named[tmpl.Policy]; !ok {
				errs = append(errs, fmt.Errorf("%w: %q used by %q", ErrUnknownPolicy, tmpl.Policy, tmpl.ID))
			}
		}
	}

	if m := c.Motion; m != nil {
		exit := m.Bounds.Inflate(m.ExitMargin)
		switch {
		case m.Bounds.Empty():
			errs = append(errs, fmt.Errorf("%w: motion bounds are empty", ErrBadGeometry))
		case !exit.Contains(m.SpawnFrom) || !exit.Contains(m.SpawnTo):
			errs = append(errs, fmt.Errorf("%w: spawn line lies outside the exit bounds", ErrBadGeometry))
		}
		if m.Velocity.Len() == 0 {
			errs = append(errs, fmt.Errorf("%w: mobile occupants need a velocity", ErrBadGeometry))
		}
	}

	if d := c.Drop; d.Chance < 0 || d.Chance > 1 {
		errs = append(errs, fmt.Errorf("%w: drop chance %v", ErrBadChance, d.Chance))
	} else if d.Chance > 0 {
		switch {
		case c.Motion == nil:
			errs = append(errs, fmt.Errorf("%w: drops need a mobile pool", ErrBadGeometry))
		case len(d.Kinds) == 0:
			errs = append(errs, fmt.Errorf("%w: drops need at least one kind", ErrEmptyPool))
		case d.Fall.Len() == 0:
			errs = append(errs, fmt.Errorf("%w: drops need a fall velocity", ErrBadGeometry))
		}
	}

	return errors.Join(errs...)
}

// constSource always returns the same draw; Validate uses it to test a tier.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }
