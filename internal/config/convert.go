package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

// ValidationError reports one bad field of a variant file.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the parts of the file the engine cannot see: names of
// modes, tiers, flags and layout. Engine invariants are checked by
// ToSpawnConfig.
func (c VariantConfig) Validate() error {
	var errs []error

	if c.ID == "" {
		errs = append(errs, invalid("id", "must not be empty"))
	}
	if c.Round < 0 {
		errs = append(errs, invalid("round", "must not be negative"))
	}
	if len(c.Field.SlotPositions()) == 0 {
		errs = append(errs, invalid("field", "needs positions or a grid"))
	}
	if w := c.Field.World; w.MaxX <= w.MinX || w.MaxY <= w.MinY {
		errs = append(errs, invalid("field.world", "must have a positive area"))
	}
	if _, err := parseExclusivity(c.Arbitration); err != nil {
		errs = append(errs, invalid("arbitration", "%v", err))
	}
	if _, err := parseSpawnMode(c.Spawn.Mode); err != nil {
		errs = append(errs, invalid("spawn.mode", "%v", err))
	}
	if len(c.Templates) == 0 {
		errs = append(errs, invalid("templates", "at least one template is required"))
	}
	for i, t := range c.Templates {
		field := fmt.Sprintf("templates[%d]", i)
		if t.ID == "" {
			errs = append(errs, invalid(field+".id", "must not be empty"))
		}
		if t.Glyph == "" {
			errs = append(errs, invalid(field+".glyph", "must not be empty"))
		}
		if _, err := spawn.ParseTier(t.Tier); err != nil {
			errs = append(errs, invalid(field+".tier", "%v", err))
		}
		for _, f := range t.Flags {
			if _, err := spawn.ParseFlag(f); err != nil {
				errs = append(errs, invalid(field+".flags", "%v", err))
			}
		}
		if t.Color != "" {
			if _, ok := core.ParseColor(t.Color); !ok {
				errs = append(errs, invalid(field+".color", "unknown color %q", t.Color))
			}
		}
	}
	if m := c.Motion; m != nil {
		if _, err := parseExit(m.Exit); err != nil {
			errs = append(errs, invalid("motion.exit", "%v", err))
		}
	}
	if d := c.Drops; d != nil {
		if c.Motion == nil {
			errs = append(errs, invalid("drops", "only mobile variants carry passengers"))
		}
		for i, k := range d.Kinds {
			field := fmt.Sprintf("drops.kinds[%d]", i)
			if k.ID == "" || k.Glyph == "" {
				errs = append(errs, invalid(field, "needs an id and a glyph"))
			}
			if k.Color != "" {
				if _, ok := core.ParseColor(k.Color); !ok {
					errs = append(errs, invalid(field+".color", "unknown color %q", k.Color))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// ToSpawnConfig builds the engine configuration.
func (c VariantConfig) ToSpawnConfig() (spawn.Config, error) {
	if err := c.Validate(); err != nil {
		return spawn.Config{}, fmt.Errorf("config: %s: %w", c.ID, err)
	}

	// parse errors were reported by Validate
	excl, _ := parseExclusivity(c.Arbitration)
	mode, _ := parseSpawnMode(c.Spawn.Mode)

	out := spawn.Config{
		Radius:        c.Field.Radius,
		Exclusivity:   excl,
		MaxRareActive: c.Spawn.MaxRareActive,
		AvoidRepeat:   c.Spawn.AvoidRepeat,
		Candidates: spawn.CandidatePool{
			RareChance:      c.Tiers.RareChance,
			SuperRareChance: c.Tiers.SuperRareChance,
		},
		Timings: spawn.Timings{
			Appear:       c.Timings.Appear.D(),
			Lifetime:     c.Timings.Lifetime.D(),
			Vanish:       c.Timings.Vanish.D(),
			RespawnDelay: c.Timings.RespawnDelay.D(),
			IdleGapMin:   c.Timings.IdleGapMin.D(),
			IdleGapMax:   c.Timings.IdleGapMax.D(),
		},
		Spawn: spawn.SpawnRule{
			Mode:      mode,
			Interval:  c.Spawn.Interval.D(),
			MaxActive: c.Spawn.MaxActive,
			Storm: spawn.StormRule{
				Chance:   c.Spawn.Storm.Chance,
				MinCount: c.Spawn.Storm.MinCount,
				MaxCount: c.Spawn.Storm.MaxCount,
				Cooldown: c.Spawn.Storm.Cooldown.D(),
			},
		},
		Sounds: spawn.Sounds{Appear: c.Sounds.Appear, Expire: c.Sounds.Expire},
	}

	for _, p := range c.Field.SlotPositions() {
		out.Positions = append(out.Positions, core.V(p.X, p.Y))
	}

	for _, t := range c.Templates {
		tier, _ := spawn.ParseTier(t.Tier)
		tmpl := spawn.Template{
			ID:     t.ID,
			Tier:   tier,
			Weight: t.Weight,
			Policy: t.Policy,
			Scale:  t.Scale,
			Speed:  t.Speed,
		}
		for _, name := range t.Flags {
			f, _ := spawn.ParseFlag(name)
			tmpl.Flags |= f
		}
		switch tier {
		case spawn.TierRare:
			out.Candidates.Rare = append(out.Candidates.Rare, tmpl)
		case spawn.TierSuperRare:
			out.Candidates.SuperRare = append(out.Candidates.SuperRare, tmpl)
		default:
			out.Candidates.Normal = append(out.Candidates.Normal, tmpl)
		}
	}

	// rare tiers fall back to the normal policy when left out
	out.Policies.Normal = c.Policies.Normal.toSpawn()
	out.Policies.Rare = out.Policies.Normal
	if c.Policies.Rare != nil {
		out.Policies.Rare = c.Policies.Rare.toSpawn()
	}
	out.Policies.SuperRare = out.Policies.Rare
	if c.Policies.SuperRare != nil {
		out.Policies.SuperRare = c.Policies.SuperRare.toSpawn()
	}
	if len(c.Policies.Named) > 0 {
		out.Policies.Named = make(map[string]spawn.CapturePolicy, len(c.Policies.Named))
		for name, p := range c.Policies.Named {
			out.Policies.Named[name] = p.toSpawn()
		}
	}

	if m := c.Motion; m != nil {
		exit, _ := parseExit(m.Exit)
		out.Motion = &spawn.Motion{
			Bounds:     core.Bounds{MinX: m.Bounds.MinX, MinY: m.Bounds.MinY, MaxX: m.Bounds.MaxX, MaxY: m.Bounds.MaxY},
			SpawnFrom:  core.V(m.SpawnFrom.X, m.SpawnFrom.Y),
			SpawnTo:    core.V(m.SpawnTo.X, m.SpawnTo.Y),
			Velocity:   core.V(m.Velocity.X, m.Velocity.Y),
			Jitter:     core.V(m.Jitter.X, m.Jitter.Y),
			ExitMargin: m.ExitMargin,
			Exit:       exit,
		}
	}

	if d := c.Drops; d != nil {
		out.Drop = spawn.DropRule{
			Chance: d.Chance,
			Fall:   core.V(d.Fall.X, d.Fall.Y),
			Sway:   d.Sway,
			Sound:  d.Sound,
		}
		for _, k := range d.Kinds {
			out.Drop.Kinds = append(out.Drop.Kinds, k.ID)
		}
	}

	if err := out.Validate(); err != nil {
		return spawn.Config{}, fmt.Errorf("config: %s: %w", c.ID, err)
	}
	return out, nil
}

// Template returns the display settings of template id.
func (c VariantConfig) Template(id string) (TemplateConfig, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return TemplateConfig{}, false
}

// Drop returns the display settings of passenger kind id.
func (c VariantConfig) Drop(id string) (DropConfig, bool) {
	if c.Drops == nil {
		return DropConfig{}, false
	}
	for _, k := range c.Drops.Kinds {
		if k.ID == id {
			return k, true
		}
	}
	return DropConfig{}, false
}

func (p PolicyConfig) toSpawn() spawn.CapturePolicy {
	return spawn.CapturePolicy{
		Taps:         p.Taps,
		Capture:      p.Capture.D(),
		Resolve:      p.Resolve.D(),
		Display:      p.Display.D(),
		Score:        p.Score,
		Window:       p.Window.D(),
		CaptureSound: p.CaptureSound,
		RewardSound:  p.RewardSound,
	}
}

func parseExclusivity(s string) (spawn.Exclusivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-slot", "per_slot":
		return spawn.ExclusivePerSlot, nil
	case "global":
		return spawn.ExclusiveGlobal, nil
	}
	return 0, fmt.Errorf("unknown arbitration %q", s)
}

func parseSpawnMode(s string) (spawn.SpawnMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "immediate":
		return spawn.SpawnImmediate, nil
	case "interval":
		return spawn.SpawnInterval, nil
	}
	return 0, fmt.Errorf("unknown spawn mode %q", s)
}

func parseExit(s string) (spawn.ExitAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reclaim":
		return spawn.ExitReclaim, nil
	case "disable":
		return spawn.ExitDisable, nil
	}
	return 0, fmt.Errorf("unknown exit action %q", s)
}
