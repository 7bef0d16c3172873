// Package config provides YAML-based variant configuration loading and
// difficulty management for the tap field games.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// VariantConfig contains all configuration for one game variant.
type VariantConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Round is the length of a round; 0 plays forever.
	Round Duration `yaml:"round"`

	Field       FieldConfig      `yaml:"field"`
	Arbitration string           `yaml:"arbitration"` // "per-slot" or "global"
	Spawn       SpawnConfig      `yaml:"spawn"`
	Timings     TimingsConfig    `yaml:"timings"`
	Tiers       TiersConfig      `yaml:"tiers"`
	Templates   []TemplateConfig `yaml:"templates"`
	Policies    PoliciesConfig   `yaml:"policies"`
	Motion      *MotionConfig    `yaml:"motion"`
	Drops       *DropsConfig     `yaml:"drops"`
	Sounds      SoundsConfig     `yaml:"sounds"`
	Difficulty  DifficultyConfig `yaml:"difficulty"`
}

// Point is a world position.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Box is an axis-aligned world area.
type Box struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// FieldConfig places the slots. Positions wins over Grid when both are set.
type FieldConfig struct {
	Positions []Point     `yaml:"positions"`
	Grid      *GridConfig `yaml:"grid"`
	Radius    float64     `yaml:"radius"`
	// World is the area mapped onto the terminal.
	World Box `yaml:"world"`
}

// GridConfig lays slots out row by row.
type GridConfig struct {
	Cols     int     `yaml:"cols"`
	Rows     int     `yaml:"rows"`
	StartX   float64 `yaml:"start_x"`
	StartY   float64 `yaml:"start_y"`
	SpacingX float64 `yaml:"spacing_x"`
	SpacingY float64 `yaml:"spacing_y"`
}

// SlotPositions returns the configured positions, expanding the grid.
func (f FieldConfig) SlotPositions() []Point {
	if len(f.Positions) > 0 || f.Grid == nil {
		return f.Positions
	}
	g := f.Grid
	out := make([]Point, 0, g.Cols*g.Rows)
	for r := range g.Rows {
		for c := range g.Cols {
			out = append(out, Point{
				X: g.StartX + float64(c)*g.SpacingX,
				Y: g.StartY + float64(r)*g.SpacingY,
			})
		}
	}
	return out
}

// SpawnConfig defines how slots receive occupants.
type SpawnConfig struct {
	Mode          string      `yaml:"mode"` // "immediate" or "interval"
	Interval      Duration    `yaml:"interval"`
	MaxActive     int         `yaml:"max_active"`
	MaxRareActive int         `yaml:"max_rare_active"`
	AvoidRepeat   bool        `yaml:"avoid_repeat"`
	Storm         StormConfig `yaml:"storm"`
}

// StormConfig defines occasional spawn bursts.
type StormConfig struct {
	Chance   float64  `yaml:"chance"`
	MinCount int      `yaml:"min_count"`
	MaxCount int      `yaml:"max_count"`
	Cooldown Duration `yaml:"cooldown"`
}

// TimingsConfig holds the per-pool durations.
type TimingsConfig struct {
	Appear       Duration `yaml:"appear"`
	Lifetime     Duration `yaml:"lifetime"`
	Vanish       Duration `yaml:"vanish"`
	RespawnDelay Duration `yaml:"respawn_delay"`
	IdleGapMin   Duration `yaml:"idle_gap_min"`
	IdleGapMax   Duration `yaml:"idle_gap_max"`
}

// TiersConfig holds the rarity gate.
type TiersConfig struct {
	RareChance      float64 `yaml:"rare_chance"`
	SuperRareChance float64 `yaml:"super_rare_chance"`
}

// TemplateConfig describes one kind of occupant and how it is drawn.
type TemplateConfig struct {
	ID     string   `yaml:"id"`
	Tier   string   `yaml:"tier"`
	Weight float64  `yaml:"weight"`
	Glyph  string   `yaml:"glyph"`
	Label  string   `yaml:"label"`
	Color  string   `yaml:"color"`
	Flags  []string `yaml:"flags"`
	Policy string   `yaml:"policy"`
	Scale  float64  `yaml:"scale"`
	Speed  float64  `yaml:"speed"`
}

// PolicyConfig describes what a capture does.
type PolicyConfig struct {
	Taps         int      `yaml:"taps"`
	Capture      Duration `yaml:"capture"`
	Resolve      Duration `yaml:"resolve"`
	Display      Duration `yaml:"display"`
	Score        int      `yaml:"score"`
	Window       Duration `yaml:"window"` // tap window of a multi-tap policy
	CaptureSound string   `yaml:"capture_sound"`
	RewardSound  string   `yaml:"reward_sound"`
}

// PoliciesConfig holds the per-tier policies and the named overrides.
type PoliciesConfig struct {
	Normal    PolicyConfig            `yaml:"normal"`
	Rare      *PolicyConfig           `yaml:"rare"`
	SuperRare *PolicyConfig           `yaml:"super_rare"`
	Named     map[string]PolicyConfig `yaml:"named"`
}

// MotionConfig makes occupants drift across the field.
type MotionConfig struct {
	Bounds     Box     `yaml:"bounds"`
	SpawnFrom  Point   `yaml:"spawn_from"`
	SpawnTo    Point   `yaml:"spawn_to"`
	Velocity   Point   `yaml:"velocity"`
	Jitter     Point   `yaml:"jitter"`
	ExitMargin float64 `yaml:"exit_margin"`
	Exit       string  `yaml:"exit"` // "reclaim" or "disable"
}

// DropsConfig lets some ordinary occupants of a mobile variant carry a
// passenger that falls out when they are collected.
type DropsConfig struct {
	Chance float64      `yaml:"chance"`
	Fall   Point        `yaml:"fall"`
	Sway   float64      `yaml:"sway"`
	Sound  string       `yaml:"sound"`
	Kinds  []DropConfig `yaml:"kinds"`
}

// DropConfig describes how one passenger kind is drawn.
type DropConfig struct {
	ID    string `yaml:"id"`
	Glyph string `yaml:"glyph"`
	Color string `yaml:"color"`
}

// SoundsConfig holds the pool-level cue ids.
type SoundsConfig struct {
	Appear string `yaml:"appear"`
	Expire string `yaml:"expire"`
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases over time.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "score", "time", or "none"
	MaxAt int    `yaml:"max_at"` // Score/ticks at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	PaceMultiplier float64 `yaml:"pace_multiplier"` // Pace added at max difficulty
}

// Duration is a time.Duration written in YAML as "1.5s" or as plain seconds.
type Duration time.Duration

// D returns the standard library duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	s := strings.TrimSpace(value.Value)
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset accepts the preset names; empty means normal.
func ParsePreset(s string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, nil
	}
	return "", fmt.Errorf("config: unknown difficulty %q (want easy, normal, hard or fixed)", s)
}

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// IsFixedPreset returns true if the preset disables progression.
func IsFixedPreset(preset DifficultyPreset) bool {
	return preset == DifficultyFixed
}
