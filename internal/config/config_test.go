package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tapfield/internal/spawn"
)

// isolate points the user config directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestBuiltinVariantsConvert(t *testing.T) {
	isolate(t)

	slots := map[string]int{
		"mole":       9,
		"insects":    6,
		"vegetables": 6,
		"eggs":       4,
		"fruit":      6,
		"fossils":    6,
		"balloons":   8,
		"fishing":    8,
		"animals":    6,
	}

	ids := Variants()
	if len(ids) != len(slots) {
		t.Fatalf("Variants() = %v, expected %d built-ins", ids, len(slots))
	}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			cfg, err := Load(id, "")
			if err != nil {
				t.Fatalf("Load(%q) error = %v", id, err)
			}
			if cfg.ID != id {
				t.Errorf("ID = %q, expected %q", cfg.ID, id)
			}
			if cfg.Name == "" {
				t.Error("variant has no display name")
			}
			sc, err := cfg.ToSpawnConfig()
			if err != nil {
				t.Fatalf("ToSpawnConfig() error = %v", err)
			}
			if len(sc.Positions) != slots[id] {
				t.Errorf("slots = %d, expected %d", len(sc.Positions), slots[id])
			}
			if _, err := spawn.New(sc); err != nil {
				t.Errorf("spawn.New() error = %v", err)
			}
		})
	}
}

func TestVariantSpecifics(t *testing.T) {
	isolate(t)

	load := func(id string) spawn.Config {
		t.Helper()
		cfg, err := Load(id, "")
		if err != nil {
			t.Fatalf("Load(%q) error = %v", id, err)
		}
		sc, err := cfg.ToSpawnConfig()
		if err != nil {
			t.Fatalf("ToSpawnConfig(%q) error = %v", id, err)
		}
		return sc
	}

	insects := load("insects")
	if insects.Exclusivity != spawn.ExclusiveGlobal || insects.Spawn.Mode != spawn.SpawnInterval || insects.Spawn.MaxActive != 4 {
		t.Errorf("insects = %v/%v/%d", insects.Exclusivity, insects.Spawn.Mode, insects.Spawn.MaxActive)
	}

	eggs := load("eggs")
	if eggs.Policies.Normal.Taps != 3 {
		t.Errorf("eggs taps = %d, expected 3", eggs.Policies.Normal.Taps)
	}
	for _, tmpl := range eggs.Candidates.Normal {
		if !tmpl.Flags.Has(spawn.FlagProtected) {
			t.Errorf("egg %q is not protected", tmpl.ID)
		}
	}

	fossils := load("fossils")
	if fossils.Candidates.RareChance != 0.25 || fossils.Candidates.SuperRareChance != 0.05 {
		t.Errorf("fossil chances = %v/%v", fossils.Candidates.RareChance, fossils.Candidates.SuperRareChance)
	}
	if fossils.Policies.SuperRare.Score != 15 || fossils.Policies.Normal.Taps != 5 {
		t.Errorf("fossil policies = %+v", fossils.Policies)
	}
	if fossils.Positions[0].X != -4 || fossils.Positions[0].Y != -1 || fossils.Positions[5].X != 4 || fossils.Positions[5].Y != 2 {
		t.Errorf("fossil grid = %v", fossils.Positions)
	}

	balloons := load("balloons")
	if balloons.Motion == nil {
		t.Fatal("balloons have no motion")
	}
	giant := balloons.Candidates.Rare[0]
	if giant.Policy != "giant" || giant.Scale != 2.5 || giant.Speed != 0.7 {
		t.Errorf("giant = %+v", giant)
	}
	if p := balloons.Policies.For(giant); p.TapsNeeded() != 1 || p.Score != 10 {
		t.Errorf("giant policy = %+v, expected one pop for 10", p)
	}
	if d := balloons.Drop; d.Chance != 0.1 || len(d.Kinds) != 3 || d.Fall.Y >= 0 {
		t.Errorf("balloon drops = %+v", d)
	}

	fishing := load("fishing")
	if m := fishing.Motion; m == nil || m.Velocity.X != 2 || m.Jitter.X != 1 || m.SpawnFrom.X >= m.Bounds.MinX {
		t.Errorf("fish motion = %+v, expected a left-to-right swim at 1 to 3", m)
	}
	if fishing.Spawn.Interval != 2*time.Second || fishing.Candidates.RareChance != 0.1 {
		t.Errorf("fishing = %v/%v", fishing.Spawn.Interval, fishing.Candidates.RareChance)
	}

	animals := load("animals")
	if animals.Motion != nil || animals.Timings.Lifetime != 0 || animals.Candidates.RareChance != 0.1 {
		t.Errorf("animals should stay put until tapped: %+v", animals.Timings)
	}
	for _, tmpl := range animals.Candidates.Rare {
		if tmpl.Scale != 1.3 {
			t.Errorf("rare animal %q scale = %v, expected 1.3", tmpl.ID, tmpl.Scale)
		}
	}
	if balloons.Spawn.Storm.Cooldown != 30*time.Second {
		t.Errorf("storm cooldown = %v", balloons.Spawn.Storm.Cooldown)
	}

	mole := load("mole")
	if mole.Policies.Rare != mole.Policies.Normal {
		t.Error("a missing rare policy should fall back to the normal one")
	}
	if mole.Timings.IdleGapMax != 1400*time.Millisecond {
		t.Errorf("mole idle gap max = %v", mole.Timings.IdleGapMax)
	}
}

func TestLoadCustomPathOverlaysDefault(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "mine.yaml")
	if err := os.WriteFile(path, []byte("timings:\n  lifetime: 2s\nround: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("mole", path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Timings.Lifetime.D() != 2*time.Second {
		t.Errorf("lifetime = %v, expected the override", cfg.Timings.Lifetime)
	}
	if cfg.Round.D() != 30*time.Second {
		t.Errorf("round = %v, expected 30s", cfg.Round)
	}
	if cfg.Timings.Appear.D() != 150*time.Millisecond || len(cfg.Templates) != 2 {
		t.Error("fields missing from the file should keep their defaults")
	}

	again, _ := Load("mole", "")
	if again.Timings.Lifetime.D() != 1100*time.Millisecond {
		t.Errorf("override leaked into the embedded default: %v", again.Timings.Lifetime)
	}
}

func TestLoadSearchOrder(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".tapfield", "configs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fruit.yaml"), []byte("round: 45s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "eggs.yaml"), []byte("round: [nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fruit, err := Load("fruit", "")
	if err != nil || fruit.Round.D() != 45*time.Second {
		t.Errorf("Load(fruit) = %v, %v; expected the user file", fruit.Round, err)
	}
	if _, err := Load("eggs", ""); err == nil {
		t.Error("an unparsable user file should fail instead of falling back")
	}
	fossils, err := Load("fossils", "")
	if err != nil || fossils.Round.D() != 90*time.Second {
		t.Errorf("Load(fossils) = %v, %v; expected the embedded default", fossils.Round, err)
	}

	dirs := SearchDirs("")
	if len(dirs) != 2 || dirs[0] != dir {
		t.Errorf("SearchDirs() = %v", dirs)
	}
	if got := SearchDirs("/tmp/x/mole.yaml"); len(got) != 1 || got[0] != "/tmp/x" {
		t.Errorf("SearchDirs(custom) = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	if _, err := Load("nope", ""); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("Load(unknown) error = %v, expected ErrUnknownVariant", err)
	}
	if _, err := Load("mole", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing custom path should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("timings:\n  lifetime: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("mole", bad); err == nil {
		t.Error("bad duration should fail to parse")
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := VariantConfig{
		ID:          "broken",
		Arbitration: "whoever",
		Spawn:       SpawnConfig{Mode: "sometimes"},
		Templates: []TemplateConfig{
			{ID: "a", Tier: "legendary"},
			{ID: "b", Glyph: "b", Color: "plaid", Flags: []string{"shiny"}},
		},
		Motion: &MotionConfig{Exit: "teleport"},
		Drops:  &DropsConfig{Kinds: []DropConfig{{ID: "x", Color: "plaid"}}},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() error %T is not a ValidationError", err)
	}
	for _, field := range []string{
		"field:", "field.world", "arbitration", "spawn.mode",
		"templates[0].glyph", "templates[0].tier", "templates[1].color",
		"templates[1].flags", "motion.exit", "drops.kinds[0]", "drops.kinds[0].color",
	} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s:\n%v", field, err)
		}
	}

	if _, err := cfg.ToSpawnConfig(); err == nil {
		t.Error("ToSpawnConfig() should refuse an invalid file")
	}
}

func TestToSpawnConfigEngineErrors(t *testing.T) {
	isolate(t)
	cfg, err := Load("mole", "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.Radius = 0
	cfg.Templates[0].Weight = -1

	_, err = cfg.ToSpawnConfig()
	if !errors.Is(err, spawn.ErrBadGeometry) || !errors.Is(err, spawn.ErrNegativeWeight) {
		t.Errorf("ToSpawnConfig() error = %v, expected geometry and weight errors", err)
	}
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"1.5s", 1500 * time.Millisecond, false},
		{"250ms", 250 * time.Millisecond, false},
		{"2", 2 * time.Second, false},
		{"0.5", 500 * time.Millisecond, false},
		{"\"\"", 0, false},
		{"later", 0, true},
		{"[1, 2]", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var out struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte("d: "+tc.in+"\n"), &out)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected an error, got %v", out.D)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if out.D.D() != tc.want {
				t.Errorf("got %v, expected %v", out.D, tc.want)
			}
		})
	}
}

func TestApplyPreset(t *testing.T) {
	isolate(t)

	near := func(a, b Duration) bool {
		d := a.D() - b.D()
		return d > -time.Millisecond && d < time.Millisecond
	}

	base, err := Load("insects", "")
	if err != nil {
		t.Fatal(err)
	}

	easy := base.clone()
	ApplyPreset(&easy, DifficultyEasy)
	if !near(easy.Timings.Lifetime, Duration(14*time.Second)) || !near(easy.Round, Duration(90*time.Second)) {
		t.Errorf("easy lifetime/round = %v/%v", easy.Timings.Lifetime, easy.Round)
	}
	if !easy.Difficulty.Enabled || easy.Difficulty.InitialLevel != 0 {
		t.Errorf("easy difficulty = %+v", easy.Difficulty)
	}

	hard := base.clone()
	ApplyPreset(&hard, DifficultyHard)
	if !near(hard.Spawn.Interval, Duration(2250*time.Millisecond)) || hard.Difficulty.InitialLevel != 0.7 {
		t.Errorf("hard interval/level = %v/%v", hard.Spawn.Interval, hard.Difficulty.InitialLevel)
	}

	fixed := base.clone()
	ApplyPreset(&fixed, DifficultyFixed)
	if fixed.Difficulty.Enabled || fixed.Timings.Lifetime != base.Timings.Lifetime {
		t.Errorf("fixed should only disable progression: %+v", fixed.Difficulty)
	}
}

func TestParsePreset(t *testing.T) {
	tests := []struct {
		in      string
		want    DifficultyPreset
		wantErr bool
	}{
		{"", DifficultyNormal, false},
		{"easy", DifficultyEasy, false},
		{" HARD ", DifficultyHard, false},
		{"fixed", DifficultyFixed, false},
		{"nightmare", "", true},
	}
	for _, tc := range tests {
		got, err := ParsePreset(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParsePreset(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestPolicyWindowOverlay(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "eggs.yaml")
	body := "policies:\n  normal: {taps: 3, window: 1.5s}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("eggs", path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	sc, err := cfg.ToSpawnConfig()
	if err != nil {
		t.Fatalf("ToSpawnConfig() error = %v", err)
	}
	if got := sc.Policies.Normal.TapWindow(); got != 1500*time.Millisecond {
		t.Errorf("tap window = %v, expected 1.5s", got)
	}

	plain, _ := Load("eggs", "")
	def, err := plain.ToSpawnConfig()
	if err != nil {
		t.Fatalf("ToSpawnConfig() error = %v", err)
	}
	if got := def.Policies.Normal.TapWindow(); got != spawn.DefaultTapWindow {
		t.Errorf("default tap window = %v, expected %v", got, spawn.DefaultTapWindow)
	}
}

func TestDropsNeedMotion(t *testing.T) {
	isolate(t)
	cfg, err := Load("mole", "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Drops = &DropsConfig{Chance: 0.5, Fall: Point{Y: -1}, Kinds: []DropConfig{{ID: "cat", Glyph: "=^.^="}}}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "drops") {
		t.Errorf("Validate() error = %v, expected drops to need motion", err)
	}
}

func TestDropLookup(t *testing.T) {
	isolate(t)
	cfg, err := Load("balloons", "")
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := cfg.Drop("rabbit"); !ok || d.Glyph != `(\_/)` {
		t.Errorf("Drop(rabbit) = %+v, %v", d, ok)
	}
	if _, ok := cfg.Drop("dragon"); ok {
		t.Error("Drop(dragon) should not exist")
	}
	mole, _ := Load("mole", "")
	if _, ok := mole.Drop("rabbit"); ok {
		t.Error("variants without drops have no passengers")
	}
}

func TestTemplateLookup(t *testing.T) {
	isolate(t)
	cfg, err := Load("vegetables", "")
	if err != nil {
		t.Fatal(err)
	}
	tmpl, ok := cfg.Template("giant-carrot")
	if !ok || tmpl.Label != "Giant carrot" || tmpl.Tier != "rare" {
		t.Errorf("Template(giant-carrot) = %+v, %v", tmpl, ok)
	}
	if _, ok := cfg.Template("pumpkin"); ok {
		t.Error("Template(pumpkin) should not exist")
	}
}
