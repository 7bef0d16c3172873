package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrUnknownVariant is returned when no file and no built-in default exist.
var ErrUnknownVariant = errors.New("config: unknown variant")

// Load loads the configuration of variant id.
// Search order: customPath -> ~/.tapfield/configs/<id>.yaml -> ./configs/<id>.yaml -> embedded default.
// Files are decoded over the embedded default, so they only need the fields
// they change.
func Load(id, customPath string) (VariantConfig, error) {
	base, hasBase := embedded(id)

	// Try custom path first
	if customPath != "" {
		cfg, err := LoadFile(customPath, base)
		if err != nil {
			return cfg, err
		}
		return finish(cfg, id), nil
	}

	// Try user config directory, then the local configs directory
	for _, p := range []string{userConfigPath(id + ".yaml"), localConfigPath(id + ".yaml")} {
		if p == "" {
			continue
		}
		cfg, err := LoadFile(p, base)
		if err == nil {
			return finish(cfg, id), nil
		}
		// a file that exists but does not parse is an error, not a fallback
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	if !hasBase {
		return VariantConfig{}, fmt.Errorf("%w %q", ErrUnknownVariant, id)
	}
	return base, nil
}

// LoadFile decodes path over base.
func LoadFile(path string, base VariantConfig) (VariantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := base.clone()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SearchDirs returns the directories that may hold an override for a
// variant, in search order. Used to decide what to watch.
func SearchDirs(customPath string) []string {
	if customPath != "" {
		return []string{filepath.Dir(customPath)}
	}
	var dirs []string
	if p := userConfigPath(""); p != "" {
		dirs = append(dirs, p)
	}
	return append(dirs, localConfigPath(""))
}

// Default returns the embedded configuration of a built-in variant.
func Default(id string) (VariantConfig, bool) {
	return embedded(id)
}

func embedded(id string) (VariantConfig, bool) {
	data := GetDefaultYAML(id)
	if data == nil {
		return VariantConfig{ID: id}, false
	}
	var cfg VariantConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return VariantConfig{ID: id}, false
	}
	return cfg, true
}

func finish(cfg VariantConfig, id string) VariantConfig {
	if cfg.ID == "" {
		cfg.ID = id
	}
	return cfg
}

// clone copies the slices and maps yaml.v3 would otherwise decode into.
func (c VariantConfig) clone() VariantConfig {
	out := c
	out.Templates = append([]TemplateConfig(nil), c.Templates...)
	out.Field.Positions = append([]Point(nil), c.Field.Positions...)
	if c.Field.Grid != nil {
		g := *c.Field.Grid
		out.Field.Grid = &g
	}
	if c.Motion != nil {
		m := *c.Motion
		out.Motion = &m
	}
	if c.Drops != nil {
		d := *c.Drops
		d.Kinds = append([]DropConfig(nil), c.Drops.Kinds...)
		out.Drops = &d
	}
	if c.Policies.Rare != nil {
		p := *c.Policies.Rare
		out.Policies.Rare = &p
	}
	if c.Policies.SuperRare != nil {
		p := *c.Policies.SuperRare
		out.Policies.SuperRare = &p
	}
	if c.Policies.Named != nil {
		out.Policies.Named = make(map[string]PolicyConfig, len(c.Policies.Named))
		for k, v := range c.Policies.Named {
			out.Policies.Named[k] = v
		}
	}
	return out
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tapfield", "configs", filename)
}

func localConfigPath(filename string) string {
	return filepath.Join("configs", filename)
}

// ApplyPreset modifies the config based on a difficulty preset.
func ApplyPreset(cfg *VariantConfig, preset DifficultyPreset) {
	if preset == DifficultyFixed {
		cfg.Difficulty.Enabled = false
	} else {
		cfg.Difficulty.Enabled = true
		cfg.Difficulty.InitialLevel = InitialLevelForPreset(preset)
	}

	// Adjust pacing based on difficulty
	switch preset {
	case DifficultyEasy:
		cfg.Timings.Lifetime = scaleDuration(cfg.Timings.Lifetime, 1.4)
		cfg.Spawn.Interval = scaleDuration(cfg.Spawn.Interval, 1.25)
		cfg.Round = scaleDuration(cfg.Round, 1.5)
	case DifficultyHard:
		cfg.Timings.Lifetime = scaleDuration(cfg.Timings.Lifetime, 0.7)
		cfg.Spawn.Interval = scaleDuration(cfg.Spawn.Interval, 0.75)
		cfg.Round = scaleDuration(cfg.Round, 0.75)
	}
}

func scaleDuration(d Duration, f float64) Duration {
	return Duration(float64(d) * f)
}
