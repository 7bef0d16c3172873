package spawn

import (
	"fmt"
	"strings"
)

// Tier is the rarity class of a template.
type Tier int

const (
	TierNormal Tier = iota
	TierRare
	TierSuperRare
)

func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierRare:
		return "rare"
	case TierSuperRare:
		return "super-rare"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier accepts the names produced by Tier.String.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return TierNormal, nil
	case "rare":
		return TierRare, nil
	case "super-rare", "superrare", "super_rare":
		return TierSuperRare, nil
	}
	return TierNormal, fmt.Errorf("spawn: unknown tier %q", s)
}

// Flag marks tier-specific occupant behavior.
type Flag uint8

const (
	// FlagFanfare marks occupants whose reward plays the special fanfare.
	FlagFanfare Flag = 1 << iota
	// FlagProtected keeps a multi-tap capture with the pointer that started it.
	FlagProtected
)

// Has reports whether all bits of o are set.
func (f Flag) Has(o Flag) bool { return f&o == o }

// ParseFlag converts a config name into a Flag.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fanfare":
		return FlagFanfare, nil
	case "protected":
		return FlagProtected, nil
	}
	return 0, fmt.Errorf("spawn: unknown flag %q", s)
}

// Template describes one kind of occupant a pool can spawn.
type Template struct {
	ID     string
	Tier   Tier
	Weight float64
	Flags  Flag
	// Policy names a capture policy; empty uses the tier's policy.
	Policy string
	// Scale multiplies the slot's capture radius (0 means 1).
	Scale float64
	// Speed multiplies the motion velocity of mobile pools (0 means 1).
	Speed float64
}

func (t Template) scale() float64 {
	if t.Scale <= 0 {
		return 1
	}
	return t.Scale
}

func (t Template) speed() float64 {
	if t.Speed <= 0 {
		return 1
	}
	return t.Speed
}

// Entity is the occupant currently living in a slot.
// Serial is unique per pool, so a respawn is a new identity even when the
// template repeats.
type Entity struct {
	Template Template
	Serial   uint64
	// Cargo is the passenger kind released on reward; empty for most.
	Cargo string
}

// ID returns the template id of the occupant.
func (e Entity) ID() string { return e.Template.ID }

// Tier returns the rarity of the occupant.
func (e Entity) Tier() Tier { return e.Template.Tier }
