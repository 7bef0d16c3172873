package spawn

import (
	"fmt"
)

// CandidatePool holds the templates a pool can spawn, split by tier.
// It is configured once and read-only afterwards.
type CandidatePool struct {
	Normal    []Template
	Rare      []Template
	SuperRare []Template
	// RareChance and SuperRareChance are the probabilities of rolling those
	// tiers; the rest of the unit interval rolls Normal.
	RareChance      float64
	SuperRareChance float64
}

// Tier returns the templates of tier t.
func (p CandidatePool) Tier(t Tier) []Template {
	switch t {
	case TierRare:
		return p.Rare
	case TierSuperRare:
		return p.SuperRare
	default:
		return p.Normal
	}
}

// Len returns the number of templates across all tiers.
func (p CandidatePool) Len() int {
	return len(p.Normal) + len(p.Rare) + len(p.SuperRare)
}

// Lookup finds a template by id.
func (p CandidatePool) Lookup(id string) (Template, bool) {
	for _, t := range [...]Tier{TierNormal, TierRare, TierSuperRare} {
		for _, tmpl := range p.Tier(t) {
			if tmpl.ID == id {
				return tmpl, true
			}
		}
	}
	return Template{}, false
}

// Validate checks the pool invariants: non-negative weights, unique ids,
// chances inside [0, 1] and at least one selectable template. A non-empty
// normal tier must have a positive total weight.
func (p CandidatePool) Validate() error {
	if p.RareChance < 0 || p.RareChance > 1 {
		return fmt.Errorf("%w: rare chance %v", ErrBadChance, p.RareChance)
	}
	if p.SuperRareChance < 0 || p.SuperRareChance > 1 {
		return fmt.Errorf("%w: super-rare chance %v", ErrBadChance, p.SuperRareChance)
	}
	if p.RareChance+p.SuperRareChance > 1 {
		return fmt.Errorf("%w: rare + super-rare chance %v exceeds 1", ErrBadChance, p.RareChance+p.SuperRareChance)
	}

	seen := make(map[string]bool, p.Len())
	selectable := false
	for _, tier := range [...]Tier{TierNormal, TierRare, TierSuperRare} {
		total := 0.0
		for _, tmpl := range p.Tier(tier) {
			if tmpl.ID == "" {
				return fmt.Errorf("spawn: %s template with empty id", tier)
			}
			if seen[tmpl.ID] {
				return fmt.Errorf("%w: %q", ErrDuplicateTemplate, tmpl.ID)
			}
			seen[tmpl.ID] = true
			if tmpl.Tier != tier {
				return fmt.Errorf("spawn: template %q is %s but listed as %s", tmpl.ID, tmpl.Tier, tier)
			}
			if tmpl.Weight < 0 {
				return fmt.Errorf("%w: %q has weight %v", ErrNegativeWeight, tmpl.ID, tmpl.Weight)
			}
			total += tmpl.Weight
		}
		if tier == TierNormal && len(p.Normal) > 0 && total <= 0 {
			return fmt.Errorf("%w: normal weights sum to zero", ErrEmptyPool)
		}
		if total > 0 {
			selectable = true
		}
	}
	if !selectable {
		return ErrEmptyPool
	}
	return nil
}

// SelectOptions narrows a selection.
type SelectOptions struct {
	// Exclude is a template id that should not be returned again, unless it
	// is the only candidate left.
	Exclude string
	// NormalOnly skips the rarity roll and only considers the normal tier.
	NormalOnly bool
}

// RollTier maps a uniform draw u in [0, 1) to a tier.
func (p CandidatePool) RollTier(u float64) Tier {
	switch {
	case u < p.SuperRareChance:
		return TierSuperRare
	case u < p.SuperRareChance+p.RareChance:
		return TierRare
	default:
		return TierNormal
	}
}

// Select picks a template: a rarity roll chooses the tier, then a weighted
// draw chooses inside it. An empty tier falls back to the lower tiers first,
// then the higher ones. ErrEmptyPool is returned when nothing is selectable.
func Select(src RandomSource, pool CandidatePool, opts SelectOptions) (Template, error) {
	if opts.NormalOnly {
		if tmpl, ok := pickWeighted(src, pool.Normal, opts.Exclude); ok {
			return tmpl, nil
		}
		return Template{}, fmt.Errorf("%w: normal tier", ErrEmptyPool)
	}

	for _, tier := range fallbackOrder(pool.RollTier(src.Float64())) {
		if tmpl, ok := pickWeighted(src, pool.Tier(tier), opts.Exclude); ok {
			return tmpl, nil
		}
	}
	return Template{}, ErrEmptyPool
}

func fallbackOrder(t Tier) []Tier {
	switch t {
	case TierSuperRare:
		return []Tier{TierSuperRare, TierRare, TierNormal}
	case TierRare:
		return []Tier{TierRare, TierNormal, TierSuperRare}
	default:
		return []Tier{TierNormal, TierRare, TierSuperRare}
	}
}

// pickWeighted walks cumulative weights. The excluded id is left out of the
// draw; if it is the only positive candidate it is returned anyway.
func pickWeighted(src RandomSource, tier []Template, exclude string) (Template, bool) {
	total := 0.0
	excluded := -1
	for i, tmpl := range tier {
		if tmpl.Weight <= 0 {
			continue
		}
		if exclude != "" && tmpl.ID == exclude {
			excluded = i
			continue
		}
		total += tmpl.Weight
	}
	if total <= 0 {
		if excluded >= 0 {
			return tier[excluded], true
		}
		return Template{}, false
	}

	draw := src.Float64() * total
	acc := 0.0
	last := -1
	for i, tmpl := range tier {
		if tmpl.Weight <= 0 || i == excluded {
			continue
		}
		acc += tmpl.Weight
		last = i
		if draw < acc {
			return tmpl, true
		}
	}
	// float rounding can leave draw == total
	return tier[last], true
}

// PickIndex returns a uniform index in [0, n) different from last whenever
// n > 1. It returns -1 for n <= 0.
func PickIndex(src RandomSource, n, last int) int {
	switch {
	case n <= 0:
		return -1
	case n == 1:
		return 0
	case last < 0 || last >= n:
		return intn(src, n)
	}
	i := intn(src, n-1)
	if i >= last {
		i++
	}
	return i
}
