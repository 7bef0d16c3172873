package spawn

import "errors"

// Configuration errors. They are returned (wrapped) by New and
// CandidatePool.Validate; the engine never substitutes a default instead.
var (
	ErrNoSlots           = errors.New("spawn: pool has no slots")
	ErrEmptyPool         = errors.New("spawn: candidate pool has nothing to select")
	ErrNegativeWeight    = errors.New("spawn: negative template weight")
	ErrDuplicateTemplate = errors.New("spawn: duplicate template id")
	ErrBadChance         = errors.New("spawn: rarity chance out of range")
	ErrBadTiming         = errors.New("spawn: invalid duration")
	ErrBadGeometry       = errors.New("spawn: invalid geometry")
	ErrUnknownPolicy     = errors.New("spawn: unknown capture policy")
	ErrSlotIndex         = errors.New("spawn: slot index out of range")
)
