// Package spawn implements the spawn-slot lifecycle engine: a fixed pool of
// slots whose occupants appear, wait to be pressed, play a capture, present
// a reward and respawn, all on deadlines driven by an external clock.
//
// A Pool is single-goroutine. Each Step first arbitrates the frame's presses,
// then applies timers, so a press always beats a same-frame expiry.
package spawn

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tapfield/internal/core"
)

// maxCascade bounds the transitions one slot may take in a single Step.
const maxCascade = 16

// Cue is handed to the Presenter on every transition.
type Cue struct {
	Slot       int
	State      State
	Entity     Entity
	HasEntity  bool
	Taps       int
	TapsNeeded int
	Pointer    core.PointerID
	// Score is set when State is StateDisplaying.
	Score int
	// Expired is set when an occupant timed out or left the playfield.
	Expired bool
}

// Presenter receives visual state changes.
type Presenter interface {
	PresentVisual(Cue)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Cue)

// PresentVisual calls f(c).
func (f PresenterFunc) PresentVisual(c Cue) { f(c) }

// SoundPlayer plays fire-and-forget sound cues.
type SoundPlayer interface {
	PlaySound(id string)
}

// SoundFunc adapts a function to SoundPlayer.
type SoundFunc func(string)

// PlaySound calls f(id).
func (f SoundFunc) PlaySound(id string) { f(id) }

// Option configures a Pool.
type Option func(*Pool)

// WithSource sets the random source (crypto-backed by default).
func WithSource(src RandomSource) Option {
	return func(p *Pool) { p.src = src }
}

// WithPresenter sets the visual collaborator.
func WithPresenter(pr Presenter) Option {
	return func(p *Pool) { p.presenter = pr }
}

// WithSoundPlayer sets the audio collaborator.
func WithSoundPlayer(s SoundPlayer) Option {
	return func(p *Pool) { p.sound = s }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *log.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithArbiter replaces the arbiter derived from Config.Exclusivity.
func WithArbiter(a Arbiter) Option {
	return func(p *Pool) { p.arbiter = a }
}

// Pool owns the slots and drives their lifecycle.
type Pool struct {
	cfg       Config
	slots     []*Slot
	occupancy *OccupancyIndex
	arbiter   Arbiter

	src       RandomSource
	presenter Presenter
	sound     SoundPlayer
	logger    *log.Logger

	now       time.Duration
	frame     uint64
	serial    uint64
	pace      float64
	nextSpawn time.Duration
	lastStorm time.Duration
	stormed   bool
	storm     int
	drops     []Drop
}

// New validates cfg and builds a pool with every slot Empty.
func New(cfg Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("spawn: invalid config: %w", err)
	}
	p := &Pool{
		cfg:       cfg,
		arbiter:   NewArbiter(cfg.Exclusivity),
		src:       DefaultSource(),
		presenter: PresenterFunc(func(Cue) {}),
		sound:     SoundFunc(func(string) {}),
		logger:    log.New(io.Discard),
		pace:      1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	p.logger.Debug("pool ready",
		"slots", len(p.slots),
		"templates", cfg.Candidates.Len(),
		"spawn", cfg.Spawn.Mode,
		"arbitration", cfg.Exclusivity)
	return p, nil
}

// Reset puts every slot back to Empty and rewinds the clock.
func (p *Pool) Reset() {
	p.slots = make([]*Slot, len(p.cfg.Positions))
	for i, pos := range p.cfg.Positions {
		p.slots[i] = newSlot(i, pos, p.cfg.Radius)
	}
	p.occupancy = newOccupancyIndex(len(p.slots))
	p.now = 0
	p.frame = 0
	p.nextSpawn = 0
	p.lastStorm = 0
	p.stormed = false
	p.storm = 0
	p.drops = nil

	if p.cfg.Spawn.Mode == SpawnImmediate && p.cfg.Timings.IdleGapMax > 0 {
		for _, s := range p.slots {
			s.deadline = p.idleGap()
		}
	}
}

// Now returns the pool clock.
func (p *Pool) Now() time.Duration { return p.now }

// Slots returns the slots in index order. Callers must not keep them across
// Reset.
func (p *Pool) Slots() []*Slot { return p.slots }

// Slot returns slot i.
func (p *Pool) Slot(i int) (*Slot, error) {
	if i < 0 || i >= len(p.slots) {
		return nil, fmt.Errorf("%w: %d", ErrSlotIndex, i)
	}
	return p.slots[i], nil
}

// Occupancy returns the occupancy index.
func (p *Pool) Occupancy() *OccupancyIndex { return p.occupancy }

// Config returns the configuration the pool was built with.
func (p *Pool) Config() Config { return p.cfg }

// Busy reports whether any slot is presenting a capture.
func (p *Pool) Busy() bool {
	for _, s := range p.slots {
		if s.Busy() {
			return true
		}
	}
	return false
}

// SetPace scales occupant lifetimes and the spawn interval: a pace of 2
// halves them. Only deadlines set afterwards are affected.
func (p *Pool) SetPace(f float64) {
	if f <= 0 {
		f = 1
	}
	p.pace = f
}

// Tick advances the clock by dt with no input.
func (p *Pool) Tick(dt time.Duration) {
	p.Step(dt, nil)
}

// Step runs one frame: advance the clock, arbitrate and commit presses,
// move mobile occupants, fire due deadlines, move released passengers, then
// let the spawner arm free slots. It returns the tickets of the batch.
func (p *Pool) Step(dt time.Duration, presses []core.Press) []ClaimTicket {
	if dt < 0 {
		dt = 0
	}
	p.frame++
	p.now += dt

	tickets := p.arbiter.Arbitrate(presses, p.slots)
	p.Commit(tickets)
	p.move(dt)
	for _, s := range p.slots {
		p.advance(s)
	}
	p.moveDrops()
	p.spawnPass()
	return tickets
}

// Commit applies claim tickets and returns how many took effect. A ticket
// whose slot changed generation or is no longer capturable is ignored, so
// committing the same tickets twice captures nothing the second time.
func (p *Pool) Commit(tickets []ClaimTicket) int {
	applied := 0
	for _, t := range tickets {
		if !t.Claimed() || t.Slot >= len(p.slots) {
			continue
		}
		s := p.slots[t.Slot]
		if s.gen != t.Generation || !s.Capturable(t.Pointer) {
			p.logger.Debug("stale claim ignored", "slot", t.Slot, "pointer", t.Pointer)
			continue
		}
		p.capture(s, t.Pointer)
		applied++
	}
	return applied
}

// OnSlotReadyForRespawn is the hand-back from a slot that finished fading
// out. It re-arms the slot with a fresh occupant or frees the position,
// depending on the spawn mode. It reports false when slot i is not
// Respawning.
func (p *Pool) OnSlotReadyForRespawn(i int) bool {
	if i < 0 || i >= len(p.slots) || p.slots[i].state != StateRespawning {
		return false
	}
	p.respawn(p.slots[i], p.now)
	return true
}

// Disable moves slot i to the terminal Disabled state.
func (p *Pool) Disable(i int) error {
	s, err := p.Slot(i)
	if err != nil {
		return err
	}
	p.disable(s, p.now)
	return nil
}

// Storm queues n spawns that ignore the spawn interval.
func (p *Pool) Storm(n int) {
	if n > 0 {
		p.storm += n
		p.logger.Debug("storm queued", "count", n)
	}
}

func (p *Pool) advance(s *Slot) {
	for range maxCascade {
		if s.state == StateCaptured && s.claimFrame == p.frame {
			return
		}
		if s.state == StateEmpty && s.deadline == noDeadline && p.cfg.Spawn.Mode == SpawnImmediate {
			p.arm(s, s.enteredAt)
			continue
		}
		if s.deadline == noDeadline || s.deadline > p.now {
			return
		}
		p.fire(s)
	}
	p.logger.Warn("slot transition cascade cut short", "slot", s.index, "state", s.state)
}

// fire applies the automatic transition of a due deadline. The new state is
// entered at the deadline, not at now, so timings do not drift with the
// frame rate.
func (p *Pool) fire(s *Slot) {
	at := s.deadline
	switch s.state {
	case StateEmpty:
		p.arm(s, at)
	case StateSpawning:
		p.enter(s, StateIdle, at, p.scaled(p.cfg.Timings.Lifetime))
	case StateIdle:
		p.expire(s, at)
	case StateCaptured:
		if s.taps >= s.policy.TapsNeeded() {
			p.enter(s, StateResolving, at, s.policy.Resolve)
		} else {
			p.enter(s, StateResolving, at, s.policy.TapWindow())
		}
	case StateResolving:
		if s.awaitingTaps() {
			p.lapse(s, at)
			return
		}
		p.enter(s, StateDisplaying, at, s.policy.Display)
		p.play(s.policy.RewardSound)
		p.release(s, at)
		p.logger.Debug("reward", "slot", s.index, "template", s.templateID(), "tier", s.occupant.Template.Tier, "pointer", s.owner)
	case StateDisplaying:
		p.enter(s, StateRespawning, at, p.cfg.Timings.Vanish+p.cfg.Timings.RespawnDelay)
	case StateRespawning:
		p.respawn(s, at)
	default:
		s.deadline = noDeadline
	}
}

func (p *Pool) capture(s *Slot, pointer core.PointerID) {
	s.taps++
	if s.owner == "" {
		s.owner = pointer
	}
	s.claimFrame = p.frame
	p.enter(s, StateCaptured, p.now, s.policy.Capture)
	p.play(s.policy.CaptureSound)
	p.logger.Debug("captured", "slot", s.index, "template", s.templateID(), "taps", s.taps, "pointer", pointer)
}

// lapse hands a multi-tap occupant whose tap window ran out back to Idle
// with its presses and owner cleared, so any pointer may start over.
func (p *Pool) lapse(s *Slot, at time.Duration) {
	p.logger.Debug("tap window lapsed", "slot", s.index, "template", s.templateID(), "taps", s.taps, "pointer", s.owner)
	s.taps = 0
	s.owner = ""
	p.enter(s, StateIdle, at, p.scaled(p.cfg.Timings.Lifetime))
}

// arm selects a new occupant for an empty slot and starts its appear phase.
func (p *Pool) arm(s *Slot, at time.Duration) {
	opts := SelectOptions{}
	if p.cfg.AvoidRepeat {
		opts.Exclude = s.last
	}
	if p.cfg.MaxRareActive > 0 && p.rareActive() >= p.cfg.MaxRareActive {
		opts.NormalOnly = true
	}
	tmpl, err := Select(p.src, p.cfg.Candidates, opts)
	if err != nil {
		// unreachable after Validate; retry later rather than spin
		p.logger.Error("select failed", "slot", s.index, "err", err)
		s.deadline = at + time.Second
		return
	}

	p.serial++
	s.occupant = &Entity{Template: tmpl, Serial: p.serial, Cargo: p.cargo(tmpl)}
	s.policy = p.cfg.Policies.For(tmpl)
	s.taps = 0
	s.owner = ""
	s.pos = s.home
	s.vel = core.Vec{}
	if p.cfg.Motion != nil {
		p.launch(s, tmpl)
	}
	p.occupancy.occupy(s.index)
	p.enter(s, StateSpawning, at, p.cfg.Timings.Appear)
	p.play(p.cfg.Sounds.Appear)
}

// expire clears an untouched occupant without a reward.
func (p *Pool) expire(s *Slot, at time.Duration) {
	p.logger.Debug("expired", "slot", s.index, "template", s.templateID())
	p.vacate(s, at, true)
	p.play(p.cfg.Sounds.Expire)
	p.rearm(s, at)
}

func (p *Pool) respawn(s *Slot, at time.Duration) {
	p.vacate(s, at, false)
	p.rearm(s, at)
}

// rearm gives an immediate pool's slot its next occupant right away unless
// an idle gap is pending.
func (p *Pool) rearm(s *Slot, at time.Duration) {
	if p.cfg.Spawn.Mode == SpawnImmediate && s.deadline == noDeadline {
		p.arm(s, at)
	}
}

// vacate releases the occupant. Immediate pools may schedule a random idle
// gap; interval pools leave the slot to the spawner.
func (p *Pool) vacate(s *Slot, at time.Duration, expired bool) {
	prev := s.occupant
	s.last = s.templateID()
	s.occupant = nil
	s.taps = 0
	s.owner = ""
	p.occupancy.release(s.index)

	after := noDeadline
	if p.cfg.Spawn.Mode == SpawnImmediate && p.cfg.Timings.IdleGapMax > 0 {
		after = p.idleGap()
	}
	s.state = StateEmpty
	s.enteredAt = at
	s.gen++
	s.deadline = noDeadline
	if after >= 0 {
		s.deadline = at + after
	}
	cue := Cue{Slot: s.index, State: StateEmpty, Expired: expired}
	if prev != nil {
		cue.Entity, cue.HasEntity = *prev, true
	}
	p.presenter.PresentVisual(cue)
}

func (p *Pool) disable(s *Slot, at time.Duration) {
	if s.state == StateDisabled {
		return
	}
	s.last = s.templateID()
	s.occupant = nil
	s.taps = 0
	s.owner = ""
	// still marked occupied so the spawner never picks it
	p.occupancy.occupy(s.index)
	p.enter(s, StateDisabled, at, noDeadline)
}

func (p *Pool) enter(s *Slot, state State, at, after time.Duration) {
	s.enter(state, at, after)
	cue := Cue{
		Slot:       s.index,
		State:      state,
		Taps:       s.taps,
		TapsNeeded: s.policy.TapsNeeded(),
		Pointer:    s.owner,
	}
	if s.occupant != nil {
		cue.Entity, cue.HasEntity = *s.occupant, true
	}
	if state == StateDisplaying {
		cue.Score = s.policy.Score
	}
	p.presenter.PresentVisual(cue)
}

func (p *Pool) play(id string) {
	if id != "" {
		p.sound.PlaySound(id)
	}
}

func (p *Pool) rareActive() int {
	n := 0
	for _, s := range p.slots {
		if s.occupant != nil && s.occupant.Template.Tier != TierNormal {
			n++
		}
	}
	return n
}

// active counts the slots holding an occupant. Disabled slots are excluded
// even though the occupancy index keeps them.
func (p *Pool) active() int {
	n := 0
	for _, s := range p.slots {
		if s.occupant != nil {
			n++
		}
	}
	return n
}

func (p *Pool) idleGap() time.Duration {
	return durationBetween(p.src, p.cfg.Timings.IdleGapMin, p.cfg.Timings.IdleGapMax)
}

func (p *Pool) scaled(d time.Duration) time.Duration {
	if d <= 0 {
		return noDeadline
	}
	return time.Duration(float64(d) / p.pace)
}

// spawnPass runs the interval spawner and drains queued storm spawns. A
// globally arbitrated pool spawns nothing while a capture is presented.
func (p *Pool) spawnPass() {
	if p.cfg.Exclusivity == ExclusiveGlobal && p.Busy() {
		return
	}
	rule := p.cfg.Spawn
	if rule.Mode == SpawnInterval && p.now >= p.nextSpawn {
		if p.active() < p.maxActive() {
			p.armRandomFree()
		}
		p.maybeStorm()
		p.nextSpawn = p.now + p.scaled(rule.Interval)
	}

	for p.storm > 0 {
		if !p.armRandomFree() {
			break
		}
		p.storm--
	}
}

func (p *Pool) maybeStorm() {
	rule := p.cfg.Spawn.Storm
	if rule.Chance <= 0 {
		return
	}
	if p.stormed && p.now-p.lastStorm < rule.Cooldown {
		return
	}
	if p.src.Float64() >= rule.Chance {
		return
	}
	p.stormed = true
	p.lastStorm = p.now
	p.Storm(rule.MinCount + intn(p.src, rule.MaxCount-rule.MinCount+1))
}

func (p *Pool) maxActive() int {
	if p.cfg.Spawn.MaxActive <= 0 || p.cfg.Spawn.MaxActive > len(p.slots) {
		return len(p.slots)
	}
	return p.cfg.Spawn.MaxActive
}

func (p *Pool) armRandomFree() bool {
	free := p.occupancy.Free()
	if len(free) == 0 {
		return false
	}
	s := p.slots[free[intn(p.src, len(free))]]
	p.arm(s, p.now)
	// an Appear of zero finishes in the same frame
	p.advance(s)
	return true
}
