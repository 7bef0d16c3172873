package field

import (
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/tapfield/internal/config"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

func TestSimulateMole(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	res, err := Simulate("mole", SimOptions{Seconds: 20, TapsPerSecond: 4, Seed: 3})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if res.Taps < 78 || res.Taps > 80 {
		t.Errorf("taps = %d, want about 80", res.Taps)
	}
	if res.Captures == 0 || res.Score == 0 {
		t.Fatalf("nothing captured: %+v", res)
	}
	if res.ByTier[spawn.TierNormal] != res.Captures {
		t.Errorf("by tier = %v, mole only has normal rewards", res.ByTier)
	}
	if res.Captures > res.Taps-res.Misses {
		t.Errorf("%d captures from %d landed taps", res.Captures, res.Taps-res.Misses)
	}
}

func TestSimulateRepeatsWithSeed(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	opts := SimOptions{Seconds: 15, TapsPerSecond: 6, Seed: 11}
	a, err := Simulate("fossils", opts)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	b, err := Simulate("fossils", opts)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if a.Score != b.Score || a.Captures != b.Captures || a.Misses != b.Misses {
		t.Errorf("seeded runs differ: %+v vs %+v", a, b)
	}
}

func TestSimulateStopsAtRoundEnd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, _ := config.Default("mole")
	res, err := Simulate("mole", SimOptions{Seconds: cfg.Round.D().Seconds() + 30, TapsPerSecond: 1, Seed: 5})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	// one tick of slack for the rounding of the tick duration
	if res.Elapsed > cfg.Round.D()+time.Second/10 {
		t.Errorf("elapsed %v past the %v round", res.Elapsed, cfg.Round.D())
	}
}

func TestSimulateErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := Simulate("mole", SimOptions{}); err == nil {
		t.Error("zero duration accepted")
	}
	if _, err := Simulate("nope", SimOptions{Seconds: 1}); !errors.Is(err, config.ErrUnknownVariant) {
		t.Errorf("unknown variant error = %v", err)
	}
}
