package core

import (
	"math"
	"testing"
)

func TestCircleContains(t *testing.T) {
	c := Circle{Center: V(1, 1), R: 1.5}

	tests := []struct {
		name     string
		p        Vec
		expected bool
	}{
		{"center", V(1, 1), true},
		{"inside", V(2, 1.5), true},
		{"on edge", V(2.5, 1), true},
		{"just outside", V(2.51, 1), false},
		{"diagonal outside", V(2.1, 2.1), false},
		{"far away", V(-10, 4), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Contains(tc.p); got != tc.expected {
				t.Errorf("Contains(%v) = %v, expected %v", tc.p, got, tc.expected)
			}
		})
	}
}

func TestVecOps(t *testing.T) {
	a := V(3, 4)
	if a.Len() != 5 {
		t.Errorf("Len() = %f, expected 5", a.Len())
	}
	if got := a.Add(V(1, -1)); got != V(4, 3) {
		t.Errorf("Add() = %v", got)
	}
	if got := a.Sub(V(3, 4)); got != V(0, 0) {
		t.Errorf("Sub() = %v", got)
	}
	if got := a.Scale(0.5); got != V(1.5, 2) {
		t.Errorf("Scale() = %v", got)
	}
	if d := V(0, 0).Dist(V(0, -2)); math.Abs(d-2) > 1e-9 {
		t.Errorf("Dist() = %f, expected 2", d)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{MinX: -8, MinY: -5, MaxX: 8, MaxY: 5}

	if b.Width() != 16 || b.Height() != 10 {
		t.Errorf("size = %fx%f, expected 16x10", b.Width(), b.Height())
	}
	if !b.Contains(V(8, 5)) {
		t.Error("edge point should be contained")
	}
	if b.Contains(V(0, -6)) {
		t.Error("point below should not be contained")
	}
	if !b.Inflate(2).Contains(V(0, -6)) {
		t.Error("inflated bounds should contain the spawn line")
	}
	if b.Empty() {
		t.Error("bounds should not be empty")
	}
	if !(Bounds{}).Empty() {
		t.Error("zero bounds should be empty")
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 15)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"inside", 15, 15, true},
		{"top-left corner", 10, 10, true},
		{"bottom-right edge (exclusive)", 30, 25, false},
		{"outside left", 5, 15, false},
		{"outside bottom", 15, 30, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := r.Contains(tc.x, tc.y)
			if result != tc.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tc.x, tc.y, result, tc.expected)
			}
		})
	}
}

func TestRectInset(t *testing.T) {
	r := NewRect(0, 0, 10, 6).Inset(1)
	if r != NewRect(1, 1, 8, 4) {
		t.Errorf("Inset(1) = %+v", r)
	}
	if tiny := NewRect(0, 0, 1, 1).Inset(2); tiny.W != 0 || tiny.H != 0 {
		t.Errorf("Inset should not go negative, got %+v", tiny)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
	}

	for _, tc := range tests {
		if got := Clamp(tc.val, tc.lo, tc.hi); got != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.lo, tc.hi, got, tc.expected)
		}
	}
	if got := ClampF(-0.5, 0, 1); got != 0 {
		t.Errorf("ClampF(-0.5, 0, 1) = %f", got)
	}
}
