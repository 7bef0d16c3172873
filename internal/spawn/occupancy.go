package spawn

// OccupancyIndex is the set of slot indices whose state is not Empty.
// The pool updates it in the same pass that changes slot state.
type OccupancyIndex struct {
	occupied []bool
	count    int
}

func newOccupancyIndex(n int) *OccupancyIndex {
	return &OccupancyIndex{occupied: make([]bool, n)}
}

// Cap returns the number of slots tracked.
func (o *OccupancyIndex) Cap() int { return len(o.occupied) }

// Len returns the number of occupied slots.
func (o *OccupancyIndex) Len() int { return o.count }

// Contains reports whether slot i is occupied.
func (o *OccupancyIndex) Contains(i int) bool {
	return i >= 0 && i < len(o.occupied) && o.occupied[i]
}

// Indices returns the occupied slots in ascending order.
func (o *OccupancyIndex) Indices() []int {
	out := make([]int, 0, o.count)
	for i, on := range o.occupied {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// Free returns the unoccupied slots in ascending order.
func (o *OccupancyIndex) Free() []int {
	out := make([]int, 0, len(o.occupied)-o.count)
	for i, on := range o.occupied {
		if !on {
			out = append(out, i)
		}
	}
	return out
}

func (o *OccupancyIndex) occupy(i int) {
	if !o.occupied[i] {
		o.occupied[i] = true
		o.count++
	}
}

func (o *OccupancyIndex) release(i int) {
	if o.occupied[i] {
		o.occupied[i] = false
		o.count--
	}
}
