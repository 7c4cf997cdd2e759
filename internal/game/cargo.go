/*
Package game
File: cargo.go
Description:
    Tracks how many pizzas the helicopter carries and keeps the visual tail
    of trailing pizzas in step with that count.
*/

package game

// Cargo is the carried-pizza counter. carried always stays within [0, capacity].
type Cargo struct {
	capacity int
	carried  int
	policy   PickupPolicy
}

func NewCargo(capacity int, policy PickupPolicy) *Cargo {
	if capacity < 0 {
		capacity = 0
	}
	return &Cargo{capacity: capacity, policy: policy}
}

func (c *Cargo) Carried() int  { return c.carried }
func (c *Cargo) Capacity() int { return c.capacity }
func (c *Cargo) Full() bool    { return c.carried >= c.capacity }

// Pickup applies one shop interaction and returns the number of pizzas gained.
// At full capacity it changes nothing and returns 0.
func (c *Cargo) Pickup() int {
	if c.Full() {
		return 0
	}
	before := c.carried
	switch c.policy {
	case PickupIncremental:
		c.carried++
	default:
		c.carried = c.capacity
	}
	return c.carried - before
}

// Unload removes n pizzas. It refuses (and changes nothing) when fewer are carried.
func (c *Cargo) Unload(n int) bool {
	if n < 0 || n > c.carried {
		return false
	}
	c.carried -= n
	return true
}

// Shortfall is how many more pizzas are needed to cover n.
func (c *Cargo) Shortfall(n int) int {
	if n <= c.carried {
		return 0
	}
	return n - c.carried
}

// Tail is the queue of pizza markers trailing the helicopter.
// Token i sits (i+1)*spacing path samples behind the carrier.
type Tail struct {
	world   WorldView
	spacing int
	tokens  []MarkerID
	path    []Coordinate // most recent sample first
}

func NewTail(world WorldView, spacing int) *Tail {
	if spacing < 1 {
		spacing = 1
	}
	return &Tail{world: world, spacing: spacing}
}

// Len returns the number of trailing tokens.
func (t *Tail) Len() int { return len(t.tokens) }

// Grow adds n tokens at the carrier's position.
func (t *Tail) Grow(n int, at Coordinate) {
	for i := 0; i < n; i++ {
		t.tokens = append(t.tokens, t.world.PlaceMarker(MarkerCargo, t.sample(len(t.tokens), at)))
	}
}

// Shrink removes the n most recently added tokens.
func (t *Tail) Shrink(n int) {
	for i := 0; i < n && len(t.tokens) > 0; i++ {
		last := len(t.tokens) - 1
		t.world.RemoveMarker(t.tokens[last])
		t.tokens = t.tokens[:last]
	}
}

// Follow records a new carrier position and drags the tokens along the path.
func (t *Tail) Follow(at Coordinate) {
	keep := (len(t.tokens) + 1) * t.spacing
	if keep < t.spacing {
		keep = t.spacing
	}
	t.path = append([]Coordinate{at}, t.path...)
	if len(t.path) > keep {
		t.path = t.path[:keep]
	}
	for i, id := range t.tokens {
		t.world.MoveMarker(id, t.sample(i, at))
	}
}

func (t *Tail) sample(i int, fallback Coordinate) Coordinate {
	if len(t.path) == 0 {
		return fallback
	}
	idx := (i + 1) * t.spacing
	if idx >= len(t.path) {
		idx = len(t.path) - 1
	}
	return t.path[idx]
}

// Clear removes every token.
func (t *Tail) Clear() {
	t.Shrink(len(t.tokens))
	t.path = nil
}
