package player

import (
	"math"
	"strconv"
	"sync"
)

// Tempo holds the target speed and the ramp-up progress. The playback worker
// calls Next once per note while controllers call SetSpeed from elsewhere.
type Tempo struct {
	mu      sync.Mutex
	speed   float64
	steps   int
	floor   float64
	counter int
	ramping bool
}

// NewTempo creates a tempo controller. steps == 0 disables ramping.
func NewTempo(speed float64, steps int, floor float64) *Tempo {
	return &Tempo{speed: speed, steps: steps, floor: floor}
}

// SetSpeed replaces the target speed. Non-positive and NaN values are
// rejected and the old speed is kept.
func (t *Tempo) SetSpeed(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return invalidArgument("invalid speed "+strconv.FormatFloat(v, 'g', -1, 64),
			"Speed must be a positive number.")
	}
	t.mu.Lock()
	t.speed = v
	t.mu.Unlock()
	return nil
}

// Speed returns the target speed
func (t *Tempo) Speed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speed
}

// Retrigger restarts the ramp from step 0.
func (t *Tempo) Retrigger() {
	t.mu.Lock()
	t.counter = 0
	t.ramping = t.steps > 0
	t.mu.Unlock()
}

// StopRamp ends any ramp in progress.
func (t *Tempo) StopRamp() {
	t.mu.Lock()
	t.ramping = false
	t.mu.Unlock()
}

// Ramp reports the current ramp step and whether ramping is active.
func (t *Tempo) Ramp() (step int, ramping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counter, t.ramping
}

// Next returns the effective speed for the next note and advances the ramp.
func (t *Tempo) Next() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ramping || t.counter >= t.steps {
		return t.speed
	}
	factor := 0.5 + 0.5*float64(t.counter)/float64(t.steps)
	eff := math.Max(t.floor, t.speed*factor)
	t.counter++
	if t.counter >= t.steps {
		t.ramping = false
	}
	return eff
}
