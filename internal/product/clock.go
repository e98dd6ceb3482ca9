package product

import "github.com/jonboulle/clockwork"

// clock stamps how/processed_at. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by Stamp. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
