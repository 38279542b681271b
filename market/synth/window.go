package synth

import (
	"sync"

	"github.com/rustyeddy/forexai/market"
)

// Window is a fixed-capacity candle sequence. Pushing onto a full window
// drops the oldest candle so the length never exceeds the capacity.
type Window struct {
	mu      sync.RWMutex
	cap     int
	candles []market.Candle
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{cap: capacity, candles: make([]market.Candle, 0, capacity)}
}

func (w *Window) Push(c market.Candle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.candles) == w.cap {
		copy(w.candles, w.candles[1:])
		w.candles[len(w.candles)-1] = c
		return
	}
	w.candles = append(w.candles, c)
}

// Reset replaces the contents, keeping only the newest cap candles.
func (w *Window) Reset(cs []market.Candle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(cs) > w.cap {
		cs = cs[len(cs)-w.cap:]
	}
	w.candles = append(w.candles[:0], cs...)
}

// Resize changes the capacity and trims the oldest candles if needed.
func (w *Window) Resize(capacity int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if capacity < 1 {
		capacity = 1
	}
	w.cap = capacity
	if len(w.candles) > capacity {
		w.candles = append([]market.Candle(nil), w.candles[len(w.candles)-capacity:]...)
	}
}

func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.candles)
}

func (w *Window) Cap() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cap
}

// Last returns the newest candle.
func (w *Window) Last() (market.Candle, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.candles) == 0 {
		return market.Candle{}, false
	}
	return w.candles[len(w.candles)-1], true
}

// Candles returns a copy of the window, oldest first.
func (w *Window) Candles() []market.Candle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]market.Candle(nil), w.candles...)
}
