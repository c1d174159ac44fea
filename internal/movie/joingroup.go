package movie

import "sync"

// joinGroup is a counter that must be incremented before a pipeline
// starts and decremented when it leaves, with a completion callback
// fired exactly once when the count returns to zero. A bare
// sync.WaitGroup can't carry that callback without a side channel, so
// this just adds one.
type joinGroup struct {
	mu       sync.Mutex
	count    int
	onDone   func()
	fired    bool
	anyAdded bool
}

// add increments the count. Must be called before the corresponding
// pipeline goroutine starts, never from inside it — increment-before-start
// avoids the group completing spuriously before every pipeline has joined.
func (g *joinGroup) add() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count++
	g.anyAdded = true
}

// leave decrements the count and fires onDone once it reaches zero.
func (g *joinGroup) leave() {
	g.mu.Lock()
	g.count--
	fire := g.count == 0 && g.anyAdded && !g.fired
	if fire {
		g.fired = true
	}
	cb := g.onDone
	g.mu.Unlock()

	if fire && cb != nil {
		cb()
	}
}
