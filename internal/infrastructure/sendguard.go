package infrastructure

import "sync"

// SendGuard serializes turns per session. A second send while one is in
// flight is rejected instead of queued, which keeps quota charging and
// message ordering simple.
type SendGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func NewSendGuard() *SendGuard {
	return &SendGuard{inFlight: make(map[string]bool)}
}

// TryAcquire marks the session busy. It returns false when a turn is already
// running for the session.
func (g *SendGuard) TryAcquire(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[sessionID] {
		return false
	}
	g.inFlight[sessionID] = true
	return true
}

// Release marks the session idle again.
func (g *SendGuard) Release(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, sessionID)
}
