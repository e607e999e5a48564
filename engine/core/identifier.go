package core

import "sync"

// IdentifierGenerator hands out monotonically increasing ids starting at 1.
// Ids are never reused within a process run; 0 stays free as the invalid id.
type IdentifierGenerator struct {
	mutex sync.Mutex
	last  uint32
}

func NewIdentifierGenerator() *IdentifierGenerator {
	return &IdentifierGenerator{}
}

func (g *IdentifierGenerator) AquireNewID() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.last++
	return g.last
}

// Last returns the most recently issued id, or 0.
func (g *IdentifierGenerator) Last() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.last
}
