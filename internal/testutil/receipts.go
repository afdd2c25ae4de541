package testutil

import (
	"fmt"
	"sync"
)

// FixedGenerator issues predictable receipt ids: "<prefix>-1", "<prefix>-2",
// and so on, in order of first request. A ref seen before gets its earlier
// id back.
//
// The same scenario with a fresh FixedGenerator produces byte-identical
// transfer journals, which golden traces rely on.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	prefix string
	issued map[string]string
}

// NewFixedGenerator creates a generator. If prefix is empty, "receipt" is
// used.
func NewFixedGenerator(prefix string) *FixedGenerator {
	if prefix == "" {
		prefix = "receipt"
	}
	return &FixedGenerator{prefix: prefix, issued: make(map[string]string)}
}

// Generate returns the id for ref.
//
// Implements custody.ReceiptGenerator.
func (g *FixedGenerator) Generate(ref string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.issued[ref]; ok {
		return id
	}
	id := fmt.Sprintf("%s-%d", g.prefix, len(g.issued)+1)
	g.issued[ref] = id
	return id
}

// Issued returns how many distinct ids have been handed out.
func (g *FixedGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.issued)
}
