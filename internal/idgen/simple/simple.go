package simple

import (
	"context"
	"sync/atomic"
)

// Generator hands out increasing ids starting at 1. Safe for concurrent use.
type Generator struct {
	counter atomic.Int64
}

func New() *Generator {
	//nolint:exhaustruct
	return &Generator{}
}

// NewFrom continues numbering after last, e.g. the highest id already stored.
func NewFrom(last int) *Generator {
	g := New()
	g.counter.Store(int64(last))

	return g
}

func (g *Generator) GetID(_ context.Context) (int, error) {
	return int(g.counter.Add(1)), nil
}
