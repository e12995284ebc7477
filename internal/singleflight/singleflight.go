// Package singleflight coalesces concurrent calls that share a key.
package singleflight

import (
	"context"
	"sync"
)

// Group manages a set of in-flight calls to prevent duplicate work.
type Group struct {
	mu sync.Mutex
	m  map[string]*call
}

// call represents an active call. done is closed once val and err are set.
type call struct {
	done   chan struct{}
	val    interface{}
	err    error
	joined int
}

// New creates a new singleflight Group.
func New() *Group {
	return &Group{
		m: make(map[string]*call),
	}
}

// Do runs fn once per key among concurrent callers and hands its outcome to
// every caller still waiting. owner is true for the caller that started fn.
//
// fn runs on its own goroutine, so each caller waits only as long as its
// own ctx allows: on expiry Do returns ctx.Err() while fn keeps running for
// the others. fn must therefore bound itself. The key is released as soon
// as fn returns; a call arriving afterwards runs fn again.
func (g *Group) Do(ctx context.Context, key string, fn func() (interface{}, error)) (v interface{}, err error, owner bool) {
	g.mu.Lock()
	c, ok := g.m[key]
	if ok {
		c.joined++
	} else {
		c = &call{done: make(chan struct{})}
		g.m[key] = c
		go g.run(key, c, fn)
	}
	g.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.err, !ok
	case <-ctx.Done():
		return nil, ctx.Err(), !ok
	}
}

func (g *Group) run(key string, c *call, fn func() (interface{}, error)) {
	defer func() {
		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
		close(c.done)
	}()
	c.val, c.err = fn()
}

// Joined returns how many callers joined the in-flight call for key after
// it started, including any that have since given up waiting.
func (g *Group) Joined(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.m[key]; ok {
		return c.joined
	}
	return 0
}
