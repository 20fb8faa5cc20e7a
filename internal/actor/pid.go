// Package actor is a small actor engine: one mailbox goroutine per
// spawned actor, fire-and-forget Send, and a synchronous Ask/Reply
// round trip for request/response style commands. PID/Props/Engine
// keep the same shape regardless of what kind of actor is running
// behind them, so a game loop, a replay writer, or a connection
// handler can all be modeled as actors with Ask/Reply used for any
// caller expecting a direct response.
package actor

import "fmt"

// PID (Process ID) is a unique reference to a running actor.
type PID struct {
	ID string
}

func (p *PID) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.ID
}

func newPID(n uint64) *PID {
	return &PID{ID: fmt.Sprintf("actor-%d", n)}
}
