package actor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTimeout is returned by Ask when no Reply arrives within the
// given timeout.
var ErrTimeout = errors.New("actor: ask timed out")

// ErrNotFound is returned by Ask when the target PID has no running
// actor.
var ErrNotFound = errors.New("actor: pid not found")

// Engine owns the set of running actors and routes messages between
// them.
type Engine struct {
	pidCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex
	stopping   atomic.Bool

	asksMu sync.Mutex
	asks   map[string]chan interface{}
	askSeq uint64

	// OnDrop, if set, is called whenever a mailbox is full or a PID is
	// unknown and a message had to be dropped. Defaults to a no-op;
	// callers typically wire this to their logger.
	OnDrop func(pid *PID, message interface{})
}

// NewEngine creates a ready-to-use actor engine.
func NewEngine() *Engine {
	return &Engine{
		actors: make(map[string]*process),
		asks:   make(map[string]chan interface{}),
	}
}

func (e *Engine) logDrop(pid *PID, msg interface{}) {
	if e.OnDrop != nil {
		e.OnDrop(pid, msg)
	}
}

// Spawn starts a new actor from props and returns its PID.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		return nil
	}

	id := atomic.AddUint64(&e.pidCounter, 1)
	pid := newPID(id)
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()
	e.Send(pid, Started{}, nil)
	return pid
}

// Send delivers message to pid without waiting for a response.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if pid == nil {
		return
	}
	_, isStopping := message.(Stopping)
	_, isStopped := message.(Stopped)
	_, isStarted := message.(Started)
	isSystem := isStopping || isStopped || isStarted

	if e.stopping.Load() && !isSystem {
		return
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if !ok {
		e.logDrop(pid, message)
		return
	}
	proc.sendEnvelope(&messageEnvelope{Sender: sender, Message: message})
}

// Ask delivers message to pid and blocks until the actor calls
// ctx.Reply, or timeout elapses.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	if pid == nil {
		return nil, ErrNotFound
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	requestID := e.newRequestID()
	reply := make(chan interface{}, 1)
	e.asksMu.Lock()
	e.asks[requestID] = reply
	e.asksMu.Unlock()
	defer func() {
		e.asksMu.Lock()
		delete(e.asks, requestID)
		e.asksMu.Unlock()
	}()

	proc.sendEnvelope(&messageEnvelope{Message: message, RequestID: requestID})

	select {
	case v := <-reply:
		return v, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// ResolveAsk delivers value to the pending Ask identified by
// requestID, if any is still waiting. Safe to call from any goroutine,
// including an actor's own Receive when it needs to reply to a
// request it deferred answering earlier (e.g. a turn barrier).
func (e *Engine) ResolveAsk(requestID string, value interface{}) {
	e.resolveAsk(requestID, value)
}

func (e *Engine) resolveAsk(requestID string, value interface{}) {
	e.asksMu.Lock()
	ch, ok := e.asks[requestID]
	e.asksMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- value:
	default:
	}
}

func (e *Engine) newRequestID() string {
	n := atomic.AddUint64(&e.askSeq, 1)
	return fmt.Sprintf("ask-%d", n)
}

// Stop asks the actor at pid to shut down. Stop does not block.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if !ok {
		return
	}
	e.Send(pid, Stopping{}, nil)
	select {
	case <-proc.stopCh:
	default:
		close(proc.stopCh)
	}
}

func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops every actor and waits up to timeout for them to
// finish.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	pids := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pids = append(pids, proc.pid)
	}
	e.mu.RUnlock()

	for _, pid := range pids {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}

	e.mu.Lock()
	e.actors = make(map[string]*process)
	e.mu.Unlock()
}
