package actor

import (
	"fmt"
	"runtime/debug"
)

const defaultMailboxSize = 1024

// process is the running instance of a spawned actor: its own
// goroutine, draining its own mailbox in order.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	mailbox chan *messageEnvelope
	props   *Props
	stopCh  chan struct{}
	stopped bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, defaultMailboxSize),
		stopCh:  make(chan struct{}),
	}
}

func (p *process) sendEnvelope(env *messageEnvelope) {
	select {
	case p.mailbox <- env:
	default:
		p.engine.logDrop(p.pid, env.Message)
	}
}

func (p *process) run() {
	defer func() {
		p.stopped = true
		p.invokeReceive(Stopped{}, nil, "")
		p.engine.remove(p.pid)
	}()

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("actor %s panicked: %v\n%s\n", p.pid.ID, r, debug.Stack())
			p.stopped = true
		}
	}()

	p.actor = p.props.produce()
	if p.actor == nil {
		panic(fmt.Sprintf("actor %s: producer returned nil actor", p.pid.ID))
	}

	for {
		select {
		case <-p.stopCh:
			if !p.stopped {
				p.stopped = true
				p.invokeReceive(Stopping{}, nil, "")
			}
			return
		case env := <-p.mailbox:
			if p.stopped {
				continue
			}
			switch msg := env.Message.(type) {
			case Started:
				p.invokeReceive(msg, env.Sender, env.RequestID)
			case Stopping:
				p.stopped = true
				p.invokeReceive(msg, env.Sender, env.RequestID)
				select {
				case <-p.stopCh:
				default:
					close(p.stopCh)
				}
			default:
				p.invokeReceive(env.Message, env.Sender, env.RequestID)
			}
		}
	}
}

func (p *process) invokeReceive(msg interface{}, sender *PID, requestID string) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    sender,
		message:   msg,
		requestID: requestID,
	}
	p.actor.Receive(ctx)
}
