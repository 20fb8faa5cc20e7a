package actor

// Context is handed to Actor.Receive for each message.
type Context interface {
	// Engine returns the engine hosting this actor.
	Engine() *Engine
	// Self returns this actor's own PID.
	Self() *PID
	// Sender returns the PID of whoever sent this message, if any.
	Sender() *PID
	// Message returns the message being processed.
	Message() interface{}
	// RequestID is non-empty when this message was sent via Ask and
	// expects a Reply.
	RequestID() string
	// Reply answers an Ask request. No-op if RequestID() is empty.
	Reply(message interface{})
}

type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
}

func (c *context) Engine() *Engine         { return c.engine }
func (c *context) Self() *PID              { return c.self }
func (c *context) Sender() *PID            { return c.sender }
func (c *context) Message() interface{}    { return c.message }
func (c *context) RequestID() string       { return c.requestID }

func (c *context) Reply(message interface{}) {
	if c.requestID == "" {
		return
	}
	c.engine.resolveAsk(c.requestID, message)
}
