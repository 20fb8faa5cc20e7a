package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type echoActor struct{}

func (echoActor) Receive(ctx Context) {
	switch msg := ctx.Message().(type) {
	case string:
		ctx.Reply("echo:" + msg)
	default:
		_ = msg
	}
}

func TestSendAndAsk(t *testing.T) {
	engine := NewEngine()
	pid := engine.Spawn(NewProps(func() Actor { return echoActor{} }))
	assert.NotNil(t, pid)

	reply, err := engine.Ask(pid, "hi", time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "echo:hi", reply)

	engine.Stop(pid)
	time.Sleep(20 * time.Millisecond)
	_, err = engine.Ask(pid, "hi", 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotFound)
}

type silentActor struct{}

func (silentActor) Receive(ctx Context) {}

func TestAskTimesOutWhenNoReply(t *testing.T) {
	engine := NewEngine()
	pid := engine.Spawn(NewProps(func() Actor { return silentActor{} }))
	_, err := engine.Ask(pid, "ping", 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestShutdownStopsAllActors(t *testing.T) {
	engine := NewEngine()
	p1 := engine.Spawn(NewProps(func() Actor { return silentActor{} }))
	p2 := engine.Spawn(NewProps(func() Actor { return silentActor{} }))
	assert.NotNil(t, p1)
	assert.NotNil(t, p2)

	engine.Shutdown(time.Second)
	assert.True(t, engine.stopping.Load())

	_, err := engine.Ask(p1, "ping", 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = engine.Ask(p2, "ping", 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotFound)
}
