package session

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/mapgen"
	"github.com/kipod/server/internal/observer"
	"github.com/kipod/server/internal/registry"
	"github.com/kipod/server/internal/wire"
)

func newTestServer(t *testing.T) (*actor.Engine, *registry.Registry) {
	t.Helper()
	eng := actor.NewEngine()
	t.Cleanup(func() { eng.Shutdown(time.Second) })
	cfg := config.Default()
	cfg.TickPeriod = 50 * time.Millisecond
	cfg.TurnTimeoutExtra = 200 * time.Millisecond
	reg := registry.New(eng, mapgen.NewProcedural(), nil, cfg, logrus.New())
	return eng, reg
}

func dialHandler(t *testing.T, eng *actor.Engine, reg *registry.Registry) (net.Conn, func()) {
	t.Helper()
	client, server := net.Pipe()
	obsFactory := func() *observer.Session { return observer.New(eng, config.Default(), mapgen.NewProcedural(), nil) }
	handlerFn := NewHandlerFunc(eng, reg, nil, config.Default(), logrus.New(), obsFactory)
	done := make(chan struct{})
	go func() {
		handlerFn(server)
		close(done)
	}()
	return client, func() {
		client.Close()
		<-done
	}
}

func roundTrip(t *testing.T, conn net.Conn, action wire.Action, payload interface{}) (wire.Result, []byte) {
	t.Helper()
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	require.NoError(t, wire.WriteRequest(conn, action, body))

	type frame struct {
		result  wire.Result
		payload []byte
	}
	respCh := make(chan frame, 1)
	errCh := make(chan error, 1)
	go func() {
		var header [8]byte
		if _, err := readFull(conn, header[:]); err != nil {
			errCh <- err
			return
		}
		result := wire.Result(le32(header[0:4]))
		n := le32(header[4:8])
		payload := make([]byte, n)
		if n > 0 {
			if _, err := readFull(conn, payload); err != nil {
				errCh <- err
				return
			}
		}
		respCh <- frame{result: result, payload: payload}
	}()

	select {
	case f := <-respCh:
		return f.result, f.payload
	case err := <-errCh:
		t.Fatalf("read response: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for response")
	}
	return 0, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestLoginThenMapSucceeds(t *testing.T) {
	eng, reg := newTestServer(t)
	conn, closeFn := dialHandler(t, eng, reg)
	defer closeFn()

	result, body := roundTrip(t, conn, wire.ActionLogin, loginRequest{Name: "ada", Game: "Game of Ada", NumPlayers: 1})
	require.Equal(t, wire.ResultOK, result)

	var player map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &player))
	assert.NotEmpty(t, player["idx"])

	result, _ = roundTrip(t, conn, wire.ActionMap, mapRequest{Layer: 0})
	assert.Equal(t, wire.ResultOK, result)
}

func TestMoveBeforeLoginIsAccessDenied(t *testing.T) {
	eng, reg := newTestServer(t)
	conn, closeFn := dialHandler(t, eng, reg)
	defer closeFn()

	result, _ := roundTrip(t, conn, wire.ActionMove, moveRequest{TrainIdx: 0, Speed: 1, LineIdx: 0})
	assert.Equal(t, wire.ResultAccessDenied, result)
}

func TestLoginWithMismatchedNumPlayersIsBadCommand(t *testing.T) {
	eng, reg := newTestServer(t)
	conn1, close1 := dialHandler(t, eng, reg)
	defer close1()
	conn2, close2 := dialHandler(t, eng, reg)
	defer close2()

	result, _ := roundTrip(t, conn1, wire.ActionLogin, loginRequest{Name: "ada", Game: "shared", NumPlayers: 2})
	require.Equal(t, wire.ResultOK, result)

	result, _ = roundTrip(t, conn2, wire.ActionLogin, loginRequest{Name: "bob", Game: "shared", NumPlayers: 3})
	assert.Equal(t, wire.ResultBadCommand, result)
}

func TestObserverListsGames(t *testing.T) {
	eng, reg := newTestServer(t)
	conn, closeFn := dialHandler(t, eng, reg)
	defer closeFn()

	result, _ := roundTrip(t, conn, wire.ActionObserver, nil)
	assert.Equal(t, wire.ResultOK, result)
}
