package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, ActionMove, []byte(`{"train_idx":1}`)))

	req, err := ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, ActionMove, req.Action)
	assert.Equal(t, `{"train_idx":1}`, string(req.Payload))
}

func TestLogoutToleratesMissingLength(t *testing.T) {
	var buf bytes.Buffer
	_, err := buf.Write([]byte{2, 0, 0, 0}) // LOGOUT action, nothing else
	require.NoError(t, err)

	req, err := ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, ActionLogout, req.Action)
	assert.Equal(t, "{}", string(req.Payload))
}

func TestOversizedLengthRejected(t *testing.T) {
	var buf bytes.Buffer
	var header [8]byte
	header[0] = byte(ActionLogin)
	// msg_len far beyond MaxMessageLen
	header[4], header[5], header[6], header[7] = 0xff, 0xff, 0xff, 0x7f
	buf.Write(header[:])

	_, err := ReadRequest(&buf)
	assert.ErrorIs(t, err, ErrOversizedMessage)
}

func TestQuietDisconnectOnEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	_, err := ReadRequest(&buf)
	assert.ErrorIs(t, err, io.EOF)
}
