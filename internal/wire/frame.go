// Package wire implements the length-prefixed binary framing protocol
// described in spec §4.1/§6.1: every integer on the wire is a
// little-endian u32, and a payload (when present) is a UTF-8 JSON
// object whose contents are opaque to this package.
//
// There is no ecosystem framing library that fits a bespoke
// fixed-width binary protocol like this one better than
// encoding/binary plus io.ReadFull — both stdlib, and the only
// reasonable way to hand-roll a length-prefixed frame reader in Go.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxMessageLen bounds msg_len; a request or response claiming more
// than this many payload bytes is rejected outright (§4.1 "oversized
// msg_len -> reject the connection").
const MaxMessageLen = 16 << 20 // 16 MiB

// ErrOversizedMessage is returned when a frame's declared length
// exceeds MaxMessageLen.
var ErrOversizedMessage = errors.New("wire: message length exceeds limit")

// Request is one decoded client command.
type Request struct {
	Action  Action
	Payload []byte // always non-nil; "{}" when no length prefix was sent
}

// ReadRequest decodes one request frame from r. Partial reads are
// handled by io.ReadFull internally, so a caller fed a stream in
// arbitrarily small chunks (a real TCP socket) still assembles whole
// frames. Returns io.EOF (unwrapped) only when the stream ends
// exactly on a frame boundary — a quiet disconnect per §4.1.
func ReadRequest(r io.Reader) (Request, error) {
	var actionBuf [4]byte
	if _, err := io.ReadFull(r, actionBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, io.EOF
		}
		return Request{}, fmt.Errorf("wire: read action: %w", err)
	}
	action := Action(binary.LittleEndian.Uint32(actionBuf[:]))

	payload, err := readOptionalPayload(r, action.ToleratesMissingLength())
	if err != nil {
		return Request{}, err
	}
	return Request{Action: action, Payload: payload}, nil
}

// readOptionalPayload reads the msg_len/payload pair. When
// tolerateMissing is true and the stream ends right after the header
// that was already consumed by the caller, callers are expected to
// have supplied a length prefix of 0 anyway per §4.1's defensive
// behavior ("if no length prefix follows, treat the payload as {}");
// in this implementation every action always carries a length prefix
// on the wire (writers always emit one), so this path mainly guards
// against truncated frames from buggy or EOF'd peers.
func readOptionalPayload(r io.Reader, tolerateMissing bool) ([]byte, error) {
	var lenBuf [4]byte
	_, err := io.ReadFull(r, lenBuf[:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if tolerateMissing {
				return []byte("{}"), nil
			}
			return nil, io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("wire: read length: %w", err)
	}

	msgLen := binary.LittleEndian.Uint32(lenBuf[:])
	if msgLen == 0 {
		return []byte("{}"), nil
	}
	if msgLen > MaxMessageLen {
		return nil, ErrOversizedMessage
	}

	payload := make([]byte, msgLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read payload: %w", err)
	}
	return payload, nil
}

// WriteResponse encodes and writes one response frame to w.
func WriteResponse(w io.Writer, result Result, payload []byte) error {
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(result))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("wire: write payload: %w", err)
		}
	}
	return nil
}

// WriteRequest encodes a request frame. Used by tests to round-trip the
// codec without a real socket.
func WriteRequest(w io.Writer, action Action, payload []byte) error {
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(action))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("wire: write payload: %w", err)
		}
	}
	return nil
}
