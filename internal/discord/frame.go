package discord

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Opcodes of the Discord local IPC protocol. Every frame on the socket is a
// little-endian opcode and payload length followed by a JSON body.
const (
	opHandshake uint32 = 0
	opFrame     uint32 = 1
	opClose     uint32 = 2
	opPing      uint32 = 3
	opPong      uint32 = 4
)

// maxFramePayload guards against reading absurd lengths from a socket that
// is not actually speaking the protocol.
const maxFramePayload = 1 << 20

var errFrameTooLarge = errors.New("frame payload exceeds limit")

func writeFrame(w io.Writer, opcode uint32, payload []byte) error {
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], opcode)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) (uint32, []byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}
	opcode := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFramePayload {
		return 0, nil, fmt.Errorf("opcode %d length %d: %w", opcode, length, errFrameTooLarge)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read frame payload: %w", err)
	}
	return opcode, payload, nil
}
