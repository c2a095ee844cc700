//go:build !windows

package discord_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"marquee/internal/discord"
)

type wireHandshake struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

type wireCommand struct {
	Cmd   string `json:"cmd"`
	Nonce string `json:"nonce"`
	Args  struct {
		PID      int             `json:"pid"`
		Activity json.RawMessage `json:"activity"`
	} `json:"args"`
}

// fakeDiscord speaks just enough of the local IPC protocol to exercise the
// client: handshake, command acknowledgement by nonce, and error replies.
type fakeDiscord struct {
	socketPath      string
	rejectHandshake bool
	errorMessage    string

	handshakes chan wireHandshake
	commands   chan wireCommand
}

func startFakeDiscord(t *testing.T, configure ...func(*fakeDiscord)) *fakeDiscord {
	t.Helper()
	server := &fakeDiscord{
		socketPath: filepath.Join(t.TempDir(), "discord-ipc-0"),
		handshakes: make(chan wireHandshake, 4),
		commands:   make(chan wireCommand, 4),
	}
	for _, fn := range configure {
		fn(server)
	}

	listener, err := net.Listen("unix", server.socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go server.serve(conn)
		}
	}()
	return server
}

func (s *fakeDiscord) serve(conn net.Conn) {
	defer conn.Close()
	for {
		opcode, data, err := readRaw(conn)
		if err != nil {
			return
		}
		switch opcode {
		case 0:
			var hs wireHandshake
			if err := json.Unmarshal(data, &hs); err != nil {
				return
			}
			s.handshakes <- hs
			if s.rejectHandshake {
				_ = writeRaw(conn, 2, []byte(`{"code":4000,"message":"Invalid Client ID"}`))
				return
			}
			if err := writeRaw(conn, 1, []byte(`{"cmd":"DISPATCH","evt":"READY","data":{"v":1}}`)); err != nil {
				return
			}
		case 1:
			var cmd wireCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				return
			}
			s.commands <- cmd
			var body []byte
			if s.errorMessage != "" {
				body = []byte(fmt.Sprintf(`{"cmd":"SET_ACTIVITY","evt":"ERROR","nonce":%q,"data":{"code":4000,"message":%q}}`, cmd.Nonce, s.errorMessage))
			} else {
				body = []byte(fmt.Sprintf(`{"cmd":"SET_ACTIVITY","nonce":%q,"data":{}}`, cmd.Nonce))
			}
			if err := writeRaw(conn, 1, body); err != nil {
				return
			}
		case 2:
			return
		}
	}
}

func readRaw(r io.Reader) (uint32, []byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	length := binary.LittleEndian.Uint32(header[4:8])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return binary.LittleEndian.Uint32(header[0:4]), payload, nil
}

func writeRaw(w io.Writer, opcode uint32, payload []byte) error {
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], opcode)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func waitForCommand(t *testing.T, server *fakeDiscord) wireCommand {
	t.Helper()
	select {
	case cmd := <-server.commands:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
		return wireCommand{}
	}
}

func TestDialPerformsHandshake(t *testing.T) {
	server := startFakeDiscord(t)

	client, err := discord.Dial(context.Background(), "1238889120672120853",
		discord.WithSocketPath(server.socketPath))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case hs := <-server.handshakes:
		if hs.V != 1 || hs.ClientID != "1238889120672120853" {
			t.Fatalf("unexpected handshake: %+v", hs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake")
	}
}

func TestDialRejectedClientID(t *testing.T) {
	server := startFakeDiscord(t, func(s *fakeDiscord) { s.rejectHandshake = true })

	_, err := discord.Dial(context.Background(), "bad-id",
		discord.WithSocketPath(server.socketPath))
	if err == nil {
		t.Fatal("expected handshake rejection")
	}
	if !strings.Contains(err.Error(), "Invalid Client ID") {
		t.Fatalf("expected close reason in error, got %v", err)
	}
}

func TestSetActivitySendsPayload(t *testing.T) {
	server := startFakeDiscord(t)

	client, err := discord.Dial(context.Background(), "app-1",
		discord.WithSocketPath(server.socketPath),
		discord.WithProcessID(4242))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	start := int64(1700000000)
	end := start + 1800
	err = client.SetActivity(context.Background(), &discord.Activity{
		Type:              discord.ActivityWatching,
		Details:           "Example Show",
		State:             "S1:E2 - Pilot",
		StatusDisplayType: discord.StatusDisplayDetails,
		Timestamps:        &discord.Timestamps{Start: &start, End: &end},
		Assets:            &discord.Assets{LargeImage: "https://img.example/poster.jpg"},
	})
	if err != nil {
		t.Fatalf("SetActivity returned error: %v", err)
	}

	cmd := waitForCommand(t, server)
	if cmd.Cmd != "SET_ACTIVITY" {
		t.Fatalf("unexpected command: %q", cmd.Cmd)
	}
	if cmd.Nonce == "" {
		t.Fatal("expected a nonce")
	}
	if cmd.Args.PID != 4242 {
		t.Fatalf("unexpected pid: %d", cmd.Args.PID)
	}

	var activity map[string]any
	if err := json.Unmarshal(cmd.Args.Activity, &activity); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if activity["type"] != float64(3) {
		t.Fatalf("unexpected activity type: %v", activity["type"])
	}
	if activity["details"] != "Example Show" {
		t.Fatalf("unexpected details: %v", activity["details"])
	}
	if activity["status_display_type"] != float64(2) {
		t.Fatalf("unexpected status display type: %v", activity["status_display_type"])
	}
	timestamps, ok := activity["timestamps"].(map[string]any)
	if !ok || timestamps["start"] != float64(start) || timestamps["end"] != float64(end) {
		t.Fatalf("unexpected timestamps: %v", activity["timestamps"])
	}
}

func TestClearActivitySendsNullActivity(t *testing.T) {
	server := startFakeDiscord(t)

	client, err := discord.Dial(context.Background(), "app-1",
		discord.WithSocketPath(server.socketPath))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.ClearActivity(context.Background()); err != nil {
		t.Fatalf("ClearActivity returned error: %v", err)
	}

	cmd := waitForCommand(t, server)
	if string(cmd.Args.Activity) != "null" && len(cmd.Args.Activity) != 0 {
		t.Fatalf("expected null activity, got %s", cmd.Args.Activity)
	}
}

func TestSetActivityErrorReply(t *testing.T) {
	server := startFakeDiscord(t, func(s *fakeDiscord) { s.errorMessage = "child process gone" })

	client, err := discord.Dial(context.Background(), "app-1",
		discord.WithSocketPath(server.socketPath))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	err = client.SetActivity(context.Background(), &discord.Activity{Details: "x "})
	if err == nil {
		t.Fatal("expected error reply to surface")
	}
	if !strings.Contains(err.Error(), "child process gone") {
		t.Fatalf("expected server message in error, got %v", err)
	}
}

func TestOperationsAfterCloseFail(t *testing.T) {
	server := startFakeDiscord(t)

	client, err := discord.Dial(context.Background(), "app-1",
		discord.WithSocketPath(server.socketPath))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	if err := client.SetActivity(context.Background(), &discord.Activity{}); err == nil {
		t.Fatal("expected error on closed client")
	}
}
