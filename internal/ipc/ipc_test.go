package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"marquee/internal/daemon"
	"marquee/internal/discord"
	"marquee/internal/ipc"
	"marquee/internal/logging"
	"marquee/internal/mirror"
	"marquee/internal/services/jellyfin"
	"marquee/internal/testsupport"
)

type idleJellyfin struct{}

func (idleJellyfin) ResolveUser(context.Context, string) (*jellyfin.User, error) {
	return &jellyfin.User{ID: "user-1", Name: "Alice"}, nil
}

func (idleJellyfin) Sessions(context.Context) ([]jellyfin.Session, error) {
	return nil, nil
}

func (idleJellyfin) SystemInfo(context.Context) (*jellyfin.SystemInfo, error) {
	return &jellyfin.SystemInfo{ServerName: "Den"}, nil
}

type idleConn struct{}

func (idleConn) SetActivity(context.Context, *discord.Activity) error { return nil }
func (idleConn) ClearActivity(context.Context) error                  { return nil }
func (idleConn) Close() error                                         { return nil }

func waitForStatus(t *testing.T, client *ipc.Client, what string, cond func(*ipc.StatusResponse) bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		status, err := client.Status()
		if err == nil && cond(status) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logPath := filepath.Join(cfg.Runtime.LogDir, "ipc-test.log")
	logger := logging.NewNop()
	engine := mirror.NewManager(cfg, mirror.Deps{
		Jellyfin: idleJellyfin{},
		Discord: func(context.Context) (mirror.PresenceConn, error) {
			return idleConn{}, nil
		},
	}, logger)
	d, err := daemon.New(cfg, engine, logger, "", logPath, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Runtime.LogDir, "marqueed.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping RPC failed: %v", err)
	}
	if ping.PID != os.Getpid() {
		t.Fatalf("unexpected pid %d", ping.PID)
	}

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.Version == "" {
		t.Fatal("expected a version in status")
	}
	if status.RefreshSeconds <= 0 {
		t.Fatalf("unexpected refresh seconds %d", status.RefreshSeconds)
	}

	waitForStatus(t, client, "discord connection", func(st *ipc.StatusResponse) bool {
		return st.MirrorActive && st.JellyfinConnected && st.DiscordConnected
	})

	refreshResp, err := client.Refresh()
	if err != nil {
		t.Fatalf("Refresh RPC failed: %v", err)
	}
	if !refreshResp.Scheduled {
		t.Fatalf("expected refresh to be scheduled, message=%s", refreshResp.Message)
	}

	clearResp, err := client.ClearPresence()
	if err != nil {
		t.Fatalf("ClearPresence RPC failed: %v", err)
	}
	if !clearResp.Cleared {
		t.Fatalf("expected presence to be cleared, message=%s", clearResp.Message)
	}

	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	logResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail initial failed: %v", err)
	}
	if len(logResp.Lines) != 2 || logResp.Lines[0] != "second" || logResp.Lines[1] != "third" {
		t.Fatalf("unexpected log tail response: %#v", logResp.Lines)
	}

	followDone := make(chan struct{})
	go func(offset int64) {
		resp, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Follow: true, WaitMillis: 500})
		if err != nil {
			t.Errorf("LogTail follow error: %v", err)
			return
		}
		if len(resp.Lines) != 1 || resp.Lines[0] != "fourth" {
			t.Errorf("unexpected follow lines: %#v", resp.Lines)
		}
		close(followDone)
	}(logResp.Offset)

	time.Sleep(100 * time.Millisecond)
	if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		_, _ = f.WriteString("fourth\n")
		_ = f.Close()
	} else {
		t.Fatalf("append log: %v", err)
	}

	select {
	case <-followDone:
	case <-time.After(10 * time.Second):
		t.Fatal("log tail follow timed out")
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected notification response: %#v", notifyResp)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}

	refreshStopped, err := client.Refresh()
	if err != nil {
		t.Fatalf("Refresh RPC failed: %v", err)
	}
	if refreshStopped.Scheduled {
		t.Fatal("expected refresh to be rejected while stopped")
	}
}
