//go:build !windows

package discord

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// socketCandidates lists every path a running Discord client may expose its
// IPC socket at: the platform temp directories plus the snap and flatpak
// sandbox subdirectories, each holding discord-ipc-0 through discord-ipc-9.
func socketCandidates() []string {
	var bases []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			bases = append(bases, dir)
		}
	}
	bases = append(bases, "/tmp")

	var dirs []string
	for _, base := range bases {
		dirs = append(dirs,
			base,
			filepath.Join(base, "snap.discord"),
			filepath.Join(base, "app", "com.discordapp.Discord"),
		)
	}

	paths := make([]string, 0, len(dirs)*10)
	for _, dir := range dirs {
		for i := 0; i < 10; i++ {
			paths = append(paths, filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i)))
		}
	}
	return paths
}

// dialTransport connects to the Discord client socket. When an explicit path
// is given only that path is tried.
func dialTransport(ctx context.Context, socketPath string) (net.Conn, error) {
	var dialer net.Dialer
	if socketPath != "" {
		return dialer.DialContext(ctx, "unix", socketPath)
	}

	var lastErr error
	for _, candidate := range socketCandidates() {
		conn, err := dialer.DialContext(ctx, "unix", candidate)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("no discord ipc socket found: %w", lastErr)
	}
	return nil, fmt.Errorf("no discord ipc socket found")
}
