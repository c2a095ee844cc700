//go:build windows

package discord

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// dialTransport connects to the Discord client named pipe. When an explicit
// pipe name is given only that pipe is tried.
func dialTransport(ctx context.Context, pipeName string) (net.Conn, error) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if pipeName != "" {
		return winio.DialPipe(pipeName, &timeout)
	}

	var lastErr error
	for i := 0; i < 10; i++ {
		conn, err := winio.DialPipe(fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, i), &timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("no discord ipc pipe found: %w", lastErr)
}
