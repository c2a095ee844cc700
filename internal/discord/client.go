package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"marquee/internal/logging"
)

// defaultTimeout bounds a single request/reply exchange when the caller's
// context carries no deadline.
const defaultTimeout = 5 * time.Second

// ErrNotConnected reports an operation on a closed client.
var ErrNotConnected = errors.New("discord client not connected")

type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

type reply struct {
	Cmd   string          `json:"cmd,omitempty"`
	Evt   string          `json:"evt,omitempty"`
	Nonce string          `json:"nonce,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type setActivityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

// Client is a connection to the local Discord desktop client. A Client is
// safe for use from multiple goroutines; requests are serialized on the
// single socket.
type Client struct {
	clientID   string
	socketPath string
	pid        int
	logger     *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// Option configures a Client before dialing.
type Option func(*Client)

// WithLogger attaches a logger for connection diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSocketPath pins the transport to one socket or pipe instead of probing
// the platform candidates.
func WithSocketPath(path string) Option {
	return func(c *Client) {
		c.socketPath = path
	}
}

// WithProcessID overrides the pid reported with activity updates.
func WithProcessID(pid int) Option {
	return func(c *Client) {
		if pid > 0 {
			c.pid = pid
		}
	}
}

// Dial connects to the Discord client and performs the protocol handshake.
func Dial(ctx context.Context, clientID string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.New("discord client id required")
	}
	c := &Client{
		clientID: clientID,
		pid:      os.Getpid(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "discord")

	conn, err := dialTransport(ctx, c.socketPath)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	if err := c.handshake(ctx); err != nil {
		conn.Close()
		c.conn = nil
		return nil, err
	}
	c.logger.Debug("connected to discord client",
		logging.String("client_id", c.clientID),
		logging.String("remote", conn.RemoteAddr().String()))
	return c, nil
}

// ClientID returns the application id the connection was dialed with.
func (c *Client) ClientID() string {
	return c.clientID
}

// ProbeSocket reports whether a Discord client transport is reachable. It
// dials without performing the handshake, so it never consumes an activity
// slot. An empty path scans the standard candidate locations.
func ProbeSocket(ctx context.Context, socketPath string) error {
	conn, err := dialTransport(ctx, socketPath)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *Client) setDeadline(ctx context.Context) error {
	deadline := time.Now().Add(defaultTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	return c.conn.SetDeadline(deadline)
}

func (c *Client) handshake(ctx context.Context) error {
	body, err := json.Marshal(struct {
		V        int    `json:"v"`
		ClientID string `json:"client_id"`
	}{V: 1, ClientID: c.clientID})
	if err != nil {
		return fmt.Errorf("marshal handshake: %w", err)
	}
	if err := c.setDeadline(ctx); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	if err := writeFrame(c.conn, opHandshake, body); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	for {
		opcode, data, err := readFrame(c.conn)
		if err != nil {
			return fmt.Errorf("read handshake reply: %w", err)
		}
		switch opcode {
		case opClose:
			return fmt.Errorf("discord closed the connection during handshake: %s", closeReason(data))
		case opPing:
			if err := writeFrame(c.conn, opPong, data); err != nil {
				return fmt.Errorf("answer ping: %w", err)
			}
		case opFrame:
			var rep reply
			if err := json.Unmarshal(data, &rep); err != nil {
				return fmt.Errorf("decode handshake reply: %w", err)
			}
			if rep.Evt == "ERROR" {
				return fmt.Errorf("handshake rejected: %s", closeReason(rep.Data))
			}
			if rep.Evt == "READY" {
				return nil
			}
		}
	}
}

// SetActivity publishes the activity as the user's rich presence. A nil
// activity clears the presence.
func (c *Client) SetActivity(ctx context.Context, activity *Activity) error {
	return c.roundTrip(ctx, setActivityArgs{PID: c.pid, Activity: activity})
}

// ClearActivity removes the rich presence for this application.
func (c *Client) ClearActivity(ctx context.Context) error {
	return c.roundTrip(ctx, setActivityArgs{PID: c.pid})
}

func (c *Client) roundTrip(ctx context.Context, args any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}

	nonce := uuid.NewString()
	body, err := json.Marshal(command{Cmd: "SET_ACTIVITY", Args: args, Nonce: nonce})
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	if err := c.setDeadline(ctx); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	if err := writeFrame(c.conn, opFrame, body); err != nil {
		return fmt.Errorf("send activity: %w", err)
	}
	for {
		opcode, data, err := readFrame(c.conn)
		if err != nil {
			return fmt.Errorf("read activity reply: %w", err)
		}
		switch opcode {
		case opClose:
			return fmt.Errorf("discord closed the connection: %s", closeReason(data))
		case opPing:
			if err := writeFrame(c.conn, opPong, data); err != nil {
				return fmt.Errorf("answer ping: %w", err)
			}
		case opFrame:
			var rep reply
			if err := json.Unmarshal(data, &rep); err != nil {
				return fmt.Errorf("decode activity reply: %w", err)
			}
			if rep.Nonce != nonce {
				// Unsolicited dispatch; keep waiting for our reply.
				continue
			}
			if rep.Evt == "ERROR" {
				return fmt.Errorf("set activity rejected: %s", closeReason(rep.Data))
			}
			return nil
		}
	}
}

// Close sends the protocol close frame and shuts the connection. Closing an
// already-closed client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.SetDeadline(time.Now().Add(time.Second))
	_ = writeFrame(c.conn, opClose, []byte("{}"))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func closeReason(data []byte) string {
	var v struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &v); err != nil || v.Message == "" {
		return strings.TrimSpace(string(data))
	}
	return fmt.Sprintf("%s (code %d)", v.Message, v.Code)
}
