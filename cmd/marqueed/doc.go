// Package main is the marqueed daemon entrypoint.
//
// It parses daemon flags, loads the configuration, and hands control to
// internal/daemonrun, which owns logging setup, engine wiring, the IPC
// control socket, and signal-driven shutdown. The marquee CLI launches this
// binary detached and talks to it over the socket.
package main
