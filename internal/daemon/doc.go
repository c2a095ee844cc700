// Package daemon coordinates the long-running marquee process.
//
// It wires configuration and the mirror engine into a single lifecycle with
// flock-based locking to prevent multiple instances, and exposes the
// refresh, clear, and notification-test operations the IPC layer serves.
//
// Keep orchestration logic here: the polling and presence semantics live in
// the mirror package while the daemon focuses on startup, shutdown, and
// status assembly.
package daemon
