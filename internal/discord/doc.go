// Package discord implements the client side of Discord's local IPC
// protocol, enough to publish and clear rich presence activities.
//
// The desktop client listens on a unix socket (a named pipe on Windows)
// named discord-ipc-N. Frames are a little-endian opcode and length header
// followed by JSON. After a handshake identifying the application, activity
// updates are sent as SET_ACTIVITY commands and acknowledged by nonce.
package discord
