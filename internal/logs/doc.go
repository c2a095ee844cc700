// Package logs reads the daemon's log file incrementally, with offset
// bookkeeping so clients can resume where they left off and optionally
// block for new lines. It backs the ipc log tail call and the cli logs
// command.
package logs
