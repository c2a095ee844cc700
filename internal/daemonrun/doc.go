// Package daemonrun assembles and runs the marqueed process: per-run log
// file with a stable marqueed.log pointer, retention cleanup, pid file,
// mirror engine construction, update checker, and the IPC control server.
// It blocks until SIGINT or SIGTERM.
package daemonrun
