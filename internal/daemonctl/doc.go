// Package daemonctl orchestrates the marqueed daemon process from the CLI:
// launching it detached, waiting for its control socket, requesting stop and
// escalating to a kill, and assembling the status snapshot shown by
// `marquee status` with an offline fallback when the daemon is down.
package daemonctl
