// Package notifications publishes playback and error events to an ntfy
// topic when one is configured. Without a topic every notification is a
// silent no-op, so callers never need to branch on configuration.
package notifications
