// Package presence renders Jellyfin playback state into Discord activity
// payloads: the section lines, the activity verb, elapsed/remaining
// timestamps, and the artwork assets.
package presence
