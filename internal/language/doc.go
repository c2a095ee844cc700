// Package language normalizes the user's poster-language preference list and
// selects artwork candidates against it.
package language
