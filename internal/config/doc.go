// Package config loads, validates, and provides access to Marquee
// configuration.
//
// The on-disk format is a single-section INI file compatible with the
// documented option names; legacy aliases (API_TOKEN, USERNAME) are accepted.
// Load applies defaults, expands paths, canonicalizes derived fields, and
// validates with actionable error messages.
package config
