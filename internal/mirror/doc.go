// Package mirror contains the engine that keeps Discord rich presence in
// step with Jellyfin playback. It polls the server's session list on a
// fixed interval, renders the tracked user's playback into an activity,
// and only talks to Discord when the rendered state actually changed.
//
// Both upstream connections are supervised: a lost Jellyfin server is
// retried on the polling cadence, and a lost Discord client is redialed
// with the presence re-sent once the handshake succeeds. The engine stops
// on its own only for configuration problems, such as a username the
// server does not know.
package mirror
