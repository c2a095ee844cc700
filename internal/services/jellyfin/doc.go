// Package jellyfin provides a minimal Jellyfin REST client covering the
// endpoints the presence mirror needs: account lookup, active sessions,
// server identity, and single-item metadata.
package jellyfin
