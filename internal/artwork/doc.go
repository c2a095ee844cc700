// Package artwork resolves poster and cover images for playing media.
//
// Episodes and movies are looked up on TMDB using the provider ids Jellyfin
// carries, with an optional title search fallback. Music is looked up on
// MusicBrainz and the Cover Art Archive. Resolved art is cached in a JSON
// file so repeated playback of the same item does not re-query the upstream
// services.
package artwork
