package artwork

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"marquee/internal/language"
	"marquee/internal/logging"
	"marquee/internal/services/jellyfin"
)

// Asset keys of the images uploaded with the Discord application. They are
// used whenever no poster or cover could be resolved.
const (
	DefaultLargeImageKey = "large_image"
	SmallImageKey        = "small_image"
)

// Jellyfin provider id keys carrying external identifiers.
const (
	providerTMDB         = "Tmdb"
	providerTheMovieDB   = "TheMovieDb"
	providerReleaseGroup = "MusicBrainzReleaseGroup"
	providerRelease      = "MusicBrainzAlbum"
	providerTrack        = "MusicBrainzTrack"
)

const (
	tmdbSiteURL        = "https://www.themoviedb.org"
	musicbrainzSiteURL = "https://musicbrainz.org"
)

// Art carries the resolved image and click-through links for one item.
// LargeImage is a poster or cover URL; when empty the presence falls back to
// the bundled application asset.
type Art struct {
	LargeImage    string `json:"large_image,omitempty"`
	LargeImageURL string `json:"large_image_url,omitempty"`
	DetailsURL    string `json:"details_url,omitempty"`
	StateURL      string `json:"state_url,omitempty"`
}

// TMDBClient describes the TMDB operations the resolver uses.
type TMDBClient interface {
	SearchSeries(ctx context.Context, title string) (int64, error)
	SearchMovie(ctx context.Context, title string) (int64, error)
	SeriesPoster(ctx context.Context, seriesID int64, prefs language.Preferences) (string, error)
	SeasonPoster(ctx context.Context, seriesID int64, season int, prefs language.Preferences) (string, error)
	MoviePoster(ctx context.Context, movieID int64, prefs language.Preferences) (string, error)
}

// MusicSearcher describes the MusicBrainz operations the resolver uses.
type MusicSearcher interface {
	SearchReleaseGroup(ctx context.Context, artist, album string) (string, error)
}

// CoverSource describes the Cover Art Archive operations the resolver uses.
type CoverSource interface {
	ReleaseCover(ctx context.Context, releaseID string) (string, error)
	ReleaseGroupCover(ctx context.Context, groupID string) (string, error)
}

// ItemSource fetches library items, used to read series-level provider ids.
type ItemSource interface {
	Item(ctx context.Context, userID, itemID string) (*jellyfin.Item, error)
}

// Options holds the artwork selection toggles.
type Options struct {
	SeasonOverSeries bool
	ReleaseOverGroup bool
	FindBestMatch    bool
	Languages        language.Preferences
}

// Deps bundles the resolver's collaborators. TMDB may be nil when no API key
// is configured; movie and series art is skipped in that case.
type Deps struct {
	TMDB   TMDBClient
	Music  MusicSearcher
	Covers CoverSource
	Items  ItemSource
	Cache  *Cache
	Logger *slog.Logger
}

// Resolver turns a playing item into poster art and click-through links.
type Resolver struct {
	tmdb   TMDBClient
	music  MusicSearcher
	covers CoverSource
	items  ItemSource
	cache  *Cache
	opts   Options
	logger *slog.Logger
}

// NewResolver constructs an artwork resolver.
func NewResolver(deps Deps, opts Options) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	cache := deps.Cache
	if cache == nil {
		cache = NewCache("", nil)
	}
	return &Resolver{
		tmdb:   deps.TMDB,
		music:  deps.Music,
		covers: deps.Covers,
		items:  deps.Items,
		cache:  cache,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "artwork"),
	}
}

// Resolve returns the artwork for the playing item. Lookups degrade
// gracefully: any upstream failure is logged and yields the zero Art so the
// presence update still goes out with the default asset.
func (r *Resolver) Resolve(ctx context.Context, userID string, item *jellyfin.Item) Art {
	if r == nil || item == nil {
		return Art{}
	}
	if art, found := r.cache.Lookup(item.ID); found {
		return art
	}

	logger := logging.WithContext(ctx, r.logger)

	var art Art
	switch item.Type {
	case "Episode":
		art = r.resolveEpisode(ctx, logger, userID, item)
	case "Movie":
		art = r.resolveMovie(ctx, logger, item)
	case "Audio":
		art = r.resolveAudio(ctx, logger, item)
	}

	if art.LargeImage != "" {
		if err := r.cache.Store(item.ID, art); err != nil {
			logger.Warn("failed to persist artwork cache",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err))
		}
	}
	return art
}

// tmdbIDFromProviders reads the TMDB id under either of its provider keys.
func tmdbIDFromProviders(providers map[string]string) (int64, bool) {
	for _, key := range []string{providerTMDB, providerTheMovieDB} {
		raw, ok := providers[key]
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		return id, true
	}
	return 0, false
}

func (r *Resolver) resolveEpisode(ctx context.Context, logger *slog.Logger, userID string, item *jellyfin.Item) Art {
	if r.tmdb == nil {
		return Art{}
	}
	if item.SeriesID == "" {
		logger.Warn("no tmdb id found, skipping",
			logging.String(logging.FieldItemID, item.ID),
			logging.String("series", item.SeriesName))
		return Art{}
	}

	var tmdbID int64
	series, err := r.items.Item(ctx, userID, item.SeriesID)
	if err != nil {
		logger.Warn("series metadata lookup failed",
			logging.String(logging.FieldItemID, item.SeriesID),
			logging.Error(err))
		return Art{}
	}
	if id, ok := tmdbIDFromProviders(series.ProviderIDs); ok {
		tmdbID = id
	} else if r.opts.FindBestMatch && item.SeriesName != "" {
		logger.Warn("no tmdb id found, searching", logging.String("series", item.SeriesName))
		tmdbID, err = r.tmdb.SearchSeries(ctx, item.SeriesName)
		if err != nil {
			logger.Warn("tmdb search failed", logging.Error(err))
			return Art{}
		}
	} else {
		return Art{}
	}

	var art Art
	season := item.ParentIndexNumber
	posterURL := ""
	if r.opts.SeasonOverSeries && season != nil {
		posterURL, err = r.tmdb.SeasonPoster(ctx, tmdbID, *season, r.opts.Languages)
	} else {
		posterURL, err = r.tmdb.SeriesPoster(ctx, tmdbID, r.opts.Languages)
	}
	if err != nil {
		logger.Warn("no poster available on tmdb",
			logging.String("series", item.SeriesName),
			logging.Error(err))
	} else {
		art.LargeImage = posterURL
	}

	art.DetailsURL = fmt.Sprintf("%s/tv/%d", tmdbSiteURL, tmdbID)
	if season != nil {
		art.LargeImageURL = fmt.Sprintf("%s/season/%d", art.DetailsURL, *season)
		if item.IndexNumber != nil {
			art.StateURL = fmt.Sprintf("%s/season/%d/episode/%d", art.DetailsURL, *season, *item.IndexNumber)
		}
	}
	return art
}

func (r *Resolver) resolveMovie(ctx context.Context, logger *slog.Logger, item *jellyfin.Item) Art {
	if r.tmdb == nil {
		return Art{}
	}

	tmdbID, ok := tmdbIDFromProviders(item.ProviderIDs)
	if !ok {
		if !r.opts.FindBestMatch || item.Name == "" {
			return Art{}
		}
		logger.Warn("no tmdb id found, searching", logging.String("title", item.Name))
		id, err := r.tmdb.SearchMovie(ctx, item.Name)
		if err != nil {
			logger.Warn("tmdb search failed", logging.Error(err))
			return Art{}
		}
		tmdbID = id
	}

	var art Art
	posterURL, err := r.tmdb.MoviePoster(ctx, tmdbID, r.opts.Languages)
	if err != nil {
		logger.Warn("no poster available on tmdb",
			logging.String("title", item.Name),
			logging.Error(err))
	} else {
		art.LargeImage = posterURL
	}

	art.DetailsURL = fmt.Sprintf("%s/movie/%d", tmdbSiteURL, tmdbID)
	art.LargeImageURL = art.DetailsURL
	return art
}

func (r *Resolver) resolveAudio(ctx context.Context, logger *slog.Logger, item *jellyfin.Item) Art {
	groupID := item.ProviderIDs[providerReleaseGroup]
	if groupID == "" {
		if !r.opts.FindBestMatch || r.music == nil {
			return Art{}
		}
		if item.AlbumArtist == "" || item.Album == "" {
			logger.Warn("no musicbrainz id found, skipping",
				logging.String(logging.FieldItemID, item.ID),
				logging.String("track", item.Name))
			return Art{}
		}
		logger.Warn("no musicbrainz id found, searching",
			logging.String("artist", item.AlbumArtist),
			logging.String("album", item.Album))
		id, err := r.music.SearchReleaseGroup(ctx, item.AlbumArtist, item.Album)
		if err != nil {
			logger.Warn("musicbrainz search failed", logging.Error(err))
			return Art{}
		}
		groupID = id
	}

	releaseID := ""
	if r.opts.ReleaseOverGroup {
		releaseID = item.ProviderIDs[providerRelease]
	}

	var art Art
	if r.covers != nil {
		coverURL, err := r.fetchCover(ctx, groupID, releaseID)
		if err != nil {
			logger.Warn("no cover art available",
				logging.String("album", item.Album),
				logging.Error(err))
		} else {
			art.LargeImage = coverURL
		}
	}

	if trackID := item.ProviderIDs[providerTrack]; trackID != "" {
		art.DetailsURL = musicbrainzSiteURL + "/track/" + trackID
	}
	art.StateURL = musicbrainzSiteURL + "/release-group/" + groupID
	if releaseID != "" {
		art.LargeImageURL = musicbrainzSiteURL + "/release/" + releaseID
	} else {
		art.LargeImageURL = art.StateURL
	}
	return art
}

// fetchCover prefers release-specific art and falls back to the release
// group's art when the release has none.
func (r *Resolver) fetchCover(ctx context.Context, groupID, releaseID string) (string, error) {
	if releaseID != "" {
		coverURL, err := r.covers.ReleaseCover(ctx, releaseID)
		if err == nil {
			return coverURL, nil
		}
	}
	return r.covers.ReleaseGroupCover(ctx, groupID)
}
