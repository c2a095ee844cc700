package artwork_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"marquee/internal/artwork"
	"marquee/internal/language"
	"marquee/internal/services/jellyfin"
)

type fakeTMDB struct {
	searchSeriesCalls int
	searchMovieCalls  int
	seasonCalls       int
	seriesCalls       int
	movieCalls        int

	searchID  int64
	searchErr error
	posterURL string
	posterErr error

	lastSeriesID int64
	lastSeason   int
}

func (f *fakeTMDB) SearchSeries(ctx context.Context, title string) (int64, error) {
	f.searchSeriesCalls++
	return f.searchID, f.searchErr
}

func (f *fakeTMDB) SearchMovie(ctx context.Context, title string) (int64, error) {
	f.searchMovieCalls++
	return f.searchID, f.searchErr
}

func (f *fakeTMDB) SeriesPoster(ctx context.Context, seriesID int64, prefs language.Preferences) (string, error) {
	f.seriesCalls++
	f.lastSeriesID = seriesID
	return f.posterURL, f.posterErr
}

func (f *fakeTMDB) SeasonPoster(ctx context.Context, seriesID int64, season int, prefs language.Preferences) (string, error) {
	f.seasonCalls++
	f.lastSeriesID = seriesID
	f.lastSeason = season
	return f.posterURL, f.posterErr
}

func (f *fakeTMDB) MoviePoster(ctx context.Context, movieID int64, prefs language.Preferences) (string, error) {
	f.movieCalls++
	f.lastSeriesID = movieID
	return f.posterURL, f.posterErr
}

type fakeMusic struct {
	calls   int
	groupID string
	err     error
}

func (f *fakeMusic) SearchReleaseGroup(ctx context.Context, artist, album string) (string, error) {
	f.calls++
	return f.groupID, f.err
}

type fakeCovers struct {
	releaseCalls int
	groupCalls   int
	releaseURL   string
	releaseErr   error
	groupURL     string
	groupErr     error
}

func (f *fakeCovers) ReleaseCover(ctx context.Context, releaseID string) (string, error) {
	f.releaseCalls++
	return f.releaseURL, f.releaseErr
}

func (f *fakeCovers) ReleaseGroupCover(ctx context.Context, groupID string) (string, error) {
	f.groupCalls++
	return f.groupURL, f.groupErr
}

type fakeItems struct {
	calls int
	item  *jellyfin.Item
	err   error
}

func (f *fakeItems) Item(ctx context.Context, userID, itemID string) (*jellyfin.Item, error) {
	f.calls++
	return f.item, f.err
}

func intPtr(v int) *int { return &v }

func episodeItem() *jellyfin.Item {
	return &jellyfin.Item{
		ID:                "ep-1",
		Name:              "Pilot",
		Type:              "Episode",
		SeriesID:          "tv-1",
		SeriesName:        "Example Show",
		ParentIndexNumber: intPtr(2),
		IndexNumber:       intPtr(5),
	}
}

func TestResolveEpisodeUsesSeriesProviderID(t *testing.T) {
	tmdb := &fakeTMDB{posterURL: "https://img.example/poster.jpg"}
	items := &fakeItems{item: &jellyfin.Item{
		ID:          "tv-1",
		Type:        "Series",
		ProviderIDs: map[string]string{"Tmdb": "1399"},
	}}

	resolver := artwork.NewResolver(
		artwork.Deps{TMDB: tmdb, Items: items},
		artwork.Options{SeasonOverSeries: true, FindBestMatch: true},
	)

	art := resolver.Resolve(context.Background(), "u1", episodeItem())
	if tmdb.searchSeriesCalls != 0 {
		t.Fatal("expected no search when provider id present")
	}
	if tmdb.seasonCalls != 1 || tmdb.lastSeriesID != 1399 || tmdb.lastSeason != 2 {
		t.Fatalf("unexpected season poster call: %+v", tmdb)
	}
	if art.LargeImage != "https://img.example/poster.jpg" {
		t.Fatalf("unexpected large image: %q", art.LargeImage)
	}
	if art.DetailsURL != "https://www.themoviedb.org/tv/1399" {
		t.Fatalf("unexpected details url: %q", art.DetailsURL)
	}
	if art.LargeImageURL != "https://www.themoviedb.org/tv/1399/season/2" {
		t.Fatalf("unexpected large image url: %q", art.LargeImageURL)
	}
	if art.StateURL != "https://www.themoviedb.org/tv/1399/season/2/episode/5" {
		t.Fatalf("unexpected state url: %q", art.StateURL)
	}
}

func TestResolveEpisodeSearchesWhenProviderIDMissing(t *testing.T) {
	tmdb := &fakeTMDB{searchID: 42, posterURL: "https://img.example/poster.jpg"}
	items := &fakeItems{item: &jellyfin.Item{ID: "tv-1", Type: "Series", ProviderIDs: map[string]string{}}}

	resolver := artwork.NewResolver(
		artwork.Deps{TMDB: tmdb, Items: items},
		artwork.Options{FindBestMatch: true},
	)

	art := resolver.Resolve(context.Background(), "u1", episodeItem())
	if tmdb.searchSeriesCalls != 1 {
		t.Fatalf("expected one search, got %d", tmdb.searchSeriesCalls)
	}
	if tmdb.seriesCalls != 1 {
		t.Fatalf("expected series poster without season preference, got %+v", tmdb)
	}
	if art.DetailsURL != "https://www.themoviedb.org/tv/42" {
		t.Fatalf("unexpected details url: %q", art.DetailsURL)
	}
}

func TestResolveEpisodeNoSearchWhenDisabled(t *testing.T) {
	tmdb := &fakeTMDB{searchID: 42}
	items := &fakeItems{item: &jellyfin.Item{ID: "tv-1", Type: "Series"}}

	resolver := artwork.NewResolver(
		artwork.Deps{TMDB: tmdb, Items: items},
		artwork.Options{FindBestMatch: false},
	)

	art := resolver.Resolve(context.Background(), "u1", episodeItem())
	if tmdb.searchSeriesCalls != 0 {
		t.Fatal("expected no search when disabled")
	}
	if art != (artwork.Art{}) {
		t.Fatalf("expected empty art, got %+v", art)
	}
}

func TestResolveEpisodeWithoutSeasonUsesSeriesPoster(t *testing.T) {
	tmdb := &fakeTMDB{posterURL: "https://img.example/poster.jpg"}
	items := &fakeItems{item: &jellyfin.Item{
		ID:          "tv-1",
		Type:        "Series",
		ProviderIDs: map[string]string{"TheMovieDb": "7"},
	}}
	item := episodeItem()
	item.ParentIndexNumber = nil
	item.IndexNumber = nil

	resolver := artwork.NewResolver(
		artwork.Deps{TMDB: tmdb, Items: items},
		artwork.Options{SeasonOverSeries: true},
	)

	art := resolver.Resolve(context.Background(), "u1", item)
	if tmdb.seasonCalls != 0 || tmdb.seriesCalls != 1 {
		t.Fatalf("expected series poster when season unknown: %+v", tmdb)
	}
	if art.LargeImageURL != "" || art.StateURL != "" {
		t.Fatalf("expected no season links, got %+v", art)
	}
}

func TestResolveMovieUsesProviderID(t *testing.T) {
	tmdb := &fakeTMDB{posterURL: "https://img.example/movie.jpg"}

	resolver := artwork.NewResolver(artwork.Deps{TMDB: tmdb}, artwork.Options{})

	art := resolver.Resolve(context.Background(), "u1", &jellyfin.Item{
		ID:          "m-1",
		Name:        "Example Movie",
		Type:        "Movie",
		ProviderIDs: map[string]string{"Tmdb": "603"},
	})
	if tmdb.movieCalls != 1 || tmdb.lastSeriesID != 603 {
		t.Fatalf("unexpected movie poster call: %+v", tmdb)
	}
	if art.DetailsURL != "https://www.themoviedb.org/movie/603" || art.LargeImageURL != art.DetailsURL {
		t.Fatalf("unexpected urls: %+v", art)
	}
}

func TestResolveMovieWithoutTMDBClient(t *testing.T) {
	resolver := artwork.NewResolver(artwork.Deps{}, artwork.Options{FindBestMatch: true})

	art := resolver.Resolve(context.Background(), "u1", &jellyfin.Item{ID: "m-1", Name: "Movie", Type: "Movie"})
	if art != (artwork.Art{}) {
		t.Fatalf("expected empty art without tmdb client, got %+v", art)
	}
}

func audioItem() *jellyfin.Item {
	return &jellyfin.Item{
		ID:          "a-1",
		Name:        "Track",
		Type:        "Audio",
		AlbumArtist: "Band",
		Album:       "Album",
		ProviderIDs: map[string]string{
			"MusicBrainzReleaseGroup": "rg-1",
			"MusicBrainzAlbum":        "rel-1",
			"MusicBrainzTrack":        "tr-1",
		},
	}
}

func TestResolveAudioPrefersReleaseCover(t *testing.T) {
	covers := &fakeCovers{releaseURL: "https://archive.example/front.jpg"}
	music := &fakeMusic{}

	resolver := artwork.NewResolver(
		artwork.Deps{Music: music, Covers: covers},
		artwork.Options{ReleaseOverGroup: true, FindBestMatch: true},
	)

	art := resolver.Resolve(context.Background(), "u1", audioItem())
	if covers.releaseCalls != 1 || covers.groupCalls != 0 {
		t.Fatalf("unexpected cover calls: %+v", covers)
	}
	if music.calls != 0 {
		t.Fatal("expected no search when release group id present")
	}
	if art.LargeImage != "https://archive.example/front.jpg" {
		t.Fatalf("unexpected large image: %q", art.LargeImage)
	}
	if art.DetailsURL != "https://musicbrainz.org/track/tr-1" {
		t.Fatalf("unexpected details url: %q", art.DetailsURL)
	}
	if art.StateURL != "https://musicbrainz.org/release-group/rg-1" {
		t.Fatalf("unexpected state url: %q", art.StateURL)
	}
	if art.LargeImageURL != "https://musicbrainz.org/release/rel-1" {
		t.Fatalf("unexpected large image url: %q", art.LargeImageURL)
	}
}

func TestResolveAudioFallsBackToGroupCover(t *testing.T) {
	covers := &fakeCovers{
		releaseErr: errors.New("no front image"),
		groupURL:   "https://archive.example/group.jpg",
	}

	resolver := artwork.NewResolver(
		artwork.Deps{Covers: covers},
		artwork.Options{ReleaseOverGroup: true},
	)

	art := resolver.Resolve(context.Background(), "u1", audioItem())
	if covers.releaseCalls != 1 || covers.groupCalls != 1 {
		t.Fatalf("unexpected cover calls: %+v", covers)
	}
	if art.LargeImage != "https://archive.example/group.jpg" {
		t.Fatalf("unexpected large image: %q", art.LargeImage)
	}
}

func TestResolveAudioGroupOnly(t *testing.T) {
	covers := &fakeCovers{groupURL: "https://archive.example/group.jpg"}

	resolver := artwork.NewResolver(
		artwork.Deps{Covers: covers},
		artwork.Options{ReleaseOverGroup: false},
	)

	art := resolver.Resolve(context.Background(), "u1", audioItem())
	if covers.releaseCalls != 0 || covers.groupCalls != 1 {
		t.Fatalf("unexpected cover calls: %+v", covers)
	}
	if art.LargeImageURL != art.StateURL {
		t.Fatalf("expected large image link to match release group, got %+v", art)
	}
}

func TestResolveAudioSearchesWhenProviderIDMissing(t *testing.T) {
	music := &fakeMusic{groupID: "rg-9"}
	covers := &fakeCovers{groupURL: "https://archive.example/group.jpg"}

	resolver := artwork.NewResolver(
		artwork.Deps{Music: music, Covers: covers},
		artwork.Options{FindBestMatch: true},
	)

	art := resolver.Resolve(context.Background(), "u1", &jellyfin.Item{
		ID:          "a-2",
		Name:        "Track",
		Type:        "Audio",
		AlbumArtist: "Band",
		Album:       "Album",
	})
	if music.calls != 1 {
		t.Fatalf("expected one search, got %d", music.calls)
	}
	if art.StateURL != "https://musicbrainz.org/release-group/rg-9" {
		t.Fatalf("unexpected state url: %q", art.StateURL)
	}
}

func TestResolveReturnsCachedArtWithoutRequerying(t *testing.T) {
	tmdb := &fakeTMDB{posterURL: "https://img.example/movie.jpg"}
	cache := artwork.NewCache(filepath.Join(t.TempDir(), "artwork.json"), nil)

	resolver := artwork.NewResolver(artwork.Deps{TMDB: tmdb, Cache: cache}, artwork.Options{})
	item := &jellyfin.Item{ID: "m-1", Name: "Movie", Type: "Movie", ProviderIDs: map[string]string{"Tmdb": "603"}}

	first := resolver.Resolve(context.Background(), "u1", item)
	second := resolver.Resolve(context.Background(), "u1", item)
	if tmdb.movieCalls != 1 {
		t.Fatalf("expected one poster fetch, got %d", tmdb.movieCalls)
	}
	if first != second {
		t.Fatalf("expected identical art, got %+v vs %+v", first, second)
	}
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	tmdb := &fakeTMDB{posterErr: errors.New("tmdb down")}
	cache := artwork.NewCache(filepath.Join(t.TempDir(), "artwork.json"), nil)

	resolver := artwork.NewResolver(artwork.Deps{TMDB: tmdb, Cache: cache}, artwork.Options{})
	item := &jellyfin.Item{ID: "m-1", Name: "Movie", Type: "Movie", ProviderIDs: map[string]string{"Tmdb": "603"}}

	resolver.Resolve(context.Background(), "u1", item)
	resolver.Resolve(context.Background(), "u1", item)
	if tmdb.movieCalls != 2 {
		t.Fatalf("expected poster retry on next resolve, got %d calls", tmdb.movieCalls)
	}
}
