package presence

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"marquee/internal/artwork"
	"marquee/internal/discord"
	"marquee/internal/services/jellyfin"
)

// ticksPerSecond converts Jellyfin's 100ns ticks to seconds.
const ticksPerSecond = 10_000_000

// ErrUnsupportedMediaType reports an item type the mirror does not render.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ErrIncompleteItem reports an item missing a field the rendering needs.
var ErrIncompleteItem = errors.New("item missing required fields")

// Signature identifies a rendered presence; two updates with equal
// signatures look identical on Discord, so re-sending is skipped.
type Signature struct {
	Label  string
	Paused bool
}

// Update is a fully built presence change: the activity payload plus the
// bookkeeping the mirror uses for change detection and logging.
type Update struct {
	Activity  discord.Activity
	Label     string
	Signature Signature
	MediaType string
	ItemID    string
	Paused    bool
}

// Options adjusts how activities are rendered.
type Options struct {
	// ServerName overrides the activity name so the presence reads
	// "Watching <server>" instead of the application name.
	ServerName string

	// ShowJellyfinIcon adds the small Jellyfin badge to the activity card.
	ShowJellyfinIcon bool
}

// Build renders a playing item into a Discord activity. The artwork argument
// may be the zero value; the bundled application asset is used then.
func Build(item *jellyfin.Item, playState jellyfin.PlayState, art artwork.Art, opts Options, now time.Time) (*Update, error) {
	if item == nil {
		return nil, fmt.Errorf("nil item: %w", ErrIncompleteItem)
	}
	paused := playState.IsPaused

	var (
		activityType discord.ActivityType
		details      string
		state        string
		label        string
	)

	switch item.Type {
	case "Episode":
		activityType = discord.ActivityWatching
		if item.SeriesName == "" {
			return nil, fmt.Errorf("episode without series name: %w", ErrIncompleteItem)
		}
		if item.ParentIndexNumber == nil || item.IndexNumber == nil {
			return nil, fmt.Errorf("episode without season or episode number: %w", ErrIncompleteItem)
		}
		epcode := fmt.Sprintf("S%d:E%d", *item.ParentIndexNumber, *item.IndexNumber)
		details = item.SeriesName
		state = epcode + " - " + item.Name
		label = item.SeriesName + " " + epcode
	case "Movie":
		activityType = discord.ActivityWatching
		if item.Name == "" {
			return nil, fmt.Errorf("movie without name: %w", ErrIncompleteItem)
		}
		details = item.Name
		label = item.Name
	case "Audio":
		activityType = discord.ActivityListening
		if item.Name == "" {
			return nil, fmt.Errorf("track without name: %w", ErrIncompleteItem)
		}
		artists := strings.Join(item.Artists, ", ")
		switch {
		case artists != "" && item.Album != "":
			state = artists + " - " + item.Album
		case artists != "":
			state = artists
		case item.Album != "":
			state = item.Album
		}
		details = item.Name
		label = item.Name
		if state != "" {
			label += " by " + strings.SplitN(state, " - ", 2)[0]
		}
	default:
		return nil, fmt.Errorf("media type %q: %w", item.Type, ErrUnsupportedMediaType)
	}

	// Discord rejects detail lines shorter than two characters, which
	// single-glyph titles can produce.
	if utf8.RuneCountInString(details) < 2 {
		details += " "
	}

	largeImage := art.LargeImage
	if largeImage == "" {
		largeImage = artwork.DefaultLargeImageKey
	}
	assets := &discord.Assets{
		LargeImage: largeImage,
		LargeURL:   art.LargeImageURL,
	}
	if opts.ShowJellyfinIcon {
		assets.SmallImage = artwork.SmallImageKey
	}

	update := &Update{
		Activity: discord.Activity{
			Type:              activityType,
			Name:              opts.ServerName,
			Details:           details,
			DetailsURL:        art.DetailsURL,
			State:             state,
			StateURL:          art.StateURL,
			StatusDisplayType: discord.StatusDisplayDetails,
			Timestamps:        timestamps(playState, item.RunTimeTicks, now),
			Assets:            assets,
		},
		Label:     label,
		Signature: Signature{Label: label, Paused: paused},
		MediaType: item.Type,
		ItemID:    item.ID,
		Paused:    paused,
	}
	return update, nil
}

// timestamps derives the elapsed/remaining clock for the activity. Paused
// playback and items without a known runtime show no countdown.
func timestamps(playState jellyfin.PlayState, runtimeTicks int64, now time.Time) *discord.Timestamps {
	nowSec := now.Unix()
	if playState.IsPaused || runtimeTicks <= 0 {
		return &discord.Timestamps{Start: &nowSec}
	}
	start := nowSec - playState.PositionTicks/ticksPerSecond
	end := start + runtimeTicks/ticksPerSecond
	return &discord.Timestamps{Start: &start, End: &end}
}
