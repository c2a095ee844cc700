package discord

// ActivityType selects the verb Discord renders before the activity name.
type ActivityType int

const (
	ActivityPlaying   ActivityType = 0
	ActivityListening ActivityType = 2
	ActivityWatching  ActivityType = 3
)

// StatusDisplayType selects which activity field Discord shows in the member
// list next to the user's name.
type StatusDisplayType int

const (
	StatusDisplayName    StatusDisplayType = 0
	StatusDisplayState   StatusDisplayType = 1
	StatusDisplayDetails StatusDisplayType = 2
)

// Timestamps carries unix epoch seconds bounding the activity. End is omitted
// for paused playback so Discord shows no countdown.
type Timestamps struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

// Assets names the images on the activity card. Large and small image accept
// either an asset key uploaded with the application or a full https URL.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	LargeURL   string `json:"large_url,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
	SmallURL   string `json:"small_url,omitempty"`
}

// Activity is the rich presence payload sent with SET_ACTIVITY.
type Activity struct {
	Type              ActivityType      `json:"type"`
	Name              string            `json:"name,omitempty"`
	Details           string            `json:"details,omitempty"`
	DetailsURL        string            `json:"details_url,omitempty"`
	State             string            `json:"state,omitempty"`
	StateURL          string            `json:"state_url,omitempty"`
	StatusDisplayType StatusDisplayType `json:"status_display_type"`
	Timestamps        *Timestamps       `json:"timestamps,omitempty"`
	Assets            *Assets           `json:"assets,omitempty"`
}
