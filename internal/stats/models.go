package stats

// LatLng is a map marker position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type MapEntry struct {
	Coordinates LatLng `json:"coordinates"`
	// InfoWindow is [date, name, grade, state, area, photo, url, lat, lng].
	InfoWindow []any `json:"info_window"`
}

// UserInfo is everything the dashboard renders, keyed by review id.
// Completed tuples are [date, grade, name, state, area, notes]; project
// tuples carry the review id as a seventh element.
type UserInfo struct {
	Coordinates map[string]LatLng   `json:"coordinates"`
	ReviewInfo  map[string]Review   `json:"review_info"`
	Map         map[string]MapEntry `json:"map"`
	Completed   map[string][]any    `json:"completed"`
	Projects    map[string][]any    `json:"projects"`
	UserPoints  int                 `json:"user_points"`
}

// Review is the user's own take on a climb, with notes rendered from markdown.
type Review struct {
	Rating    int    `json:"rating"`
	NotesHTML string `json:"notes_html"`
}

type Point struct {
	X string `json:"x"`
	Y int    `json:"y"`
	R int    `json:"r"`
}

type Dataset struct {
	Label                string  `json:"label"`
	Data                 []Point `json:"data"`
	BackgroundColor      string  `json:"backgroundColor"`
	HoverBackgroundColor string  `json:"hoverBackgroundColor"`
}

type Chart struct {
	Datasets []Dataset `json:"datasets"`
}

// MonthGrade counts completed climbs of one grade within one calendar month.
type MonthGrade struct {
	Year  int
	Month int
	Grade int
	Count int
}
