package catalog

// Route is a climbing route in the reference catalog. Grade is the V-scale number.
type Route struct {
	ID        int     `json:"route_id"`
	Name      string  `json:"name"`
	Grade     int     `json:"v_grade"`
	State     string  `json:"state"`
	Area      string  `json:"area"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	URL       string  `json:"url"`
}

// SearchResult feeds the cascading state → area → route selects.
// Each route is encoded as [grade, name, id].
type SearchResult struct {
	States []string `json:"states"`
	Areas  []string `json:"areas"`
	Routes [][]any  `json:"routes"`
}

type NearbyRoute struct {
	Route
	DistanceKm float64 `json:"distance_km"`
}
