package logbook

import (
	"time"

	"climblog/internal/catalog"
)

const DateLayout = "2006-01-02"

// Log is one recorded attempt at a route. Completed logs are sends;
// the rest are projects.
type Log struct {
	ID        string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	RouteID   int       `json:"route_id"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes"`
	Rating    int       `json:"rating"`
	Completed bool      `json:"completed"`
	Photo     string    `json:"photo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a log together with the route it refers to.
type Entry struct {
	Log
	Route catalog.Route `json:"route"`
}

type Input struct {
	RouteID   int
	Date      time.Time
	Notes     string
	Rating    int
	Completed bool
	Photo     string
}
