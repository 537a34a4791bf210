package stats

import (
	"context"
	"fmt"
	"time"

	"climblog/internal/db"
	"climblog/internal/logbook"
	"climblog/internal/shared/markdown"
)

const (
	bubbleScale      = 23
	chartWindow      = 365 * 24 * time.Hour
	bubbleColor      = "rgba(170,102,14, 0.6)"
	bubbleHoverColor = "rgba(170,102,14, 0.8)"
)

// EntryLister yields a user's logs joined with their routes.
type EntryLister interface {
	ListForUser(ctx context.Context, userID string) ([]logbook.Entry, error)
}

type Service struct {
	db   db.Querier
	logs EntryLister
}

func NewService(q db.Querier, logs EntryLister) *Service {
	return &Service{db: q, logs: logs}
}

// Points sums grade+1 over the user's completed climbs, so a V0 send is worth one.
func (s *Service) Points(ctx context.Context, userID string) (int, error) {
	var points int
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(r.v_grade + 1), 0)::int
		FROM user_logs l
		JOIN routes r ON r.id = l.route_id
		WHERE l.user_id=$1 AND l.completed
	`, userID).Scan(&points)
	return points, err
}

func (s *Service) UserInfo(ctx context.Context, userID string) (UserInfo, error) {
	points, err := s.Points(ctx, userID)
	if err != nil {
		return UserInfo{}, err
	}
	entries, err := s.logs.ListForUser(ctx, userID)
	if err != nil {
		return UserInfo{}, err
	}

	info := UserInfo{
		Coordinates: map[string]LatLng{},
		ReviewInfo:  map[string]Review{},
		Map:         map[string]MapEntry{},
		Completed:   map[string][]any{},
		Projects:    map[string][]any{},
		UserPoints:  points,
	}
	for _, e := range entries {
		date := e.Date.Format(logbook.DateLayout)
		pos := LatLng{Lat: e.Route.Latitude, Lng: e.Route.Longitude}
		info.Coordinates[e.ID] = pos
		info.ReviewInfo[e.ID] = Review{Rating: e.Rating, NotesHTML: markdown.Render(e.Notes)}
		info.Map[e.ID] = MapEntry{
			Coordinates: pos,
			InfoWindow: []any{date, e.Route.Name, e.Route.Grade, e.Route.State, e.Route.Area,
				e.Photo, e.Route.URL, e.Route.Latitude, e.Route.Longitude},
		}
		tuple := []any{date, e.Route.Grade, e.Route.Name, e.Route.State, e.Route.Area, e.Notes}
		if e.Completed {
			info.Completed[e.ID] = tuple
		} else {
			info.Projects[e.ID] = append(tuple, e.ID)
		}
	}
	return info, nil
}

// MonthlySends groups completed climbs dated after since by month and grade.
func (s *Service) MonthlySends(ctx context.Context, userID string, since time.Time) ([]MonthGrade, error) {
	rows, err := s.db.Query(ctx, `
		SELECT EXTRACT(YEAR FROM l.date)::int, EXTRACT(MONTH FROM l.date)::int, r.v_grade, COUNT(*)::int
		FROM user_logs l
		JOIN routes r ON r.id = l.route_id
		WHERE l.user_id=$1 AND l.completed AND l.date > $2
		GROUP BY 1, 2, 3
		ORDER BY 1, 2, 3
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MonthGrade{}
	for rows.Next() {
		var m MonthGrade
		if err := rows.Scan(&m.Year, &m.Month, &m.Grade, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Chart builds the bubble chart for the twelve months before now.
func (s *Service) Chart(ctx context.Context, userID string, now time.Time) (Chart, error) {
	months, err := s.MonthlySends(ctx, userID, now.Add(-chartWindow))
	if err != nil {
		return Chart{}, err
	}
	chart := Chart{Datasets: make([]Dataset, 0, len(months))}
	for _, m := range months {
		chart.Datasets = append(chart.Datasets, Dataset{
			Label: fmt.Sprintf("V%d", m.Grade),
			Data: []Point{{
				X: fmt.Sprintf("%04d-%02d-01", m.Year, m.Month),
				Y: m.Grade,
				R: bubbleScale * m.Count,
			}},
			BackgroundColor:      bubbleColor,
			HoverBackgroundColor: bubbleHoverColor,
		})
	}
	return chart, nil
}
