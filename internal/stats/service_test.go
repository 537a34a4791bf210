package stats

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"climblog/internal/catalog"
	"climblog/internal/logbook"

	"github.com/pashagolub/pgxmock/v3"
)

var errDB = errors.New("db error")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

type fakeLister struct {
	entries []logbook.Entry
	err     error
}

func (f fakeLister) ListForUser(_ context.Context, _ string) ([]logbook.Entry, error) {
	return f.entries, f.err
}

func sampleEntries() []logbook.Entry {
	route := catalog.Route{ID: 7, Name: "Midnight Lightning", Grade: 8, State: "California", Area: "Yosemite",
		Latitude: 37.74, Longitude: -119.6, URL: "https://example.com/7"}
	return []logbook.Entry{
		{
			Log: logbook.Log{ID: "log-1", RouteID: 7, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				Notes: "finally *sent*", Rating: 5, Completed: true, Photo: "ml.jpg"},
			Route: route,
		},
		{
			Log:   logbook.Log{ID: "log-2", RouteID: 7, Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), Notes: "close"},
			Route: route,
		},
	}
}

func TestPoints(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SUM\(r.v_grade \+ 1\)`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(12))

	points, err := NewService(mock, nil).Points(context.Background(), "user-1")
	if err != nil || points != 12 {
		t.Fatalf("points: %d %v", points, err)
	}
}

func TestUserInfo(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SUM\(r.v_grade \+ 1\)`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(9))

	info, err := NewService(mock, fakeLister{entries: sampleEntries()}).UserInfo(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("user info: %v", err)
	}
	if info.UserPoints != 9 {
		t.Fatalf("expected 9 points, got %d", info.UserPoints)
	}
	if len(info.Coordinates) != 2 || info.Coordinates["log-1"].Lat != 37.74 {
		t.Fatalf("unexpected coordinates %+v", info.Coordinates)
	}
	win := info.Map["log-1"].InfoWindow
	if len(win) != 9 || win[0] != "2024-05-01" || win[5] != "ml.jpg" {
		t.Fatalf("unexpected info window %v", win)
	}
	if c := info.Completed["log-1"]; len(c) != 6 || c[1] != 8 || c[5] != "finally *sent*" {
		t.Fatalf("unexpected completed tuple %v", c)
	}
	if p := info.Projects["log-2"]; len(p) != 7 || p[6] != "log-2" {
		t.Fatalf("unexpected project tuple %v", p)
	}
	if _, ok := info.Completed["log-2"]; ok {
		t.Fatalf("project listed as completed")
	}
	review := info.ReviewInfo["log-1"]
	if review.Rating != 5 || !strings.Contains(review.NotesHTML, "<em>sent</em>") {
		t.Fatalf("unexpected review info %+v", review)
	}
}

func TestUserInfoErrors(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SUM`).WithArgs("user-1").WillReturnError(errDB)
	if _, err := NewService(mock, fakeLister{}).UserInfo(context.Background(), "user-1"); !errors.Is(err, errDB) {
		t.Fatalf("expected db error, got %v", err)
	}

	mock.ExpectQuery(`SUM`).WithArgs("user-1").WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(0))
	if _, err := NewService(mock, fakeLister{err: errDB}).UserInfo(context.Background(), "user-1"); !errors.Is(err, errDB) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestChart(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	mock := newMock(t)
	mock.ExpectQuery(`GROUP BY 1, 2, 3`).
		WithArgs("user-1", now.Add(-chartWindow)).
		WillReturnRows(pgxmock.NewRows([]string{"year", "month", "grade", "count"}).
			AddRow(2024, 3, 4, 2).
			AddRow(2024, 5, 8, 1))

	chart, err := NewService(mock, nil).Chart(context.Background(), "user-1", now)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(chart.Datasets) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(chart.Datasets))
	}
	first := chart.Datasets[0]
	if first.Label != "V4" || first.Data[0] != (Point{X: "2024-03-01", Y: 4, R: 46}) {
		t.Fatalf("unexpected dataset %+v", first)
	}
	if first.BackgroundColor != "rgba(170,102,14, 0.6)" || first.HoverBackgroundColor != "rgba(170,102,14, 0.8)" {
		t.Fatalf("unexpected colors %+v", first)
	}
	if chart.Datasets[1].Data[0].R != 23 {
		t.Fatalf("expected single-send radius 23")
	}
}

func TestChartEmpty(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`GROUP BY`).
		WithArgs("user-1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"year", "month", "grade", "count"}))

	chart, err := NewService(mock, nil).Chart(context.Background(), "user-1", time.Now())
	if err != nil || chart.Datasets == nil || len(chart.Datasets) != 0 {
		t.Fatalf("expected empty datasets, got %+v %v", chart, err)
	}
}

func TestChartError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`GROUP BY`).WithArgs("user-1", pgxmock.AnyArg()).WillReturnError(errDB)

	if _, err := NewService(mock, nil).Chart(context.Background(), "user-1", time.Now()); !errors.Is(err, errDB) {
		t.Fatalf("expected db error, got %v", err)
	}
}
