package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"climblog/internal/catalog"

	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

const sample = `[
  {"route_id": 1, "name": "The Mandala", "v_grade": 12, "state": "California", "area": "Bishop",
   "latitude": 37.41, "longitude": -118.58, "url": "https://example.com/1"},
  {"name": "Bierstadt Arete", "v_grade": 5, "state": "Colorado", "area": "Mount Evans",
   "latitude": 39.58, "longitude": -105.64, "url": "https://example.com/2"}
]`

func TestImportFile(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(1, "The Mandala", 12, "California", "Bishop", 37.41, -118.58, "https://example.com/1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO routes \(name`).
		WithArgs("Bierstadt Arete", 5, "Colorado", "Mount Evans", 39.58, -105.64, "https://example.com/2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`setval`).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()

	path := filepath.Join(t.TempDir(), "routes.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	n, err := importFile(context.Background(), catalog.NewService(mock, nil), path)
	if err != nil || n != 2 {
		t.Fatalf("import: %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestImportRejectsIncompleteRoutes(t *testing.T) {
	mock := newMock(t)
	_, err := importRoutes(context.Background(), catalog.NewService(mock, nil), strings.NewReader(`[{"name":"x"}]`))
	if err == nil || !strings.Contains(err.Error(), "route 0") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImportBadJSON(t *testing.T) {
	if _, err := importRoutes(context.Background(), catalog.NewService(nil, nil), strings.NewReader(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := importFile(context.Background(), catalog.NewService(nil, nil), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected open error")
	}
}
