package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"climblog/internal/db"
	"climblog/internal/shared/geo"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statesCacheKey = "catalog:states"
	statesCacheTTL = time.Hour
)

var ErrNotFound = errors.New("route not found")

type Service struct {
	db    db.Querier
	cache *redis.Client
}

// NewService builds a catalog over q. cache may be nil.
func NewService(q db.Querier, cache *redis.Client) *Service {
	return &Service{db: q, cache: cache}
}

func (s *Service) States(ctx context.Context) ([]string, error) {
	if states, ok := s.cachedStates(ctx); ok {
		return states, nil
	}
	states, err := s.distinct(ctx, `SELECT DISTINCT state FROM routes ORDER BY state`)
	if err != nil {
		return nil, err
	}
	s.storeStates(ctx, states)
	return states, nil
}

func (s *Service) Areas(ctx context.Context, state string) ([]string, error) {
	if state == "" {
		return []string{}, nil
	}
	return s.distinct(ctx, `SELECT DISTINCT area FROM routes WHERE state=$1 ORDER BY area`, state)
}

func (s *Service) Routes(ctx context.Context, area string) ([]Route, error) {
	if area == "" {
		return []Route{}, nil
	}
	return s.queryRoutes(ctx, `
		SELECT id, name, v_grade, state, area, latitude, longitude, url
		FROM routes WHERE area=$1
		ORDER BY v_grade, name, id
	`, area)
}

// Search answers one step of the state → area → route drill-down. Empty
// filters produce empty lists.
func (s *Service) Search(ctx context.Context, state, area string) (SearchResult, error) {
	states, err := s.States(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	areas, err := s.Areas(ctx, state)
	if err != nil {
		return SearchResult{}, err
	}
	routes, err := s.Routes(ctx, area)
	if err != nil {
		return SearchResult{}, err
	}

	res := SearchResult{States: states, Areas: areas, Routes: make([][]any, 0, len(routes))}
	for _, r := range routes {
		res.Routes = append(res.Routes, []any{r.Grade, r.Name, r.ID})
	}
	return res, nil
}

func (s *Service) GetRoute(ctx context.Context, id int) (Route, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, v_grade, state, area, latitude, longitude, url
		FROM routes WHERE id=$1
	`, id)
	var r Route
	if err := row.Scan(&r.ID, &r.Name, &r.Grade, &r.State, &r.Area, &r.Latitude, &r.Longitude, &r.URL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Route{}, ErrNotFound
		}
		return Route{}, err
	}
	return r, nil
}

// Nearby lists routes within radiusKm of the point, closest first.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyRoute, error) {
	minLat, minLng, maxLat, maxLng := geo.BoundingBox(lat, lng, radiusKm)
	candidates, err := s.queryRoutes(ctx, `
		SELECT id, name, v_grade, state, area, latitude, longitude, url
		FROM routes
		WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
	`, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, err
	}

	results := make([]NearbyRoute, 0, len(candidates))
	for _, r := range candidates {
		d := geo.HaversineKm(lat, lng, r.Latitude, r.Longitude)
		if d <= radiusKm {
			results = append(results, NearbyRoute{Route: r, DistanceKm: d})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
	return results, nil
}

// Import upserts reference routes in a single transaction. Routes with an
// ID replace the stored row.
func (s *Service) Import(ctx context.Context, routes []Route) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range routes {
		if r.ID > 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO routes (id, name, v_grade, state, area, latitude, longitude, url)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
				ON CONFLICT (id) DO UPDATE
				SET name=EXCLUDED.name, v_grade=EXCLUDED.v_grade, state=EXCLUDED.state, area=EXCLUDED.area,
				    latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude, url=EXCLUDED.url
			`, r.ID, r.Name, r.Grade, r.State, r.Area, r.Latitude, r.Longitude, r.URL)
		} else {
			_, err = tx.Exec(ctx, `
				INSERT INTO routes (name, v_grade, state, area, latitude, longitude, url)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, r.Name, r.Grade, r.State, r.Area, r.Latitude, r.Longitude, r.URL)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, err
		}
	}
	// Explicit ids bypass the serial sequence; move it past them.
	if _, err := tx.Exec(ctx, `
		SELECT setval(pg_get_serial_sequence('routes', 'id'), COALESCE((SELECT MAX(id) FROM routes), 1))
	`); err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, statesCacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("could not invalidate catalog cache")
		}
	}
	return len(routes), nil
}

func (s *Service) distinct(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Service) queryRoutes(ctx context.Context, sql string, args ...any) ([]Route, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := []Route{}
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.Name, &r.Grade, &r.State, &r.Area, &r.Latitude, &r.Longitude, &r.URL); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (s *Service) cachedStates(ctx context.Context) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, statesCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("catalog cache read failed")
		}
		return nil, false
	}
	var states []string
	if err := json.Unmarshal(raw, &states); err != nil {
		return nil, false
	}
	return states, true
}

func (s *Service) storeStates(ctx context.Context, states []string) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(states)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statesCacheKey, raw, statesCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("catalog cache write failed")
	}
}
