// Command importroutes loads the reference route catalog from a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"climblog/internal/catalog"
	"climblog/internal/config"
	"climblog/internal/db"
	"climblog/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	var path string
	flag.StringVar(&path, "file", "routes.json", "JSON array of routes to import")
	flag.Parse()

	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	pg, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pg.Close()
	rdb := db.ConnectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	ctx := context.Background()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	n, err := importFile(ctx, catalog.NewService(pg, rdb), path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("import failed")
	}
	log.Info().Int("routes", n).Str("file", path).Msg("catalog imported")
}

func importFile(ctx context.Context, svc *catalog.Service, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return importRoutes(ctx, svc, f)
}

func importRoutes(ctx context.Context, svc *catalog.Service, r io.Reader) (int, error) {
	var routes []catalog.Route
	if err := json.NewDecoder(r).Decode(&routes); err != nil {
		return 0, fmt.Errorf("decode routes: %w", err)
	}
	for i, rt := range routes {
		if rt.Name == "" || rt.State == "" || rt.Area == "" {
			return 0, fmt.Errorf("route %d: name, state and area are required", i)
		}
	}
	return svc.Import(ctx, routes)
}
