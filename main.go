package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Trip-Planner/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Trip-Planner/agent/agents/travel"
	llmx "github.com/tanpawarit/Chative-Trip-Planner/agent/llm"
	"github.com/tanpawarit/Chative-Trip-Planner/agent/lodging"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
	storagex "github.com/tanpawarit/Chative-Trip-Planner/agent/storage"
	"github.com/tanpawarit/Chative-Trip-Planner/api"
	configx "github.com/tanpawarit/Chative-Trip-Planner/pkg/config"
	_ "github.com/tanpawarit/Chative-Trip-Planner/pkg/logger/autoload"
)

type AppConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	StoreBackend    string        `envconfig:"STORE_BACKEND" default:"file"`
	LodgingTimeout  time.Duration `envconfig:"LODGING_TIMEOUT" default:"45s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

func (c *AppConfig) Validate() error {
	switch strings.ToLower(c.StoreBackend) {
	case "file", "postgres", "sqlite":
		return nil
	default:
		return fmt.Errorf("STORE_BACKEND must be file, postgres or sqlite, got %q", c.StoreBackend)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")

	agents, err := travel.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build travel agents")
	}

	itineraries, closeStore, err := openItineraryStore(ctx, appCfg.StoreBackend)
	if err != nil {
		log.Fatal().Err(err).Str("backend", appCfg.StoreBackend).Msg("failed to open itinerary store")
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("closing itinerary store")
		}
	}()

	opts := []orchestrator.Option{orchestrator.WithItineraryStore(itineraries)}
	if sessions := openSessionStore(); sessions != nil {
		opts = append(opts, orchestrator.WithSessionStore(sessions))
	}
	if searcher, cities := openLodging(); searcher != nil {
		opts = append(opts, orchestrator.WithLodging(searcher, cities, appCfg.LodgingTimeout))
	}

	planner, err := orchestrator.New(agents, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	srv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           api.NewRouter(planner),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("backend", appCfg.StoreBackend).Msg("trip planner listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("trip planner stopped")
}

func openItineraryStore(ctx context.Context, backend string) (storagex.ItineraryStore, func() error, error) {
	noClose := func() error { return nil }

	switch strings.ToLower(backend) {
	case "postgres", "sqlite":
		sqlCfg := configx.MustNew[storagex.SQLConfig]("ITINERARY_DB")
		open := storagex.OpenPostgres
		if strings.EqualFold(backend, "sqlite") {
			open = storagex.OpenSQLite
		}
		db, err := open(*sqlCfg)
		if err != nil {
			return nil, noClose, err
		}
		store := storagex.NewBunStore(db)
		if sqlCfg.InitSchema {
			if err := store.InitSchema(ctx); err != nil {
				_ = store.Close()
				return nil, noClose, err
			}
		}
		return store, store.Close, nil
	default:
		fileCfg := configx.MustNew[storagex.FileConfig]("ITINERARY_FILE")
		return storagex.NewFileStore(*fileCfg), noClose, nil
	}
}

// openSessionStore mirrors conversation contexts to Upstash Redis when
// UPSTASH_REDIS_* is configured.
func openSessionStore() statex.Store {
	if !configx.Enabled("UPSTASH_REDIS") {
		log.Info().Msg("session mirror disabled; contexts live in memory only")
		return nil
	}
	cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	store, err := statex.NewUpstashRedisStore(*cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build upstash session store")
	}
	return store
}

// openLodging returns nil when AGODA_* is not configured; itineraries are
// then produced without hotel offers.
func openLodging() (lodging.Searcher, lodging.CityResolver) {
	cfg := configx.MustNew[lodging.Config]("AGODA")
	if !cfg.Configured() {
		log.Warn().Msg("agoda is not configured; accommodation search disabled")
		return nil, nil
	}

	client, err := lodging.NewClient(*cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build agoda client")
	}
	cities, err := lodging.LoadCityMap(cfg.CityMapPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CityMapPath).Msg("failed to load city mapping")
	}
	log.Info().Int("cities", cities.Len()).Msg("city mapping loaded")

	return lodging.NewCachedSearcher(client, cfg.CacheSize, cfg.CacheTTL), cities
}
