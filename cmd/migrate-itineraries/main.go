// Command migrate-itineraries copies every itinerary_<id>.json from the file
// store into the relational store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	storagex "github.com/tanpawarit/Chative-Trip-Planner/agent/storage"
	configx "github.com/tanpawarit/Chative-Trip-Planner/pkg/config"
	_ "github.com/tanpawarit/Chative-Trip-Planner/pkg/logger/autoload"
)

type source interface {
	storagex.ItineraryStore
	storagex.Lister
}

type report struct {
	Migrated int
	Skipped  int
	Failed   int
}

func main() {
	backend := flag.String("backend", "postgres", "target backend: postgres or sqlite")
	initSchema := flag.Bool("init-schema", false, "create the itineraries table before copying")
	dryRun := flag.Bool("dry-run", false, "validate files without writing")
	flag.String("env", "", "path to .env file")
	flag.Parse()

	os.Exit(run(context.Background(), *backend, *initSchema, *dryRun))
}

// run returns the process exit code so the target store is always closed
// before the process exits.
func run(ctx context.Context, backend string, initSchema, dryRun bool) int {
	fileCfg := configx.MustNew[storagex.FileConfig]("ITINERARY_FILE")
	sqlCfg := configx.MustNew[storagex.SQLConfig]("ITINERARY_DB")

	open := storagex.OpenPostgres
	switch strings.ToLower(backend) {
	case "postgres":
	case "sqlite":
		open = storagex.OpenSQLite
	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q\n", backend)
		return 2
	}
	db, err := open(*sqlCfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open target database")
		return 1
	}
	target := storagex.NewBunStore(db)
	defer func() {
		if err := target.Close(); err != nil {
			log.Warn().Err(err).Msg("closing target database")
		}
	}()

	if initSchema && !dryRun {
		if err := target.InitSchema(ctx); err != nil {
			log.Error().Err(err).Msg("failed to create schema")
			return 1
		}
	}

	rep, err := migrate(ctx, storagex.NewFileStore(*fileCfg), target, dryRun, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("migration aborted")
		return 1
	}
	fmt.Printf("migrated=%d skipped=%d failed=%d\n", rep.Migrated, rep.Skipped, rep.Failed)
	if rep.Failed > 0 {
		return 1
	}
	return 0
}

// migrate copies each listed itinerary. Invalid documents are skipped and
// write failures counted; only a failed listing aborts the run.
func migrate(ctx context.Context, src source, dst storagex.ItineraryStore, dryRun bool, out io.Writer) (report, error) {
	var rep report

	ids, err := src.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("list source itineraries: %w", err)
	}

	for _, id := range ids {
		it, err := src.Load(ctx, id)
		if err != nil {
			rep.Skipped++
			fmt.Fprintf(out, "skip %s: %v\n", id, err)
			continue
		}
		if err := it.Validate(); err != nil {
			rep.Skipped++
			fmt.Fprintf(out, "skip %s: %v\n", id, err)
			continue
		}
		if dryRun {
			rep.Migrated++
			fmt.Fprintf(out, "ok %s (dry run)\n", id)
			continue
		}
		if err := dst.Save(ctx, id, it); err != nil {
			rep.Failed++
			fmt.Fprintf(out, "fail %s: %v\n", id, err)
			continue
		}
		rep.Migrated++
		fmt.Fprintf(out, "ok %s\n", id)
	}
	return rep, nil
}
