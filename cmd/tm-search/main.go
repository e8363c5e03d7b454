// Command tm-search performs a fuzzy translation memory lookup from the
// command line. Useful for smoke-testing a corpus and for tuning the
// quality threshold.
//
// Usage:
//
//	tm-search -locale fr "hello world"
//	tm-search -locale fr -project website -quality 0.8 "hello world"
//
// Exit codes: 0 = success (including no matches), 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/openlocalize/localizer-backend/internal/adapter/postgres"
	entityrepo "github.com/openlocalize/localizer-backend/internal/adapter/postgres/entity"
	memoryrepo "github.com/openlocalize/localizer-backend/internal/adapter/postgres/memory"
	"github.com/openlocalize/localizer-backend/internal/app"
	"github.com/openlocalize/localizer-backend/internal/config"
	memorysvc "github.com/openlocalize/localizer-backend/internal/service/memory"
)

func main() {
	var (
		localeCode  = flag.String("locale", "", "locale code to search in (required)")
		projectSlug = flag.String("project", "", "restrict matches to one project slug")
		quality     = flag.Float64("quality", 0, "override the configured minimal match quality (0..1)")
	)
	flag.Parse()

	if *localeCode == "" || flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s -locale CODE [-project SLUG] [-quality Q] TEXT\n", os.Args[0])
		os.Exit(1)
	}
	text := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *quality > 0 {
		cfg.Memory.MinQuality = *quality
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	entities := entityrepo.New(pool)

	locale, err := entities.GetLocaleByCode(ctx, *localeCode)
	if err != nil {
		logger.Error("resolve locale", slog.String("code", *localeCode), slog.String("error", err.Error()))
		os.Exit(1)
	}

	projectID := uuid.Nil
	if *projectSlug != "" {
		project, err := entities.GetProjectBySlug(ctx, *projectSlug)
		if err != nil {
			logger.Error("resolve project", slog.String("slug", *projectSlug), slog.String("error", err.Error()))
			os.Exit(1)
		}
		projectID = project.ID
	}

	svc := memorysvc.New(logger, cfg.Memory, memoryrepo.New(pool))

	matches, err := svc.FuzzyMatch(ctx, text, locale.ID, projectID)
	if err != nil {
		logger.Error("lookup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if len(matches) == 0 {
		fmt.Println("no matches")
		return
	}

	for _, m := range matches {
		fmt.Printf("%6.2f%%  %q -> %q\n", m.Quality, m.Entry.Source, m.Entry.Target)
	}
}
