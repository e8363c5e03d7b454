// Command recalc-stats rebuilds the denormalized stats counters of one
// hierarchy node from its translations. It is a repair tool for counters
// that drifted through manual data surgery or crashed migrations, intended
// to be invoked by an operator or an external cron job.
//
// Usage:
//
//	recalc-stats -node locale -locale fr
//	recalc-stats -node project -project website
//	recalc-stats -node project-locale -project website -locale fr
//	recalc-stats -node translated-resource -project website -resource app.ftl -locale fr
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/openlocalize/localizer-backend/internal/adapter/postgres"
	entityrepo "github.com/openlocalize/localizer-backend/internal/adapter/postgres/entity"
	statsrepo "github.com/openlocalize/localizer-backend/internal/adapter/postgres/stats"
	translationrepo "github.com/openlocalize/localizer-backend/internal/adapter/postgres/translation"
	"github.com/openlocalize/localizer-backend/internal/app"
	"github.com/openlocalize/localizer-backend/internal/config"
	"github.com/openlocalize/localizer-backend/internal/domain"
	statssvc "github.com/openlocalize/localizer-backend/internal/service/stats"
)

func main() {
	var (
		nodeKind = flag.String("node", "", "node kind: translated-resource, project, project-locale or locale")
		project  = flag.String("project", "", "project slug")
		resource = flag.String("resource", "", "resource path within the project")
		locale   = flag.String("locale", "", "locale code")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	entities := entityrepo.New(pool)
	svc := statssvc.New(
		logger,
		postgres.NewTxManager(pool),
		statsrepo.New(pool),
		entities,
		translationrepo.New(pool),
	)

	node, err := resolveNode(ctx, entities, *nodeKind, *project, *resource, *locale)
	if err != nil {
		logger.Error("resolve node", slog.String("error", err.Error()))
		os.Exit(1)
	}

	started := time.Now()
	if err := svc.Recalculate(ctx, node); err != nil {
		logger.Error("recalculation failed",
			slog.String("node", node.String()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	view, err := svc.Get(ctx, node)
	if err != nil {
		logger.Error("read recalculated stats", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("recalculation completed",
		slog.String("node", node.String()),
		slog.Duration("took", time.Since(started)),
		slog.Int("total", view.Total),
		slog.Int("approved", view.Approved),
		slog.Int("pretranslated", view.Pretranslated),
		slog.Int("errors", view.Errors),
		slog.Int("warnings", view.Warnings),
		slog.Int("unreviewed", view.Unreviewed),
		slog.Int("missing", view.Missing),
	)
}

// resolveNode translates the human-friendly flags into a stats node.
func resolveNode(ctx context.Context, entities *entityrepo.Repo, kind, projectSlug, resourcePath, localeCode string) (domain.StatsNode, error) {
	lookupLocale := func() (*domain.Locale, error) {
		if localeCode == "" {
			return nil, fmt.Errorf("-locale is required for node kind %q", kind)
		}
		return entities.GetLocaleByCode(ctx, localeCode)
	}
	lookupProject := func() (*domain.Project, error) {
		if projectSlug == "" {
			return nil, fmt.Errorf("-project is required for node kind %q", kind)
		}
		return entities.GetProjectBySlug(ctx, projectSlug)
	}

	switch kind {
	case "locale":
		l, err := lookupLocale()
		if err != nil {
			return domain.StatsNode{}, err
		}
		return domain.LocaleNode(l.ID), nil

	case "project":
		p, err := lookupProject()
		if err != nil {
			return domain.StatsNode{}, err
		}
		return domain.ProjectNode(p.ID), nil

	case "project-locale":
		p, err := lookupProject()
		if err != nil {
			return domain.StatsNode{}, err
		}
		l, err := lookupLocale()
		if err != nil {
			return domain.StatsNode{}, err
		}
		return domain.ProjectLocaleNode(p.ID, l.ID), nil

	case "translated-resource":
		p, err := lookupProject()
		if err != nil {
			return domain.StatsNode{}, err
		}
		l, err := lookupLocale()
		if err != nil {
			return domain.StatsNode{}, err
		}
		if resourcePath == "" {
			return domain.StatsNode{}, fmt.Errorf("-resource is required for node kind %q", kind)
		}
		r, err := entities.GetResourceByPath(ctx, p.ID, resourcePath)
		if err != nil {
			return domain.StatsNode{}, err
		}
		return domain.TranslatedResourceNode(r.ID, l.ID), nil

	default:
		return domain.StatsNode{}, fmt.Errorf("unknown node kind %q", kind)
	}
}
