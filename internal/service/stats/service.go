// Package stats implements the read side of the stats ledger and its full
// recalculation path. Recalculation recomputes translated-resource leaves
// from translations with the same status resolver the incremental path
// uses, so the two can never drift apart.
package stats

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openlocalize/localizer-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type statsRepo interface {
	Get(ctx context.Context, node domain.StatsNode) (domain.Stats, error)
	SetAbsolute(ctx context.Context, node domain.StatsNode, s domain.Stats) error
	RecalculateAggregate(ctx context.Context, node domain.StatsNode) error
	ListTranslatedResourceNodes(ctx context.Context, node domain.StatsNode) ([]domain.StatsNode, error)
}

type entityRepo interface {
	ListNonObsoleteForResource(ctx context.Context, resourceID uuid.UUID) ([]domain.Entity, error)
	GetLocale(ctx context.Context, id uuid.UUID) (*domain.Locale, error)
}

type translationRepo interface {
	ListForResourceLocale(ctx context.Context, resourceID, localeID uuid.UUID) (map[uuid.UUID][]*domain.Translation, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements stats reads and full recalculation.
type Service struct {
	log          *slog.Logger
	txm          txManager
	stats        statsRepo
	entities     entityRepo
	translations translationRepo
}

// New creates a new stats service.
func New(log *slog.Logger, txm txManager, stats statsRepo, entities entityRepo, translations translationRepo) *Service {
	return &Service{
		log:          log,
		txm:          txm,
		stats:        stats,
		entities:     entities,
		translations: translations,
	}
}

// StatsView is the read model for one node: raw counters plus every derived
// field the dashboards render.
type StatsView struct {
	domain.Stats

	Missing   int
	Completed int
	Complete  bool

	CompletedPercent     float64
	ApprovedPercent      float64
	PretranslatedPercent float64
	ErrorsPercent        float64
	WarningsPercent      float64
	UnreviewedPercent    float64
	MissingPercent       float64
}

func newStatsView(s domain.Stats) StatsView {
	return StatsView{
		Stats:                s,
		Missing:              s.Missing(),
		Completed:            s.Completed(),
		Complete:             s.Complete(),
		CompletedPercent:     s.CompletedPercent(),
		ApprovedPercent:      s.ApprovedPercent(),
		PretranslatedPercent: s.PretranslatedPercent(),
		ErrorsPercent:        s.ErrorsPercent(),
		WarningsPercent:      s.WarningsPercent(),
		UnreviewedPercent:    s.UnreviewedPercent(),
		MissingPercent:       s.PercentOfTotal(s.Missing()),
	}
}

// Get returns the stored counters of a node with all derived views.
func (s *Service) Get(ctx context.Context, node domain.StatsNode) (StatsView, error) {
	raw, err := s.stats.Get(ctx, node)
	if err != nil {
		return StatsView{}, err
	}
	return newStatsView(raw), nil
}

// Recalculate recomputes a node's counters from scratch in one transaction.
// Translated-resource nodes are recomputed from their translations;
// aggregate nodes first recompute every leaf in scope, then re-sum.
func (s *Service) Recalculate(ctx context.Context, node domain.StatsNode) error {
	if err := node.Validate(); err != nil {
		return err
	}

	return s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if node.Kind == domain.NodeTranslatedResource {
			return s.recalculateLeaf(ctx, node)
		}

		leaves, err := s.stats.ListTranslatedResourceNodes(ctx, node)
		if err != nil {
			return err
		}
		for _, leaf := range leaves {
			if err := s.recalculateLeaf(ctx, leaf); err != nil {
				return err
			}
		}

		if err := s.stats.RecalculateAggregate(ctx, node); err != nil {
			return err
		}

		s.log.Info("stats recalculated",
			"node", node.String(), "leaves", len(leaves))
		return nil
	})
}

// recalculateLeaf rebuilds one translated-resource row by classifying every
// live entity of the resource with the status resolver.
func (s *Service) recalculateLeaf(ctx context.Context, node domain.StatsNode) error {
	locale, err := s.entities.GetLocale(ctx, node.LocaleID)
	if err != nil {
		return err
	}

	entities, err := s.entities.ListNonObsoleteForResource(ctx, node.ResourceID)
	if err != nil {
		return err
	}

	byEntity, err := s.translations.ListForResourceLocale(ctx, node.ResourceID, node.LocaleID)
	if err != nil {
		return err
	}

	sum := domain.Stats{Total: len(entities)}
	for _, e := range entities {
		status := domain.ResolveStatus(byEntity[e.ID], e.Pluralized(), locale.PluralArity())
		sum = sum.Add(status.AsStats())
	}

	return s.stats.SetAbsolute(ctx, node, sum)
}
