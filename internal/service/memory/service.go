// Package memory implements fuzzy translation memory lookup. Short queries
// are scored entirely in SQL; queries whose length window exceeds the
// database levenshtein limit fall back to a prefix pre-filter plus exact
// scoring in Go. Lookup is advisory: a backend failure degrades to an
// empty result instead of failing the caller.
package memory

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/openlocalize/localizer-backend/internal/config"
	"github.com/openlocalize/localizer-backend/internal/domain"
	"github.com/openlocalize/localizer-backend/internal/fuzzy"
)

type memoryRepo interface {
	SearchScored(ctx context.Context, q domain.MemoryQuery) ([]domain.MemoryMatch, error)
	SearchPrefix(ctx context.Context, q domain.MemoryQuery, prefix string) ([]domain.MemoryEntry, error)
}

// Service implements fuzzy lookup against the translation memory corpus.
type Service struct {
	log    *slog.Logger
	cfg    config.MemoryConfig
	memory memoryRepo
}

// New creates a new memory service.
func New(log *slog.Logger, cfg config.MemoryConfig, memory memoryRepo) *Service {
	return &Service{log: log, cfg: cfg, memory: memory}
}

// FuzzyMatch returns corpus entries similar to text in one locale, best
// first, with quality in percent. projectID narrows the corpus when not
// uuid.Nil. An empty result is returned on backend failure.
func (s *Service) FuzzyMatch(ctx context.Context, text string, localeID, projectID uuid.UUID) ([]domain.MemoryMatch, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, domain.NewValidationError("text", "must not be empty")
	}

	minDist, maxDist := fuzzy.Window(len(runes), s.cfg.MinQuality)

	query := domain.MemoryQuery{
		Text:       text,
		LocaleID:   localeID,
		ProjectID:  projectID,
		MinQuality: s.cfg.MinQuality,
		MinDist:    minDist,
		MaxDist:    maxDist,
		Limit:      s.cfg.MaxResults,
	}

	var (
		matches []domain.MemoryMatch
		err     error
	)
	if fuzzy.UseBulkScoring(minDist, maxDist) {
		matches, err = s.memory.SearchScored(ctx, query)
	} else {
		matches, err = s.scalarSearch(ctx, query, runes)
	}
	if err != nil {
		s.log.Error("memory lookup failed, returning no matches",
			"locale_id", localeID, "text_length", len(runes), "error", err)
		return []domain.MemoryMatch{}, nil
	}

	return matches, nil
}

// scalarSearch pre-filters candidates in SQL on the first characters of the
// query, then scores each survivor exactly on the full strings.
func (s *Service) scalarSearch(ctx context.Context, query domain.MemoryQuery, runes []rune) ([]domain.MemoryMatch, error) {
	prefix := string(runes)
	if len(runes) > fuzzy.PrefixLimit {
		prefix = string(runes[:fuzzy.PrefixLimit])
	}

	entries, err := s.memory.SearchPrefix(ctx, query, prefix)
	if err != nil {
		return nil, err
	}

	var matches []domain.MemoryMatch
	for _, e := range entries {
		ratio := fuzzy.Ratio(e.Source, query.Text)
		if ratio <= query.MinQuality {
			continue
		}
		matches = append(matches, domain.MemoryMatch{Entry: e, Quality: ratio * 100})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Quality > matches[j].Quality
	})
	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}

	return matches, nil
}
