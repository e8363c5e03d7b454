package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlocalize/localizer-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockStatsRepo struct {
	GetFunc                         func(ctx context.Context, node domain.StatsNode) (domain.Stats, error)
	SetAbsoluteFunc                 func(ctx context.Context, node domain.StatsNode, s domain.Stats) error
	RecalculateAggregateFunc        func(ctx context.Context, node domain.StatsNode) error
	ListTranslatedResourceNodesFunc func(ctx context.Context, node domain.StatsNode) ([]domain.StatsNode, error)
}

func (m *mockStatsRepo) Get(ctx context.Context, node domain.StatsNode) (domain.Stats, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, node)
	}
	return domain.Stats{}, domain.ErrNotFound
}

func (m *mockStatsRepo) SetAbsolute(ctx context.Context, node domain.StatsNode, s domain.Stats) error {
	if m.SetAbsoluteFunc != nil {
		return m.SetAbsoluteFunc(ctx, node, s)
	}
	return nil
}

func (m *mockStatsRepo) RecalculateAggregate(ctx context.Context, node domain.StatsNode) error {
	if m.RecalculateAggregateFunc != nil {
		return m.RecalculateAggregateFunc(ctx, node)
	}
	return nil
}

func (m *mockStatsRepo) ListTranslatedResourceNodes(ctx context.Context, node domain.StatsNode) ([]domain.StatsNode, error) {
	if m.ListTranslatedResourceNodesFunc != nil {
		return m.ListTranslatedResourceNodesFunc(ctx, node)
	}
	return nil, nil
}

type mockEntityRepo struct {
	ListNonObsoleteForResourceFunc func(ctx context.Context, resourceID uuid.UUID) ([]domain.Entity, error)
	GetLocaleFunc                  func(ctx context.Context, id uuid.UUID) (*domain.Locale, error)
}

func (m *mockEntityRepo) ListNonObsoleteForResource(ctx context.Context, resourceID uuid.UUID) ([]domain.Entity, error) {
	if m.ListNonObsoleteForResourceFunc != nil {
		return m.ListNonObsoleteForResourceFunc(ctx, resourceID)
	}
	return nil, nil
}

func (m *mockEntityRepo) GetLocale(ctx context.Context, id uuid.UUID) (*domain.Locale, error) {
	if m.GetLocaleFunc != nil {
		return m.GetLocaleFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type mockTranslationRepo struct {
	ListForResourceLocaleFunc func(ctx context.Context, resourceID, localeID uuid.UUID) (map[uuid.UUID][]*domain.Translation, error)
}

func (m *mockTranslationRepo) ListForResourceLocale(ctx context.Context, resourceID, localeID uuid.UUID) (map[uuid.UUID][]*domain.Translation, error) {
	if m.ListForResourceLocaleFunc != nil {
		return m.ListForResourceLocaleFunc(ctx, resourceID, localeID)
	}
	return nil, nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ===========================================================================
// Tests
// ===========================================================================

func TestService_Get(t *testing.T) {
	t.Parallel()

	repo := &mockStatsRepo{
		GetFunc: func(ctx context.Context, node domain.StatsNode) (domain.Stats, error) {
			return domain.Stats{Total: 10, Approved: 4, Pretranslated: 2, Warnings: 1, Unreviewed: 3}, nil
		},
	}
	svc := New(testLogger(), passthroughTxManager{}, repo, &mockEntityRepo{}, &mockTranslationRepo{})

	view, err := svc.Get(context.Background(), domain.ProjectNode(uuid.New()))
	require.NoError(t, err)

	assert.Equal(t, 3, view.Missing)
	assert.Equal(t, 7, view.Completed)
	assert.False(t, view.Complete)
	assert.InDelta(t, 40.0, view.ApprovedPercent, 1e-9)
	assert.InDelta(t, 70.0, view.CompletedPercent, 1e-9)
	assert.InDelta(t, 30.0, view.MissingPercent, 1e-9)
}

func TestService_RecalculateLeaf(t *testing.T) {
	t.Parallel()

	localeID := uuid.New()
	resourceID := uuid.New()
	plain := domain.Entity{ID: uuid.New(), ResourceID: resourceID, Key: "a", String: "One"}
	plural := domain.Entity{ID: uuid.New(), ResourceID: resourceID, Key: "b", String: "One", StringPlural: "Many"}
	untranslated := domain.Entity{ID: uuid.New(), ResourceID: resourceID, Key: "c", String: "Three"}

	pf0, pf1 := 0, 1
	byEntity := map[uuid.UUID][]*domain.Translation{
		// Approved and clean: counts toward approved.
		plain.ID: {{EntityID: plain.ID, LocaleID: localeID, State: domain.StateApproved}},
		// Only one of two plural forms approved: not approved overall, and
		// the fuzzy second form carries a warning that must surface.
		plural.ID: {
			{EntityID: plural.ID, LocaleID: localeID, State: domain.StateApproved, PluralForm: &pf0},
			{EntityID: plural.ID, LocaleID: localeID, State: domain.StateFuzzy, PluralForm: &pf1, Warnings: []string{"leading space"}},
		},
	}

	var written domain.Stats
	repo := &mockStatsRepo{
		SetAbsoluteFunc: func(ctx context.Context, node domain.StatsNode, s domain.Stats) error {
			written = s
			return nil
		},
	}
	entities := &mockEntityRepo{
		ListNonObsoleteForResourceFunc: func(ctx context.Context, id uuid.UUID) ([]domain.Entity, error) {
			require.Equal(t, resourceID, id)
			return []domain.Entity{plain, plural, untranslated}, nil
		},
		GetLocaleFunc: func(ctx context.Context, id uuid.UUID) (*domain.Locale, error) {
			return &domain.Locale{ID: localeID, Code: "ru", NPlurals: 2}, nil
		},
	}
	translations := &mockTranslationRepo{
		ListForResourceLocaleFunc: func(ctx context.Context, rid, lid uuid.UUID) (map[uuid.UUID][]*domain.Translation, error) {
			return byEntity, nil
		},
	}

	svc := New(testLogger(), passthroughTxManager{}, repo, entities, translations)

	err := svc.Recalculate(context.Background(), domain.TranslatedResourceNode(resourceID, localeID))
	require.NoError(t, err)

	assert.Equal(t, domain.Stats{Total: 3, Approved: 1, Warnings: 1}, written)
}

func TestService_RecalculateAggregateRecomputesLeavesFirst(t *testing.T) {
	t.Parallel()

	projectID := uuid.New()
	localeID := uuid.New()
	leaves := []domain.StatsNode{
		domain.TranslatedResourceNode(uuid.New(), localeID),
		domain.TranslatedResourceNode(uuid.New(), localeID),
	}

	var calls []string
	repo := &mockStatsRepo{
		ListTranslatedResourceNodesFunc: func(ctx context.Context, node domain.StatsNode) ([]domain.StatsNode, error) {
			return leaves, nil
		},
		SetAbsoluteFunc: func(ctx context.Context, node domain.StatsNode, s domain.Stats) error {
			calls = append(calls, "leaf")
			return nil
		},
		RecalculateAggregateFunc: func(ctx context.Context, node domain.StatsNode) error {
			calls = append(calls, "aggregate")
			return nil
		},
	}
	entities := &mockEntityRepo{
		ListNonObsoleteForResourceFunc: func(ctx context.Context, id uuid.UUID) ([]domain.Entity, error) {
			return nil, nil
		},
		GetLocaleFunc: func(ctx context.Context, id uuid.UUID) (*domain.Locale, error) {
			return &domain.Locale{ID: localeID, Code: "fr", NPlurals: 2}, nil
		},
	}

	svc := New(testLogger(), passthroughTxManager{}, repo, entities, &mockTranslationRepo{})

	err := svc.Recalculate(context.Background(), domain.ProjectLocaleNode(projectID, localeID))
	require.NoError(t, err)

	assert.Equal(t, []string{"leaf", "leaf", "aggregate"}, calls)
}

func TestService_RecalculateInvalidNode(t *testing.T) {
	t.Parallel()

	svc := New(testLogger(), passthroughTxManager{}, &mockStatsRepo{}, &mockEntityRepo{}, &mockTranslationRepo{})

	err := svc.Recalculate(context.Background(), domain.StatsNode{Kind: "BOGUS"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_RecalculatePropagatesLeafFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	repo := &mockStatsRepo{
		ListTranslatedResourceNodesFunc: func(ctx context.Context, node domain.StatsNode) ([]domain.StatsNode, error) {
			return []domain.StatsNode{domain.TranslatedResourceNode(uuid.New(), uuid.New())}, nil
		},
	}
	entities := &mockEntityRepo{
		GetLocaleFunc: func(ctx context.Context, id uuid.UUID) (*domain.Locale, error) {
			return nil, boom
		},
	}

	svc := New(testLogger(), passthroughTxManager{}, repo, entities, &mockTranslationRepo{})

	err := svc.Recalculate(context.Background(), domain.LocaleNode(uuid.New()))
	assert.ErrorIs(t, err, boom)
}
