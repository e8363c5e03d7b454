// Package translation implements the mutation workflow for translations:
// guarded state transitions, active-translation selection, translation
// memory upkeep, and propagation of status diffs up the stats hierarchy.
//
// Every mutation runs inside a single transaction serialized per
// (entity, locale) by an advisory lock, so the before/after status
// snapshots and all four stats-node updates commit or roll back as one
// unit. Transient serialization failures are retried a bounded number of
// times before surfacing as domain.ErrConflict.
package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/openlocalize/localizer-backend/internal/config"
	"github.com/openlocalize/localizer-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type entityRepo interface {
	GetScope(ctx context.Context, entityID, localeID uuid.UUID) (*domain.EntityScope, error)
}

type translationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Translation, error)
	ListForEntityLocale(ctx context.Context, entityID, localeID uuid.UUID) ([]*domain.Translation, error)
	Create(ctx context.Context, t *domain.Translation) error
	Update(ctx context.Context, t *domain.Translation) error
	Deactivate(ctx context.Context, entityID, localeID uuid.UUID, pluralForm *int) error
	RejectAllExcept(ctx context.Context, entityID, localeID uuid.UUID, pluralForm *int, exceptID, byUser uuid.UUID, at time.Time) ([]uuid.UUID, error)
}

type statsRepo interface {
	Adjust(ctx context.Context, node domain.StatsNode, diff domain.Stats) error
	EnsureTranslatedResource(ctx context.Context, resourceID, localeID uuid.UUID) error
	TouchLatestActivity(ctx context.Context, node domain.StatsNode, at time.Time) error
}

type memoryRepo interface {
	Insert(ctx context.Context, e *domain.MemoryEntry) error
	DeleteForTranslation(ctx context.Context, translationID uuid.UUID) error
	DeleteForTranslations(ctx context.Context, translationIDs []uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type tupleLocker interface {
	Lock(ctx context.Context, entityID, localeID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the translation mutation workflow.
type Service struct {
	log          *slog.Logger
	cfg          config.PropagationConfig
	txm          txManager
	locker       tupleLocker
	entities     entityRepo
	translations translationRepo
	stats        statsRepo
	memory       memoryRepo
	now          func() time.Time
}

// New creates a new translation service.
func New(
	log *slog.Logger,
	cfg config.PropagationConfig,
	txm txManager,
	locker tupleLocker,
	entities entityRepo,
	translations translationRepo,
	stats statsRepo,
	memory memoryRepo,
) *Service {
	return &Service{
		log:          log,
		cfg:          cfg,
		txm:          txm,
		locker:       locker,
		entities:     entities,
		translations: translations,
		stats:        stats,
		memory:       memory,
		now:          time.Now,
	}
}

// SubmitInput describes a new translation suggestion. Errors and Warnings
// are quality-check results produced by the caller's checks pipeline.
type SubmitInput struct {
	EntityID   uuid.UUID
	LocaleID   uuid.UUID
	UserID     *uuid.UUID
	String     string
	PluralForm *int
	// State is the initial review state: unreviewed for user suggestions,
	// pretranslated or fuzzy for machine/sync input, approved for direct
	// submission by a reviewer. Empty means unreviewed.
	State    domain.TranslationState
	Errors   []string
	Warnings []string
}

func (in SubmitInput) validate(scope *domain.EntityScope) error {
	if in.String == "" {
		return domain.NewValidationError("string", "must not be empty")
	}

	switch in.State {
	case "", domain.StateUnreviewed, domain.StatePretranslated, domain.StateFuzzy, domain.StateApproved:
	default:
		return domain.NewValidationError("state", "cannot submit in state "+in.State.String())
	}

	if scope.Entity.Pluralized() {
		if in.PluralForm == nil {
			return domain.NewValidationError("plural_form", "required for pluralized entities")
		}
		if *in.PluralForm < 0 || *in.PluralForm >= scope.Locale.PluralArity() {
			return domain.NewValidationError("plural_form",
				fmt.Sprintf("out of range 0..%d", scope.Locale.PluralArity()-1))
		}
	} else if in.PluralForm != nil {
		return domain.NewValidationError("plural_form", "entity has no plural variants")
	}

	return nil
}

// Submit records a new translation, re-derives the active translation for
// its tuple, and propagates the status diff.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Translation, error) {
	var created *domain.Translation

	err := s.mutate(ctx, in.EntityID, in.LocaleID, func(ctx context.Context, scope *domain.EntityScope) (*domain.Translation, error) {
		if err := in.validate(scope); err != nil {
			return nil, err
		}

		if err := s.stats.EnsureTranslatedResource(ctx, scope.Resource.ID, scope.Locale.ID); err != nil {
			return nil, err
		}

		now := s.now()
		t := &domain.Translation{
			ID:         uuid.New(),
			EntityID:   in.EntityID,
			LocaleID:   in.LocaleID,
			UserID:     in.UserID,
			String:     in.String,
			PluralForm: in.PluralForm,
			Date:       now,
			State:      in.State,
			Errors:     in.Errors,
			Warnings:   in.Warnings,
		}
		if t.State == "" {
			t.State = domain.StateUnreviewed
		}
		if t.State == domain.StateApproved {
			t.State = domain.StateUnreviewed
			if err := t.Approve(orNil(in.UserID), now); err != nil {
				return nil, err
			}
		}

		if err := s.translations.Create(ctx, t); err != nil {
			return nil, err
		}

		if t.State == domain.StateApproved {
			if err := s.supersedeSiblings(ctx, scope, t, orNil(in.UserID), now); err != nil {
				return nil, err
			}
		}

		created = t
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Approve transitions a translation to approved, rejects its non-rejected
// siblings, moves the translation memory entries accordingly, and
// propagates the status diff.
func (s *Service) Approve(ctx context.Context, translationID, userID uuid.UUID) (*domain.Translation, error) {
	return s.transition(ctx, translationID, func(ctx context.Context, scope *domain.EntityScope, t *domain.Translation) error {
		now := s.now()
		if err := t.Approve(userID, now); err != nil {
			return err
		}
		if err := s.translations.Update(ctx, t); err != nil {
			return err
		}

		return s.supersedeSiblings(ctx, scope, t, userID, now)
	})
}

// Unapprove returns an approved translation to the unreviewed pool and
// drops its translation memory entries.
func (s *Service) Unapprove(ctx context.Context, translationID, userID uuid.UUID) (*domain.Translation, error) {
	return s.transition(ctx, translationID, func(ctx context.Context, _ *domain.EntityScope, t *domain.Translation) error {
		if err := t.Unapprove(userID, s.now()); err != nil {
			return err
		}
		if err := s.translations.Update(ctx, t); err != nil {
			return err
		}

		return s.memory.DeleteForTranslation(ctx, t.ID)
	})
}

// Reject turns a translation down and drops its translation memory entries.
func (s *Service) Reject(ctx context.Context, translationID, userID uuid.UUID) (*domain.Translation, error) {
	return s.transition(ctx, translationID, func(ctx context.Context, _ *domain.EntityScope, t *domain.Translation) error {
		if err := t.Reject(userID, s.now()); err != nil {
			return err
		}
		if err := s.translations.Update(ctx, t); err != nil {
			return err
		}

		return s.memory.DeleteForTranslation(ctx, t.ID)
	})
}

// Unreject returns a rejected translation to the unreviewed pool.
func (s *Service) Unreject(ctx context.Context, translationID, userID uuid.UUID) (*domain.Translation, error) {
	return s.transition(ctx, translationID, func(ctx context.Context, _ *domain.EntityScope, t *domain.Translation) error {
		if err := t.Unreject(userID, s.now()); err != nil {
			return err
		}
		return s.translations.Update(ctx, t)
	})
}

// GetStatus resolves the current status snapshot of an entity in a locale.
func (s *Service) GetStatus(ctx context.Context, entityID, localeID uuid.UUID) (domain.EntityStatus, error) {
	scope, err := s.entities.GetScope(ctx, entityID, localeID)
	if err != nil {
		return domain.EntityStatus{}, err
	}

	list, err := s.translations.ListForEntityLocale(ctx, entityID, localeID)
	if err != nil {
		return domain.EntityStatus{}, err
	}

	return domain.ResolveStatus(list, scope.Entity.Pluralized(), scope.Locale.PluralArity()), nil
}

// ---------------------------------------------------------------------------
// Workflow internals
// ---------------------------------------------------------------------------

// transition loads the translation, then runs the generic mutate flow with
// the given state change applied to a fresh in-transaction copy.
func (s *Service) transition(
	ctx context.Context,
	translationID uuid.UUID,
	apply func(ctx context.Context, scope *domain.EntityScope, t *domain.Translation) error,
) (*domain.Translation, error) {
	ref, err := s.translations.GetByID(ctx, translationID)
	if err != nil {
		return nil, err
	}

	var mutated *domain.Translation
	err = s.mutate(ctx, ref.EntityID, ref.LocaleID, func(ctx context.Context, scope *domain.EntityScope) (*domain.Translation, error) {
		t, err := s.translations.GetByID(ctx, translationID)
		if err != nil {
			return nil, err
		}
		if err := apply(ctx, scope, t); err != nil {
			return nil, err
		}
		mutated = t
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	return mutated, nil
}

// mutate is the shared transaction skeleton: lock the tuple, snapshot
// status, apply the change, re-derive the active translation, snapshot
// again, and fan the diff out to the stats nodes. Retried on transient
// conflicts.
func (s *Service) mutate(
	ctx context.Context,
	entityID, localeID uuid.UUID,
	apply func(ctx context.Context, scope *domain.EntityScope) (*domain.Translation, error),
) error {
	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.RetryBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
			return s.mutateInTx(ctx, entityID, localeID, apply)
		})
		if errors.Is(err, domain.ErrConflict) {
			s.log.Warn("translation mutation conflict, retrying",
				"entity_id", entityID, "locale_id", localeID)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *Service) mutateInTx(
	ctx context.Context,
	entityID, localeID uuid.UUID,
	apply func(ctx context.Context, scope *domain.EntityScope) (*domain.Translation, error),
) error {
	if err := s.locker.Lock(ctx, entityID, localeID); err != nil {
		return err
	}

	scope, err := s.entities.GetScope(ctx, entityID, localeID)
	if err != nil {
		return err
	}

	pluralized := scope.Entity.Pluralized()
	arity := scope.Locale.PluralArity()

	before, err := s.snapshot(ctx, entityID, localeID, pluralized, arity)
	if err != nil {
		return err
	}

	changed, err := apply(ctx, scope)
	if err != nil {
		return err
	}

	if err := s.reselectActive(ctx, entityID, localeID, changed.PluralForm); err != nil {
		return err
	}

	after, err := s.snapshot(ctx, entityID, localeID, pluralized, arity)
	if err != nil {
		return err
	}

	diff := after.AsStats().Diff(before.AsStats())

	activity := changed.Date
	if changed.ApprovedAt != nil && changed.ApprovedAt.After(activity) {
		activity = *changed.ApprovedAt
	}
	if err := s.propagate(ctx, scope, diff, activity); err != nil {
		return err
	}

	s.log.Debug("translation mutation propagated",
		"entity_id", entityID,
		"locale_id", localeID,
		"translation_id", changed.ID,
		"state", changed.State.String(),
		"diff", diff,
	)

	return nil
}

func (s *Service) snapshot(ctx context.Context, entityID, localeID uuid.UUID, pluralized bool, arity int) (domain.EntityStatus, error) {
	list, err := s.translations.ListForEntityLocale(ctx, entityID, localeID)
	if err != nil {
		return domain.EntityStatus{}, err
	}
	return domain.ResolveStatus(list, pluralized, arity), nil
}

// supersedeSiblings rejects every other non-rejected translation of the
// tuple, removes their memory entries, and records a memory entry for the
// newly approved translation.
func (s *Service) supersedeSiblings(ctx context.Context, scope *domain.EntityScope, t *domain.Translation, byUser uuid.UUID, at time.Time) error {
	rejected, err := s.translations.RejectAllExcept(ctx, t.EntityID, t.LocaleID, t.PluralForm, t.ID, byUser, at)
	if err != nil {
		return err
	}
	if err := s.memory.DeleteForTranslations(ctx, rejected); err != nil {
		return err
	}

	return s.memory.Insert(ctx, &domain.MemoryEntry{
		ID:            uuid.New(),
		Source:        scope.Entity.String,
		Target:        t.String,
		EntityID:      t.EntityID,
		TranslationID: t.ID,
		LocaleID:      t.LocaleID,
		ProjectID:     scope.Project.ID,
	})
}

// reselectActive enforces at-most-one-active for the tuple: deactivate
// everything, then activate the best-ranked non-rejected candidate, if any.
func (s *Service) reselectActive(ctx context.Context, entityID, localeID uuid.UUID, pluralForm *int) error {
	if err := s.translations.Deactivate(ctx, entityID, localeID, pluralForm); err != nil {
		return err
	}

	list, err := s.translations.ListForEntityLocale(ctx, entityID, localeID)
	if err != nil {
		return err
	}

	candidate := domain.ActiveCandidate(tupleOf(list, pluralForm))
	if candidate == nil {
		return nil
	}

	candidate.Active = true
	return s.translations.Update(ctx, candidate)
}

// propagate applies one diff vector to every stats node of the scope, in
// fixed order, and advances the latest-activity pointers. A zero diff skips
// the counter updates but still counts as activity: the mutation happened
// even when the counters net out.
func (s *Service) propagate(ctx context.Context, scope *domain.EntityScope, diff domain.Stats, at time.Time) error {
	for _, node := range scope.Nodes() {
		if !diff.IsZero() {
			if err := s.stats.Adjust(ctx, node, diff); err != nil {
				return &domain.PropagationError{Node: node, Deltas: diff, Err: err}
			}
		}
		if err := s.stats.TouchLatestActivity(ctx, node, at); err != nil {
			return &domain.PropagationError{Node: node, Deltas: diff, Err: err}
		}
	}

	return nil
}

// tupleOf filters an entity-locale translation list down to one plural
// form's tuple.
func tupleOf(list []*domain.Translation, pluralForm *int) []*domain.Translation {
	var tuple []*domain.Translation
	for _, t := range list {
		if equalPluralForm(t.PluralForm, pluralForm) {
			tuple = append(tuple, t)
		}
	}
	return tuple
}

func equalPluralForm(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func orNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
