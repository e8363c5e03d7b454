package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TranslationState is the review state of a translation candidate.
// A translation is in exactly one state at a time; the historical
// "four booleans" view is derived, never stored.
type TranslationState string

const (
	// StateUnreviewed is a plain suggestion awaiting review.
	StateUnreviewed TranslationState = "UNREVIEWED"
	// StateApproved is a reviewed and accepted translation.
	StateApproved TranslationState = "APPROVED"
	// StatePretranslated is a machine-produced translation pending review.
	StatePretranslated TranslationState = "PRETRANSLATED"
	// StateFuzzy is a low-confidence translation imported from a file.
	StateFuzzy TranslationState = "FUZZY"
	// StateRejected is a translation explicitly turned down or superseded.
	StateRejected TranslationState = "REJECTED"
)

func (s TranslationState) String() string { return string(s) }

func (s TranslationState) IsValid() bool {
	switch s {
	case StateUnreviewed, StateApproved, StatePretranslated, StateFuzzy, StateRejected:
		return true
	}
	return false
}

// Translation is a candidate rendering of an Entity in one Locale, for one
// plural-form index (nil if the entity has no plural variant).
type Translation struct {
	ID       uuid.UUID
	EntityID uuid.UUID
	LocaleID uuid.UUID
	UserID   *uuid.UUID
	String   string
	// PluralForm indexes the locale's plural categories, 0..nplurals-1.
	PluralForm *int
	Date       time.Time

	// Active marks the one translation displayed and counted as current for
	// its (entity, locale, plural form) tuple. At most one translation per
	// tuple is active, enforced by a partial unique index.
	Active bool

	State TranslationState

	// Errors and Warnings are quality-check results supplied by the external
	// checks module alongside each mutation.
	Errors   []string
	Warnings []string

	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	UnapprovedBy *uuid.UUID
	UnapprovedAt *time.Time
	RejectedBy   *uuid.UUID
	RejectedAt   *time.Time
	UnrejectedBy *uuid.UUID
	UnrejectedAt *time.Time
}

// Rejected reports whether the translation is turned down.
func (t *Translation) Rejected() bool { return t.State == StateRejected }

// InMemory reports whether the translation's state entitles it to a
// translation memory entry.
func (t *Translation) InMemory() bool {
	return t.State == StateApproved
}

// CountsTowardApproved reports whether this translation satisfies the
// approved condition for status resolution: approved with clean checks.
func (t *Translation) CountsTowardApproved() bool {
	return t.State == StateApproved && len(t.Errors) == 0 && len(t.Warnings) == 0
}

// CountsTowardPretranslated is the pretranslated analogue of
// CountsTowardApproved.
func (t *Translation) CountsTowardPretranslated() bool {
	return t.State == StatePretranslated && len(t.Errors) == 0 && len(t.Warnings) == 0
}

// Approve transitions the translation to the approved state.
// Rejected translations must be unrejected first.
func (t *Translation) Approve(user uuid.UUID, now time.Time) error {
	switch t.State {
	case StateRejected:
		return fmt.Errorf("approve rejected translation %s without unreject: %w", t.ID, ErrInvalidTransition)
	case StateApproved:
		return fmt.Errorf("translation %s is already approved: %w", t.ID, ErrInvalidTransition)
	}

	t.State = StateApproved
	t.ApprovedBy = &user
	t.ApprovedAt = &now
	t.UnapprovedBy = nil
	t.UnapprovedAt = nil
	t.RejectedBy = nil
	t.RejectedAt = nil

	return nil
}

// Unapprove returns an approved translation to the unreviewed pool.
func (t *Translation) Unapprove(user uuid.UUID, now time.Time) error {
	if t.State != StateApproved {
		return fmt.Errorf("unapprove translation %s in state %s: %w", t.ID, t.State, ErrInvalidTransition)
	}

	t.State = StateUnreviewed
	t.UnapprovedBy = &user
	t.UnapprovedAt = &now

	return nil
}

// Reject turns the translation down, whatever its current state.
func (t *Translation) Reject(user uuid.UUID, now time.Time) error {
	if t.State == StateRejected {
		return fmt.Errorf("translation %s is already rejected: %w", t.ID, ErrInvalidTransition)
	}

	t.State = StateRejected
	t.RejectedBy = &user
	t.RejectedAt = &now
	t.ApprovedBy = nil
	t.ApprovedAt = nil

	return nil
}

// Unreject returns a rejected translation to the unreviewed pool.
func (t *Translation) Unreject(user uuid.UUID, now time.Time) error {
	if t.State != StateRejected {
		return fmt.Errorf("unreject translation %s in state %s: %w", t.ID, t.State, ErrInvalidTransition)
	}

	t.State = StateUnreviewed
	t.UnrejectedBy = &user
	t.UnrejectedAt = &now

	return nil
}
