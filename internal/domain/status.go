package domain

// EntityStatus is the per-(entity, locale) status snapshot derived from the
// entity's translation candidates.
type EntityStatus struct {
	Approved        bool
	Pretranslated   bool
	HasErrors       bool
	HasWarnings     bool
	UnreviewedCount int
}

// ResolveStatus classifies the translations of one (entity, locale) pair.
//
// For pluralized entities the approved/pretranslated verdict is conjunctive:
// every plural form must satisfy the condition. The error/warning verdict is
// deliberately disjunctive: a single defective plural form flags the whole
// entity even though the entity overall is not counted approved.
//
// translations must already be filtered to one locale; nplurals is the
// locale's plural-category count.
func ResolveStatus(translations []*Translation, pluralized bool, nplurals int) EntityStatus {
	var status EntityStatus

	approvedCount := 0
	pretranslatedCount := 0
	for _, t := range translations {
		if t.CountsTowardApproved() {
			approvedCount++
		}
		if t.CountsTowardPretranslated() {
			pretranslatedCount++
		}
	}

	if pluralized {
		status.Approved = approvedCount == nplurals
		status.Pretranslated = pretranslatedCount == nplurals
	} else {
		status.Approved = approvedCount > 0
		status.Pretranslated = pretranslatedCount > 0
	}

	// Errors and warnings only surface when the entity is not otherwise
	// complete.
	if !status.Approved && !status.Pretranslated {
		for _, t := range translations {
			switch t.State {
			case StateApproved, StatePretranslated, StateFuzzy:
				if len(t.Errors) > 0 {
					status.HasErrors = true
				}
				if len(t.Warnings) > 0 {
					status.HasWarnings = true
				}
			}
		}
	}

	// Every unreviewed suggestion counts, unlike the boolean fields above.
	for _, t := range translations {
		if t.State == StateUnreviewed {
			status.UnreviewedCount++
		}
	}

	return status
}

// AsStats converts the snapshot into the entity's contribution to stats
// counters. The total contribution is always zero: only entity creation and
// deletion change totals.
func (s EntityStatus) AsStats() Stats {
	return Stats{
		Approved:      boolToInt(s.Approved),
		Pretranslated: boolToInt(s.Pretranslated),
		Errors:        boolToInt(s.HasErrors),
		Warnings:      boolToInt(s.HasWarnings),
		Unreviewed:    s.UnreviewedCount,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ActiveCandidate picks the translation to mark active among the candidates
// of one (entity, locale, plural form) tuple: the best non-rejected
// translation by (approved, pretranslated, fuzzy, date) descending.
// Returns nil when no candidate qualifies.
func ActiveCandidate(translations []*Translation) *Translation {
	var best *Translation
	for _, t := range translations {
		if t.Rejected() {
			continue
		}
		if best == nil || ranksAbove(t, best) {
			best = t
		}
	}
	return best
}

// ranksAbove reports whether a beats b in the active-translation ordering.
func ranksAbove(a, b *Translation) bool {
	for _, state := range []TranslationState{StateApproved, StatePretranslated, StateFuzzy} {
		av, bv := a.State == state, b.State == state
		if av != bv {
			return av
		}
	}
	return a.Date.After(b.Date)
}
