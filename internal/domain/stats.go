package domain

import "fmt"

// Stats holds the six denormalized counters every hierarchy node carries.
// Unreviewed is counted per suggestion, not per entity, so it does not
// participate in the Total >= sum invariant.
type Stats struct {
	Total         int
	Approved      int
	Pretranslated int
	Errors        int
	Warnings      int
	Unreviewed    int
}

// Missing returns the number of strings with no usable translation.
func (s Stats) Missing() int {
	return s.Total - s.Approved - s.Pretranslated - s.Errors - s.Warnings
}

// Completed returns the number of strings counted as done. Warnings count
// as completed: a translation with warnings is still shipped.
func (s Stats) Completed() int {
	return s.Approved + s.Pretranslated + s.Warnings
}

// Complete reports whether every string is completed.
func (s Stats) Complete() bool {
	return s.Total == s.Completed()
}

func (s Stats) CompletedPercent() float64     { return s.PercentOfTotal(s.Completed()) }
func (s Stats) ApprovedPercent() float64      { return s.PercentOfTotal(s.Approved) }
func (s Stats) PretranslatedPercent() float64 { return s.PercentOfTotal(s.Pretranslated) }
func (s Stats) ErrorsPercent() float64        { return s.PercentOfTotal(s.Errors) }
func (s Stats) WarningsPercent() float64      { return s.PercentOfTotal(s.Warnings) }
func (s Stats) UnreviewedPercent() float64    { return s.PercentOfTotal(s.Unreviewed) }

// PercentOfTotal returns n as a share of Total in percent, 0 when empty.
func (s Stats) PercentOfTotal(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Total) * 100
}

// Diff returns the per-field difference s - before, suitable for Adjust.
func (s Stats) Diff(before Stats) Stats {
	return Stats{
		Total:         s.Total - before.Total,
		Approved:      s.Approved - before.Approved,
		Pretranslated: s.Pretranslated - before.Pretranslated,
		Errors:        s.Errors - before.Errors,
		Warnings:      s.Warnings - before.Warnings,
		Unreviewed:    s.Unreviewed - before.Unreviewed,
	}
}

// Add returns the per-field sum of s and d.
func (s Stats) Add(d Stats) Stats {
	return Stats{
		Total:         s.Total + d.Total,
		Approved:      s.Approved + d.Approved,
		Pretranslated: s.Pretranslated + d.Pretranslated,
		Errors:        s.Errors + d.Errors,
		Warnings:      s.Warnings + d.Warnings,
		Unreviewed:    s.Unreviewed + d.Unreviewed,
	}
}

// IsZero reports whether all six counters are zero.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

// Validate checks the stats-node invariants: no negative counter and
// Total covering all classified strings.
func (s Stats) Validate() error {
	for _, c := range []struct {
		name  string
		value int
	}{
		{"total", s.Total},
		{"approved", s.Approved},
		{"pretranslated", s.Pretranslated},
		{"errors", s.Errors},
		{"warnings", s.Warnings},
		{"unreviewed", s.Unreviewed},
	} {
		if c.value < 0 {
			return fmt.Errorf("negative %s counter %d: %w", c.name, c.value, ErrInvariantViolation)
		}
	}
	if s.Missing() < 0 {
		return fmt.Errorf("total %d below classified strings: %w", s.Total, ErrInvariantViolation)
	}
	return nil
}
