package domain

import "github.com/google/uuid"

// MemoryEntry is an immutable (source, target) pair recorded when a
// translation is approved and removed when it loses approval. A translation
// owns at most one live entry at a time.
type MemoryEntry struct {
	ID            uuid.UUID
	Source        string
	Target        string
	EntityID      uuid.UUID
	TranslationID uuid.UUID
	LocaleID      uuid.UUID
	ProjectID     uuid.UUID
}

// MemoryMatch pairs an entry with its similarity quality in percent
// (0..100]. Matches are advisory: a concurrent deletion may still surface
// here.
type MemoryMatch struct {
	Entry   MemoryEntry
	Quality float64
}

// MemoryQuery carries the parameters of one fuzzy lookup. MinDist and
// MaxDist bound the admissible source length, precomputed from the query
// length and quality threshold. ProjectID narrows the corpus to one project
// when set; uuid.Nil searches across all projects.
type MemoryQuery struct {
	Text       string
	LocaleID   uuid.UUID
	ProjectID  uuid.UUID
	MinQuality float64
	MinDist    int
	MaxDist    int
	Limit      int
}
