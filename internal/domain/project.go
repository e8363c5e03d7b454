package domain

import "github.com/google/uuid"

// Project groups resources under one localization effort. System projects
// (terminology, tutorials) are excluded from locale-wide aggregates: they
// do not represent community-facing localization progress.
type Project struct {
	ID            uuid.UUID
	Slug          string
	Name          string
	SystemProject bool
	Disabled      bool
}

// ProjectLocale links a project to a locale enabled for it and carries its
// own denormalized stats node.
type ProjectLocale struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	LocaleID  uuid.UUID
	Readonly  bool
}

// Resource is one translatable file within a project.
type Resource struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Path      string
	// TotalStrings is the number of non-obsolete entities in the resource,
	// maintained by the sync layer.
	TotalStrings int
}
