package domain

import "github.com/google/uuid"

// Entity is a single translatable source string, optionally with a plural
// variant. Key is the immutable identity used to match entities across
// syncs; content fields may change.
type Entity struct {
	ID           uuid.UUID
	ResourceID   uuid.UUID
	Key          string
	String       string
	StringPlural string
	Comment      string
	Order        int
	Obsolete     bool
}

// Pluralized reports whether the entity fans out to one translation per
// plural form of the target locale.
func (e Entity) Pluralized() bool {
	return e.StringPlural != ""
}

// EntityScope bundles an entity with the hierarchy rows a mutation in one
// locale needs: the owning resource and project, the target locale, and
// whether the locale is enabled for the project.
type EntityScope struct {
	Entity           Entity
	Resource         Resource
	Project          Project
	Locale           Locale
	HasProjectLocale bool
}

// Nodes lists the stats nodes a mutation in this scope fans out to, in
// update order: translated resource, project, project-locale when the
// locale is enabled, and the locale itself unless the project is a system
// project.
func (s EntityScope) Nodes() []StatsNode {
	nodes := []StatsNode{
		TranslatedResourceNode(s.Resource.ID, s.Locale.ID),
		ProjectNode(s.Project.ID),
	}
	if s.HasProjectLocale {
		nodes = append(nodes, ProjectLocaleNode(s.Project.ID, s.Locale.ID))
	}
	if !s.Project.SystemProject {
		nodes = append(nodes, LocaleNode(s.Locale.ID))
	}
	return nodes
}
