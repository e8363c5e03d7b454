package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeKind identifies one of the four hierarchy levels carrying
// denormalized stats.
type NodeKind string

const (
	NodeTranslatedResource NodeKind = "TRANSLATED_RESOURCE"
	NodeProject            NodeKind = "PROJECT"
	NodeProjectLocale      NodeKind = "PROJECT_LOCALE"
	NodeLocale             NodeKind = "LOCALE"
)

func (k NodeKind) IsValid() bool {
	switch k {
	case NodeTranslatedResource, NodeProject, NodeProjectLocale, NodeLocale:
		return true
	}
	return false
}

// StatsNode addresses a stats node in the hierarchy. Which ID fields are
// meaningful depends on Kind: resource+locale for translated resources,
// project for projects, project+locale for project-locales, locale for
// locales.
type StatsNode struct {
	Kind       NodeKind
	ResourceID uuid.UUID
	ProjectID  uuid.UUID
	LocaleID   uuid.UUID
}

func TranslatedResourceNode(resourceID, localeID uuid.UUID) StatsNode {
	return StatsNode{Kind: NodeTranslatedResource, ResourceID: resourceID, LocaleID: localeID}
}

func ProjectNode(projectID uuid.UUID) StatsNode {
	return StatsNode{Kind: NodeProject, ProjectID: projectID}
}

func ProjectLocaleNode(projectID, localeID uuid.UUID) StatsNode {
	return StatsNode{Kind: NodeProjectLocale, ProjectID: projectID, LocaleID: localeID}
}

func LocaleNode(localeID uuid.UUID) StatsNode {
	return StatsNode{Kind: NodeLocale, LocaleID: localeID}
}

func (n StatsNode) String() string {
	switch n.Kind {
	case NodeTranslatedResource:
		return fmt.Sprintf("translated-resource(%s, %s)", n.ResourceID, n.LocaleID)
	case NodeProject:
		return fmt.Sprintf("project(%s)", n.ProjectID)
	case NodeProjectLocale:
		return fmt.Sprintf("project-locale(%s, %s)", n.ProjectID, n.LocaleID)
	case NodeLocale:
		return fmt.Sprintf("locale(%s)", n.LocaleID)
	}
	return fmt.Sprintf("unknown-node(%s)", string(n.Kind))
}

// Validate checks that the IDs required by the node kind are present.
func (n StatsNode) Validate() error {
	switch n.Kind {
	case NodeTranslatedResource:
		if n.ResourceID == uuid.Nil || n.LocaleID == uuid.Nil {
			return NewValidationError("node", "translated-resource node needs resource and locale IDs")
		}
	case NodeProject:
		if n.ProjectID == uuid.Nil {
			return NewValidationError("node", "project node needs a project ID")
		}
	case NodeProjectLocale:
		if n.ProjectID == uuid.Nil || n.LocaleID == uuid.Nil {
			return NewValidationError("node", "project-locale node needs project and locale IDs")
		}
	case NodeLocale:
		if n.LocaleID == uuid.Nil {
			return NewValidationError("node", "locale node needs a locale ID")
		}
	default:
		return NewValidationError("node", "unknown node kind "+string(n.Kind))
	}
	return nil
}
