package domain

import "github.com/google/uuid"

// Locale is a target language/region. NPlurals is the number of CLDR
// plural categories the locale distinguishes; pluralized entities need one
// translation per category.
type Locale struct {
	ID       uuid.UUID
	Code     string
	Name     string
	NPlurals int
}

// PluralArity returns the number of plural forms to fan out to, never
// less than 1.
func (l Locale) PluralArity() int {
	if l.NPlurals < 1 {
		return 1
	}
	return l.NPlurals
}
