package leaderboard

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// identities resolves contributor names case-insensitively by their
// lower-cased form. The first spelling seen for a name stays canonical for
// the rest of the run. Lowering is not full case folding: "Straße" and
// "STRASSE" stay distinct.
//
// A cases.Caser keeps state between calls, so each identities value owns
// its own and must not be shared across goroutines.
type identities struct {
	lower     cases.Caser
	canonical map[string]string // lower-cased -> first-seen spelling
}

func newIdentities() *identities {
	return &identities{
		lower:     newCaser(),
		canonical: make(map[string]string),
	}
}

// resolve returns the lower-cased key for name and its canonical spelling,
// registering name as canonical if it is new.
func (r *identities) resolve(name string) (key, canonical string) {
	key = r.lower.String(name)
	if c, ok := r.canonical[key]; ok {
		return key, c
	}
	r.canonical[key] = name
	return key, name
}

func newCaser() cases.Caser { return cases.Lower(language.Und) }

// FoldKey returns the case-insensitive identity key for name.
func FoldKey(name string) string {
	return newCaser().String(name)
}
