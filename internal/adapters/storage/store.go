// Package storage reads list documents by name from a filesystem root or an
// HTTP base URL.
//
// Documents are addressed by slash-separated names relative to the root:
//
//	<list>/_list.json      catalog
//	<list>/_packlist.json  packs
//	<list>/<path>.json     level
//	_editors.json          editors
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

// Document names.
const (
	catalogDoc  = "_list.json"
	packListDoc = "_packlist.json"
	editorsDoc  = "_editors.json"
	docExt      = ".json"
)

// Store provides read access to list documents.
type Store interface {
	// Read returns the raw document called name.
	// Returns ErrNotFound if it does not exist.
	Read(ctx context.Context, name string) ([]byte, error)
}

// CatalogName returns the document name of list's catalog.
func CatalogName(list string) string { return list + "/" + catalogDoc }

// PackListName returns the document name of list's pack list.
func PackListName(list string) string { return list + "/" + packListDoc }

// LevelName returns the document name of a level of list.
func LevelName(list, path string) string { return list + "/" + path + docExt }

// EditorsName returns the document name of the editors list.
func EditorsName() string { return editorsDoc }

// ValidList reports whether list can name a list directory.
func ValidList(list string) bool {
	return list != "" && !strings.ContainsAny(list, `/\`) && fs.ValidPath(list)
}

func checkName(name string) error {
	if !fs.ValidPath(name) || strings.Contains(name, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return nil
}
