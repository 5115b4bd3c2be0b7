// Package model contains the documents read from list storage and the
// hydrated shapes passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FullCompletion is the percent of a completed (not partial) record.
const FullCompletion = 100

// Record is one contributor's submission against a level.
type Record struct {
	User    string    `json:"user"`
	Percent float64   `json:"percent"`
	Link    string    `json:"link"`
	Mobile  bool      `json:"mobile,omitempty"`
	Hz      Frequency `json:"hz,omitempty"`
}

// Complete reports whether the record is a full completion.
func (r Record) Complete() bool { return r.Percent == FullCompletion }

// Frequency is a refresh rate. It is display-only: documents carry it as a
// number or a string, and anything that does not read as a number is 0.
type Frequency float64

// UnmarshalJSON accepts 240, "144.5", "360+" and null without failing.
func (f *Frequency) UnmarshalJSON(b []byte) error {
	*f = Frequency(lenientNumber(b))
	return nil
}

// LevelID is the optional numeric id of a level document. Like Frequency
// it never fails the document it belongs to.
type LevelID int

// UnmarshalJSON accepts 7, "7" and null.
func (id *LevelID) UnmarshalJSON(b []byte) error {
	*id = LevelID(lenientNumber(b))
	return nil
}

// lenientNumber reads a JSON number or numeric string, returning 0 for
// anything else.
func lenientNumber(b []byte) float64 {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return 0
	}
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		n = parsed
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// Level is a level document as stored, decorated by the catalog loader
// with its rank, path and packs.
type Level struct {
	ID                 LevelID  `json:"id"`
	Name               string   `json:"name"`
	Author             string   `json:"author"`
	Creators           []string `json:"creators"`
	Verifier           string   `json:"verifier"`
	Verification       string   `json:"verification"`
	Showcase           string   `json:"showcase,omitempty"`
	Description        string   `json:"description,omitempty"`
	GDLevelDescription string   `json:"gdleveldescription,omitempty"`
	PercentToQualify   float64  `json:"percentToQualify"`
	Records            []Record `json:"records"`

	// Set by the loader.
	Path    string `json:"path"`
	Rank    int    `json:"rank,omitempty"`
	Pending bool   `json:"pending,omitempty"`
	Packs   []Pack `json:"packs"`
}

// Validate checks the fields the aggregator relies on.
func (l *Level) Validate() error {
	switch {
	case l.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidLevel)
	case l.Verifier == "":
		return fmt.Errorf("%w: missing verifier", ErrInvalidLevel)
	case l.PercentToQualify < 0 || l.PercentToQualify > FullCompletion:
		return fmt.Errorf("%w: percentToQualify %v out of range", ErrInvalidLevel, l.PercentToQualify)
	}
	for i, r := range l.Records {
		if r.Percent < 0 || r.Percent > FullCompletion {
			return fmt.Errorf("%w: record %d (%s) percent %v out of range", ErrInvalidLevel, i, r.User, r.Percent)
		}
	}
	return nil
}

// Ranked reports whether the level holds a list position.
func (l *Level) Ranked() bool { return l.Rank > 0 }

// LevelResult is one catalog position after loading. Err holds the catalog
// identifier when the level document could not be loaded; Level is nil then.
type LevelResult struct {
	Err   string `json:"error,omitempty"`
	Rank  int    `json:"rank,omitempty"`
	Level *Level `json:"level"`
}

// Failed reports whether the level document failed to load.
func (r LevelResult) Failed() bool { return r.Err != "" }
