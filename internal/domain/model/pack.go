package model

// Pack is a named group of levels. Completing every level of a pack earns
// its badge.
type Pack struct {
	Name   string   `json:"name"`
	Colour string   `json:"colour"`
	Levels []string `json:"levels"`
}

// Editor is an entry of the editors document.
type Editor struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Link string `json:"link,omitempty"`
}

// PackLevel is one level of a pack with its position on the list.
type PackLevel struct {
	Err      string `json:"error,omitempty"`
	Path     string `json:"path"`
	ListRank int    `json:"listRank,omitempty"`
	Level    *Level `json:"level"`
}
