package platform

import "strings"

// Meta is how a catalog presents itself in replies and which names resolve to it.
type Meta struct {
	Name        string
	DisplayName string
	Emoji       string
	Aliases     []string
}

// MetadataProvider is implemented by catalogs that have more than a bare name.
type MetadataProvider interface {
	Metadata() Meta
}

// Label renders "<emoji> <display name>", e.g. "🟢 Spotify".
func (m Meta) Label() string {
	label := strings.TrimSpace(m.DisplayName)
	if label == "" {
		label = m.Name
	}
	if m.Emoji != "" {
		label = m.Emoji + " " + label
	}
	return label
}

// normalizeAlias folds "@Spotify " and "spotify" onto the same key.
func normalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(alias), "@"))
}
