package platform

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/spotelegramify/spotelegramify-go/bot/platform/registry"
)

// LinkKind is the kind of resource a link points to.
type LinkKind string

const (
	KindTrack    LinkKind = "track"
	KindAlbum    LinkKind = "album"
	KindPlaylist LinkKind = "playlist"
)

// Link is one catalog link found in a message.
type Link struct {
	Catalog string
	Kind    LinkKind
	ID      string
}

func (l Link) key() string {
	return l.Catalog + "/" + string(l.Kind) + "/" + l.ID
}

// FindTrackIDs returns the first capture group of every pattern match, left to right.
// Duplicates are kept. A nil pattern or no match yields an empty slice.
func FindTrackIDs(text string, pattern *regexp.Regexp) []string {
	return findIDs(text, pattern)
}

// FindAlbumIDs is FindTrackIDs for album patterns.
func FindAlbumIDs(text string, pattern *regexp.Regexp) []string {
	return findIDs(text, pattern)
}

func findIDs(text string, pattern *regexp.Regexp) []string {
	ids := []string{}
	if pattern == nil || text == "" {
		return ids
	}
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 && m[1] != "" {
			ids = append(ids, m[1])
		}
	}
	return ids
}

// DedupeLinks drops repeated links, keeping the first occurrence.
func DedupeLinks(links []Link) []Link {
	seen := make(map[string]struct{}, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l.key()]; ok {
			continue
		}
		seen[l.key()] = struct{}{}
		out = append(out, l)
	}
	return out
}

func linksFromMatches(matches []registry.Match) []Link {
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		kind := LinkKind(m.Kind)
		if kind != KindTrack && kind != KindAlbum {
			continue
		}
		links = append(links, Link{Catalog: m.Source, Kind: kind, ID: m.ID})
	}
	return links
}

// catalogSource adapts a Catalog to registry.Source.
// A link matched by several patterns (a Tidal track URL nested under its album)
// is reported once, as the first kind in track, album, playlist order.
type catalogSource struct {
	catalog Catalog
}

func (s catalogSource) Name() string {
	return s.catalog.Name()
}

func (s catalogSource) Match(text string) []registry.Match {
	var out []registry.Match
	claimed := make(map[int]struct{})
	patterns := []struct {
		kind    LinkKind
		pattern *regexp.Regexp
	}{
		{KindTrack, s.catalog.TrackPattern()},
		{KindAlbum, s.catalog.AlbumPattern()},
		{KindPlaylist, s.catalog.PlaylistPattern()},
	}
	for _, p := range patterns {
		if p.pattern == nil {
			continue
		}
		for _, idx := range p.pattern.FindAllStringSubmatchIndex(text, -1) {
			if len(idx) < 4 || idx[2] < 0 {
				continue
			}
			if _, ok := claimed[idx[0]]; ok {
				continue
			}
			claimed[idx[0]] = struct{}{}
			out = append(out, registry.Match{
				Source: s.catalog.Name(),
				Kind:   string(p.kind),
				ID:     text[idx[2]:idx[3]],
				Offset: idx[0],
			})
		}
	}
	return out
}

// NormalizeQuery lowercases s, drops every rune that is not a letter, digit or
// whitespace, and collapses whitespace runs.
func NormalizeQuery(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
