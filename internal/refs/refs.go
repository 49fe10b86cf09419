// Package refs converts Spotify resource references between their four textual encodings.
//
// A reference to a track (or playlist, album, artist) can be written as
//
//	bare id   4uLU6hMCjMI75M1A2tKUQC
//	uri       spotify:track:4uLU6hMCjMI75M1A2tKUQC
//	url       https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC
//	href      https://api.spotify.com/v1/tracks/4uLU6hMCjMI75M1A2tKUQC
//
// [Caster.Cast] detects the encoding of its input and renders it in another. Everything here is pure.
package refs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/sung/internal/shared"
)

// Kind is one of the four reference encodings.
type Kind string

const (
	KindID   Kind = "id"
	KindURI  Kind = "uri"
	KindURL  Kind = "url"
	KindHref Kind = "href"
)

// detectionOrder is the order in which input encodings are tried.
var detectionOrder = []Kind{KindURI, KindID, KindURL, KindHref}

// Kinds returns every supported [Kind].
func Kinds() []Kind {
	return []Kind{KindID, KindURI, KindURL, KindHref}
}

// ParseKind maps a name such as "uri" to its [Kind].
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q (expected one of id, uri, url, href)", shared.ErrUnsupportedKind, s)
	}
	return k, nil
}

// Valid reports whether k is a supported encoding.
func (k Kind) Valid() bool {
	switch k {
	case KindID, KindURI, KindURL, KindHref:
		return true
	}
	return false
}

const idPattern = `[0-9A-Za-z]{22}`

// Caster converts references for one entity type, e.g. tracks.
type Caster struct {
	entity     string
	collection string
	patterns   map[Kind]*regexp.Regexp
}

// NewCaster builds a [Caster] for the entity with the given singular name ("track") and API collection
// name ("tracks").
func NewCaster(entity, collection string) *Caster {
	return &Caster{
		entity:     entity,
		collection: collection,
		patterns: map[Kind]*regexp.Regexp{
			KindURI:  regexp.MustCompile(`^spotify:` + entity + `:(` + idPattern + `)$`),
			KindID:   regexp.MustCompile(`^(` + idPattern + `)$`),
			KindURL:  regexp.MustCompile(`^https://open\.spotify\.com/` + entity + `/(` + idPattern + `)$`),
			KindHref: regexp.MustCompile(`^https://api\.spotify\.com/v1/` + collection + `/(` + idPattern + `)$`),
		},
	}
}

var (
	Track    = NewCaster("track", "tracks")
	Playlist = NewCaster("playlist", "playlists")
	Album    = NewCaster("album", "albums")
	Artist   = NewCaster("artist", "artists")
)

// Detect returns the encoding of ref and its bare id.
//
// Encodings are tried in the order uri, id, url, href. URL and href inputs may carry a query string,
// as share links do, which is dropped.
func (c *Caster) Detect(ref string) (Kind, string, error) {
	for _, kind := range detectionOrder {
		if id, ok := c.match(ref, kind); ok {
			return kind, id, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q is not a %s id, uri, url or href", shared.ErrInvalidReference, ref, c.entity)
}

func (c *Caster) match(ref string, kind Kind) (string, bool) {
	if kind == KindURL || kind == KindHref {
		if i := strings.IndexByte(ref, '?'); i >= 0 {
			ref = ref[:i]
		}
	}
	m := c.patterns[kind].FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Cast renders ref in the target encoding.
//
// The source encoding is detected unless given explicitly, in which case ref must match it.
// An unknown target fails with [shared.ErrUnsupportedKind]; an unrecognized ref with
// [shared.ErrInvalidReference].
func (c *Caster) Cast(ref string, target Kind, src ...Kind) (string, error) {
	if !target.Valid() {
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedKind, target)
	}

	var id string
	if len(src) > 0 && src[0] != "" {
		if !src[0].Valid() {
			return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedKind, src[0])
		}
		var ok bool
		if id, ok = c.match(ref, src[0]); !ok {
			return "", fmt.Errorf("%w: %q is not a %s %s", shared.ErrInvalidReference, ref, c.entity, src[0])
		}
	} else {
		var err error
		if _, id, err = c.Detect(ref); err != nil {
			return "", err
		}
	}

	return c.Render(id, target), nil
}

// Render formats a bare id in the target encoding. The id is not validated.
func (c *Caster) Render(id string, target Kind) string {
	switch target {
	case KindURI:
		return "spotify:" + c.entity + ":" + id
	case KindURL:
		return "https://open.spotify.com/" + c.entity + "/" + id
	case KindHref:
		return "https://api.spotify.com/v1/" + c.collection + "/" + id
	default:
		return id
	}
}

// ID returns the bare id of ref.
func (c *Caster) ID(ref string) (string, error) {
	return c.Cast(ref, KindID)
}

// IDs canonicalizes every ref to its bare id, failing on the first unrecognized one.
func (c *Caster) IDs(refs []string) ([]string, error) {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		id, err := c.ID(ref)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// CastTrack converts a track reference to the target encoding.
func CastTrack(ref string, target Kind, src ...Kind) (string, error) {
	return Track.Cast(ref, target, src...)
}

// TrackID returns the bare id of a track reference.
func TrackID(ref string) (string, error) {
	return Track.ID(ref)
}

// PlaylistID returns the bare id of a playlist reference given in any of the four encodings.
func PlaylistID(ref string) (string, error) {
	return Playlist.ID(ref)
}

// PlaylistURL returns the open.spotify.com address of a playlist.
func PlaylistURL(id string) string {
	return Playlist.Render(id, KindURL)
}
