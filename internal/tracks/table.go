package tracks

import (
	"context"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/sung/internal/extract"
)

// DefaultFrontColumns are pinned, in this order, ahead of all other columns of a [Table].
var DefaultFrontColumns = []string{
	"name",
	"first_artist",
	"artist_names",
	"duration_ms",
	"popularity",
	"explicit",
	"album_name",
	"album_release_date",
	"album_release_year",
	"added_at_date",
	"url",
	"id",
}

var (
	firstArtist = extract.MustCompile("artists.0.name")
	artistNames = extract.MustCompile("artists.*.name")
	albumName   = extract.MustCompile("album.name")
	releaseDate = extract.MustCompile("album.release_date")
	spotifyURL  = extract.MustCompile("external_urls.spotify")
)

// Row is one track of a [Table], keyed by its bare id.
type Row struct {
	ID     string
	Values map[string]any
}

// Table is a column-ordered projection of track metadata.
type Table struct {
	Columns []string
	Rows    []Row
}

// TableOption configures [BuildTable].
type TableOption func(*tableConfig)

type tableConfig struct {
	front   []string
	addedAt map[string]string
}

// WithFrontColumns replaces [DefaultFrontColumns].
func WithFrontColumns(cols ...string) TableOption {
	return func(c *tableConfig) { c.front = cols }
}

// WithAddedAt supplies the time each track id was added to a playlist. It feeds the added_at and
// added_at_date columns.
func WithAddedAt(addedAt map[string]string) TableOption {
	return func(c *tableConfig) { c.addedAt = addedAt }
}

// BuildTable projects metas to a [Table].
//
// Every top-level field becomes a column, together with derived ones (first_artist, artist_names,
// album_name, album_release_date, album_release_year, url, first_letter and, when known, added_at and
// added_at_date). The front columns present in the data come first; the rest follow in the API's own
// key order, which is alphabetical.
func BuildTable(metas []Metadata, opts ...TableOption) *Table {
	cfg := tableConfig{front: DefaultFrontColumns}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Table{Rows: make([]Row, len(metas))}
	seen := map[string]bool{}
	var rest []string

	for i, m := range metas {
		values := derive(m, cfg.addedAt)
		id, _ := values["id"].(string)
		t.Rows[i] = Row{ID: id, Values: values}

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}

	for _, col := range cfg.front {
		if seen[col] {
			t.Columns = append(t.Columns, col)
		}
	}
	for _, col := range rest {
		if !slices.Contains(cfg.front, col) {
			t.Columns = append(t.Columns, col)
		}
	}
	return t
}

func derive(m Metadata, addedAt map[string]string) map[string]any {
	values := make(map[string]any, len(m)+8)
	for k, v := range m {
		values[k] = v
	}

	set := func(k string, v any) {
		if _, exists := values[k]; !exists && v != nil {
			values[k] = v
		}
	}

	if v, ok := firstArtist.Lookup(m); ok {
		set("first_artist", v)
	}
	if v, ok := artistNames.Lookup(m); ok {
		names := make([]string, 0)
		for _, n := range v.([]any) {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
		set("artist_names", strings.Join(names, ", "))
	}
	if v, ok := albumName.Lookup(m); ok {
		set("album_name", v)
	}
	if v, ok := releaseDate.Lookup(m); ok {
		set("album_release_date", v)
		if s, ok := v.(string); ok && len(s) >= 4 {
			set("album_release_year", s[:4])
		}
	}
	if v, ok := spotifyURL.Lookup(m); ok {
		set("url", v)
	}
	if name, ok := m["name"].(string); ok && name != "" {
		r, _ := utf8.DecodeRuneInString(name)
		set("first_letter", string(unicode.ToUpper(r)))
	}
	if id, ok := m["id"].(string); ok && addedAt != nil {
		if at, ok := addedAt[id]; ok && at != "" {
			set("added_at", at)
			if len(at) >= 10 {
				set("added_at_date", at[:10])
			}
		}
	}
	return values
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Value returns the value of col in row i, or nil.
func (t *Table) Value(i int, col string) any {
	return t.Rows[i].Values[col]
}

// Column returns every row's value for col.
func (t *Table) Column(col string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[col]
	}
	return out
}

// Select returns a table restricted to cols, in the given order. Unknown columns are kept and hold nil.
func (t *Table) Select(cols ...string) *Table {
	return &Table{Columns: slices.Clone(cols), Rows: t.Rows}
}

// MoveToFront reorders the columns so that cols, where present, come first.
func (t *Table) MoveToFront(cols ...string) {
	var front, rest []string
	for _, c := range cols {
		if slices.Contains(t.Columns, c) && !slices.Contains(front, c) {
			front = append(front, c)
		}
	}
	for _, c := range t.Columns {
		if !slices.Contains(front, c) {
			rest = append(rest, c)
		}
	}
	t.Columns = append(front, rest...)
}

// Table projects the tracks selected by key. A nil key selects every track.
func (c *Collection) Table(ctx context.Context, key Key, opts ...TableOption) (*Table, error) {
	if key == nil {
		key = BySlice{}
	}
	metas, err := c.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	return BuildTable(metas, opts...), nil
}
