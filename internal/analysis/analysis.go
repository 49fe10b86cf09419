// Package analysis summarizes a table of tracks: duplicates, popularity, artists, release years and
// first letters, with a Markdown report.
package analysis

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/sung/internal/tracks"
)

// Track is the subset of a table row the analysis reads.
type Track struct {
	ID          string
	Name        string
	FirstArtist string
	Popularity  int
	ReleaseDate string // normalized to YYYY-MM-DD when possible
	ReleaseYear int
	AddedAtDate string
}

// NameAndArtist renders "name -- artist".
func (t Track) NameAndArtist() string {
	return t.Name + " -- " + t.FirstArtist
}

// Count pairs a key with the number of tracks it appears on.
type Count struct {
	Key   string
	Count int
}

// YearGroup lists the tracks released in one year.
type YearGroup struct {
	Year   int
	Tracks []Track
}

// LetterGroup lists tracks whose names start with Letter, most popular first.
type LetterGroup struct {
	Letter string
	Tracks []Track
}

// Analysis holds the tracks of a table, most recently added first.
type Analysis struct {
	tracks []Track
}

// New builds an analysis from a table produced by [tracks.BuildTable].
func New(t *tracks.Table) *Analysis {
	out := make([]Track, t.Len())
	for i := range t.Rows {
		str := func(col string) string {
			s, _ := t.Value(i, col).(string)
			return s
		}

		tr := Track{
			ID:          t.Rows[i].ID,
			Name:        str("name"),
			FirstArtist: str("first_artist"),
			ReleaseDate: NormalizeDate(str("album_release_date")),
			AddedAtDate: str("added_at_date"),
		}
		if p, ok := t.Value(i, "popularity").(float64); ok {
			tr.Popularity = int(p)
		}
		if len(tr.ReleaseDate) >= 4 {
			tr.ReleaseYear, _ = strconv.Atoi(tr.ReleaseDate[:4])
		}
		out[i] = tr
	}

	slices.SortStableFunc(out, func(a, b Track) int {
		return cmp.Compare(b.AddedAtDate, a.AddedAtDate)
	})
	return &Analysis{tracks: out}
}

// NormalizeDate rewrites "2006" and "2006-01" release dates as "2006-01-01". Other values are returned
// unchanged.
func NormalizeDate(s string) string {
	for _, layout := range []string{time.DateOnly, "2006", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return s
}

// Tracks returns the analyzed tracks, most recently added first.
func (a *Analysis) Tracks() []Track {
	return slices.Clone(a.tracks)
}

// Names lists every track name, duplicates included.
func (a *Analysis) Names() []string {
	names := make([]string, len(a.tracks))
	for i, t := range a.tracks {
		names[i] = t.Name
	}
	return names
}

// NumberOfSongs is the number of tracks.
func (a *Analysis) NumberOfSongs() int {
	return len(a.tracks)
}

// UniqueNames lists distinct track names, sorted.
func (a *Analysis) UniqueNames() []string {
	names := a.Names()
	slices.Sort(names)
	return slices.Compact(names)
}

// NumberOfUniqueNames is the number of distinct track names.
func (a *Analysis) NumberOfUniqueNames() int {
	return len(a.UniqueNames())
}

// NameCounts counts tracks per name.
func (a *Analysis) NameCounts() map[string]int {
	counts := make(map[string]int)
	for _, t := range a.tracks {
		counts[t.Name]++
	}
	return counts
}

// Duplicates lists names that appear more than once, most frequent first.
func (a *Analysis) Duplicates() []Count {
	var out []Count
	for _, c := range sortCounts(a.NameCounts()) {
		if c.Count > 1 {
			out = append(out, c)
		}
	}
	return out
}

// MostPopular returns the n most popular tracks. Ties keep their order.
func (a *Analysis) MostPopular(n int) []Track {
	out := slices.Clone(a.tracks)
	slices.SortStableFunc(out, func(x, y Track) int { return cmp.Compare(y.Popularity, x.Popularity) })
	return out[:min(n, len(out))]
}

// ArtistCounts counts tracks per first artist, most frequent first.
func (a *Analysis) ArtistCounts() []Count {
	counts := make(map[string]int)
	for _, t := range a.tracks {
		if t.FirstArtist != "" {
			counts[t.FirstArtist]++
		}
	}
	return sortCounts(counts)
}

// SongsByReleaseYear groups tracks by album release year, oldest first. Tracks without a year are left out.
func (a *Analysis) SongsByReleaseYear() []YearGroup {
	byYear := make(map[int][]Track)
	for _, t := range a.tracks {
		if t.ReleaseYear > 0 {
			byYear[t.ReleaseYear] = append(byYear[t.ReleaseYear], t)
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.Sort(years)

	out := make([]YearGroup, len(years))
	for i, y := range years {
		out[i] = YearGroup{Year: y, Tracks: byYear[y]}
	}
	return out
}

// FirstLetter returns the lowercased first letter of name, or "".
func FirstLetter(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return ""
	}
	return string(unicode.ToLower(r))
}

// FirstLetterCounts counts track names by lowercased first letter, in letter order.
func (a *Analysis) FirstLetterCounts() []Count {
	counts := make(map[string]int)
	for _, t := range a.tracks {
		if l := FirstLetter(t.Name); l != "" {
			counts[l]++
		}
	}

	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	slices.SortFunc(out, func(x, y Count) int { return strings.Compare(x.Key, y.Key) })
	return out
}

// TopNamesByLetter returns, for each first letter, up to n tracks sorted by popularity.
func (a *Analysis) TopNamesByLetter(n int) []LetterGroup {
	groups := make(map[string][]Track)
	for _, t := range a.tracks {
		if l := FirstLetter(t.Name); l != "" {
			groups[l] = append(groups[l], t)
		}
	}

	out := make([]LetterGroup, 0, len(groups))
	for l, ts := range groups {
		slices.SortStableFunc(ts, func(x, y Track) int { return cmp.Compare(y.Popularity, x.Popularity) })
		out = append(out, LetterGroup{Letter: l, Tracks: ts[:min(n, len(ts))]})
	}
	slices.SortFunc(out, func(x, y LetterGroup) int { return strings.Compare(x.Letter, y.Letter) })
	return out
}

func sortCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	slices.SortFunc(out, func(x, y Count) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return strings.Compare(x.Key, y.Key)
	})
	return out
}
