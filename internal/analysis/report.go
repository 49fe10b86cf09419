package analysis

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ReportOptions size the sections of [Analysis.Report].
type ReportOptions struct {
	Title        string
	TopSongs     int
	TopArtists   int
	TopPerLetter int
	Now          func() time.Time
}

// DefaultReportOptions returns the section sizes used by `sung playlist analyze`.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{TopSongs: 20, TopArtists: 25, TopPerLetter: 5, Now: time.Now}
}

// Report writes a Markdown summary of the analysis to w.
func (a *Analysis) Report(w io.Writer, opts ReportOptions) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var buf bytes.Buffer
	if opts.Title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", opts.Title)
	}

	fmt.Fprintf(&buf, "**Songs**: %s\n", humanize.Comma(int64(a.NumberOfSongs())))
	fmt.Fprintf(&buf, "**Unique names**: %s\n", humanize.Comma(int64(a.NumberOfUniqueNames())))
	if last := a.lastAdded(); !last.IsZero() {
		fmt.Fprintf(&buf, "**Last added**: %s (%s)\n", last.Format(time.DateOnly), humanize.RelTime(last, opts.Now(), "ago", "from now"))
	}
	if years := a.SongsByReleaseYear(); len(years) > 0 {
		fmt.Fprintf(&buf, "**Release years**: %d to %d\n", years[0].Year, years[len(years)-1].Year)
	}

	if dups := a.Duplicates(); len(dups) > 0 {
		buf.WriteString("\n## Duplicates\n\n| name | count |\n| --- | --- |\n")
		for _, d := range dups {
			fmt.Fprintf(&buf, "| %s | %d |\n", cell(d.Key), d.Count)
		}
	}

	if opts.TopSongs > 0 {
		buf.WriteString("\n## Most popular\n\n| # | name | first_artist | popularity |\n| --- | --- | --- | --- |\n")
		for i, t := range a.MostPopular(opts.TopSongs) {
			fmt.Fprintf(&buf, "| %s | %s | %s | %d |\n", humanize.Ordinal(i+1), cell(t.Name), cell(t.FirstArtist), t.Popularity)
		}
	}

	if opts.TopArtists > 0 {
		buf.WriteString("\n## Top artists\n\n| artist | songs |\n| --- | --- |\n")
		artists := a.ArtistCounts()
		for _, c := range artists[:min(opts.TopArtists, len(artists))] {
			fmt.Fprintf(&buf, "| %s | %d |\n", cell(c.Key), c.Count)
		}
	}

	if years := a.SongsByReleaseYear(); len(years) > 0 {
		buf.WriteString("\n## Songs per release year\n\n| year | songs | first |\n| --- | --- | --- |\n")
		for _, g := range years {
			fmt.Fprintf(&buf, "| %d | %d | %s |\n", g.Year, len(g.Tracks), cell(g.Tracks[0].NameAndArtist()))
		}
	}

	if letters := a.FirstLetterCounts(); len(letters) > 0 {
		buf.WriteString("\n## First letters\n\n")
		parts := make([]string, len(letters))
		for i, c := range letters {
			parts[i] = fmt.Sprintf("%s: %d", strings.ToUpper(c.Key), c.Count)
		}
		buf.WriteString(strings.Join(parts, ", ") + "\n")
	}

	if opts.TopPerLetter > 0 {
		buf.WriteString("\n## Top names by letter\n")
		for _, g := range a.TopNamesByLetter(opts.TopPerLetter) {
			fmt.Fprintf(&buf, "\n%s (%d tracks):\n", strings.ToUpper(g.Letter), len(g.Tracks))
			for _, t := range g.Tracks {
				fmt.Fprintf(&buf, "  - (%d) %s\n", t.Popularity, t.Name)
			}
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (a *Analysis) lastAdded() time.Time {
	var last time.Time
	for _, t := range a.tracks {
		if d, err := time.Parse(time.DateOnly, t.AddedAtDate); err == nil && d.After(last) {
			last = d
		}
	}
	return last
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
