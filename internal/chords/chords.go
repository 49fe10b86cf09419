// Package chords parses fixed-width chord sheets (a chord line above each lyric line) and renders them
// back to text or to PDF, optionally dropping non-lyric lines and packing short lines together.
package chords

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// DefaultLineLength is the widest line [Pack] builds when no length is given.
const DefaultLineLength = 80

var (
	chordToken = regexp.MustCompile(`^[A-G]\S*$`)
	token      = regexp.MustCompile(`\S+`)
	separator  = regexp.MustCompile(`^[-=_]{3,}$`)

	// widths measures display columns independently of the terminal locale.
	widths = func() *runewidth.Condition {
		c := runewidth.NewCondition()
		c.EastAsianWidth = false
		return c
	}()
)

// Chord is a chord name placed at a display column above its lyric line.
type Chord struct {
	Name string
	Col  int
}

// Section is one lyric line with the chords written above it, if any.
type Section struct {
	Chords []Chord
	Lyrics string
}

// IsChordLine reports whether every whitespace separated token of line looks like a chord (starts with
// A to G). Blank lines are not chord lines.
func IsChordLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !chordToken.MatchString(f) {
			return false
		}
	}
	return true
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.TrimSuffix(raw, "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

// Parse splits raw text into sections. A chord line followed by a line that is not a chord line becomes a
// single section; every other line is a section without chords.
func Parse(raw string) []Section {
	lines := splitLines(raw)
	out := make([]Section, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if IsChordLine(line) && i+1 < len(lines) && !IsChordLine(lines[i+1]) {
			var chords []Chord
			for _, loc := range token.FindAllStringIndex(line, -1) {
				chords = append(chords, Chord{
					Name: line[loc[0]:loc[1]],
					Col:  widths.StringWidth(line[:loc[0]]),
				})
			}
			out = append(out, Section{Chords: chords, Lyrics: lines[i+1]})
			i++
			continue
		}
		out = append(out, Section{Lyrics: line})
	}
	return out
}

// ExtractTitle returns the first line that is not blank, a [metadata] marker or a chord line.
func ExtractTitle(raw string) string {
	for _, line := range splitLines(raw) {
		txt := strings.TrimSpace(line)
		if txt == "" || strings.HasPrefix(txt, "[") || IsChordLine(line) {
			continue
		}
		return txt
	}
	return ""
}

// ChordLine renders the chords of s at their columns, without trailing spaces.
func (s Section) ChordLine() string {
	var b strings.Builder
	width := 0
	for _, c := range s.Chords {
		if c.Col > width {
			b.WriteString(strings.Repeat(" ", c.Col-width))
			width = c.Col
		} else if width > 0 {
			b.WriteByte(' ')
			width++
		}
		b.WriteString(c.Name)
		width += widths.StringWidth(c.Name)
	}
	return b.String()
}

// RenderText rebuilds fixed-width text from sections. For input without trailing whitespace,
// RenderText(Parse(raw)) reproduces raw.
func RenderText(song []Section) string {
	lines := make([]string, 0, len(song)*2)
	for _, s := range song {
		if len(s.Chords) > 0 {
			lines = append(lines, s.ChordLine())
		}
		lines = append(lines, s.Lyrics)
	}
	return strings.Join(lines, "\n")
}

func isMetadata(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "[")
}

// isUpper reports whether s has at least one cased letter and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// IsLikelyLyrics guesses whether line holds lyrics. Blank lines are kept as spacing; [metadata] markers,
// chord lines, short all-caps headers and separator rules are not lyrics. A line right after chords is
// always treated as lyrics.
func IsLikelyLyrics(line string, afterChords bool) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return true
	case strings.HasPrefix(line, "["):
		return false
	case IsChordLine(line):
		return false
	case afterChords:
		return true
	case isUpper(line) && utf8.RuneCountInString(line) < 20:
		return false
	case separator.MatchString(line):
		return false
	}
	return true
}

// FilterNonLyrics keeps sections with chords and sections that look like lyrics. [metadata] markers such
// as [Chorus] are kept only when keepMetadata is set.
func FilterNonLyrics(song []Section, keepMetadata bool) []Section {
	out := make([]Section, 0, len(song))
	afterChords := false
	for _, s := range song {
		switch {
		case len(s.Chords) > 0:
			out = append(out, s)
		case isMetadata(s.Lyrics):
			if keepMetadata {
				out = append(out, s)
			}
		case IsLikelyLyrics(s.Lyrics, afterChords):
			out = append(out, s)
		}
		afterChords = len(s.Chords) > 0
	}
	return out
}

// Pack joins consecutive chordless lyric lines with a space while the result fits in maxLength display
// columns. Sections with chords, blank lines and [metadata] markers are kept on their own line.
func Pack(song []Section, maxLength int) []Section {
	if maxLength <= 0 {
		maxLength = DefaultLineLength
	}

	out := make([]Section, 0, len(song))
	current := ""
	flush := func() {
		if strings.TrimSpace(current) != "" {
			out = append(out, Section{Lyrics: strings.TrimRight(current, " \t")})
		}
		current = ""
	}

	for _, s := range song {
		line := strings.TrimSpace(s.Lyrics)
		switch {
		case len(s.Chords) > 0, line == "", strings.HasPrefix(line, "["):
			flush()
			out = append(out, s)
		case current == "":
			current = line
		case widths.StringWidth(current)+1+widths.StringWidth(line) <= maxLength:
			current += " " + line
		default:
			flush()
			current = line
		}
	}
	flush()
	return out
}

// RemoveNonLyrics parses raw, filters it with [FilterNonLyrics] and renders the rest as text.
func RemoveNonLyrics(raw string, keepMetadata bool) string {
	return RenderText(FilterNonLyrics(Parse(raw), keepMetadata))
}

// PackText parses raw, packs it with [Pack] and renders it as text.
func PackText(raw string, maxLength int) string {
	return RenderText(Pack(Parse(raw), maxLength))
}
