// package formatter renders track tables as CSV, Markdown, plain text, JSON or a terminal table
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
	"github.com/mattn/go-runewidth"
)

// Format names an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// DefaultCellWidth is the widest a terminal table cell may be before it is truncated.
const DefaultCellWidth = 40

// Formats lists every supported [Format].
func Formats() []Format {
	return []Format{FormatTable, FormatCSV, FormatMarkdown, FormatText, FormatJSON}
}

// ParseFormat parses a format name. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want one of %v)", shared.ErrInvalidFlag, s, Formats())
}

// Options tune rendering.
type Options struct {
	Title     string // heading for Markdown and text output
	CellWidth int    // terminal cell width; defaults to [DefaultCellWidth]
}

// Write renders t to w in format f.
func Write(w io.Writer, t *tracks.Table, f Format, opts Options) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatTable:
		data = []byte(ToTerminal(t, opts.CellWidth) + "\n")
	case FormatCSV:
		data, err = ToCSV(t)
	case FormatMarkdown:
		data, err = ToMarkdown(t, opts.Title)
	case FormatText:
		data, err = ToText(t, opts.Title)
	case FormatJSON:
		data, err = ToJSON(t)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Cell renders one table value as text. Lists are joined with ", " and objects are rendered as JSON.
func Cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = Cell(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func records(t *tracks.Table) [][]string {
	out := make([][]string, len(t.Rows))
	for i := range t.Rows {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = Cell(t.Value(i, col))
		}
		out[i] = row
	}
	return out
}

// ToCSV renders t as CSV with a header row.
func ToCSV(t *tracks.Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records(t) {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ToMarkdown renders t as a Markdown table, under a heading when title is set.
func ToMarkdown(t *tracks.Table, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", t.Len())

	escape := strings.NewReplacer("|", `\|`, "\n", " ")
	row := func(cells []string) {
		buf.WriteString("|")
		for _, c := range cells {
			buf.WriteString(" " + escape.Replace(c) + " |")
		}
		buf.WriteString("\n")
	}

	row(t.Columns)
	sep := make([]string, len(t.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	row(sep)
	for _, record := range records(t) {
		row(record)
	}
	return buf.Bytes(), nil
}

// ToText renders t as a numbered track list: "1. Artist - Name [m:ss]".
func ToText(t *tracks.Table, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", t.Len())

	for i := range t.Rows {
		artist := Cell(t.Value(i, "first_artist"))
		name := Cell(t.Value(i, "name"))
		fmt.Fprintf(&buf, "%d. %s - %s", i+1, artist, name)
		if ms, ok := t.Value(i, "duration_ms").(float64); ok {
			fmt.Fprintf(&buf, " [%s]", shared.FormatDuration(int(ms)))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ToJSON renders t as an array of objects holding the table's columns.
func ToJSON(t *tracks.Table) ([]byte, error) {
	rows := make([]map[string]any, len(t.Rows))
	for i := range t.Rows {
		row := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			row[col] = t.Value(i, col)
		}
		rows[i] = row
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
)

// ToTerminal renders t as a bordered terminal table. Cells wider than cellWidth display columns are
// truncated with an ellipsis.
func ToTerminal(t *tracks.Table, cellWidth int) string {
	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}

	truncate := func(row []string) []string {
		out := make([]string, len(row))
		for j, c := range row {
			out[j] = runewidth.Truncate(c, cellWidth, "…")
		}
		return out
	}

	rows := records(t)
	for i, row := range rows {
		rows[i] = truncate(row)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(truncate(t.Columns)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// Export writes t to path in format f, creating parent directories as needed.
func Export(t *tracks.Table, path string, f Format, opts Options) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	return Write(file, t, f, opts)
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when imageURL is set and downloads, {dir}/cover.jpg.
//
// A failed cover download is not an error; the README is written without it.
func WriteMarkdownExport(t *tracks.Table, outputDir, title, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory", shared.ErrMissingArgument)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var cover string
	if imageURL != "" {
		if data, err := DownloadImage(imageURL); err == nil {
			path := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err == nil {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	md, err := ToMarkdown(t, title)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}
	if cover != "" {
		md = append([]byte(fmt.Sprintf("![Cover](%s)\n\n", cover)), md...)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}
