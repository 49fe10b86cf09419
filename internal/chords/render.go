package chords

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/sung/internal/shared"
)

// Format is a chord sheet output format.
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

// ParseFormat parses a render format. "txt" is accepted for text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown render format %q", shared.ErrInvalidFlag, s)
}

// Options select the output format and the transformations applied before rendering.
type Options struct {
	Format          Format
	FilterNonLyrics bool
	KeepMetadata    bool // with FilterNonLyrics, keep [metadata] markers
	Pack            bool
	MaxLineLength   int // for Pack; defaults to [DefaultLineLength]
	PDF             PDFOptions
}

// Process parses raw and applies the filter and pack steps selected by opts.
func Process(raw string, opts Options) []Section {
	song := Parse(raw)
	if opts.FilterNonLyrics {
		song = FilterNonLyrics(song, opts.KeepMetadata)
	}
	if opts.Pack {
		song = Pack(song, opts.MaxLineLength)
	}
	return song
}

// Render processes raw and writes it to w in opts.Format. PDF output is titled with
// [ExtractTitle] unless opts.PDF.Title is set.
func Render(w io.Writer, raw string, opts Options) error {
	song := Process(raw, opts)

	switch opts.Format {
	case FormatText, "":
		if _, err := io.WriteString(w, RenderText(song)+"\n"); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
		return nil
	case FormatPDF:
		pdfOpts := opts.PDF
		if pdfOpts.Title == "" {
			pdfOpts.Title = ExtractTitle(raw)
		}
		return RenderPDF(w, song, pdfOpts)
	}
	return fmt.Errorf("%w: unknown render format %q", shared.ErrInvalidFlag, opts.Format)
}
