package chords

import (
	"bytes"
	"errors"
	"testing"

	"github.com/desertthunder/sung/internal/shared"
)

func TestPageSizes(t *testing.T) {
	size, err := LookupPageSize(" letter ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if size != (PageSize{612, 792}) {
		t.Errorf("expected 612x792, got %v", size)
	}

	if _, err := LookupPageSize("B5"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	if got := len(PageSizes()); got != 5 {
		t.Errorf("expected 5 page sizes, got %d", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := map[string][3]int{
		"red":     {255, 0, 0},
		" Navy ":  {0, 0, 128},
		"#1a2B3c": {26, 43, 60},
		"#12345":  {0, 0, 0},
		"magenta": {0, 0, 0},
	}
	for in, want := range tests {
		r, g, b := ParseColor(in)
		if got := [3]int{r, g, b}; got != want {
			t.Errorf("ParseColor(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestCoreFont(t *testing.T) {
	tests := []struct {
		name, family, style string
	}{
		{"Courier", "Courier", ""},
		{"Courier-Bold", "Courier", "B"},
		{"Helvetica-BoldOblique", "Helvetica", "BI"},
		{"Times-Roman", "Times", ""},
		{"Times-Italic", "Times", "I"},
	}
	for _, tt := range tests {
		family, style, err := coreFont(tt.name)
		if err != nil || family != tt.family || style != tt.style {
			t.Errorf("coreFont(%q): expected %s/%s, got %s/%s (%v)", tt.name, tt.family, tt.style, family, style, err)
		}
	}

	for _, name := range []string{"Comic Sans", "Courier-Wide"} {
		if _, _, err := coreFont(name); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("coreFont(%q): expected ErrInvalidArgument, got %v", name, err)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	t.Run("paginates", func(t *testing.T) {
		song := make([]Section, 100)
		for i := range song {
			song[i] = Section{Chords: []Chord{{"G", 0}}, Lyrics: "la la la"}
		}

		pdf, err := buildPDF(song, PDFOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pdf.PageCount() != 5 {
			t.Errorf("expected 5 pages, got %d", pdf.PageCount())
		}
	})

	t.Run("writes a document", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PDFOptions{
			Title:      "Let It Be",
			PageSize:   "A5",
			LyricsFont: FontSpec{Size: 14, Color: "#336699", Alpha: 0.8},
		}
		if err := RenderPDF(&buf, Parse(letItBe), opts); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Error("expected PDF header")
		}
	})

	t.Run("invalid options", func(t *testing.T) {
		tests := map[string]PDFOptions{
			"page size": {PageSize: "B5"},
			"font":      {ChordFont: FontSpec{Name: "Papyrus"}},
			"alpha":     {TitleFont: FontSpec{Alpha: 2}},
			"size":      {LyricsFont: FontSpec{Size: -1}},
		}
		for name, opts := range tests {
			var buf bytes.Buffer
			if err := RenderPDF(&buf, Parse(letItBe), opts); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
			}
		}
	})

	t.Run("from config", func(t *testing.T) {
		opts := PDFOptionsFromConfig(shared.DefaultConfig().Render)
		l, err := opts.resolve()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if l.chord != DefaultChordFont || l.page != pageSizes["A4"] || l.margin != 72 {
			t.Errorf("expected config defaults to match built-in defaults, got %+v", l)
		}
	})
}
